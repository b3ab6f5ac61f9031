package clone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleus-run/nucleus/internal/clone"
	"github.com/nucleus-run/nucleus/internal/nuketype"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/script"
	"github.com/nucleus-run/nucleus/internal/symbol"
)

type stagedCall struct{ queueable, response *object.Ref }

type mockDispatcher struct{ staged []stagedCall }

func (m *mockDispatcher) Stage(queueable, response *object.Ref) {
	m.staged = append(m.staged, stagedCall{queueable, response})
}

var _ object.Dispatcher = (*mockDispatcher)(nil)

func localsSym(t *testing.T) *object.Ref {
	t.Helper()
	return nuketype.New(symbol.NewTable(), object.LocalsName)
}

func TestToThingDeepCopiesMembersWithDefaultReceiver(t *testing.T) {
	key := object.NewThing()
	value := object.NewThing()

	from := object.NewThing()
	locked := from.Lock()
	locked.Meta().Members.PushPair(key, value)
	locked.BumpMetaVersion()
	locked.Unlock()

	thing := clone.ToThing(from)
	require.NotSame(t, from, thing)

	// the copy already holds the pair...
	tl := thing.Lock()
	got, ok := tl.Meta().Members.LookupPair(key)
	recv := tl.Meta().Receiver
	tl.Unlock()
	require.True(t, ok)
	assert.Same(t, value, got)
	assert.NotNil(t, recv.Native)

	// ...and is unaffected by later mutation of the original's members.
	locked = from.Lock()
	locked.Meta().Members.PushPair(key, object.NewThing())
	locked.BumpMetaVersion()
	locked.Unlock()

	tl = thing.Lock()
	got, _ = tl.Meta().Members.LookupPair(key)
	tl.Unlock()
	assert.Same(t, value, got)
}

func TestStageableRejectsNonQueueables(t *testing.T) {
	ls := localsSym(t)

	_, ok := clone.Stageable(object.NewThing(), ls)
	assert.False(t, ok, "a plain thing is not stageable")

	_, ok = clone.Stageable(nuketype.New(symbol.NewTable(), "sym"), ls)
	assert.False(t, ok, "a symbol is not stageable")

	_, ok = clone.Stageable(object.NewLocals(ls), ls)
	assert.False(t, ok, "a locals object is not stageable")
}

func TestStageableExecutionGetsFreshLocalsSeededFromOriginal(t *testing.T) {
	ls := localsSym(t)
	exec := nuketype.Create(script.New(nil), ls)

	// bind something into the original's locals before cloning
	key := object.NewThing()
	value := object.NewThing()
	el := exec.Lock()
	origLocals, found := el.Meta().Members.LookupPair(ls)
	el.Unlock()
	require.True(t, found)

	ll := origLocals.Lock()
	ll.Meta().Members.PushPair(key, value)
	ll.BumpMetaVersion()
	ll.Unlock()

	cloned, ok := clone.Stageable(exec, ls)
	require.True(t, ok)
	require.NotSame(t, exec, cloned)

	cl := cloned.Lock()
	clonedLocals, found := cl.Meta().Members.LookupPair(ls)
	cl.Unlock()
	require.True(t, found)
	assert.NotSame(t, origLocals, clonedLocals, "a cloned execution's locals must be a fresh object")

	// seeded content carried over
	cll := clonedLocals.Lock()
	kind := cll.Payload().Kind()
	got, hit := cll.Meta().Members.LookupPair(key)
	cll.Unlock()
	assert.Equal(t, object.KindLocals, kind)
	require.True(t, hit)
	assert.Same(t, value, got)

	// mutating the original's locals after the clone leaves the clone alone
	ll = origLocals.Lock()
	ll.Meta().Members.PushPair(key, object.NewThing())
	ll.BumpMetaVersion()
	ll.Unlock()

	cll = clonedLocals.Lock()
	got, _ = cll.Meta().Members.LookupPair(key)
	cll.Unlock()
	assert.Same(t, value, got)
}

func TestStageableExecutionCloneDoesNotShareAdvanceState(t *testing.T) {
	ls := localsSym(t)
	root := script.New([]script.Instruction{
		{Op: script.Push, Literal: object.NewThing()},
		{Op: script.Combine},
	})
	exec := nuketype.Create(root, ls)

	cloned, ok := clone.Stageable(exec, ls)
	require.True(t, ok)

	// advance the original; the clone's pc must stay at 0
	el := exec.Lock()
	payload, isExec := object.TryCast[*nuketype.Execution](el)
	require.True(t, isExec)
	_, yielded := payload.Advance(exec, object.NewThing())
	el.Unlock()
	require.True(t, yielded)
	assert.Equal(t, 2, payload.PC())

	cl := cloned.Lock()
	clonedPayload, isExec := object.TryCast[*nuketype.Execution](cl)
	require.True(t, isExec)
	cl.Unlock()
	assert.Equal(t, 0, clonedPayload.PC())
	assert.Same(t, payload.Root(), clonedPayload.Root(), "the compiled script itself is shared")
}

func TestStageableCloneAtStartYieldsSameCombinations(t *testing.T) {
	ls := localsSym(t)
	subject := object.NewThing()
	message := object.NewThing()
	root := script.New([]script.Instruction{
		{Op: script.Discard},
		{Op: script.Push, Literal: subject},
		{Op: script.Push, Literal: message},
		{Op: script.Combine},
	})
	exec := nuketype.Create(root, ls)
	cloned, ok := clone.Stageable(exec, ls)
	require.True(t, ok)

	response := object.NewThing()

	el := exec.Lock()
	origExec, _ := object.TryCast[*nuketype.Execution](el)
	origC, origOK := origExec.Advance(exec, response)
	el.Unlock()

	cl := cloned.Lock()
	cloneExec, _ := object.TryCast[*nuketype.Execution](cl)
	cloneC, cloneOK := cloneExec.Advance(cloned, response)
	cl.Unlock()

	require.True(t, origOK)
	require.True(t, cloneOK)
	origSubject, _ := origC.Subject.ResolveNonLocals(exec)
	cloneSubject, _ := cloneC.Subject.ResolveNonLocals(cloned)
	assert.Same(t, origSubject, cloneSubject)
	assert.Same(t, origC.Message, cloneC.Message)
}

func TestStageableAlienDelegatesToCloneHook(t *testing.T) {
	ls := localsSym(t)
	var calls int
	alien := nuketype.NewOneshot(ls, func(object.Dispatcher, *object.Ref, *object.Ref) { calls++ })
	alien.SetTag("oneshot")

	cloned, ok := clone.Stageable(alien, ls)
	require.True(t, ok)
	require.NotSame(t, alien, cloned)
	assert.Equal(t, "oneshot", cloned.Tag(), "the advisory tag is carried onto the clone")

	cl := cloned.Lock()
	payload, isAlien := object.TryCast[*nuketype.Alien](cl)
	cl.Unlock()
	require.True(t, isAlien)

	payload.Realize(cloned, &mockDispatcher{}, object.NewThing())
	assert.Equal(t, 1, calls, "the cloned alien runs its own copy of the routine state")
}

func TestStageableWithDetailsSnapshotsVersions(t *testing.T) {
	ls := localsSym(t)
	exec := nuketype.Create(script.New(nil), ls)

	wantNuketype := exec.NuketypeVersion()
	wantMeta := exec.MetaVersion()

	details, ok := clone.StageableWithDetails(exec, ls)
	require.True(t, ok)
	assert.Equal(t, wantNuketype, details.NuketypeVersion)
	assert.Equal(t, wantMeta, details.MetaVersion)
	require.True(t, details.HasLocals)

	cl := details.Stageable.Lock()
	newLocals, found := cl.Meta().Members.LookupPair(ls)
	cl.Unlock()
	require.True(t, found)
	assert.Equal(t, newLocals.MetaVersion(), details.NewLocalsVersion)
}

func TestStageableWithDetailsAlienHasNoLocals(t *testing.T) {
	ls := localsSym(t)
	alien := nuketype.NewOneshot(ls, func(object.Dispatcher, *object.Ref, *object.Ref) {})

	details, ok := clone.StageableWithDetails(alien, ls)
	require.True(t, ok)
	assert.False(t, details.HasLocals)
}

func TestStageReceiverStagesCloneWithMessage(t *testing.T) {
	ls := localsSym(t)
	exec := nuketype.Create(script.New(nil), ls)
	caller := object.NewThing()
	message := object.NewThing()

	d := &mockDispatcher{}
	clone.StageReceiver(ls)(d, caller, exec, message)

	require.Len(t, d.staged, 1)
	assert.NotSame(t, exec, d.staged[0].queueable, "the subject itself must never be staged")
	assert.Same(t, message, d.staged[0].response)
}

func TestStageReceiverNonStageableSubjectDoesNotStage(t *testing.T) {
	ls := localsSym(t)
	d := &mockDispatcher{}
	clone.StageReceiver(ls)(d, object.NewThing(), object.NewThing(), object.NewThing())
	assert.Empty(t, d.staged)
}
