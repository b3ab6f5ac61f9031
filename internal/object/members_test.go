package object_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleus-run/nucleus/internal/object"
)

func TestMembersPushGetPop(t *testing.T) {
	var m object.Members
	a := object.NewThing()
	b := object.NewThing()

	m.Push(a)
	m.PushChild(b)

	require.Equal(t, 2, m.Len())
	rel0, ok := m.Get(0)
	require.True(t, ok)
	assert.Same(t, a, rel0.Target)
	assert.False(t, rel0.Child)

	rel1, ok := m.Get(1)
	require.True(t, ok)
	assert.Same(t, b, rel1.Target)
	assert.True(t, rel1.Child)

	popped, ok := m.Pop()
	require.True(t, ok)
	assert.Same(t, b, popped.Target)
	assert.Equal(t, 1, m.Len())
}

func TestMembersOutOfRangeGetIsHole(t *testing.T) {
	var m object.Members
	rel, ok := m.Get(5)
	assert.False(t, ok)
	assert.True(t, rel.IsHole())
}

func TestMembersSetExpandsWithHoles(t *testing.T) {
	var m object.Members
	target := object.NewThing()
	m.Set(3, target)

	require.Equal(t, 4, m.Len())
	for i := 0; i < 3; i++ {
		rel, ok := m.Get(i)
		require.True(t, ok)
		assert.True(t, rel.IsHole())
	}
	rel3, ok := m.Get(3)
	require.True(t, ok)
	assert.Same(t, target, rel3.Target)
}

func TestMembersInsertShiftsSubsequent(t *testing.T) {
	var m object.Members
	a, b, c := object.NewThing(), object.NewThing(), object.NewThing()
	m.Push(a)
	m.Push(c)
	m.Insert(1, b)

	require.Equal(t, 3, m.Len())
	rel0, _ := m.Get(0)
	rel1, _ := m.Get(1)
	rel2, _ := m.Get(2)
	assert.Same(t, a, rel0.Target)
	assert.Same(t, b, rel1.Target)
	assert.Same(t, c, rel2.Target)
}

func TestMembersRemoveShrinks(t *testing.T) {
	var m object.Members
	a, b := object.NewThing(), object.NewThing()
	m.Push(a)
	m.Push(b)

	removed, ok := m.Remove(0)
	require.True(t, ok)
	assert.Same(t, a, removed.Target)
	require.Equal(t, 1, m.Len())
	rel0, _ := m.Get(0)
	assert.Same(t, b, rel0.Target)
}

func TestMembersDeleteLeavesHoleWithoutShrinking(t *testing.T) {
	var m object.Members
	a, b := object.NewThing(), object.NewThing()
	m.Push(a)
	m.Push(b)

	deleted, ok := m.Delete(0)
	require.True(t, ok)
	assert.Same(t, a, deleted.Target)
	require.Equal(t, 2, m.Len())
	rel0, _ := m.Get(0)
	assert.True(t, rel0.IsHole())
}

func TestMembersOwnDisown(t *testing.T) {
	var m object.Members
	m.Push(object.NewThing())

	assert.False(t, m.IsOwned(0))
	m.Own(0)
	assert.True(t, m.IsOwned(0))
	m.Disown(0)
	assert.False(t, m.IsOwned(0))

	// out-of-range is a no-op, never panics
	m.Own(99)
	assert.False(t, m.IsOwned(99))
}

func TestMembersCloneIsIndependentButSharesTargets(t *testing.T) {
	var m object.Members
	target := object.NewThing()
	m.Push(target)
	m.Own(0)

	clone := m.Clone()
	clone.Push(object.NewThing())

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, clone.Len())
	rel, _ := clone.Get(0)
	assert.Same(t, target, rel.Target)
	assert.True(t, clone.IsOwned(0))
}

func TestMembersPushPairObeysNoughtyRule(t *testing.T) {
	var m object.Members
	key := object.NewThing()
	value := object.NewThing()
	m.PushPair(key, value)

	// index 0 is the reserved noughty hole
	rel0, ok := m.Get(0)
	require.True(t, ok)
	assert.True(t, rel0.IsHole())

	got, ok := m.LookupPair(key)
	require.True(t, ok)
	assert.Same(t, value, got)
}

func TestMembersLookupPairScansTailToHeadShadowingEarlierMatches(t *testing.T) {
	var m object.Members
	key := object.NewThing()
	first := object.NewThing()
	second := object.NewThing()

	m.PushPair(key, first)
	m.PushPair(key, second)

	got, ok := m.LookupPair(key)
	require.True(t, ok)
	assert.Same(t, second, got, "later pair with the same key shadows the earlier one")
}

func TestMembersLookupPairMissOnUnknownKey(t *testing.T) {
	var m object.Members
	m.PushPair(object.NewThing(), object.NewThing())

	_, ok := m.LookupPair(object.NewThing())
	assert.False(t, ok)
}

func TestMembersLookupPairWithPairReturnsMatchedPairObject(t *testing.T) {
	var m object.Members
	key := object.NewThing()
	value := object.NewThing()
	m.PushPair(key, value)

	pair, got, ok := m.LookupPairWithPair(key)
	require.True(t, ok)
	assert.Same(t, value, got)
	require.NotNil(t, pair)

	// the returned pair genuinely is the relationship target at index 1
	rel, _ := m.Get(1)
	assert.Same(t, rel.Target, pair)
}

func TestMembersLookupPairIndexReturnsTopLevelIndex(t *testing.T) {
	var m object.Members
	key := object.NewThing()
	value := object.NewThing()
	m.Push(object.NewThing()) // occupies index 0; PushPair's ExpandTo(1) is then a no-op
	m.PushPair(key, value)    // pair lands at index 1

	idx, got, ok := m.LookupPairIndex(key)
	require.True(t, ok)
	assert.Same(t, value, got)
	rel, _ := m.Get(idx)
	assert.Same(t, rel.Target, func() *object.Ref {
		p, _, _ := m.LookupPairWithPair(key)
		return p
	}())
}
