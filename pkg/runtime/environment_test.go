package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupWalksOuterChain(t *testing.T) {
	root := NewEnvironment()
	root.Define("x", NumberValue{Val: 1})
	child := root.NewChild()
	grandchild := child.NewChild()

	val, ok := grandchild.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, NumberValue{Val: 1}, val)

	_, ok = grandchild.Lookup("missing")
	assert.False(t, ok)
}

func TestDefineShadowsOnlyLocally(t *testing.T) {
	root := NewEnvironment()
	root.Define("x", NumberValue{Val: 1})
	child := root.NewChild()

	_, replaced := child.Define("x", NumberValue{Val: 2})
	assert.False(t, replaced, "outer binding is shadowed, not replaced")

	val, _ := child.Lookup("x")
	assert.Equal(t, NumberValue{Val: 2}, val)
	val, _ = root.Lookup("x")
	assert.Equal(t, NumberValue{Val: 1}, val)

	prev, replaced := child.Define("x", NumberValue{Val: 3})
	assert.True(t, replaced)
	assert.Equal(t, NumberValue{Val: 2}, prev)
}

func TestReleasePopsFrames(t *testing.T) {
	root := NewEnvironment()
	child := root.NewChild()
	child.Define("y", StringValue{Val: "inner"})
	grandchild := child.NewChild()
	assert.Equal(t, 3, root.Depth())

	child.Release()
	assert.Equal(t, 1, root.Depth())

	// releasing twice, or releasing the root, does nothing
	child.Release()
	grandchild.Release()
	root.Release()
	assert.Equal(t, 1, root.Depth())

	_, ok := root.Lookup("y")
	assert.False(t, ok)
}

func TestReleasedHandlePanics(t *testing.T) {
	root := NewEnvironment()
	stale := root.NewChild()
	stale.Release()
	fresh := root.NewChild()
	fresh.Define("z", NumberValue{Val: 9})

	assert.Panics(t, func() { stale.Lookup("z") })
	assert.Panics(t, func() { stale.Define("z", NilValue{}) })

	// the slot was reused by fresh, so releasing the stale handle must not pop it
	stale.Release()
	assert.Equal(t, 2, root.Depth())
	fresh.Release()
}

func TestChildOfAncestorSkipsSiblingBindings(t *testing.T) {
	root := NewEnvironment()
	caller := root.NewChild()
	caller.Define("local", NumberValue{Val: 5})

	sibling := root.NewChild()
	_, ok := sibling.Lookup("local")
	assert.False(t, ok)
	assert.Equal(t, root.index, sibling.Outer().index)

	sibling.Release()
	caller.Release()
}

func TestOuter(t *testing.T) {
	root := NewEnvironment()
	assert.Nil(t, root.Outer())
	child := root.NewChild()
	outer := child.Outer()
	require.NotNil(t, outer)
	outer.Define("from_child", NumberValue{Val: 1})
	_, ok := root.Lookup("from_child")
	assert.True(t, ok)
}

func TestSnapshotRestore(t *testing.T) {
	root := NewEnvironment()
	root.Define("a", NumberValue{Val: 1})
	snap := root.Snapshot()

	root.Define("a", NumberValue{Val: 2})
	root.Define("b", NumberValue{Val: 3})
	assert.Equal(t, []string{"a", "b"}, root.Keys())

	root.Restore(snap)
	assert.Equal(t, []string{"a"}, root.Keys())
	val, _ := root.Lookup("a")
	assert.Equal(t, NumberValue{Val: 1}, val)

	// the snapshot is a copy; later writes do not leak into it
	root.Define("c", NilValue{})
	assert.Len(t, snap, 1)
}
