package runtime

import (
	"fmt"
	"sort"
)

const noOuter = -1

// Arena owns every environment frame of one interpreter. Frames are pushed
// and popped in strict stack order; a frame's outer link is the index of an
// ancestor that is still on the stack.
type Arena struct {
	frames []frame
	nextID uint64
}

type frame struct {
	values map[string]Value
	outer  int
	id     uint64
}

func (a *Arena) push(outer int) *Environment {
	a.nextID++
	a.frames = append(a.frames, frame{
		values: make(map[string]Value),
		outer:  outer,
		id:     a.nextID,
	})
	return &Environment{arena: a, index: len(a.frames) - 1, id: a.nextID}
}

// Environment is a handle on one frame of an Arena.
type Environment struct {
	arena *Arena
	index int
	id    uint64
}

// NewEnvironment creates a fresh arena holding only a root frame and
// returns the root's handle.
func NewEnvironment() *Environment {
	return (&Arena{}).push(noOuter)
}

func (e *Environment) frame() *frame {
	if e.index >= len(e.arena.frames) || e.arena.frames[e.index].id != e.id {
		panic(fmt.Sprintf("runtime: use of released environment frame %d", e.index))
	}
	return &e.arena.frames[e.index]
}

// Lookup resolves name in this frame, then each outer frame in turn.
func (e *Environment) Lookup(name string) (Value, bool) {
	e.frame()
	frames := e.arena.frames
	for idx := e.index; idx != noOuter; idx = frames[idx].outer {
		if v, ok := frames[idx].values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Define binds name in this frame only, shadowing any outer binding. It
// returns the value it replaced in this frame, if there was one.
func (e *Environment) Define(name string, value Value) (Value, bool) {
	f := e.frame()
	prev, replaced := f.values[name]
	f.values[name] = value
	return prev, replaced
}

// NewChild pushes a frame whose outer frame is e. The receiver must be the
// innermost live frame or an ancestor of it; frames above the new child's
// outer remain untouched.
func (e *Environment) NewChild() *Environment {
	e.frame()
	return e.arena.push(e.index)
}

// Release pops this frame and every frame pushed after it. Releasing the
// root frame is a no-op, as is releasing a frame twice.
func (e *Environment) Release() {
	if e.index == 0 {
		return
	}
	if e.index >= len(e.arena.frames) || e.arena.frames[e.index].id != e.id {
		return
	}
	for i := e.index; i < len(e.arena.frames); i++ {
		e.arena.frames[i] = frame{}
	}
	e.arena.frames = e.arena.frames[:e.index]
}

// Outer returns the handle of the enclosing frame (nil for the root).
func (e *Environment) Outer() *Environment {
	f := e.frame()
	if f.outer == noOuter {
		return nil
	}
	return &Environment{arena: e.arena, index: f.outer, id: e.arena.frames[f.outer].id}
}

// Depth reports how many frames are live in the arena.
func (e *Environment) Depth() int {
	return len(e.arena.frames)
}

// Snapshot returns a copy of this frame's bindings.
func (e *Environment) Snapshot() map[string]Value {
	f := e.frame()
	out := make(map[string]Value, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Restore replaces this frame's bindings with a copy of snap.
func (e *Environment) Restore(snap map[string]Value) {
	f := e.frame()
	values := make(map[string]Value, len(snap))
	for k, v := range snap {
		values[k] = v
	}
	f.values = values
}

// Keys returns this frame's binding names in sorted order.
func (e *Environment) Keys() []string {
	f := e.frame()
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
