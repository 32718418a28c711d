package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paren/interpreter-go/pkg/interpreter"
	"paren/interpreter-go/pkg/parser"
	"paren/interpreter-go/pkg/runtime"
)

type memoryRecorder struct {
	entries []Entry
}

func (m *memoryRecorder) Record(_ context.Context, e Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryRecorder) Entries(_ context.Context, session string) ([]Entry, error) {
	var out []Entry
	for _, e := range m.entries {
		if e.Session == session {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestSessionEval(t *testing.T) {
	ctx := context.Background()
	s := NewSession()
	assert.NotEmpty(t, s.ID())

	val, err := s.Eval(ctx, "(def f (x) (plus x 1))")
	require.NoError(t, err)
	assert.Equal(t, runtime.KindFunction, val.Kind())

	val, err = s.Eval(ctx, "(f 5)")
	require.NoError(t, err)
	assert.Equal(t, runtime.NumberValue{Val: 6}, val)
	assert.Equal(t, 2, s.Seq())
}

func TestSessionFailedUnitLeavesBindingsUnchanged(t *testing.T) {
	ctx := context.Background()
	s := NewSession()
	_, err := s.Eval(ctx, "(let x 1)")
	require.NoError(t, err)
	global := s.Interpreter().GlobalEnvironment()
	before := global.Keys()

	// let runs in the root before the failing argument, and must be undone
	_, err = s.Eval(ctx, `(list (let x 2) (let fresh 3) (plus x "oops"))`)
	require.Error(t, err)
	assert.Equal(t, "TypeMismatchError", interpreter.ErrorKind(err))

	assert.Equal(t, before, global.Keys())
	val, ok := global.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, runtime.NumberValue{Val: 1}, val)
	assert.Equal(t, 1, global.Depth())

	_, err = s.Eval(ctx, "(plus 1")
	assert.True(t, parser.IsIncomplete(err))
}

func TestSessionSurvivesRunawayRecursion(t *testing.T) {
	ctx := context.Background()
	rec := &memoryRecorder{}
	s := NewSession(
		WithInterpreter(interpreter.New(interpreter.WithMaxDepth(64))),
		WithRecorder(rec),
	)
	_, err := s.Eval(ctx, "(let x 7)")
	require.NoError(t, err)
	_, err = s.Eval(ctx, "(def spin (n) (scope (let x n) (spin n)))")
	require.NoError(t, err)

	_, err = s.Eval(ctx, "(spin 1)")
	var deep *interpreter.RecursionError
	require.True(t, errors.As(err, &deep), "got %v", err)
	assert.Equal(t, 64, deep.Limit)
	assert.Equal(t, 1, s.Interpreter().GlobalEnvironment().Depth())
	require.Len(t, rec.entries, 3)
	assert.Equal(t, "RecursionError", rec.entries[2].ErrorKind)

	val, err := s.Eval(ctx, "(plus x 1)")
	require.NoError(t, err)
	assert.Equal(t, runtime.NumberValue{Val: 8}, val)
}

func TestSessionRecordsEntries(t *testing.T) {
	ctx := context.Background()
	rec := &memoryRecorder{}
	s := NewSession(WithRecorder(rec), WithSessionID("fixed"))

	_, _ = s.Eval(ctx, `(let greeting "hi")`)
	_, _ = s.Eval(ctx, "(missing)")

	require.Len(t, rec.entries, 2)
	assert.Equal(t, Entry{Session: "fixed", Seq: 1, Input: `(let greeting "hi")`, Output: `"hi"`}, rec.entries[0])
	assert.Equal(t, "UnboundNameError", rec.entries[1].ErrorKind)
	assert.Equal(t, "unbound name 'missing'", rec.entries[1].Error)
	assert.Empty(t, rec.entries[1].Output)
}

func TestSessionEvalAll(t *testing.T) {
	ctx := context.Background()
	s := NewSession()
	var got []string
	err := s.EvalAll(ctx, "(let a 2)\n(let b (times a 3))\n b [a b]", func(unit string, val runtime.Value) {
		got = append(got, runtime.Format(val))
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "6", "6", "[2 6]"}, got)

	err = s.EvalAll(ctx, "(let c 1) (plus c", nil)
	require.Error(t, err)
	assert.True(t, parser.IsIncomplete(err))
	_, ok := s.Interpreter().GlobalEnvironment().Lookup("c")
	assert.True(t, ok, "units before the failure stay evaluated")

	err = s.EvalAll(ctx, "(id 1) (nope) (let never 1)", nil)
	var unbound *interpreter.UnboundNameError
	require.True(t, errors.As(err, &unbound))
	_, ok = s.Interpreter().GlobalEnvironment().Lookup("never")
	assert.False(t, ok)
}

func TestSessionEvalAllHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSession()
	err := s.EvalAll(ctx, "(let a 1)", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionLoadFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prelude.paren")
	require.NoError(t, os.WriteFile(path, []byte("(def double (n) (plus n n))\n(let ten (double 5))\n"), 0o644))

	var out bytes.Buffer
	s := NewSession(WithInterpreter(interpreter.New(interpreter.WithOutput(&out))))
	require.NoError(t, s.LoadFile(ctx, path))
	val, err := s.Eval(ctx, "ten")
	require.NoError(t, err)
	assert.Equal(t, runtime.NumberValue{Val: 10}, val)

	require.Error(t, s.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.paren")))
}

func TestSessionUsesParseCache(t *testing.T) {
	cache, err := parser.NewCache(4)
	require.NoError(t, err)
	s := NewSession(WithParseCache(cache))
	for i := 0; i < 3; i++ {
		_, err := s.Eval(context.Background(), "(plus 1 2)")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestSessionReplay(t *testing.T) {
	ctx := context.Background()
	rec := &memoryRecorder{}
	first := NewSession(WithRecorder(rec))
	_, _ = first.Eval(ctx, "(let x 5)")
	_, _ = first.Eval(ctx, "(broken x)")
	_, _ = first.Eval(ctx, "(def inc (n) (plus n 1))")

	second := NewSession()
	n, err := second.Replay(ctx, rec, first.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	val, err := second.Eval(ctx, "(inc x)")
	require.NoError(t, err)
	assert.Equal(t, runtime.NumberValue{Val: 6}, val)

	_, err = second.Replay(ctx, rec, "no-such-session")
	require.Error(t, err)
}

func TestSessionReplayFromJournal(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	first := NewSession(WithRecorder(j))
	_, err := first.Eval(ctx, `(let name "paren")`)
	require.NoError(t, err)

	second := NewSession(WithRecorder(j))
	n, err := second.Replay(ctx, j, first.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	val, err := second.Eval(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, runtime.StringValue{Val: "paren"}, val)

	sessions, err := j.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
