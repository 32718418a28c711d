package driver

import (
	"context"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"paren/interpreter-go/pkg/interpreter"
	"paren/interpreter-go/pkg/parser"
	"paren/interpreter-go/pkg/runtime"
)

// Session evaluates input units one at a time against a single interpreter.
// A unit that fails leaves the root bindings exactly as they were before it
// ran.
type Session struct {
	id       string
	interp   *interpreter.Interpreter
	cache    *parser.Cache
	recorder Recorder
	seq      int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithInterpreter evaluates against interp instead of a fresh interpreter.
func WithInterpreter(interp *interpreter.Interpreter) SessionOption {
	return func(s *Session) { s.interp = interp }
}

// WithParseCache parses through c.
func WithParseCache(c *parser.Cache) SessionOption {
	return func(s *Session) { s.cache = c }
}

// WithRecorder journals every evaluated unit to r.
func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.interp == nil {
		s.interp = interpreter.New()
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Interpreter() *interpreter.Interpreter { return s.interp }

// Seq is the number of units evaluated so far.
func (s *Session) Seq() int { return s.seq }

// Eval parses and evaluates one unit in the root environment.
func (s *Session) Eval(ctx context.Context, unit string) (runtime.Value, error) {
	s.seq++
	global := s.interp.GlobalEnvironment()
	snapshot := global.Snapshot()

	val, err := s.evaluate(unit, global)
	if err != nil {
		global.Restore(snapshot)
		if depth := global.Depth(); depth != 1 {
			glog.Errorf("session %s: %d frames still live after failed unit %d", s.id, depth-1, s.seq)
		}
		glog.V(2).Infof("session %s unit %d failed: %v", s.id, s.seq, err)
	} else {
		glog.V(2).Infof("session %s unit %d: %s => %s", s.id, s.seq, unit, runtime.Format(val))
	}
	s.record(ctx, unit, val, err)
	return val, err
}

func (s *Session) evaluate(unit string, env *runtime.Environment) (runtime.Value, error) {
	expr, err := s.cache.Parse(unit)
	if err != nil {
		return nil, err
	}
	return s.interp.Evaluate(expr, env)
}

func (s *Session) record(ctx context.Context, unit string, val runtime.Value, evalErr error) {
	if s.recorder == nil {
		return
	}
	entry := Entry{Session: s.id, Seq: s.seq, Input: unit}
	if evalErr != nil {
		entry.ErrorKind = interpreter.ErrorKind(evalErr)
		entry.Error = evalErr.Error()
	} else {
		entry.Output = runtime.Format(val)
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		glog.Warningf("session %s: %v", s.id, err)
	}
}

// EvalAll evaluates every unit in text in order, calling each (if non-nil)
// after every success. It stops at the first failure. An unfinished trailing
// unit is evaluated too, so it fails with an incomplete ParseError.
func (s *Session) EvalAll(ctx context.Context, text string, each func(unit string, val runtime.Value)) error {
	units, rest := SplitUnits(text)
	if rest != "" {
		units = append(units, rest)
	}
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		val, err := s.Eval(ctx, unit)
		if err != nil {
			return err
		}
		if each != nil {
			each(unit, val)
		}
	}
	return nil
}

// LoadFile evaluates the script at path.
func (s *Session) LoadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := s.EvalAll(ctx, string(data), nil); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	glog.V(1).Infof("loaded %s", path)
	return nil
}

// EntrySource supplies the journaled units of a past session.
type EntrySource interface {
	Entries(ctx context.Context, session string) ([]Entry, error)
}

// Replay re-evaluates the successful units of a past session, rebuilding its
// top-level bindings. Units that failed originally are skipped. It returns
// the number of units replayed.
func (s *Session) Replay(ctx context.Context, src EntrySource, session string) (int, error) {
	entries, err := src.Entries(ctx, session)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("replay: no entries for session %s", session)
	}
	replayed := 0
	for _, e := range entries {
		if e.Failed() {
			continue
		}
		if _, err := s.Eval(ctx, e.Input); err != nil {
			return replayed, fmt.Errorf("replay %s#%d: %w", session, e.Seq, err)
		}
		replayed++
	}
	glog.Infof("replayed %d units from session %s", replayed, session)
	return replayed, nil
}
