package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/golang/glog"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"paren/interpreter-go/pkg/driver"
	"paren/interpreter-go/pkg/runtime"
)

const replHelp = `Enter s-expressions such as (plus 1 2). A unit may span several lines.
  :env    list the top-level bindings
  :help   show this message
  :quit   exit (Ctrl-D also exits; Ctrl-C discards the pending input)`

// lineReader is the part of liner.State the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// replEnv provides the environment for the repl command.
type replEnv struct {
	cli     *cliEnv
	restore string
}

func (r *replEnv) runReplCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	session, journal, closeFn, err := r.cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if r.restore != "" {
		if journal == nil {
			return fmt.Errorf("--restore needs a journal; pass --journal or set journal in %s", driver.ConfigFileName)
		}
		n, err := session.Replay(ctx, journal, r.restore)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.cli.stdout, "restored %d units from session %s\n", n, r.restore)
	}

	newReader := r.cli.newReader
	if newReader == nil {
		newReader = newTerminalReader
	}
	reader, err := newReader(r.cli.cfg)
	if err != nil {
		return err
	}
	defer reader.Close()

	if code := r.loop(ctx, session, reader); code != 0 {
		return exitError{code: code}
	}
	return nil
}

// loop reads lines until EOF or :quit, evaluating each complete unit as soon
// as it is closed and keeping any unfinished unit for the next line.
func (r *replEnv) loop(ctx context.Context, session *driver.Session, reader lineReader) int {
	cfg := r.cli.cfg
	out := r.cli.stdout
	pending := ""
	for {
		prompt := cfg.Prompt
		if pending != "" {
			prompt = cfg.ContinuationPrompt
		}
		line, err := reader.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			pending = ""
			continue
		}
		if err != nil {
			glog.Errorf("read input: %v", err)
			return 1
		}

		if pending == "" && strings.HasPrefix(strings.TrimSpace(line), ":") {
			if quit := r.command(session, strings.TrimSpace(line)); quit {
				return 0
			}
			continue
		}

		text := pending + line + "\n"
		units, rest := driver.SplitUnits(text)
		for _, unit := range units {
			val, err := session.Eval(ctx, unit)
			if err != nil {
				r.cli.reportError(err)
				continue
			}
			fmt.Fprintln(out, runtime.Format(val))
		}
		pending = rest
		if rest == "" && strings.TrimSpace(text) != "" {
			reader.AppendHistory(strings.ReplaceAll(strings.TrimSpace(text), "\n", " "))
		}
	}
}

// command runs a :command and reports whether the REPL should exit.
func (r *replEnv) command(session *driver.Session, line string) bool {
	out := r.cli.stdout
	switch strings.ToLower(line) {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(out, replHelp)
	case ":env":
		global := session.Interpreter().GlobalEnvironment()
		for _, name := range global.Keys() {
			val, _ := global.Lookup(name)
			fmt.Fprintf(out, "%s = %s\n", name, runtime.Format(val))
		}
	default:
		fmt.Fprintf(out, "unknown command %s. Type :help for help.\n", line)
	}
	return false
}

// terminalReader is a liner.State that saves its history on Close.
type terminalReader struct {
	*liner.State
	historyFile string
	stopSignals func()
}

func newTerminalReader(cfg *driver.Config) (lineReader, error) {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	r := &terminalReader{State: ln, historyFile: cfg.HistoryFile}

	if r.historyFile != "" {
		if f, err := os.Open(r.historyFile); err == nil {
			if _, err := ln.ReadHistory(f); err != nil {
				glog.Warningf("read history %s: %v", r.historyFile, err)
			}
			_ = f.Close()
		} else if !errors.Is(err, os.ErrNotExist) {
			glog.Warningf("open history %s: %v", r.historyFile, err)
		}
	}

	sigc := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		select {
		case sig := <-sigc:
			_ = r.State.Close()
			glog.Flush()
			os.Exit(signalExitCode(sig))
		case <-done:
		}
	}()
	r.stopSignals = func() {
		signal.Stop(sigc)
		close(done)
	}
	return r, nil
}

// signalExitCode follows the shell convention of 128 plus the signal number.
func signalExitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}

func (r *terminalReader) Close() error {
	if r.stopSignals != nil {
		r.stopSignals()
		r.stopSignals = nil
	}
	if r.historyFile != "" {
		if f, err := os.Create(r.historyFile); err == nil {
			if _, err := r.WriteHistory(f); err != nil {
				glog.Warningf("write history %s: %v", r.historyFile, err)
			}
			_ = f.Close()
		} else {
			glog.Warningf("create history %s: %v", r.historyFile, err)
		}
	}
	return r.State.Close()
}
