package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"paren/interpreter-go/pkg/driver"
	"paren/interpreter-go/pkg/interpreter"
	"paren/interpreter-go/pkg/parser"
	"paren/interpreter-go/pkg/runtime"
)

const cliToolVersion = "paren 0.1.0-dev"

func main() {
	code := run(os.Args[1:])
	glog.Flush()
	os.Exit(code)
}

func run(args []string) int {
	return newCLI(os.Stdout, os.Stderr, nil).execute(args)
}

// exitError carries a process exit code out of a command without printing
// anything further.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// cliEnv holds the flag values and streams shared by every command.
type cliEnv struct {
	configPath  string
	journalPath string
	noColor     bool
	debug       bool

	stdout io.Writer
	stderr io.Writer
	// newReader builds the REPL's line source; nil means a terminal editor.
	newReader func(cfg *driver.Config) (lineReader, error)

	cfg *driver.Config
}

func newCLI(stdout, stderr io.Writer, newReader func(cfg *driver.Config) (lineReader, error)) *cliEnv {
	return &cliEnv{stdout: stdout, stderr: stderr, newReader: newReader}
}

func (e *cliEnv) execute(args []string) int {
	root := e.rootCmd()
	root.SetArgs(args)
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		fmt.Fprintln(e.stderr, e.red(err.Error()))
		return 1
	}
	return 0
}

func (e *cliEnv) rootCmd() *cobra.Command {
	repl := &replEnv{cli: e}
	root := &cobra.Command{
		Use:   "paren",
		Short: "An interactive s-expression interpreter.",
		Long: `
paren evaluates s-expressions such as (plus 1 2) or (def f (x) (plus x 1)).
Without a subcommand it starts the interactive REPL.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: e.setup,
		RunE:              repl.runReplCmd,
	}

	// glog registers its flags on the standard flag set.
	_ = flag.Set("logtostderr", "true")
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "Path to paren.yml (default: $"+driver.ConfigEnvVar+" or the nearest paren.yml)")
	root.PersistentFlags().StringVar(&e.journalPath, "journal", "", "SQLite journal path; overrides the config")
	root.PersistentFlags().BoolVar(&e.noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVar(&e.debug, "debug", false, "Log each evaluated unit (glog -v=2)")

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive REPL.",
		Args:  cobra.NoArgs,
		RunE:  repl.runReplCmd,
	}
	replCmd.Flags().StringVar(&repl.restore, "restore", "", "Replay the successful units of a journaled session first")
	root.Flags().StringVar(&repl.restore, "restore", "", "Replay the successful units of a journaled session first")

	root.AddCommand(
		replCmd,
		e.runCmd(),
		e.evalCmd(),
		e.parseCmd(),
		e.journalCmd(),
		e.versionCmd(),
	)
	return root
}

// setup resolves the configuration once flags are parsed.
func (e *cliEnv) setup(cmd *cobra.Command, _ []string) error {
	if err := flag.CommandLine.Parse(nil); err != nil {
		return fmt.Errorf("parse log flags: %w", err)
	}
	if e.debug {
		_ = flag.Set("v", "2")
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	cfg, err := driver.ResolveConfig(e.configPath, wd)
	if err != nil {
		return err
	}
	if e.journalPath != "" {
		cfg.Journal = e.journalPath
	}
	if e.noColor {
		cfg.Color = false
	}
	if !cfg.Color {
		color.NoColor = true
	}
	e.cfg = cfg
	return nil
}

func (e *cliEnv) red(s string) string {
	if e.cfg != nil && !e.cfg.Color {
		return s
	}
	return color.New(color.FgRed).Sprint(s)
}

// reportError prints err in the REPL's ERROR: <kind>: <msg> form.
func (e *cliEnv) reportError(err error) {
	fmt.Fprintln(e.stderr, e.red(fmt.Sprintf("ERROR: %s: %v", interpreter.ErrorKind(err), err)))
}

// openSession builds a session from the config: parse cache, journal and
// preloaded scripts. The returned func releases the journal.
func (e *cliEnv) openSession(ctx context.Context) (*driver.Session, *driver.Journal, func(), error) {
	opts := []driver.SessionOption{
		driver.WithInterpreter(interpreter.New(
			interpreter.WithOutput(e.stdout),
			interpreter.WithMaxDepth(e.cfg.MaxDepth),
		)),
	}
	if e.cfg.ParseCacheSize > 0 {
		cache, err := parser.NewCache(e.cfg.ParseCacheSize)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, driver.WithParseCache(cache))
	}
	var journal *driver.Journal
	closeFn := func() {}
	if e.cfg.Journal != "" {
		j, err := driver.OpenJournal(e.cfg.Journal)
		if err != nil {
			return nil, nil, nil, err
		}
		journal = j
		opts = append(opts, driver.WithRecorder(j))
		closeFn = func() {
			if err := j.Close(); err != nil {
				glog.Warningf("close journal: %v", err)
			}
		}
	}
	session := driver.NewSession(opts...)
	for _, path := range e.cfg.Preload {
		if err := session.LoadFile(ctx, path); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
	}
	return session, journal, closeFn, nil
}

func (e *cliEnv) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run FILE",
		Short: "Evaluate every unit of a script, stopping at the first error.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return e.evalText(cmd.Context(), string(data), false)
		},
	}
}

func (e *cliEnv) evalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval EXPR...",
		Short: "Evaluate units given on the command line and print each result.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.evalText(cmd.Context(), strings.Join(args, "\n"), true)
		},
	}
}

func (e *cliEnv) evalText(ctx context.Context, text string, echo bool) error {
	session, _, closeFn, err := e.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	err = session.EvalAll(ctx, text, func(_ string, val runtime.Value) {
		if echo {
			fmt.Fprintln(e.stdout, runtime.Format(val))
		}
	})
	if err != nil {
		e.reportError(err)
		return exitError{code: 1}
	}
	return nil
}

func (e *cliEnv) parseCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "parse EXPR",
		Short: "Parse a unit and print its canonical form.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := parser.Parse(strings.Join(args, " "))
			if err != nil {
				e.reportError(err)
				return exitError{code: 1}
			}
			if dump {
				cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
				fmt.Fprint(e.stdout, cfg.Sdump(expr))
				return nil
			}
			fmt.Fprintln(e.stdout, expr.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the full expression tree")
	return cmd
}

func (e *cliEnv) journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the session journal.",
	}
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "List journaled sessions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := e.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()
			list, err := j.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range list {
				fmt.Fprintf(e.stdout, "%s\t%d units\t%s\t%s\n", s.ID, s.Units,
					s.First.Format("2006-01-02 15:04:05"), s.Last.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	show := &cobra.Command{
		Use:   "show SESSION",
		Short: "Print every unit of a session with its result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := e.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()
			entries, err := j.Entries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no entries for session %s", args[0])
			}
			for _, entry := range entries {
				fmt.Fprintf(e.stdout, "%d> %s\n", entry.Seq, entry.Input)
				if entry.Failed() {
					fmt.Fprintf(e.stdout, "ERROR: %s: %s\n", entry.ErrorKind, entry.Error)
				} else {
					fmt.Fprintln(e.stdout, entry.Output)
				}
			}
			return nil
		},
	}
	cmd.AddCommand(sessions, show)
	return cmd
}

func (e *cliEnv) openJournal() (*driver.Journal, error) {
	if e.cfg.Journal == "" {
		return nil, fmt.Errorf("no journal configured; pass --journal or set journal in %s", driver.ConfigFileName)
	}
	return driver.OpenJournal(e.cfg.Journal)
}

func (e *cliEnv) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(e.stdout, cliToolVersion)
		},
	}
}
