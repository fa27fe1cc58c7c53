// Package cli implements the mentions command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/mentions/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// errRejected marks a transition the executor refused. The result has
// already been printed.
var errRejected = &exitError{code: exitUserError, err: errors.New("transition rejected")}

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// app holds global flag values and the loaded configuration for one
// invocation of the root command.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool

	v *viper.Viper
}

// NewRootCmd creates the top-level "mentions" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mentions",
		Short: "Apply mention-record state transitions",
		Long: "mentions decides the next state of mention records kept in a content-addressed\n" +
			"store, enforcing that only a mention's owner may overwrite it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			configDir, err := paths.ResolveConfigDir(a.configDir)
			if err != nil {
				return sysError("resolve config dir: %s", err)
			}
			v, err := loadConfig(configDir)
			if err != nil {
				return sysError("%s", err)
			}
			a.configDir = configDir
			a.v = v
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.mentions)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/.mentions-db)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log decisions to stderr")

	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newExecCmd(a))
	root.AddCommand(newMintCmd(a))
	root.AddCommand(newCloneCmd(a))
	root.AddCommand(newGetCmd(a))
	root.AddCommand(newServeCmd(a))

	return root
}

// Execute runs the root command with args and returns the exit code.
// Errors are written to stderr.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err != nil && !errors.Is(err, errRejected) {
		fmt.Fprintln(stderr, "mentions:", err)
	}
	return ExitCode(err)
}

// logger returns the decision logger: stderr when verbose, discarded otherwise.
func (a *app) logger(cmd *cobra.Command) *log.Logger {
	if !a.verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "mentions: ", log.LstdFlags)
}
