package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mxsrc/oppsql/internal/logging"
	"github.com/mxsrc/oppsql/internal/store"
)

// DatabaseEnv names the environment variable that supplies the default
// --db value.
const DatabaseEnv = "OPPSQL_DB"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "text" | "json" | "csv"
	LogLevel string
	Database string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON, FormatCSV}

// NewRootCommand creates the root command for the oppsql CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oppsql",
		Short: "Query OMNeT++ SQLite result databases",
		Long: `Query OMNeT++ SQLite result databases.

Reads vectors grouped by run attributes, looks up run parameters and
lists what a result file contains. Databases are opened read-only.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !cmd.Flags().Changed("log-level") && opts.Verbose {
				opts.LogLevel = "debug"
			}
			if !logging.ValidLevel(opts.LogLevel) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid log level %q: must be one of %v", opts.LogLevel, logging.Levels))
			}

			logger := logging.New(logging.Config{
				Level:  opts.LogLevel,
				Pretty: opts.Format == FormatText,
				Output: cmd.ErrOrStderr(),
			})
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (implies --log-level debug)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json|csv)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", logging.DefaultConfig().Level, "log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", os.Getenv(DatabaseEnv), "path to result database (default $"+DatabaseEnv+")")

	// Add subcommands
	cmd.AddCommand(NewVectorCommand(opts))
	cmd.AddCommand(NewParamCommand(opts))
	cmd.AddCommand(NewVectorsCommand(opts))
	cmd.AddCommand(NewAttrsCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

// Run executes the CLI with args and returns the process exit code.
// Errors are reported on stderr, or as a JSON error response on stdout when
// --format json is in effect.
func Run(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == FormatJSON {
		formatter.Writer = stdout
	}
	code, message, details := describeError(err)
	_ = formatter.Error(code, message, details)
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newFormatter builds the formatter for a command's output.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openStore opens the database named by --db read-only.
func openStore(opts *RootOptions) (*store.Store, error) {
	if opts.Database == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set "+DatabaseEnv)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
