package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mxsrc/oppsql/internal/cleanup"
	"github.com/mxsrc/oppsql/internal/query"
)

// ParamOptions holds flags for the param command.
type ParamOptions struct {
	*RootOptions
	Type string
}

// paramTypes maps --type values to lookups returning the converted value.
var paramTypes = map[string]func(cmd *cobra.Command, c query.Conner, pattern string) (any, error){
	"string": func(cmd *cobra.Command, c query.Conner, pattern string) (any, error) {
		return query.UniqueParam(cmd.Context(), c, pattern, query.AsString)
	},
	"int": func(cmd *cobra.Command, c query.Conner, pattern string) (any, error) {
		return query.UniqueParam(cmd.Context(), c, pattern, query.AsInt64)
	},
	"float": func(cmd *cobra.Command, c query.Conner, pattern string) (any, error) {
		return query.UniqueParam(cmd.Context(), c, pattern, query.AsFloat64)
	},
	"bool": func(cmd *cobra.Command, c query.Conner, pattern string) (any, error) {
		return query.UniqueParam(cmd.Context(), c, pattern, query.AsBool)
	},
}

type paramData struct {
	Pattern string `json:"pattern"`
	Value   any    `json:"value"`
}

// NewParamCommand creates the param command.
func NewParamCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParamOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "param <pattern>",
		Short: "Print a run parameter shared by all runs",
		Long: `Print the value of the run parameter whose name contains pattern.

The match is a case-sensitive substring test. Every matching parameter must
have the same value in all runs; differing values are reported as an
ambiguity. When nothing matches, the zero value of --type is printed.

Examples:
  oppsql param --db results.sqlite nCars --type int
  oppsql param 'mobility.speed' --type float --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParam(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "string", "value type (string|int|float|bool)")

	return cmd
}

func runParam(opts *ParamOptions, cmd *cobra.Command, pattern string) error {
	lookup, ok := paramTypes[opts.Type]
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid type %q: must be string, int, float or bool", opts.Type))
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup.DeferClose(zerolog.Ctx(cmd.Context()), st, "failed to close database")

	value, err := lookup(cmd, st, pattern)
	if err != nil {
		return wrapQueryError("parameter lookup failed", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	switch opts.Format {
	case FormatJSON:
		return formatter.Success(paramData{Pattern: pattern, Value: value})
	case FormatCSV:
		return formatter.Rows([]string{"pattern", "value"}, [][]string{{pattern, fmt.Sprint(value)}}, nil)
	default:
		return formatter.Success(value)
	}
}
