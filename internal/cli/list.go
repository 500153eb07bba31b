package cli

import (
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mxsrc/oppsql/internal/cleanup"
	"github.com/mxsrc/oppsql/internal/query"
)

// NewVectorsCommand creates the vectors command.
func NewVectorsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vectors",
		Short: "List recorded vector names",
		Long: `List the vector names in the database with the module recording them
and the number of vectors (one per run) for each.

Use the names with oppsql vector --var.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVectors(rootOpts, cmd)
		},
	}
}

func runVectors(opts *RootOptions, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer cleanup.DeferClose(zerolog.Ctx(cmd.Context()), st, "failed to close database")

	vectors, err := query.ListVectors(cmd.Context(), st)
	if err != nil {
		return wrapQueryError("failed to list vectors", err)
	}

	rows := make([][]string, len(vectors))
	for i, v := range vectors {
		rows[i] = []string{v.Name, v.Module, strconv.FormatInt(v.Count, 10)}
	}
	return newFormatter(opts, cmd).Rows([]string{"NAME", "MODULE", "COUNT"}, rows, vectors)
}

// NewAttrsCommand creates the attrs command.
func NewAttrsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "attrs",
		Short: "List run attributes and their values",
		Long: `List every run attribute with its distinct values and the number of
runs carrying each value.

Use the names and values with oppsql vector --by.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttrs(rootOpts, cmd)
		},
	}
}

func runAttrs(opts *RootOptions, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer cleanup.DeferClose(zerolog.Ctx(cmd.Context()), st, "failed to close database")

	attrs, err := query.ListRunAttributes(cmd.Context(), st)
	if err != nil {
		return wrapQueryError("failed to list attributes", err)
	}

	var rows [][]string
	for _, a := range attrs {
		for _, v := range a.Values {
			rows = append(rows, []string{a.Name, v.Value, strconv.FormatInt(v.Runs, 10)})
		}
	}
	return newFormatter(opts, cmd).Rows([]string{"NAME", "VALUE", "RUNS"}, rows, attrs)
}
