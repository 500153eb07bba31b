package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mxsrc/oppsql/internal/cleanup"
	"github.com/mxsrc/oppsql/internal/schema"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	DDL   bool
	Check bool
}

type columnData struct {
	Table      string `json:"table"`
	Column     string `json:"column"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
	References string `json:"references,omitempty"`
}

type checkData struct {
	Database string   `json:"database"`
	Missing  []string `json:"missing"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the result database catalog",
		Long: `Show the tables and columns of an OMNeT++ SQLite result database.

Without flags the built-in catalog is listed; no database is needed.
--ddl prints the CREATE TABLE statements and --check verifies that the
database given with --db carries every catalog table.

Examples:
  oppsql schema
  oppsql schema --ddl > empty.sql
  oppsql schema --check --db results.sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DDL, "ddl", false, "print CREATE TABLE statements")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "check the database for missing tables")
	cmd.MarkFlagsMutuallyExclusive("ddl", "check")

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	switch {
	case opts.DDL:
		if opts.Format == FormatJSON {
			return formatter.Success(map[string]string{"ddl": schema.DDL()})
		}
		_, err := fmt.Fprint(formatter.Writer, schema.DDL())
		return err
	case opts.Check:
		return runSchemaCheck(opts, cmd, formatter)
	}

	var columns []columnData
	var rows [][]string
	for _, t := range schema.Tables() {
		refs := map[string]string{}
		for _, fk := range t.ForeignKeys {
			for i, c := range fk.Columns {
				refs[c] = fk.RefTable + "." + fk.RefColumns[i]
			}
		}
		for _, c := range t.Columns {
			col := columnData{
				Table:      t.Name,
				Column:     c.Name,
				Type:       string(c.Type),
				Nullable:   c.Nullable,
				PrimaryKey: c.PrimaryKey,
				References: refs[c.Name],
			}
			columns = append(columns, col)
			rows = append(rows, []string{col.Table, col.Column, col.Type, flags(col), col.References})
		}
	}
	return formatter.Rows([]string{"TABLE", "COLUMN", "TYPE", "FLAGS", "REFERENCES"}, rows, columns)
}

func flags(c columnData) string {
	var parts []string
	if c.PrimaryKey {
		parts = append(parts, "pk")
	}
	if c.Nullable {
		parts = append(parts, "null")
	}
	return strings.Join(parts, ",")
}

func runSchemaCheck(opts *SchemaOptions, cmd *cobra.Command, formatter *OutputFormatter) error {
	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup.DeferClose(zerolog.Ctx(cmd.Context()), st, "failed to close database")

	missing, err := st.MissingTables(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to inspect database", err)
	}

	if opts.Format == FormatJSON {
		if err := formatter.Success(checkData{Database: st.Path(), Missing: missing}); err != nil {
			return err
		}
	} else if len(missing) == 0 {
		fmt.Fprintf(formatter.Writer, "%s: all %d catalog tables present\n", st.Path(), len(schema.Tables()))
	}

	if len(missing) > 0 {
		return NewExitError(ExitFailure, "missing tables: "+strings.Join(missing, ", "))
	}
	return nil
}
