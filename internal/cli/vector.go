package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mxsrc/oppsql/internal/cleanup"
	"github.com/mxsrc/oppsql/internal/query"
	"github.com/mxsrc/oppsql/internal/queryir"
)

// VectorOptions holds flags for the vector command.
type VectorOptions struct {
	*RootOptions
	Request   string
	By        []string
	Variables []string
	Multi     bool
	Time      bool
	Module    bool
	Aggregate string
	Where     []string
	Explain   bool
}

// NewVectorCommand creates the vector command.
func NewVectorCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VectorOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "vector",
		Short: "Read vector samples grouped by run attributes",
		Long: `Read the samples of one or more vectors, labelled with run attributes.

Group-by entries (--by, repeatable, applied in order):
  name            keep every value of the attribute as a column
  name=value      only runs where the attribute equals value (no column)
  name=[v1,v2]    only runs where the attribute is one of the values

Filters (--where, repeatable, all must hold) compare a column with a value:
  vectordata.value>0    attr:nCars<>320    run.runName=General-0

Flags override the fields of a --request file.

Examples:
  oppsql vector --db results.sqlite --by nCars --var collisions --time
  oppsql vector --by nCars --by 'speed=[10,20]' --var collisions --aggregate mean
  oppsql vector --request study.yaml --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVector(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Request, "request", "r", "", "YAML request file")
	cmd.Flags().StringArrayVar(&opts.By, "by", nil, "group-by attribute (name, name=value or name=[v1,v2])")
	cmd.Flags().StringArrayVar(&opts.Variables, "var", nil, "vector name to read (repeatable)")
	cmd.Flags().BoolVar(&opts.Multi, "multi", false, "use vectorName/value columns even for one variable")
	cmd.Flags().BoolVar(&opts.Time, "time", false, "add the simtime column")
	cmd.Flags().BoolVar(&opts.Module, "module", false, "add the moduleName column")
	cmd.Flags().StringVar(&opts.Aggregate, "aggregate", "", "aggregate values per group (mean|sum|min|max|count)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter such as vectordata.value>0 (repeatable)")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print the SQL instead of running it")

	return cmd
}

func runVector(opts *VectorOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	req, err := buildVectorRequest(opts, cmd)
	if err != nil {
		return err
	}

	if opts.Explain {
		sqlText, params, err := query.BuildVectorQuery(req)
		if err != nil {
			return wrapQueryError("invalid request", err)
		}
		return outputExplain(formatter, sqlText, params)
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup.DeferClose(zerolog.Ctx(ctx), st, "failed to close database")

	formatter.VerboseLog("Reading %s from %s", req.Variables, st.Path())
	table, err := query.GetVector(ctx, st, req)
	if err != nil {
		return wrapQueryError("vector query failed", err)
	}
	formatter.VerboseLog("%d rows", table.Len())

	return formatter.Table(table)
}

// buildVectorRequest merges the request file with the command-line flags.
func buildVectorRequest(opts *VectorOptions, cmd *cobra.Command) (query.VectorRequest, error) {
	var req query.VectorRequest
	if opts.Request != "" {
		loaded, err := query.LoadRequest(opts.Request)
		if err != nil {
			return req, WrapExitError(ExitCommandError, "failed to load request", err)
		}
		req = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("by") {
		req.GroupBy = nil
		for _, arg := range opts.By {
			g, err := parseGroupBy(arg)
			if err != nil {
				return req, WrapExitError(ExitCommandError, "invalid --by", err)
			}
			req.GroupBy = append(req.GroupBy, g)
		}
	}
	if flags.Changed("var") || flags.Changed("multi") {
		names := opts.Variables
		if !flags.Changed("var") {
			names = req.Variables.Names()
		}
		if opts.Multi || len(names) > 1 {
			req.Variables = query.Many(names...)
		} else if len(names) == 1 {
			req.Variables = query.Single(names[0])
		}
	}
	if flags.Changed("time") {
		req.IncludeTime = opts.Time
	}
	if flags.Changed("module") {
		req.IncludeModule = opts.Module
	}
	if flags.Changed("aggregate") {
		agg, err := query.ParseAggregate(opts.Aggregate)
		if err != nil {
			return req, WrapExitError(ExitCommandError, "invalid --aggregate", err)
		}
		req.Aggregate = agg
	}
	if flags.Changed("where") {
		preds := make([]queryir.Predicate, 0, len(opts.Where))
		for _, arg := range opts.Where {
			pred, err := parseWhere(arg)
			if err != nil {
				return req, WrapExitError(ExitCommandError, "invalid --where", err)
			}
			preds = append(preds, pred)
		}
		req.Filter = queryir.Conjoin(preds...)
	}

	if len(req.Variables.Names()) == 0 {
		return req, NewExitError(ExitCommandError, "no variables: pass --var or a request file")
	}
	return req, nil
}

// parseGroupBy parses name, name=value or name=[v1,v2].
func parseGroupBy(arg string) (query.GroupBy, error) {
	name, value, constrained := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%q: empty attribute name", arg)
	}
	if !constrained {
		return query.Unconstrained{Name: name}, nil
	}

	if inner, ok := strings.CutPrefix(value, "["); ok {
		inner, ok = strings.CutSuffix(inner, "]")
		if !ok {
			return nil, fmt.Errorf("%q: missing closing bracket", arg)
		}
		var values []any
		for _, v := range strings.Split(inner, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%q: empty value list", arg)
		}
		return query.OneOf{Name: name, Values: values}, nil
	}
	return query.EqualTo{Name: name, Value: value}, nil
}

// whereOps is ordered so two-character operators match before their
// one-character prefixes.
var whereOps = []queryir.CompareOp{
	queryir.OpLe, queryir.OpGe, queryir.OpNe,
	queryir.OpLt, queryir.OpGt, queryir.OpEq,
}

// parseWhere parses <column><op><value>, e.g. vectordata.value>=3.
// Values stay text; SQLite applies the column's affinity when comparing.
func parseWhere(arg string) (queryir.Predicate, error) {
	best := -1
	var op queryir.CompareOp
	for _, candidate := range whereOps {
		idx := strings.Index(arg, string(candidate))
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best || (idx == best && len(candidate) > len(op)) {
			best, op = idx, candidate
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("%q: no comparison operator", arg)
	}

	column := strings.TrimSpace(arg[:best])
	value := strings.TrimSpace(arg[best+len(op):])
	left, err := query.ParseColumn(column)
	if err != nil {
		return nil, err
	}
	return queryir.Compare{Left: left, Op: op, Value: value}, nil
}

type explainData struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

func outputExplain(f *OutputFormatter, sqlText string, params []any) error {
	if f.Format == FormatJSON {
		return f.Success(explainData{SQL: sqlText, Params: params})
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f.Writer, "%s\n-- params: %s\n", sqlText, encoded)
	return err
}
