package query

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mxsrc/oppsql/internal/queryir"
	"github.com/mxsrc/oppsql/internal/schema"
)

// RequestFile is the YAML form of a VectorRequest.
//
// Example:
//
//	by:
//	  - nCars
//	  - name: iaMean
//	    equals: 5
//	  - name: repetition
//	    in: [0, 1]
//	variables: collisions
//	time: true
//	aggregate: mean
//	where:
//	  - column: vectordata.value
//	    op: ">"
//	    value: 0
//	  - column: attr:nCars
//	    value: "160"
type RequestFile struct {
	// By lists run attributes: a bare name, or a mapping with name and
	// optionally equals or in.
	By []GroupByEntry `yaml:"by"`

	// Variables is one vector name (single mode) or a list (multi mode).
	Variables VariablesEntry `yaml:"variables"`

	// Time adds the simtime column.
	Time bool `yaml:"time,omitempty"`

	// Module adds the moduleName column.
	Module bool `yaml:"module,omitempty"`

	// Aggregate is mean, avg, sum, min, max or count.
	Aggregate string `yaml:"aggregate,omitempty"`

	// Where holds comparisons that are all required to hold.
	Where []WhereClause `yaml:"where,omitempty"`
}

// GroupByEntry is one element of RequestFile.By.
type GroupByEntry struct {
	Name string
	// Equals is set when the entry had an equals key.
	Equals    any
	HasEquals bool
	In        []any
}

// UnmarshalYAML accepts a scalar name or a {name, equals | in} mapping.
func (e *GroupByEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		e.Name = node.Value
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: group-by entry must be a name or a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "name":
			if err := value.Decode(&e.Name); err != nil {
				return fmt.Errorf("line %d: name: %w", value.Line, err)
			}
		case "equals":
			if err := value.Decode(&e.Equals); err != nil {
				return fmt.Errorf("line %d: equals: %w", value.Line, err)
			}
			e.HasEquals = true
		case "in":
			if err := value.Decode(&e.In); err != nil {
				return fmt.Errorf("line %d: in: %w", value.Line, err)
			}
			if e.In == nil {
				e.In = []any{}
			}
		default:
			return fmt.Errorf("line %d: field %s not found in group-by entry", key.Line, key.Value)
		}
	}

	if e.Name == "" {
		return fmt.Errorf("line %d: group-by entry without name", node.Line)
	}
	if e.HasEquals && e.In != nil {
		return fmt.Errorf("line %d: group-by entry %q has both equals and in", node.Line, e.Name)
	}
	return nil
}

// GroupBy converts the entry to its request form.
func (e GroupByEntry) GroupBy() GroupBy {
	switch {
	case e.HasEquals:
		return EqualTo{Name: e.Name, Value: e.Equals}
	case e.In != nil:
		return OneOf{Name: e.Name, Values: e.In}
	default:
		return Unconstrained{Name: e.Name}
	}
}

// VariablesEntry is RequestFile.Variables.
type VariablesEntry struct {
	Names []string
	Multi bool
}

// UnmarshalYAML accepts a scalar (single mode) or a sequence (multi mode).
func (v *VariablesEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v.Names, v.Multi = []string{node.Value}, false
		return nil
	case yaml.SequenceNode:
		v.Multi = true
		return node.Decode(&v.Names)
	default:
		return fmt.Errorf("line %d: variables must be a name or a list of names", node.Line)
	}
}

// Variables converts the entry to its request form.
func (v VariablesEntry) Variables() Variables {
	if v.Multi {
		return Many(v.Names...)
	}
	if len(v.Names) == 0 {
		return Variables{}
	}
	return Single(v.Names[0])
}

// AttrPrefix marks a WhereClause column that names a group-by attribute.
const AttrPrefix = "attr:"

// WhereClause is one comparison of RequestFile.Where.
type WhereClause struct {
	// Column is "table.column" or "attr:<name>".
	Column string `yaml:"column"`

	// Op is =, <>, <, <=, > or >=. Defaults to =.
	Op string `yaml:"op,omitempty"`

	Value any `yaml:"value"`
}

// Predicate converts the clause to a filter predicate.
func (w WhereClause) Predicate() (queryir.Predicate, error) {
	left, err := ParseColumn(w.Column)
	if err != nil {
		return nil, err
	}
	op := queryir.CompareOp(w.Op)
	if op == "" {
		op = queryir.OpEq
	}
	if !op.Valid() {
		return nil, fmt.Errorf("unknown comparison operator %q", w.Op)
	}
	if !queryir.IsScalarValue(w.Value) {
		return nil, fmt.Errorf("%s: unsupported value type %T", w.Column, w.Value)
	}
	return queryir.Compare{Left: left, Op: op, Value: w.Value}, nil
}

// ParseColumn resolves "table.column" against the catalog, or
// "attr:<name>" to an attribute reference.
func ParseColumn(s string) (queryir.Expr, error) {
	if name, ok := strings.CutPrefix(s, AttrPrefix); ok {
		if name == "" {
			return nil, fmt.Errorf("empty attribute name in %q", s)
		}
		return Attr(name), nil
	}
	table, column, ok := strings.Cut(s, ".")
	if !ok {
		return nil, fmt.Errorf("column %q must be table.column or %s<name>", s, AttrPrefix)
	}
	col, ok := schema.LookupColumn(table, column)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", s)
	}
	return col.Ref(), nil
}

// Request converts the file to a VectorRequest. The result is not
// validated; GetVector and BuildVectorQuery do that.
func (f *RequestFile) Request() (VectorRequest, error) {
	req := VectorRequest{
		Variables:     f.Variables.Variables(),
		IncludeTime:   f.Time,
		IncludeModule: f.Module,
	}
	for _, entry := range f.By {
		req.GroupBy = append(req.GroupBy, entry.GroupBy())
	}

	agg, err := ParseAggregate(f.Aggregate)
	if err != nil {
		return VectorRequest{}, err
	}
	req.Aggregate = agg

	preds := make([]queryir.Predicate, 0, len(f.Where))
	for i, clause := range f.Where {
		pred, err := clause.Predicate()
		if err != nil {
			return VectorRequest{}, invalidRequest("where[%d]: %v", i, err)
		}
		preds = append(preds, pred)
	}
	req.Filter = queryir.Conjoin(preds...)

	return req, nil
}

// ParseRequest decodes a YAML request. Unknown fields are rejected.
func ParseRequest(data []byte) (VectorRequest, error) {
	var file RequestFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&file); err != nil {
		return VectorRequest{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return file.Request()
}

// LoadRequest reads and decodes a YAML request file.
func LoadRequest(path string) (VectorRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VectorRequest{}, fmt.Errorf("failed to read request file: %w", err)
	}
	req, err := ParseRequest(data)
	if err != nil {
		return VectorRequest{}, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}
