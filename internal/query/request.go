package query

import (
	"fmt"
	"strings"

	"github.com/mxsrc/oppsql/internal/queryir"
)

// Result column names that do not come from the request.
const (
	SimtimeColumn    = "simtime"
	ModuleColumn     = "moduleName"
	VectorNameColumn = "vectorName"
	ValueColumn      = "value"
)

// GroupBy selects runs by one run attribute.
//
// This is a sealed interface - only Unconstrained, EqualTo and OneOf
// implement it. Every entry contributes one inner join, so runs lacking the
// attribute are excluded. Entries are applied in slice order and kept
// attributes appear as result columns in that order.
type GroupBy interface {
	// Attribute returns the run attribute name.
	Attribute() string
	groupBy()
}

// Unconstrained keeps every value of the attribute and emits it as a column.
type Unconstrained struct {
	Name string
}

func (g Unconstrained) Attribute() string { return g.Name }
func (Unconstrained) groupBy()            {}

// EqualTo restricts runs to one attribute value. The attribute is not
// emitted: the column would be constant.
type EqualTo struct {
	Name  string
	Value any
}

func (g EqualTo) Attribute() string { return g.Name }
func (EqualTo) groupBy()            {}

// OneOf restricts runs to a set of attribute values and emits the attribute
// as a column. Values must be non-empty.
type OneOf struct {
	Name   string
	Values []any
}

func (g OneOf) Attribute() string { return g.Name }
func (OneOf) groupBy()            {}

// By returns an Unconstrained entry per name.
func By(names ...string) []GroupBy {
	out := make([]GroupBy, len(names))
	for i, name := range names {
		out[i] = Unconstrained{Name: name}
	}
	return out
}

// Eq is shorthand for EqualTo{Name: name, Value: value}.
func Eq(name string, value any) GroupBy {
	return EqualTo{Name: name, Value: value}
}

// In is shorthand for OneOf{Name: name, Values: values}.
func In(name string, values ...any) GroupBy {
	return OneOf{Name: name, Values: values}
}

// keepsColumn reports whether the attribute value appears in the result.
func keepsColumn(g GroupBy) bool {
	_, constant := g.(EqualTo)
	return !constant
}

// Attr refers to a group-by attribute inside a Filter. It resolves to the
// attribute's value column, so only attributes that appear as columns
// (Unconstrained, OneOf) can be referenced.
func Attr(name string) queryir.AttrRef {
	return queryir.AttrRef{Name: name}
}

// Variables names the vectors to read.
//
// In single mode the value column is labelled with the vector name. In multi
// mode the result carries a vectorName column and a value column so rows of
// different vectors stay distinguishable.
type Variables struct {
	names []string
	multi bool
}

// Single selects one vector; its values appear under the vector's name.
func Single(name string) Variables {
	return Variables{names: []string{name}}
}

// Many selects several vectors; rows carry vectorName and value columns.
// Many with a single name still uses the two-column layout.
func Many(names ...string) Variables {
	return Variables{names: append([]string(nil), names...), multi: true}
}

// Names returns the selected vector names.
func (v Variables) Names() []string {
	return append([]string(nil), v.names...)
}

// IsMulti reports whether the variables use the vectorName/value layout.
func (v Variables) IsMulti() bool {
	return v.multi
}

func (v Variables) String() string {
	if v.multi {
		return "[" + strings.Join(v.names, ",") + "]"
	}
	return strings.Join(v.names, ",")
}

// AggregateFunc reduces the values of each group to one number.
type AggregateFunc string

const (
	AggregateNone  AggregateFunc = ""
	AggregateMean  AggregateFunc = "mean"
	AggregateSum   AggregateFunc = "sum"
	AggregateMin   AggregateFunc = "min"
	AggregateMax   AggregateFunc = "max"
	AggregateCount AggregateFunc = "count"
)

var aggregateSQL = map[AggregateFunc]queryir.AggregateFunc{
	AggregateMean:  queryir.AggAvg,
	AggregateSum:   queryir.AggSum,
	AggregateMin:   queryir.AggMin,
	AggregateMax:   queryir.AggMax,
	AggregateCount: queryir.AggCount,
}

// ParseAggregate parses an aggregate name. "avg" is accepted for mean and
// the empty string means no aggregation.
func ParseAggregate(s string) (AggregateFunc, error) {
	name := AggregateFunc(strings.ToLower(strings.TrimSpace(s)))
	if name == "avg" {
		return AggregateMean, nil
	}
	if name == AggregateNone {
		return AggregateNone, nil
	}
	if _, ok := aggregateSQL[name]; !ok {
		return AggregateNone, invalidRequest("unknown aggregate function %q", s)
	}
	return name, nil
}

// VectorRequest describes one GetVector call.
type VectorRequest struct {
	// GroupBy lists the run attributes that select and label runs.
	GroupBy []GroupBy

	// Variables names the vectors to read.
	Variables Variables

	// IncludeTime adds a simtime column in seconds.
	IncludeTime bool

	// IncludeModule adds a moduleName column.
	IncludeModule bool

	// Filter is an optional extra predicate over run, vector and vectordata
	// columns and over kept group-by attributes (see Attr).
	Filter queryir.Predicate

	// Aggregate, when set, reduces the values of each group of rows that
	// share all other projected columns.
	Aggregate AggregateFunc
}

// validate rejects requests that cannot produce a well-formed query.
func (r VectorRequest) validate() error {
	seen := make(map[string]bool, len(r.GroupBy))
	for i, g := range r.GroupBy {
		if g == nil {
			return invalidRequest("group-by entry %d is nil", i)
		}
		name := g.Attribute()
		if name == "" {
			return invalidRequest("group-by entry %d has an empty attribute name", i)
		}
		if seen[name] {
			return invalidRequest("attribute %q appears more than once in group-by", name)
		}
		seen[name] = true

		switch entry := g.(type) {
		case EqualTo:
			if !queryir.IsScalarValue(entry.Value) {
				return invalidRequest("attribute %q: unsupported value type %T", name, entry.Value)
			}
		case OneOf:
			if len(entry.Values) == 0 {
				return invalidRequest("attribute %q: empty value list", name)
			}
			for _, v := range entry.Values {
				if !queryir.IsScalarValue(v) {
					return invalidRequest("attribute %q: unsupported value type %T", name, v)
				}
			}
		}
	}

	if len(r.Variables.names) == 0 {
		return invalidRequest("no variables requested")
	}
	for _, name := range r.Variables.names {
		if name == "" {
			return invalidRequest("empty variable name")
		}
	}

	if r.Aggregate != AggregateNone {
		if _, ok := aggregateSQL[r.Aggregate]; !ok {
			return invalidRequest("unknown aggregate function %q", r.Aggregate)
		}
	}

	labels := map[string]string{}
	claim := func(label, owner string) error {
		if prev, taken := labels[label]; taken {
			return invalidRequest("result column %q is produced by both %s and %s", label, prev, owner)
		}
		labels[label] = owner
		return nil
	}
	for _, g := range r.GroupBy {
		if keepsColumn(g) {
			if err := claim(g.Attribute(), fmt.Sprintf("attribute %q", g.Attribute())); err != nil {
				return err
			}
		}
	}
	if r.IncludeTime {
		if err := claim(SimtimeColumn, "the time column"); err != nil {
			return err
		}
	}
	if r.IncludeModule {
		if err := claim(ModuleColumn, "the module column"); err != nil {
			return err
		}
	}
	if r.Variables.multi {
		if err := claim(VectorNameColumn, "the vector name column"); err != nil {
			return err
		}
		if err := claim(ValueColumn, "the value column"); err != nil {
			return err
		}
	} else {
		if err := claim(r.Variables.names[0], fmt.Sprintf("variable %q", r.Variables.names[0])); err != nil {
			return err
		}
	}

	return nil
}
