// Package dashboard defines ad-hoc report views over the backend tables.
// A view is a YAML document naming a source table, columns, filters and
// an optional grouping; it is turned into parameterized SQL at run time.
package dashboard

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Filter operators.
const (
	OpEq       = "eq"
	OpNe       = "ne"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
	OpContains = "contains"
	OpIn       = "in"
	OpNull     = "null"
	OpNotNull  = "notnull"
)

// Aggregate functions.
const (
	AggCount = "count"
	AggSum   = "sum"
	AggAvg   = "avg"
	AggMin   = "min"
	AggMax   = "max"
)

// MaxLimit caps the rows any view may return.
const MaxLimit = 1000

var (
	// ErrInvalidView is wrapped by every validation failure.
	ErrInvalidView = errors.New("dashboard: invalid view")

	namePattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	aliasPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)
)

// sources whitelists the tables and columns a view may touch.
var sources = map[string][]string{
	"bookings": {
		"id", "reference", "customer_id", "guest_name", "guest_phone", "guest_email", "boat",
		"start_date", "end_date", "guests", "total", "amount_paid", "currency",
		"status", "payment_status", "source", "notes", "created_at", "updated_at",
	},
	"customers": {
		"id", "name", "email", "phone", "nationality", "notes", "marketing_opt_in", "created_at",
	},
	"communications": {
		"id", "booking_id", "customer_id", "channel", "template", "recipient", "subject",
		"status", "error", "created_at",
	},
	"checklists":        {"booking_id", "item", "done", "updated_at"},
	"financial_targets": {"year", "month", "revenue"},
	"automation_runs":   {"id", "workflow", "booking_id", "status", "detail", "ran_at"},
}

// Sources lists the tables views may query.
func Sources() []string {
	out := make([]string, 0, len(sources))
	for s := range sources {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Columns lists the queryable columns of source.
func Columns(source string) []string {
	return append([]string(nil), sources[source]...)
}

// View is a saved dashboard definition.
type View struct {
	Name       string      `yaml:"name" json:"name"`
	Title      string      `yaml:"title,omitempty" json:"title,omitempty"`
	Tab        string      `yaml:"tab,omitempty" json:"tab,omitempty"`
	Source     string      `yaml:"source" json:"source"`
	Columns    []string    `yaml:"columns,omitempty" json:"columns,omitempty"`
	Filters    []Filter    `yaml:"filters,omitempty" json:"filters,omitempty"`
	GroupBy    []string    `yaml:"group_by,omitempty" json:"group_by,omitempty"`
	Aggregates []Aggregate `yaml:"aggregates,omitempty" json:"aggregates,omitempty"`
	Sort       []Sort      `yaml:"sort,omitempty" json:"sort,omitempty"`
	Limit      int         `yaml:"limit,omitempty" json:"limit,omitempty"`
}

// Filter restricts rows. Value is ignored for null/notnull and must be a
// list for in.
type Filter struct {
	Field string `yaml:"field" json:"field"`
	Op    string `yaml:"op" json:"op"`
	Value any    `yaml:"value,omitempty" json:"value,omitempty"`
}

// Aggregate is a computed column in a grouped view.
type Aggregate struct {
	Func  string `yaml:"func" json:"func"`
	Field string `yaml:"field,omitempty" json:"field,omitempty"`
	As    string `yaml:"as" json:"as"`
}

// Sort orders the result by a column or aggregate alias.
type Sort struct {
	Field string `yaml:"field" json:"field"`
	Desc  bool   `yaml:"desc,omitempty" json:"desc,omitempty"`
}

// Parse decodes and validates a YAML view.
func Parse(data []byte) (View, error) {
	var v View
	if err := yaml.Unmarshal(data, &v); err != nil {
		return View{}, fmt.Errorf("%w: %v", ErrInvalidView, err)
	}
	if err := v.Validate(); err != nil {
		return View{}, err
	}
	return v, nil
}

// Marshal encodes v as YAML.
func Marshal(v View) ([]byte, error) {
	return yaml.Marshal(v)
}

// Validate checks every identifier against the source whitelist.
func (v View) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w %q: %s", ErrInvalidView, v.Name, fmt.Sprintf(format, args...))
	}

	if !namePattern.MatchString(v.Name) {
		return invalid("name must be lowercase letters, digits, - or _")
	}
	cols, ok := sources[v.Source]
	if !ok {
		return invalid("unknown source %q", v.Source)
	}
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}

	for _, c := range v.Columns {
		if !known[c] {
			return invalid("unknown column %q", c)
		}
	}
	for _, f := range v.Filters {
		if !known[f.Field] {
			return invalid("unknown filter field %q", f.Field)
		}
		switch f.Op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpContains:
			if f.Value == nil {
				return invalid("filter on %q needs a value", f.Field)
			}
		case OpIn:
			if list, ok := f.Value.([]any); !ok || len(list) == 0 {
				return invalid("in filter on %q needs a non-empty list", f.Field)
			}
		case OpNull, OpNotNull:
		default:
			return invalid("unknown operator %q", f.Op)
		}
	}

	grouped := len(v.GroupBy) > 0 || len(v.Aggregates) > 0
	outputs := make(map[string]bool)
	for _, g := range v.GroupBy {
		if !known[g] {
			return invalid("unknown group field %q", g)
		}
		outputs[g] = true
	}
	if grouped && len(v.Columns) > 0 {
		return invalid("columns and group_by are exclusive")
	}
	for _, a := range v.Aggregates {
		switch a.Func {
		case AggCount:
			if a.Field != "" && !known[a.Field] {
				return invalid("unknown aggregate field %q", a.Field)
			}
		case AggSum, AggAvg, AggMin, AggMax:
			if !known[a.Field] {
				return invalid("unknown aggregate field %q", a.Field)
			}
		default:
			return invalid("unknown aggregate %q", a.Func)
		}
		if !aliasPattern.MatchString(a.As) {
			return invalid("aggregate alias %q must be a lowercase identifier", a.As)
		}
		outputs[a.As] = true
	}

	for _, s := range v.Sort {
		if grouped {
			if !outputs[s.Field] {
				return invalid("sort field %q is not a group or aggregate column", s.Field)
			}
		} else if !known[s.Field] {
			return invalid("unknown sort field %q", s.Field)
		}
	}

	if v.Limit < 0 || v.Limit > MaxLimit {
		return invalid("limit must be between 0 and %d", MaxLimit)
	}
	return nil
}

// DisplayTitle returns Title, falling back to the name.
func (v View) DisplayTitle() string {
	if strings.TrimSpace(v.Title) != "" {
		return v.Title
	}
	return v.Name
}
