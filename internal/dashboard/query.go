package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const defaultLimit = 200

// Result is a tabular view result.
type Result struct {
	View    string   `json:"view"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Empty reports whether the view returned no rows.
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// Build returns the SQL for v with ? placeholders and its arguments.
// v must already be valid; identifiers come only from the whitelist.
func Build(v View) (string, []any, error) {
	if err := v.Validate(); err != nil {
		return "", nil, err
	}

	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selectList(v), ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(v.Source)

	if len(v.Filters) > 0 {
		conds := make([]string, 0, len(v.Filters))
		for _, f := range v.Filters {
			cond, fargs := filterSQL(f)
			conds = append(conds, cond)
			args = append(args, fargs...)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(v.GroupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(v.GroupBy, ", "))
	}

	if len(v.Sort) > 0 {
		parts := make([]string, len(v.Sort))
		for i, s := range v.Sort {
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			parts[i] = s.Field + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	limit := v.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	fmt.Fprintf(&sb, " LIMIT %d", limit)

	return sb.String(), args, nil
}

func selectList(v View) []string {
	if len(v.GroupBy) > 0 || len(v.Aggregates) > 0 {
		cols := append([]string(nil), v.GroupBy...)
		for _, a := range v.Aggregates {
			arg := a.Field
			if a.Func == AggCount && arg == "" {
				arg = "*"
			}
			cols = append(cols, fmt.Sprintf("%s(%s) AS %s", strings.ToUpper(a.Func), arg, a.As))
		}
		return cols
	}
	if len(v.Columns) > 0 {
		return v.Columns
	}
	return sources[v.Source]
}

func filterSQL(f Filter) (string, []any) {
	switch f.Op {
	case OpEq:
		return f.Field + " = ?", []any{f.Value}
	case OpNe:
		return f.Field + " <> ?", []any{f.Value}
	case OpGt:
		return f.Field + " > ?", []any{f.Value}
	case OpGte:
		return f.Field + " >= ?", []any{f.Value}
	case OpLt:
		return f.Field + " < ?", []any{f.Value}
	case OpLte:
		return f.Field + " <= ?", []any{f.Value}
	case OpContains:
		return "LOWER(" + f.Field + ") LIKE ?", []any{"%" + strings.ToLower(fmt.Sprint(f.Value)) + "%"}
	case OpIn:
		list := f.Value.([]any)
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(list)), ", ")
		return f.Field + " IN (" + marks + ")", list
	case OpNull:
		return f.Field + " IS NULL", nil
	default:
		return f.Field + " IS NOT NULL", nil
	}
}

// Run executes v against db.
func Run(ctx context.Context, db *sqlx.DB, v View) (Result, error) {
	query, args, err := Build(v)
	if err != nil {
		return Result{}, err
	}
	for i, a := range args {
		args[i] = normalizeArg(a)
	}

	rows, err := db.QueryxContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return Result{}, fmt.Errorf("running view %s: %w", v.Name, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("reading columns: %w", err)
	}
	res := Result{View: v.Name, Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return Result{}, fmt.Errorf("scanning row: %w", err)
		}
		for i, val := range vals {
			if b, ok := val.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("reading rows: %w", err)
	}
	return res, nil
}

// normalizeArg turns YAML-decoded values into driver-friendly ones. Dates
// are stored as ISO strings, so time values compare as strings.
func normalizeArg(a any) any {
	switch t := a.(type) {
	case time.Time:
		return t.UTC().Format("2006-01-02")
	case bool:
		if t {
			return 1
		}
		return 0
	}
	return a
}
