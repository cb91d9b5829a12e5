// Package query translates listing query strings (filter, sort, field
// projection, pagination) into composed SQL. The translator performs no I/O;
// repositories execute the statements it builds.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
)

// Reserved query keys consumed by the non-filter stages
var reservedKeys = map[string]struct{}{
	"page":   {},
	"sort":   {},
	"limit":  {},
	"fields": {},
}

// Comparison suffixes accepted in filters, e.g. price[gte]=100. Anything else
// in bracket position is rejected rather than forwarded to storage.
var operators = map[string]string{
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
}

// operatorOrder fixes condition order independent of map iteration
var operatorOrder = []string{"gte", "gt", "lte", "lt"}

const (
	DefaultPage  = 1
	DefaultLimit = 100
)

// Field describes one API-visible attribute of a resource
type Field struct {
	// Name is the API name, e.g. "ratingsAverage"
	Name string
	// Column is the backing column, e.g. "ratings_average"
	Column string
	// Filterable allows the field in filter conjunctions
	Filterable bool
	// Internal fields are excluded from the default projection
	Internal bool
}

// Schema is the allow-list of fields a resource exposes to the translator.
// Fields not present here can neither filter, sort, nor project.
type Schema struct {
	Table       string
	DefaultSort string // SQL fragment, e.g. "created_at DESC"
	fields      []Field
	byName      map[string]Field
}

// NewSchema builds a Schema. The field order fixes the default projection order.
func NewSchema(table string, fields ...Field) *Schema {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	return &Schema{
		Table:       table,
		DefaultSort: "created_at DESC",
		fields:      fields,
		byName:      byName,
	}
}

// WithDefaultSort overrides the default sort fragment
func (s *Schema) WithDefaultSort(sort string) *Schema {
	s.DefaultSort = sort
	return s
}

// Lookup returns the field definition for an API name
func (s *Schema) Lookup(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Query is the composed result of the four translation stages. Stages mutate
// the same builder in a fixed order so later stages see earlier restrictions.
type Query struct {
	schema  *Schema
	conds   []string
	args    []interface{}
	orderBy []string
	columns []string
	page    int
	limit   int
	offset  int
}

// Parse runs filter, sort, fields and paginate over the raw query string, in
// that order. Reordering the input keys never changes the outcome.
func Parse(values url.Values, schema *Schema) (*Query, error) {
	q := &Query{schema: schema}

	if err := q.filter(values); err != nil {
		return nil, err
	}
	if err := q.sort(values.Get("sort")); err != nil {
		return nil, err
	}
	if err := q.fields(values.Get("fields")); err != nil {
		return nil, err
	}
	q.paginate(values.Get("page"), values.Get("limit"))

	return q, nil
}

// Scope prepends an equality condition outside the client-supplied filters,
// used for nested listings (e.g. reviews of one tour). The field must exist in
// the schema but need not be client-filterable.
func (q *Query) Scope(name string, value interface{}) *Query {
	f, ok := q.schema.Lookup(name)
	if !ok {
		return q
	}
	cond := fmt.Sprintf("%s = $%d", f.Column, 1)
	q.conds = append([]string{cond}, q.conds...)
	q.args = append([]interface{}{value}, q.args...)
	q.renumber()
	return q
}

func (q *Query) filter(values url.Values) error {
	// Deterministic condition order regardless of map iteration: walk the
	// schema, not the input.
	for _, f := range q.schema.fields {
		if plain, ok := values[f.Name]; ok {
			if !f.Filterable {
				return apperror.BadRequest(fmt.Sprintf("Field %q cannot be filtered", f.Name))
			}
			q.addCond(f.Column, "=", plain[0])
		}
		for _, op := range operatorOrder {
			sqlOp := operators[op]
			key := fmt.Sprintf("%s[%s]", f.Name, op)
			if vals, ok := values[key]; ok {
				if !f.Filterable {
					return apperror.BadRequest(fmt.Sprintf("Field %q cannot be filtered", f.Name))
				}
				q.addCond(f.Column, sqlOp, vals[0])
			}
		}
	}

	// Reject anything we did not recognise: unknown fields and unknown
	// operator suffixes never reach storage.
	for key := range values {
		if _, ok := reservedKeys[key]; ok {
			continue
		}
		if !q.known(key) {
			return apperror.BadRequest(fmt.Sprintf("Unknown filter parameter %q", key))
		}
	}
	return nil
}

func (q *Query) known(key string) bool {
	name := key
	if i := strings.IndexByte(key, '['); i >= 0 && strings.HasSuffix(key, "]") {
		op := key[i+1 : len(key)-1]
		if _, ok := operators[op]; !ok {
			return false
		}
		name = key[:i]
	}
	f, ok := q.schema.Lookup(name)
	return ok && f.Filterable
}

func (q *Query) addCond(column, op, raw string) {
	q.conds = append(q.conds, fmt.Sprintf("%s %s $%d", column, op, len(q.args)+1))
	q.args = append(q.args, coerce(raw))
}

// renumber rewrites $n placeholders after condition reordering
func (q *Query) renumber() {
	n := 0
	for i, cond := range q.conds {
		n++
		idx := strings.LastIndexByte(cond, '$')
		q.conds[i] = fmt.Sprintf("%s$%d", cond[:idx], n)
	}
}

// coerce converts a raw query value to the narrowest Go type so Postgres can
// compare it against numeric and boolean columns.
func coerce(raw string) interface{} {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func (q *Query) sort(raw string) error {
	if raw == "" {
		q.orderBy = []string{q.schema.DefaultSort}
		return nil
	}
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		dir := "ASC"
		if strings.HasPrefix(key, "-") {
			dir = "DESC"
			key = key[1:]
		}
		f, ok := q.schema.Lookup(key)
		if !ok {
			return apperror.BadRequest(fmt.Sprintf("Unknown sort key %q", key))
		}
		q.orderBy = append(q.orderBy, fmt.Sprintf("%s %s", f.Column, dir))
	}
	if len(q.orderBy) == 0 {
		q.orderBy = []string{q.schema.DefaultSort}
	}
	return nil
}

func (q *Query) fields(raw string) error {
	if raw == "" {
		// Default projection: every public column, internal metadata excluded
		for _, f := range q.schema.fields {
			if !f.Internal {
				q.columns = append(q.columns, f.Column)
			}
		}
		return nil
	}

	seen := map[string]bool{}
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, ok := q.schema.Lookup(name)
		if !ok {
			return apperror.BadRequest(fmt.Sprintf("Unknown field %q in projection", name))
		}
		if !seen[f.Column] {
			q.columns = append(q.columns, f.Column)
			seen[f.Column] = true
		}
	}
	// The identifier always rides along, like the original's _id
	if !seen["id"] {
		if _, ok := q.schema.Lookup("id"); ok {
			q.columns = append([]string{"id"}, q.columns...)
		}
	}
	return nil
}

func (q *Query) paginate(rawPage, rawLimit string) {
	q.page = positiveInt(rawPage, DefaultPage)
	// No upper bound is enforced on limit
	q.limit = positiveInt(rawLimit, DefaultLimit)
	q.offset = (q.page - 1) * q.limit
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Columns returns the projected column list
func (q *Query) Columns() []string { return q.columns }

// Page returns the resolved page number
func (q *Query) Page() int { return q.page }

// Limit returns the resolved page size
func (q *Query) Limit() int { return q.limit }

// Offset returns the resolved row offset
func (q *Query) Offset() int { return q.offset }

// Args returns the positional arguments for SelectSQL and CountSQL
func (q *Query) Args() []interface{} { return q.args }

// Where returns the WHERE clause body, or "" when unfiltered
func (q *Query) Where() string {
	return strings.Join(q.conds, " AND ")
}

// SelectSQL renders the full listing statement
func (q *Query) SelectSQL() (string, []interface{}) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.schema.Table)
	if len(q.conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where())
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(q.orderBy, ", "))
	b.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", q.limit, q.offset))
	return b.String(), q.args
}

// CountSQL renders the matching-row count statement over the same filters
func (q *Query) CountSQL() (string, []interface{}) {
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) FROM ")
	b.WriteString(q.schema.Table)
	if len(q.conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where())
	}
	return b.String(), q.args
}
