// Package entity describes the record kinds the engine serves: which fields
// each kind carries, how they group, how they sort in lists, and how they map
// to store columns
package entity

import (
	"regexp"
	"sort"
	"strings"

	"insightsdb/internal/core/aggregate"
	"insightsdb/internal/core/interval"
	"insightsdb/internal/core/predicate/render"
	"insightsdb/internal/core/record"
	perr "insightsdb/internal/platform/errors"
)

// FieldKind is the value shape of a record field
type FieldKind uint8

const (
	String FieldKind = iota
	List
	Number
	Time
	Custom
)

// Field is one attribute of a kind
type Field struct {
	Name string
	Kind FieldKind
	// Sortable fields may be used as list sort keys
	Sortable bool
}

// CategoryField is the pseudo field that filters by categorization result
const CategoryField = "ticket_category"

// Schema is the full description of one kind
type Schema struct {
	Kind   string
	Fields []Field

	Dimensions  aggregate.Dimensions
	ValueFields map[aggregate.Calculation]string

	// Categorized kinds accept CategoryField filters and the category dimension
	Categorized bool
	// Rollup names the numeric field summed from children into parents
	Rollup string

	// CHTable and CHColumns are set on kinds that are also served from ClickHouse
	CHTable   string
	CHColumns render.Columns

	byName map[string]Field
}

var customField = regexp.MustCompile(`^customfield_[a-z0-9_]{1,64}$`)

// Field resolves a field name; valid customfield_ names are always known
func (s *Schema) Field(name string) (Field, bool) {
	if f, ok := s.byName[name]; ok {
		return f, true
	}
	switch name {
	case record.FieldID, record.FieldParentKey:
		return Field{Name: name, Kind: String, Sortable: name == record.FieldID}, true
	}
	if customField.MatchString(name) {
		return Field{Name: name, Kind: Custom, Sortable: true}, true
	}
	return Field{}, false
}

// Column implements render.Schema over the Postgres records table aliased r
func (s *Schema) Column(name string) (render.Column, bool) {
	f, ok := s.Field(name)
	if !ok {
		return render.Column{}, false
	}
	return PGColumn(f), true
}

// PGColumn is the SQL expression of f on the records table aliased r
// field names reaching here come from the schema or match customField, so
// quoting them as literals is safe
func PGColumn(f Field) render.Column {
	lit := "'" + strings.ReplaceAll(f.Name, "'", "''") + "'"
	switch f.Name {
	case record.FieldID:
		return render.Column{Expr: "r.id", Kind: render.Text}
	case record.FieldParentKey:
		return render.Column{Expr: "r.parent_key", Kind: render.Text}
	}
	switch f.Kind {
	case List:
		return render.Column{Expr: "ARRAY(SELECT jsonb_array_elements_text(r.lists->" + lit + "))", Kind: render.TextArray}
	case Number:
		return render.Column{Expr: "(r.numbers->>" + lit + ")::double precision", Kind: render.Number}
	case Time:
		return render.Column{Expr: "(r.times->>" + lit + ")::timestamptz", Kind: render.Time}
	case Custom:
		return render.Column{Expr: "(r.custom->>" + lit + ")", Kind: render.Text}
	default:
		return render.Column{Expr: "(r.strings->>" + lit + ")", Kind: render.Text}
	}
}

// ClickHouse returns the ClickHouse schema of the kind, if it has one
func (s *Schema) ClickHouse() (render.Schema, bool) {
	if s.CHTable == "" {
		return nil, false
	}
	return s.CHColumns, true
}

// Names lists the declared field names in declaration order
func (s *Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// ValidateFields rejects criteria naming fields the kind does not have
func (s *Schema) ValidateFields(fields []string) error {
	for _, f := range fields {
		if f == CategoryField && s.Categorized {
			continue
		}
		if _, ok := s.Field(f); !ok {
			return perr.WithField(perr.Configf("unknown field %q for %s", f, s.Kind), f)
		}
	}
	return nil
}

func (s *Schema) index() *Schema {
	s.byName = make(map[string]Field, len(s.Fields))
	for _, f := range s.Fields {
		s.byName[f.Name] = f
	}
	return s
}

var registry = map[string]*Schema{}

func register(s *Schema) {
	registry[s.Kind] = s.index()
}

// Lookup returns the schema of kind; unknown kinds are configuration errors
func Lookup(kind string) (*Schema, error) {
	s, ok := registry[kind]
	if !ok {
		return nil, perr.WithField(perr.Configf("unknown entity kind %q", kind), "kind")
	}
	return s, nil
}

// Kinds lists the registered kinds, sorted
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// History is an append-only assignment history kept in the assignments table
type History struct {
	Name string
	Kind string
}

var histories = map[string]History{
	"assignee": {Name: "assignee", Kind: Issues},
	"status":   {Name: "status", Kind: Issues},
	"sprint":   {Name: "sprint", Kind: Issues},
	"owner":    {Name: "owner", Kind: WorkItems},
}

// LookupHistory resolves a history name
func LookupHistory(name string) (History, error) {
	h, ok := histories[name]
	if !ok {
		return History{}, perr.WithField(perr.Configf("unknown history %q", name), "history")
	}
	return h, nil
}

// HistoryFields are the interval columns shared by every history
var HistoryFields = interval.Fields{Start: "start_time", End: "end_time"}

// HistoryColumns is the render schema of the assignments table aliased a
var HistoryColumns = render.Columns{
	"subject_id": {Expr: "a.subject_id", Kind: render.Text},
	"owner_id":   {Expr: "a.owner_id", Kind: render.Text},
	"start_time": {Expr: "a.start_time", Kind: render.Time},
	"end_time":   {Expr: "a.end_time", Kind: render.Time},
}

// Histories lists the history names, sorted
func Histories() []string {
	out := make([]string, 0, len(histories))
	for k := range histories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
