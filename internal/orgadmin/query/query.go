// Package query builds storage-independent search filters.
//
// A Filter is a conjunction of predicates. Constructors take optional values and
// return nil when the value is absent, and And drops nil predicates, so an absent
// filter value never excludes anything. The persistence layer translates a Filter
// into its own query language.
package query

import (
	"strings"
	"time"
)

// Op identifies how a predicate compares a field with its value.
type Op int

const (
	// Equal matches rows whose field equals the value.
	Equal Op = iota
	// ContainsFold matches rows whose field contains the value, ignoring case.
	ContainsFold
	// CountAtLeast matches rows having at least Value related child rows.
	CountAtLeast
	// OnOrAfter matches rows whose time field is at or after the value.
	OnOrAfter
	// OnOrBefore matches rows whose time field is at or before the value.
	OnOrBefore
)

func (o Op) String() string {
	switch o {
	case Equal:
		return "eq"
	case ContainsFold:
		return "icontains"
	case CountAtLeast:
		return "count_gte"
	case OnOrAfter:
		return "gte"
	case OnOrBefore:
		return "lte"
	default:
		return "unknown"
	}
}

// Relation names a parent-to-child relationship whose live row count can be filtered on.
type Relation int

const (
	DepartmentsOfCompany Relation = iota + 1
	// EmployeesOfCompany counts employees across all departments of a company.
	EmployeesOfCompany
	EmployeesOfDepartment
)

// Predicate is a single restriction on a search.
type Predicate struct {
	// Fields lists the fields compared. ContainsFold matches when any of them contains the value.
	Fields   []string
	Op       Op
	Value    any
	Relation Relation
}

// Filter is a conjunction of predicates. The zero Filter matches everything.
type Filter struct {
	preds []Predicate
}

// And combines the given predicates with logical AND, skipping nil ones.
func And(preds ...*Predicate) Filter {
	f := Filter{}
	for _, p := range preds {
		if p != nil {
			f.preds = append(f.preds, *p)
		}
	}
	return f
}

// Predicates returns the predicates of f in the order they were added.
func (f Filter) Predicates() []Predicate {
	out := make([]Predicate, len(f.preds))
	copy(out, f.preds)
	return out
}

// Empty reports whether f imposes no restriction.
func (f Filter) Empty() bool {
	return len(f.preds) == 0
}

// FieldEquals restricts field to id, or returns nil when id is nil.
func FieldEquals(field string, id *uint) *Predicate {
	if id == nil {
		return nil
	}
	return &Predicate{Fields: []string{field}, Op: Equal, Value: *id}
}

// NameContains restricts any of fields to contain s, ignoring case.
// A nil or blank s returns nil.
func NameContains(s *string, fields ...string) *Predicate {
	if s == nil || len(fields) == 0 {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &Predicate{Fields: fields, Op: ContainsFold, Value: v}
}

// MinCount requires at least min related rows through rel.
// Negative minimums are clamped to zero.
func MinCount(rel Relation, min *int) *Predicate {
	if min == nil {
		return nil
	}
	v := *min
	if v < 0 {
		v = 0
	}
	return &Predicate{Op: CountAtLeast, Value: v, Relation: rel}
}

// Since restricts field to be at or after t, or returns nil when t is nil.
func Since(field string, t *time.Time) *Predicate {
	if t == nil {
		return nil
	}
	return &Predicate{Fields: []string{field}, Op: OnOrAfter, Value: *t}
}

// Until restricts field to be at or before t, or returns nil when t is nil.
func Until(field string, t *time.Time) *Predicate {
	if t == nil {
		return nil
	}
	return &Predicate{Fields: []string{field}, Op: OnOrBefore, Value: *t}
}
