// Package query describes store-evaluable predicates and how stock queries
// are assembled from request parameters.
package query

// Op is a clause operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
	// OpContains is a case-insensitive literal substring match. On numeric
	// fields the value is matched against the number rendered as text.
	OpContains Op = "contains"
)

// Clause is a single (field, operator, value) condition.
type Clause struct {
	Field string
	Op    Op
	Value any
}

// Predicate selects documents. All clauses must hold; when Any is non-empty
// at least one of its clauses must hold as well. The zero value matches
// every document.
type Predicate struct {
	All []Clause
	Any []Clause
}

// MatchAll reports whether p has no conditions.
func (p Predicate) MatchAll() bool { return len(p.All) == 0 && len(p.Any) == 0 }

// Direction is a sort direction.
type Direction int

const (
	Desc Direction = -1
	Asc  Direction = 1
)

// ParseDirection maps "asc" to Asc and anything else to Desc.
func ParseDirection(s string) Direction {
	if s == "asc" {
		return Asc
	}
	return Desc
}

func (d Direction) String() string {
	if d == Asc {
		return "asc"
	}
	return "desc"
}

// Sort orders results by one field.
type Sort struct {
	Field     string
	Direction Direction
}

// Query is a predicate with optional ordering and pagination.
// Limit 0 means no limit.
type Query struct {
	Predicate Predicate
	Sort      *Sort
	Skip      int64
	Limit     int64
}
