package authz

// Predicate is a structured boolean expression over resource columns.
// Scope builders assemble predicates; store adapters compile them to a
// parameterized query filter. Predicates are immutable values.
type Predicate interface {
	isPredicate()
}

type truePredicate struct{}

type falsePredicate struct{}

type eqPredicate struct {
	field string
	value any
}

type gtePredicate struct {
	field string
	value any
}

type inPredicate struct {
	field  string
	values []any
}

// reportsOfPredicate matches rows whose field is the id of a direct
// report of the manager. Compiled as a relational sub-query so the
// report set is never materialized in process.
type reportsOfPredicate struct {
	field     string
	managerID int64
}

type andPredicate struct {
	children []Predicate
}

type orPredicate struct {
	children []Predicate
}

func (truePredicate) isPredicate()      {}
func (falsePredicate) isPredicate()     {}
func (eqPredicate) isPredicate()        {}
func (gtePredicate) isPredicate()       {}
func (inPredicate) isPredicate()        {}
func (reportsOfPredicate) isPredicate() {}
func (andPredicate) isPredicate()       {}
func (orPredicate) isPredicate()        {}

// True matches every row.
func True() Predicate {
	return truePredicate{}
}

// False matches no row.
func False() Predicate {
	return falsePredicate{}
}

// Eq matches rows where field equals value.
func Eq(field string, value any) Predicate {
	return eqPredicate{field: field, value: value}
}

// Gte matches rows where field is greater than or equal to value.
func Gte(field string, value any) Predicate {
	return gtePredicate{field: field, value: value}
}

// In matches rows where field is one of values. An empty value set
// matches nothing.
func In(field string, values ...any) Predicate {
	if len(values) == 0 {
		return falsePredicate{}
	}
	return inPredicate{field: field, values: values}
}

// ReportsOf matches rows where field is the id of a direct report of
// managerID.
func ReportsOf(field string, managerID int64) Predicate {
	return reportsOfPredicate{field: field, managerID: managerID}
}

// And conjoins predicates. True children are dropped; a False child
// collapses the whole conjunction.
func And(children ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(children))
	for _, c := range children {
		switch c.(type) {
		case truePredicate:
			continue
		case falsePredicate:
			return falsePredicate{}
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return truePredicate{}
	case 1:
		return kept[0]
	}
	return andPredicate{children: kept}
}

// Or disjoins predicates. False children are dropped; a True child
// collapses the whole disjunction.
func Or(children ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(children))
	for _, c := range children {
		switch c.(type) {
		case falsePredicate:
			continue
		case truePredicate:
			return truePredicate{}
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return falsePredicate{}
	case 1:
		return kept[0]
	}
	return orPredicate{children: kept}
}
