package store

import (
	apperrors "github.com/stocker/stocker/data/pkg/errors"
)

// Op identifies a comparison operator in a filter condition.
type Op string

// Supported condition operators.
const (
	OpEqual          Op = "eq"
	OpNotEqual       Op = "neq"
	OpGreater        Op = "gt"
	OpGreaterOrEqual Op = "gte"
	OpLess           Op = "lt"
	OpLessOrEqual    Op = "lte"
	OpLike           Op = "like"
	OpIn             Op = "in"
)

// Condition is one column comparison. A specification's conditions form a
// conjunction.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

// Eq matches rows whose column equals value.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Op: OpEqual, Value: value}
}

// NotEq matches rows whose column does not equal value.
func NotEq(column string, value any) Condition {
	return Condition{Column: column, Op: OpNotEqual, Value: value}
}

// Gt matches rows whose column is greater than value.
func Gt(column string, value any) Condition {
	return Condition{Column: column, Op: OpGreater, Value: value}
}

// Gte matches rows whose column is greater than or equal to value.
func Gte(column string, value any) Condition {
	return Condition{Column: column, Op: OpGreaterOrEqual, Value: value}
}

// Lt matches rows whose column is less than value.
func Lt(column string, value any) Condition {
	return Condition{Column: column, Op: OpLess, Value: value}
}

// Lte matches rows whose column is less than or equal to value.
func Lte(column string, value any) Condition {
	return Condition{Column: column, Op: OpLessOrEqual, Value: value}
}

// Like matches rows whose column matches the SQL LIKE pattern.
func Like(column string, pattern string) Condition {
	return Condition{Column: column, Op: OpLike, Value: pattern}
}

// In matches rows whose column equals one of values.
func In(column string, values ...any) Condition {
	return Condition{Column: column, Op: OpIn, Value: values}
}

// Ordering is one sort key with direction.
type Ordering struct {
	Column     string
	Descending bool
}

// Asc builds an ascending ordering.
func Asc(column string) Ordering {
	return Ordering{Column: column}
}

// Desc builds a descending ordering.
func Desc(column string) Ordering {
	return Ordering{Column: column, Descending: true}
}

// Specification is a declarative description of a query shape: a conjunction
// of filter conditions, related data to eagerly load, orderings, and optional
// paging bounds. It is purely descriptive; backends interpret it with a fixed
// evaluation order (filter, includes, orderings, then skip/take).
//
// A nil *Specification is valid and means "everything, unordered".
type Specification struct {
	conditions []Condition
	includes   []string
	orderings  []Ordering
	skip       int
	take       int
	paged      bool
}

// Query starts a new empty specification.
func Query() *Specification {
	return &Specification{}
}

// Where appends filter conditions. All conditions must hold.
func (s *Specification) Where(conditions ...Condition) *Specification {
	s.conditions = append(s.conditions, conditions...)
	return s
}

// Include declares related data to eagerly load. Includes are additive and
// order-independent.
func (s *Specification) Include(relations ...string) *Specification {
	s.includes = append(s.includes, relations...)
	return s
}

// OrderBy appends an ascending sort key. The first ordering added is the
// primary sort key; each later one breaks ties.
func (s *Specification) OrderBy(column string) *Specification {
	s.orderings = append(s.orderings, Asc(column))
	return s
}

// OrderByDescending appends a descending sort key.
func (s *Specification) OrderByDescending(column string) *Specification {
	s.orderings = append(s.orderings, Desc(column))
	return s
}

// Page sets paging bounds: skip rows first, then return at most take rows.
// Backends apply paging after filter and orderings.
func (s *Specification) Page(skip, take int) *Specification {
	s.skip = skip
	s.take = take
	s.paged = true
	return s
}

// Conditions returns the filter conjunction.
func (s *Specification) Conditions() []Condition {
	if s == nil {
		return nil
	}
	return s.conditions
}

// Includes returns the declared relation names.
func (s *Specification) Includes() []string {
	if s == nil {
		return nil
	}
	return s.includes
}

// Orderings returns the sort keys in the order they were added.
func (s *Specification) Orderings() []Ordering {
	if s == nil {
		return nil
	}
	return s.orderings
}

// Paging returns the paging bounds and whether paging was set.
func (s *Specification) Paging() (skip, take int, ok bool) {
	if s == nil || !s.paged {
		return 0, 0, false
	}
	return s.skip, s.take, true
}

// Validate checks the specification's invariants.
func (s *Specification) Validate() error {
	if s == nil {
		return nil
	}
	if s.paged {
		if s.skip < 0 {
			return apperrors.InvalidArgument("skip must not be negative")
		}
		if s.take < 0 {
			return apperrors.InvalidArgument("take must not be negative")
		}
	}
	return nil
}
