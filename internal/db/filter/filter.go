// Package filter describes structured pre-filters for index searches.
// Conditions are exact tag matches; expressions combine them with
// must/should/must_not semantics.
package filter

import "fmt"

// MaxConditionsPerGroup bounds each condition group.
const MaxConditionsPerGroup = 32

// Expression is a boolean combination of tag conditions.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	for _, group := range [][]Condition{must, should, mustNot} {
		if len(group) > MaxConditionsPerGroup {
			return Expression{}, fmt.Errorf("too many conditions in group (max %d)", MaxConditionsPerGroup)
		}
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// MustAll builds an all-of expression from the given conditions.
func MustAll(conds ...Condition) Expression {
	return Expression{must: conds}
}

// AnyOf builds a one-of expression from the given conditions.
func AnyOf(conds ...Condition) Expression {
	return Expression{should: conds}
}

// WithMust returns a copy with extra must conditions appended.
func (e Expression) WithMust(conds ...Condition) Expression {
	e.must = append(e.must[:len(e.must):len(e.must)], conds...)
	return e
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

// Condition is one exact tag match.
type Condition struct {
	key   string
	match string
}

// Match creates an exact tag match condition.
func Match(key, value string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: value}, nil
}

// MustMatch is Match for statically known keys; invalid input panics.
func MustMatch(key, value string) Condition {
	cond, err := Match(key, value)
	if err != nil {
		panic(err)
	}
	return cond
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Value returns the exact match value.
func (c Condition) Value() string { return c.match }
