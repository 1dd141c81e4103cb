package specification

import "strings"

// Specification is a predicate that can be evaluated in memory or pushed down
// to the store as a SQL WHERE fragment. Both forms must agree.
type Specification[T any] interface {
	// IsSatisfiedBy checks if the specification is satisfied by the given object
	IsSatisfiedBy(candidate T) bool
	// ToSQL converts the specification to SQL WHERE clause and parameters
	ToSQL() (string, []interface{})
}

// And combines specifications so that all must hold. An empty And is always satisfied.
func And[T any](specs ...Specification[T]) Specification[T] {
	return &andSpecification[T]{specs: compact(specs)}
}

// Or combines specifications so that at least one must hold.
func Or[T any](specs ...Specification[T]) Specification[T] {
	return &orSpecification[T]{specs: compact(specs)}
}

// Not negates a specification.
func Not[T any](spec Specification[T]) Specification[T] {
	return &notSpecification[T]{spec: spec}
}

func compact[T any](specs []Specification[T]) []Specification[T] {
	out := make([]Specification[T], 0, len(specs))
	for _, s := range specs {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// andSpecification represents an AND combination of specifications
type andSpecification[T any] struct {
	specs []Specification[T]
}

func (s *andSpecification[T]) IsSatisfiedBy(candidate T) bool {
	for _, spec := range s.specs {
		if !spec.IsSatisfiedBy(candidate) {
			return false
		}
	}
	return true
}

func (s *andSpecification[T]) ToSQL() (string, []interface{}) {
	return join(s.specs, " AND ", "1 = 1")
}

// orSpecification represents an OR combination of specifications
type orSpecification[T any] struct {
	specs []Specification[T]
}

func (s *orSpecification[T]) IsSatisfiedBy(candidate T) bool {
	for _, spec := range s.specs {
		if spec.IsSatisfiedBy(candidate) {
			return true
		}
	}
	return false
}

func (s *orSpecification[T]) ToSQL() (string, []interface{}) {
	return join(s.specs, " OR ", "1 = 0")
}

// notSpecification represents a NOT specification
type notSpecification[T any] struct {
	spec Specification[T]
}

func (s *notSpecification[T]) IsSatisfiedBy(candidate T) bool {
	return !s.spec.IsSatisfiedBy(candidate)
}

func (s *notSpecification[T]) ToSQL() (string, []interface{}) {
	sql, params := s.spec.ToSQL()
	return "NOT (" + sql + ")", params
}

func join[T any](specs []Specification[T], op, empty string) (string, []interface{}) {
	if len(specs) == 0 {
		return empty, nil
	}

	parts := make([]string, 0, len(specs))
	var params []interface{}
	for _, spec := range specs {
		sql, p := spec.ToSQL()
		parts = append(parts, "("+sql+")")
		params = append(params, p...)
	}
	return strings.Join(parts, op), params
}
