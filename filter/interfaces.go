package filter

import (
	"github.com/veldhuizen/magister-cli/magister"
)

// Filter defines the basic interface for appointment filters
type Filter interface {
	// Evaluate checks if an appointment matches the filter criteria
	Evaluate(appointment magister.Appointment) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Apply evaluates a compiled filter against a list of appointments and
// returns the matching subset.
func Apply(f CompiledFilter, appointments []magister.Appointment) []magister.Appointment {
	var matches []magister.Appointment
	for _, appointment := range appointments {
		if f.Evaluate(appointment) {
			matches = append(matches, appointment)
		}
	}
	return matches
}
