package harness

import "github.com/roach88/wmiq/variant"

// QueryResult is what one query produced.
type QueryResult struct {
	Name  string
	Query string
	// Rows is nil when the query failed.
	Rows  []*variant.Object
	Error *ErrorResult
}

// ErrorResult describes a failed query.
type ErrorResult struct {
	Kind string
	// Status is the symbolic provider status, empty when none was reported.
	Status  string
	Message string
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool

	// Queries holds one result per query, in scenario order.
	Queries []QueryResult

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Queries: []QueryResult{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
