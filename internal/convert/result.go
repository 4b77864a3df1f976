// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "sync"

// Entry records the outcome of one candidate file.
type Entry struct {
	Input  string
	Output string // empty on failure
	Err    error  // nil on success
}

// Failure is one failed input with its error message.
type Failure struct {
	Input   string
	Message string
}

// Result accumulates the outcome of one directory walk. A fresh Result is
// created per walk and only that walk writes to it. The mutex keeps each
// record atomic when candidates convert on a worker pool.
//
// SuccessCount+FailCount equals the number of matched files, with
// len(ConvertedFiles) == SuccessCount and len(Failed()) == FailCount.
type Result struct {
	SuccessCount int

	FailCount int

	// ConvertedFiles lists output paths in the order conversions finished.
	ConvertedFiles []string

	// Entries lists every candidate in the order conversions finished.
	Entries []Entry

	mu          sync.Mutex
	failed      map[string]string
	failedOrder []string
}

// NewResult returns an empty accumulator.
func NewResult() *Result {
	return &Result{failed: make(map[string]string)}
}

// RecordSuccess counts input as converted to output.
func (r *Result) RecordSuccess(input, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.SuccessCount++
	r.ConvertedFiles = append(r.ConvertedFiles, output)
	r.Entries = append(r.Entries, Entry{Input: input, Output: output})
}

// RecordFailure counts input as failed with err. Recording the same input
// twice keeps one entry with the latest message.
func (r *Result) RecordFailure(input string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed == nil {
		r.failed = make(map[string]string)
	}
	if _, seen := r.failed[input]; !seen {
		r.FailCount++
		r.failedOrder = append(r.failedOrder, input)
		r.Entries = append(r.Entries, Entry{Input: input, Err: err})
	}
	r.failed[input] = err.Error()
}

// Failed returns failures in the order they were first recorded.
func (r *Result) Failed() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Failure, len(r.failedOrder))
	for i, in := range r.failedOrder {
		out[i] = Failure{Input: in, Message: r.failed[in]}
	}
	return out
}

// FailureFor returns the error message recorded for input.
func (r *Result) FailureFor(input string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.failed[input]
	return msg, ok
}

// Total returns the number of candidate files processed.
func (r *Result) Total() int {
	return r.SuccessCount + r.FailCount
}

// HasFailures reports whether any candidate failed.
func (r *Result) HasFailures() bool {
	return r.FailCount > 0
}
