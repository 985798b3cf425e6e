// Package seed runs the importers and the idempotent upsert pipeline they
// share.
package seed

import (
	"fmt"
	"strings"
)

// Outcome is the terminal state of one record in a run.
type Outcome string

const (
	OutcomeImported  Outcome = "imported"
	OutcomeUpdated   Outcome = "updated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeError     Outcome = "error"
)

// RecordResult is the classification of one record.
type RecordResult struct {
	Key     string
	Outcome Outcome
	Reason  string
	Err     error
}

// UnmatchedRecord identifies an external record no registry player matched.
type UnmatchedRecord struct {
	Name     string `json:"name"`
	Team     string `json:"team,omitempty"`
	Position string `json:"position,omitempty"`
}

// Result tracks outcome counts and details from one run.
type Result struct {
	Imported  int `json:"imported"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Unmatched int `json:"unmatched"`
	Errors    int `json:"errors"`

	UnmatchedRecords []UnmatchedRecord `json:"unmatched_records,omitempty"`
	Failures         []RecordResult    `json:"-"`
	FetchFailures    []string          `json:"fetch_failures,omitempty"`
}

// Add counts one record.
func (r *Result) Add(rr RecordResult) {
	switch rr.Outcome {
	case OutcomeImported:
		r.Imported++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeUnmatched:
		r.Unmatched++
	case OutcomeError:
		r.Errors++
		r.Failures = append(r.Failures, rr)
	}
}

// AddUnmatched counts an unmatched record and keeps it for the report.
func (r *Result) AddUnmatched(u UnmatchedRecord) {
	r.Unmatched++
	r.UnmatchedRecords = append(r.UnmatchedRecords, u)
}

// AddFetchErrorf records an upstream unit of work that was abandoned after
// retries. It is not a record outcome.
func (r *Result) AddFetchErrorf(format string, args ...any) {
	r.FetchFailures = append(r.FetchFailures, fmt.Sprintf(format, args...))
}

// Merge folds other into r.
func (r *Result) Merge(other Result) {
	r.Imported += other.Imported
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Unmatched += other.Unmatched
	r.Errors += other.Errors
	r.UnmatchedRecords = append(r.UnmatchedRecords, other.UnmatchedRecords...)
	r.Failures = append(r.Failures, other.Failures...)
	r.FetchFailures = append(r.FetchFailures, other.FetchFailures...)
}

// Total is the number of records classified.
func (r *Result) Total() int {
	return r.Imported + r.Updated + r.Skipped + r.Unmatched + r.Errors
}

// Summary returns a one-line human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"imported=%d updated=%d skipped=%d unmatched=%d errors=%d fetch_failures=%d",
		r.Imported, r.Updated, r.Skipped, r.Unmatched, r.Errors, len(r.FetchFailures),
	)
}

// UnmatchedNames lists unmatched records as "Name (Team)".
func (r *Result) UnmatchedNames() []string {
	out := make([]string, 0, len(r.UnmatchedRecords))
	for _, u := range r.UnmatchedRecords {
		if u.Team != "" {
			out = append(out, u.Name+" ("+u.Team+")")
			continue
		}
		out = append(out, u.Name)
	}
	return out
}

// FailureMessages renders each failed record as "key: error".
func (r *Result) FailureMessages() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		msg := f.Reason
		if f.Err != nil {
			msg = f.Err.Error()
		}
		out = append(out, strings.TrimSpace(f.Key+": "+msg))
	}
	return out
}
