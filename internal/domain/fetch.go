package domain

import (
	"encoding/json"
	"time"
)

// PageRequest asks the remote source for one page of a collection.
type PageRequest struct {
	Collection string
	StartAt    int
	MaxResults int
}

// Page is one page of raw records as returned by the remote source.
// Issues are kept verbatim, compacted to a single line each.
type Page struct {
	Issues []json.RawMessage
	Total  int
}

// OutcomeKind enumerates the results of a page request.
type OutcomeKind int

// Page request outcomes.
const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRateLimited
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// FetchOutcome is the result of one page request.
// Page is set for OutcomeSuccess, RetryAfter for OutcomeRateLimited
// (zero when the server gave no hint) and Err for OutcomeFatal.
type FetchOutcome struct {
	Err        error
	Page       *Page
	RetryAfter time.Duration
	Kind       OutcomeKind
}

// Success returns a successful outcome carrying page.
func Success(page *Page) FetchOutcome {
	return FetchOutcome{Kind: OutcomeSuccess, Page: page}
}

// RateLimited returns a rate-limited outcome.
func RateLimited(retryAfter time.Duration) FetchOutcome {
	return FetchOutcome{Kind: OutcomeRateLimited, RetryAfter: retryAfter}
}

// Fatal returns a failed outcome.
func Fatal(err error) FetchOutcome {
	return FetchOutcome{Kind: OutcomeFatal, Err: err}
}

// Empty reports whether the page carries no records.
func (p *Page) Empty() bool {
	return p == nil || len(p.Issues) == 0
}
