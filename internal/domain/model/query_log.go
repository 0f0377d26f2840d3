package model

import "time"

// QueryResult classifies the outcome of a single verification lookup.
type QueryResult string

const (
	QueryResultFirstActivation  QueryResult = "first_activation"
	QueryResultAlreadyActivated QueryResult = "already_activated"
	QueryResultNotFound         QueryResult = "not_found"
)

// QueryLog is one audit record of a verification attempt. Counter truth lives
// on AuthCode; the log exists for per-code history and forensics only.
type QueryLog struct {
	ID        string // ULID, sortable by time
	Code      string
	ClientIP  string
	UserAgent string
	QueryTime time.Time
	Result    QueryResult
}
