package model

import "time"

// Negative verification reasons.
const (
	ReasonBadFormat = "bad_format"
	ReasonNotFound  = "not_found"
)

// VerificationResult is the structured outcome of a verify call. Failed
// verifications are normal results, not errors; only storage failures
// surface as errors.
type VerificationResult struct {
	Valid           bool       `json:"valid"`
	Activated       bool       `json:"activated"`
	Code            string     `json:"code,omitempty"`
	Message         string     `json:"message"`
	Reason          string     `json:"reason,omitempty"`
	ActivationDate  *time.Time `json:"activation_date,omitempty"`
	QueryCount      int64      `json:"query_count,omitempty"`
	FirstActivation bool       `json:"first_activation"`
}
