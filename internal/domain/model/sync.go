package model

import "time"

// SyncEntry is one externally generated code offered for import.
type SyncEntry struct {
	Code        string    `json:"code"`
	CreatedDate time.Time `json:"created_date"`
}

// SyncReport summarizes one batch import. Replaying an identical batch is a
// normal outcome: everything lands in Skipped, nothing errors.
type SyncReport struct {
	Added         int      `json:"added"`
	Skipped       int      `json:"skipped"`
	Invalid       int      `json:"invalid"`
	Total         int      `json:"total"`
	NewCodes      []string `json:"new_codes,omitempty"`
	ExistingCodes []string `json:"existing_codes,omitempty"`
	InvalidCodes  []string `json:"invalid_codes,omitempty"`
}
