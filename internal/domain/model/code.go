package model

import (
	"time"
)

// AuthCode is one printed authenticity code tied to a single physical copy.
// A code is created unactivated by a sync batch (or an admin) and transitions
// to activated exactly once, on its first successful verification.
type AuthCode struct {
	Code                string
	CreatedDate         time.Time
	Activated           bool
	ActivationDate      *time.Time // Pointer to allow for NULL
	ActivationIP        *string    // Pointer to allow for NULL
	ActivationUserAgent *string    // Pointer to allow for NULL
	QueryCount          int64
	LastQueryDate       *time.Time // Pointer to allow for NULL
}
