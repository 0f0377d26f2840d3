package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidCode     = errors.New("malformed code")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("too many requests")

	// ErrStorage marks a transient persistence failure. Mutations are never
	// retried automatically; read-only aggregation may be.
	ErrStorage = errors.New("storage failure")
)

// WrapStorage tags err as a storage failure while keeping the cause
// reachable through errors.Is/As.
func WrapStorage(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrStorage, err)
}
