package repository

import (
	"context"
	"time"

	"musicqr-server/internal/domain/model"
)

// StatusFilter narrows admin listings by lifecycle state.
type StatusFilter string

const (
	StatusAll         StatusFilter = "all"
	StatusActivated   StatusFilter = "activated"
	StatusUnactivated StatusFilter = "unactivated"
)

// SortField values are whitelist-mapped to columns by the implementation;
// anything else falls back to created_date.
type SortField string

const (
	SortByCode           SortField = "code"
	SortByCreatedDate    SortField = "created_date"
	SortByActivationDate SortField = "activation_date"
	SortByQueryCount     SortField = "query_count"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ListFilter describes one page of an admin code listing.
type ListFilter struct {
	Page    int
	PerPage int
	Search  string // substring match over code
	Status  StatusFilter
	Sort    SortField
	Order   SortOrder
}

// Aggregate holds the derived counters the status endpoint is built from.
type Aggregate struct {
	TotalCodes     int64
	ActivatedCodes int64
	TodayQueries   int64
}

// CodeRepository is the port for the code store. All mutation of code state is
// routed through it; there is no second source of truth.
type CodeRepository interface {
	// FindByCode returns the code or domain.ErrNotFound.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.AuthCode, error)

	// InsertNew inserts the code in the unactivated state if absent. If the
	// code already exists no field is modified and inserted is false.
	// De-duplication relies on the store's uniqueness constraint, so a
	// concurrent InsertNew of the same code cannot create a duplicate row.
	InsertNew(ctx context.Context, tx Tx, code string, createdDate time.Time) (inserted bool, err error)

	// ActivateIfFirst performs the verification transition for a known code:
	// activation fields are set only if the code was not yet activated
	// (first-write-wins), and query_count/last_query_date are bumped in the
	// same atomic unit. Callers must run it inside a transaction via
	// TransactionManager so the activation decision and the counter update
	// commit or roll back together. Returns the post-update row and whether
	// this call was the activating one; domain.ErrNotFound if the code is
	// unknown (no row is created).
	ActivateIfFirst(ctx context.Context, tx Tx, code, ip, userAgent string, now time.Time) (*model.AuthCode, bool, error)

	// List returns one page plus the total and activated counts under the
	// same filter.
	List(ctx context.Context, tx Tx, f ListFilter) (items []*model.AuthCode, total int64, activated int64, err error)

	// ListForExport returns full rows for the given codes, or every code
	// (newest first) when codes is empty.
	ListForExport(ctx context.Context, tx Tx, codes []string) ([]*model.AuthCode, error)

	// Delete removes the given codes and reports how many existed.
	Delete(ctx context.Context, tx Tx, codes []string) (int64, error)

	// Aggregate derives the headline counters. dayStart bounds "today".
	Aggregate(ctx context.Context, tx Tx, dayStart time.Time) (*Aggregate, error)

	// CountActivatedSince counts activations at or after the cutoff.
	CountActivatedSince(ctx context.Context, tx Tx, since time.Time) (int64, error)

	// RecentActivations returns the most recently activated codes.
	RecentActivations(ctx context.Context, tx Tx, limit int) ([]model.RecentActivation, error)
}
