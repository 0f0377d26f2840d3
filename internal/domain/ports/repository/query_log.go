package repository

import (
	"context"
	"time"

	"musicqr-server/internal/domain/model"
)

// QueryLogRepository is the port for the verification audit trail.
type QueryLogRepository interface {
	Append(ctx context.Context, tx Tx, rec *model.QueryLog) error
	ListByCode(ctx context.Context, tx Tx, code string, limit int) ([]*model.QueryLog, error)
	// DeleteOlderThan prunes records before the cutoff and reports the count.
	DeleteOlderThan(ctx context.Context, tx Tx, cutoff time.Time) (int64, error)
}
