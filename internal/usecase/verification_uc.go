package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"musicqr-server/internal/domain"
	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/domain/ports/repository"
)

// Compile-time check
var _ VerificationUseCase = (*verificationUC)(nil)

// VerificationUseCase validates a presented code and performs first-use
// activation. Failed verifications come back as structured results; only
// storage failures return an error.
type VerificationUseCase interface {
	Verify(ctx context.Context, rawCode, clientIP, userAgent string) (*model.VerificationResult, error)
}

const (
	msgValid     = "verification successful: genuine copy"
	msgNotFound  = "code not found or invalid"
	msgBadFormat = "invalid code format"
)

type verificationUC struct {
	codes repository.CodeRepository
	logs  repository.QueryLogRepository
	tm    repository.TransactionManager
	now   func() time.Time

	log *zerolog.Logger
}

func NewVerificationUseCase(codes repository.CodeRepository, logs repository.QueryLogRepository, tm repository.TransactionManager, logger *zerolog.Logger) *verificationUC {
	return &verificationUC{codes: codes, logs: logs, tm: tm, now: time.Now, log: logger}
}

// Verify normalizes the raw input and, for a known code, runs the activation
// check and counter bump as one transaction. Under concurrent calls on the
// same fresh code exactly one caller observes FirstActivation=true; every
// call that reaches the lookup bumps QueryCount.
func (uc *verificationUC) Verify(ctx context.Context, rawCode, clientIP, userAgent string) (*model.VerificationResult, error) {
	code, ok := NormalizeCode(rawCode)
	if !ok {
		// Format rejection happens before any store access.
		return &model.VerificationResult{
			Valid:   false,
			Reason:  model.ReasonBadFormat,
			Message: msgBadFormat,
		}, nil
	}

	now := uc.now()
	var (
		ac    *model.AuthCode
		first bool
	)
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ac, first, err = uc.codes.ActivateIfFirst(ctx, tx, code, clientIP, userAgent, now)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		// A well-formed unknown code is a negative result, not an error. It
		// still lands in the audit trail but never creates a code row.
		uc.appendLog(ctx, code, clientIP, userAgent, now, model.QueryResultNotFound)
		return &model.VerificationResult{
			Valid:   false,
			Reason:  model.ReasonNotFound,
			Message: msgNotFound,
		}, nil
	}
	if err != nil {
		return nil, domain.WrapStorage(err)
	}

	result := model.QueryResultAlreadyActivated
	if first {
		result = model.QueryResultFirstActivation
		uc.log.Info().Str("code", code).Str("client_ip", clientIP).Msg("code activated")
	}
	uc.appendLog(ctx, code, clientIP, userAgent, now, result)

	return &model.VerificationResult{
		Valid:           true,
		Activated:       true,
		Code:            ac.Code,
		Message:         msgValid,
		ActivationDate:  ac.ActivationDate,
		QueryCount:      ac.QueryCount,
		FirstActivation: first,
	}, nil
}

// appendLog is best-effort: the audit trail must never fail a verification.
func (uc *verificationUC) appendLog(ctx context.Context, code, clientIP, userAgent string, now time.Time, result model.QueryResult) {
	rec := &model.QueryLog{
		ID:        ulid.Make().String(),
		Code:      code,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		QueryTime: now,
		Result:    result,
	}
	if err := uc.logs.Append(ctx, repository.NoTX, rec); err != nil {
		uc.log.Warn().Err(err).Str("code", code).Msg("query log append failed")
	}
}
