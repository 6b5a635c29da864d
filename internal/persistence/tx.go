package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// maxTxAttempts bounds the retry loop for conflicting transactions.
const maxTxAttempts = 3

type txKey struct{}

// WithTx binds a transaction into the context so repositories route their
// statements through it.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction bound by WithTx, if any.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// TxManager runs multi-statement operations as single transactions. Writes
// inside the callback either all commit or none do; conflicting commits are
// retried a bounded number of times before surfacing WRITE_CONFLICT.
type TxManager struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTxManager builds a manager over the shared pool.
func NewTxManager(pool *pgxpool.Pool, logger *zap.Logger) *TxManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TxManager{pool: pool, logger: logger}
}

// WithinTx executes fn inside a transaction. The context passed to fn
// carries the transaction; nested calls reuse it instead of opening a
// second one.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m == nil || m.pool == nil {
		return apperrors.NewStoreUnavailable(errors.New("no postgres pool"))
	}
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	return withRetry(m.logger, maxTxAttempts, func() error {
		return m.runOnce(ctx, fn)
	})
}

// withRetry re-runs op while it fails with a retryable conflict, up to
// attempts times, then surfaces WRITE_CONFLICT. Other errors pass through
// on the first occurrence.
func withRetry(logger *zap.Logger, attempts int, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !IsSerializationFailure(err) {
			return err
		}
		lastErr = err
		if attempt < attempts {
			logger.Warn("transaction conflict, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
	}
	logger.Warn("transaction conflict, attempts exhausted",
		zap.Int("attempts", attempts),
		zap.Error(lastErr))
	return apperrors.NewWriteConflict(lastErr)
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if IsSerializationFailure(err) {
			return err
		}
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

// IsSerializationFailure reports whether err is a retryable conflict
// (serialization failure or deadlock detected).
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
