package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/persistence"
)

// Querier is the subset of pgx operations shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querierFrom resolves the active querier: the context-bound transaction
// when one is open, the shared pool otherwise. Repositories stay unaware of
// transaction boundaries; the lifecycle service owns them.
func querierFrom(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := persistence.TxFromContext(ctx); ok {
		return tx
	}
	return pool
}
