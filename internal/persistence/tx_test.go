package persistence_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/persistence"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

func TestIsSerializationFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"wrapped serialization failure", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, persistence.IsSerializationFailure(tt.err))
		})
	}
}

// stubTx satisfies pgx.Tx through embedding; its methods are never called.
type stubTx struct {
	pgx.Tx
}

func TestTxFromContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := persistence.TxFromContext(ctx)
	assert.False(t, ok)

	bound := persistence.WithTx(ctx, stubTx{})
	tx, ok := persistence.TxFromContext(bound)
	assert.True(t, ok)
	assert.Equal(t, stubTx{}, tx)
}

func TestTxFromContextIgnoresNilBinding(t *testing.T) {
	bound := persistence.WithTx(context.Background(), nil)
	_, ok := persistence.TxFromContext(bound)
	assert.False(t, ok, "an untyped nil binding must not be retrievable as a transaction")
}

func TestWithinTxWithoutPool(t *testing.T) {
	var m *persistence.TxManager
	err := m.WithinTx(context.Background(), func(ctx context.Context) error { return nil })
	require.Error(t, err)

	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "STORE_UNAVAILABLE", de.Code)
}
