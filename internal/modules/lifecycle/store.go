// README: Postgres transactor composing the booking and bill stores on one pgx.Tx.
package lifecycle

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridebook/internal/modules/billing"
	"ridebook/internal/modules/booking"
	"ridebook/internal/types"
)

type PgTransactor struct {
	pool *pgxpool.Pool
}

func NewPgTransactor(pool *pgxpool.Pool) *PgTransactor {
	return &PgTransactor{pool: pool}
}

func (t *PgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	// no-op after a successful commit
	defer tx.Rollback(ctx)

	if err := fn(ctx, pgTx{bookings: booking.NewStore(tx), bills: billing.NewStore(tx)}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	bookings *booking.Store
	bills    *billing.Store
}

func (t pgTx) MarkAccepted(ctx context.Context, id types.ID, version int, driverID types.ID) (bool, error) {
	return t.bookings.MarkAccepted(ctx, id, version, driverID)
}

func (t pgTx) CreateBill(ctx context.Context, b *billing.Bill) error {
	return t.bills.Create(ctx, b)
}
