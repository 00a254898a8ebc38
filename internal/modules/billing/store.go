// README: Bill store backed by PostgreSQL; bills.booking_id is unique.
package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"ridebook/internal/infra"
	"ridebook/internal/types"
)

const billColumns = `
	id, booking_id, total_amount, tax_amount, discount_amount,
	payment_status, payment_method, bill_date`

type Store struct {
	db infra.DBTX
}

func NewStore(db infra.DBTX) *Store {
	return &Store{db: db}
}

// Create inserts b and assigns its id. A second bill for the same booking
// yields ErrConflict; an unknown booking yields ErrBookingMissing.
func (s *Store) Create(ctx context.Context, b *Bill) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO bills (
			booking_id, total_amount, tax_amount, discount_amount,
			payment_status, payment_method, bill_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		int64(b.BookingID),
		b.TotalAmount,
		b.TaxAmount,
		b.DiscountAmount,
		b.PaymentStatus,
		b.PaymentMethod,
		b.BillDate,
	)
	var id int64
	if err := row.Scan(&id); err != nil {
		switch {
		case infra.IsUniqueViolation(err):
			return ErrConflict
		case infra.IsForeignKeyViolation(err):
			return ErrBookingMissing
		}
		return err
	}
	b.ID = types.ID(id)
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Bill, error) {
	row := s.db.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, int64(id))
	return scanOne(row)
}

func (s *Store) GetByBooking(ctx context.Context, bookingID types.ID) (*Bill, error) {
	row := s.db.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE booking_id = $1`, int64(bookingID))
	return scanOne(row)
}

func (s *Store) List(ctx context.Context) ([]*Bill, error) {
	return s.query(ctx, `SELECT `+billColumns+` FROM bills ORDER BY id`)
}

func (s *Store) ListByPaymentStatus(ctx context.Context, status string) ([]*Bill, error) {
	return s.query(ctx, `SELECT `+billColumns+` FROM bills WHERE payment_status = $1 ORDER BY id`, status)
}

func (s *Store) Update(ctx context.Context, b *Bill) (*Bill, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE bills
		SET total_amount = $1,
			tax_amount = $2,
			discount_amount = $3,
			payment_status = $4,
			payment_method = $5,
			bill_date = $6
		WHERE id = $7
		RETURNING `+billColumns,
		b.TotalAmount,
		b.TaxAmount,
		b.DiscountAmount,
		b.PaymentStatus,
		b.PaymentMethod,
		b.BillDate,
		int64(b.ID),
	)
	return scanOne(row)
}

func (s *Store) SetPaymentStatus(ctx context.Context, id types.ID, status string) (*Bill, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE bills SET payment_status = $1
		WHERE id = $2
		RETURNING `+billColumns,
		status,
		int64(id),
	)
	return scanOne(row)
}

func (s *Store) Delete(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM bills WHERE id = $1`, int64(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*Bill, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row rowScanner) (*Bill, error) {
	b, err := scanBill(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanBill(row rowScanner) (*Bill, error) {
	var b Bill
	var id, bookingID int64
	var tax, discount decimal.NullDecimal
	var method *string

	err := row.Scan(
		&id, &bookingID, &b.TotalAmount, &tax, &discount,
		&b.PaymentStatus, &method, &b.BillDate,
	)
	if err != nil {
		return nil, err
	}
	b.ID = types.ID(id)
	b.BookingID = types.ID(bookingID)
	if tax.Valid {
		b.TaxAmount = tax.Decimal
	}
	if discount.Valid {
		b.DiscountAmount = discount.Decimal
	}
	if method != nil {
		b.PaymentMethod = *method
	}
	return &b, nil
}
