// README: Booking store backed by PostgreSQL; works on a pool or inside a transaction.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"ridebook/internal/infra"
	"ridebook/internal/types"
)

// ErrDuplicateNumber is returned by Create when the booking number is taken.
var ErrDuplicateNumber = errors.New("booking number already exists")

const bookingColumns = `
	id, booking_number, customer_id, driver_id, vehicle_id,
	pickup_address, destination_address, pickup_time, dropoff_time,
	status, status_version, distance, amount, booking_date`

type Store struct {
	db infra.DBTX
}

func NewStore(db infra.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, b *Booking) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO bookings (
			booking_number, customer_id, driver_id, vehicle_id,
			pickup_address, destination_address, pickup_time, dropoff_time,
			status, status_version, distance, amount, booking_date
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12, $13
		)
		RETURNING id`,
		b.Number,
		int64(b.CustomerID),
		toInt64Ptr(b.DriverID),
		toInt64Ptr(b.VehicleID),
		b.PickupAddress,
		b.DestinationAddress,
		b.PickupTime,
		b.DropoffTime,
		string(b.Status),
		b.StatusVersion,
		b.Distance,
		b.Amount,
		b.BookingDate,
	)
	var id int64
	if err := row.Scan(&id); err != nil {
		if infra.IsUniqueViolation(err) {
			return ErrDuplicateNumber
		}
		return err
	}
	b.ID = types.ID(id)
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, int64(id))
	return scanOne(row)
}

func (s *Store) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_number = $1`, number)
	return scanOne(row)
}

func (s *Store) List(ctx context.Context) ([]*Booking, error) {
	return s.query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY id`)
}

func (s *Store) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Booking, error) {
	return s.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE customer_id = $1 ORDER BY id`, int64(customerID))
}

func (s *Store) ListByDriver(ctx context.Context, driverID types.ID) ([]*Booking, error) {
	return s.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE driver_id = $1 ORDER BY id`, int64(driverID))
}

// MarkAccepted moves a PENDING booking to ACCEPTED only if nobody else has
// written its status since version was read.
func (s *Store) MarkAccepted(ctx context.Context, id types.ID, version int, driverID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
			status_version = status_version + 1,
			driver_id = $2
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(StatusAccepted),
		int64(driverID),
		int64(id),
		string(StatusPending),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetStatus writes status unconditionally and bumps the version. Used by
// cancellation and the administrative override.
func (s *Store) SetStatus(ctx context.Context, id types.ID, to Status, clearDriver bool) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = $1,
			status_version = status_version + 1,
			driver_id = CASE WHEN $2 THEN NULL ELSE driver_id END
		WHERE id = $3
		RETURNING `+bookingColumns,
		string(to),
		clearDriver,
		int64(id),
	)
	return scanOne(row)
}

func (s *Store) Update(ctx context.Context, b *Booking) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE bookings
		SET driver_id = $1,
			vehicle_id = $2,
			pickup_address = $3,
			destination_address = $4,
			pickup_time = $5,
			dropoff_time = $6,
			status = $7,
			status_version = status_version + 1,
			distance = $8,
			amount = $9
		WHERE id = $10
		RETURNING `+bookingColumns,
		toInt64Ptr(b.DriverID),
		toInt64Ptr(b.VehicleID),
		b.PickupAddress,
		b.DestinationAddress,
		b.PickupTime,
		b.DropoffTime,
		string(b.Status),
		b.Distance,
		b.Amount,
		int64(b.ID),
	)
	return scanOne(row)
}

// Delete reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, int64(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
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

func scanOne(row rowScanner) (*Booking, error) {
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	var id, customerID int64
	var driverID, vehicleID sql.NullInt64
	var pickupTime, dropoffTime sql.NullTime
	var status string

	err := row.Scan(
		&id, &b.Number, &customerID, &driverID, &vehicleID,
		&b.PickupAddress, &b.DestinationAddress, &pickupTime, &dropoffTime,
		&status, &b.StatusVersion, &b.Distance, &b.Amount, &b.BookingDate,
	)
	if err != nil {
		return nil, err
	}
	b.ID = types.ID(id)
	b.CustomerID = types.ID(customerID)
	b.DriverID = toIDPtr(driverID)
	b.VehicleID = toIDPtr(vehicleID)
	b.PickupTime = toTimePtr(pickupTime)
	b.DropoffTime = toTimePtr(dropoffTime)
	b.Status = Status(status)
	return &b, nil
}

func toInt64Ptr(id *types.ID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}

func toIDPtr(v sql.NullInt64) *types.ID {
	if !v.Valid {
		return nil
	}
	id := types.ID(v.Int64)
	return &id
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
