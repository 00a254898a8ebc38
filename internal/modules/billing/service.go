// README: Billing service manages bill records: create, lookup, update, pay, delete.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ridebook/internal/logger"
	"ridebook/internal/types"
)

var (
	ErrNotFound       = errors.New("bill not found")
	ErrConflict       = errors.New("bill with this booking id already exists")
	ErrBookingMissing = errors.New("booking for bill does not exist")
	ErrBadRequest     = errors.New("bad request")
)

type Repository interface {
	Create(ctx context.Context, b *Bill) error
	Get(ctx context.Context, id types.ID) (*Bill, error)
	GetByBooking(ctx context.Context, bookingID types.ID) (*Bill, error)
	List(ctx context.Context) ([]*Bill, error)
	ListByPaymentStatus(ctx context.Context, status string) ([]*Bill, error)
	Update(ctx context.Context, b *Bill) (*Bill, error)
	SetPaymentStatus(ctx context.Context, id types.ID, status string) (*Bill, error)
	Delete(ctx context.Context, id types.ID) (bool, error)
}

type Service struct {
	store Repository
	cache Cache
	log   logger.ILogger
	now   func() time.Time
}

// NewService wires the bill store; cache may be nil.
func NewService(store Repository, cache Cache, log logger.ILogger) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	return &Service{store: store, cache: cache, log: log, now: time.Now}
}

type CreateCommand struct {
	BookingID      types.ID
	TotalAmount    *decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	PaymentStatus  string
	PaymentMethod  string
	BillDate       *time.Time
}

type UpdateCommand struct {
	TotalAmount    *decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	PaymentStatus  string
	PaymentMethod  string
	BillDate       *time.Time
}

// NewBill fills payment defaults for a freshly accepted booking.
func NewBill(bookingID types.ID, total, tax, discount decimal.Decimal, at time.Time) *Bill {
	return &Bill{
		BookingID:      bookingID,
		TotalAmount:    total,
		TaxAmount:      tax,
		DiscountAmount: discount,
		PaymentStatus:  PaymentPending,
		PaymentMethod:  MethodNotSpecified,
		BillDate:       at,
	}
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Bill, error) {
	if cmd.BookingID <= 0 {
		return nil, fmt.Errorf("%w: booking id is required", ErrBadRequest)
	}
	if err := validateAmounts(cmd.TotalAmount, cmd.TaxAmount, cmd.DiscountAmount); err != nil {
		return nil, err
	}
	existing, err := s.store.GetByBooking(ctx, cmd.BookingID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, s.fail("check existing bill", err, logger.Int64("booking_id", int64(cmd.BookingID)))
	}
	if existing != nil {
		return nil, ErrConflict
	}

	at := s.now()
	if cmd.BillDate != nil {
		at = *cmd.BillDate
	}
	b := NewBill(cmd.BookingID, *cmd.TotalAmount, cmd.TaxAmount, cmd.DiscountAmount, at)
	if v := strings.TrimSpace(cmd.PaymentStatus); v != "" {
		b.PaymentStatus = v
	}
	if v := strings.TrimSpace(cmd.PaymentMethod); v != "" {
		b.PaymentMethod = v
	}

	// the unique index on booking_id still decides a race past the check above
	if err := s.store.Create(ctx, b); err != nil {
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrBookingMissing) {
			return nil, err
		}
		return nil, s.fail("create bill", err, logger.Int64("booking_id", int64(cmd.BookingID)))
	}
	s.log.Info("bill created", logger.Int64("bill_id", int64(b.ID)), logger.Int64("booking_id", int64(b.BookingID)))
	return b, nil
}

// Get returns (nil, nil) when the bill does not exist.
func (s *Service) Get(ctx context.Context, id types.ID) (*Bill, error) {
	if b, ok, err := s.cache.Get(ctx, id); err != nil {
		s.log.Warning("bill cache read failed", logger.Int64("bill_id", int64(id)), logger.Error(err))
	} else if ok {
		return b, nil
	}

	b, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("get bill", err, logger.Int64("bill_id", int64(id)))
	}
	if err := s.cache.Fill(ctx, b); err != nil {
		s.log.Warning("bill cache write failed", logger.Int64("bill_id", int64(id)), logger.Error(err))
	}
	return b, nil
}

// GetByBooking returns (nil, nil) when the booking has no bill.
func (s *Service) GetByBooking(ctx context.Context, bookingID types.ID) (*Bill, error) {
	b, err := s.store.GetByBooking(ctx, bookingID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("get bill by booking", err, logger.Int64("booking_id", int64(bookingID)))
	}
	return b, nil
}

func (s *Service) List(ctx context.Context) ([]*Bill, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail("list bills", err)
	}
	return list, nil
}

func (s *Service) ListByPaymentStatus(ctx context.Context, status string) ([]*Bill, error) {
	status = strings.TrimSpace(status)
	list, err := s.store.ListByPaymentStatus(ctx, status)
	if err != nil {
		return nil, s.fail("list bills by status", err, logger.String("payment_status", status))
	}
	return list, nil
}

// Update overwrites the mutable fields; id and booking id are kept.
func (s *Service) Update(ctx context.Context, id types.ID, cmd UpdateCommand) (*Bill, error) {
	if err := validateAmounts(cmd.TotalAmount, cmd.TaxAmount, cmd.DiscountAmount); err != nil {
		return nil, err
	}
	cur, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, s.fail("load bill", err, logger.Int64("bill_id", int64(id)))
	}

	next := *cur
	next.TotalAmount = *cmd.TotalAmount
	next.TaxAmount = cmd.TaxAmount
	next.DiscountAmount = cmd.DiscountAmount
	if v := strings.TrimSpace(cmd.PaymentStatus); v != "" {
		next.PaymentStatus = v
	}
	next.PaymentMethod = strings.TrimSpace(cmd.PaymentMethod)
	if cmd.BillDate != nil {
		next.BillDate = *cmd.BillDate
	}

	b, err := s.store.Update(ctx, &next)
	if errors.Is(err, ErrNotFound) {
		s.Forget(ctx, id)
		return nil, err
	}
	if err != nil {
		return nil, s.fail("update bill", err, logger.Int64("bill_id", int64(id)))
	}
	s.remember(ctx, b)
	return b, nil
}

// Pay marks the bill completed. Paying twice is harmless.
func (s *Service) Pay(ctx context.Context, id types.ID) (*Bill, error) {
	b, err := s.store.SetPaymentStatus(ctx, id, PaymentCompleted)
	if errors.Is(err, ErrNotFound) {
		s.Forget(ctx, id)
		return nil, err
	}
	if err != nil {
		return nil, s.fail("pay bill", err, logger.Int64("bill_id", int64(id)))
	}
	s.remember(ctx, b)
	s.log.Info("bill paid", logger.Int64("bill_id", int64(id)), logger.Int64("booking_id", int64(b.BookingID)))
	return b, nil
}

// Delete is idempotent: removing an absent bill succeeds.
func (s *Service) Delete(ctx context.Context, id types.ID) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return s.fail("delete bill", err, logger.Int64("bill_id", int64(id)))
	}
	s.Forget(ctx, id)
	if !removed {
		s.log.Debug("delete of absent bill ignored", logger.Int64("bill_id", int64(id)))
	}
	return nil
}

// Forget marks the bill deleted in the cache. Booking deletion calls it for
// bills removed by the foreign key cascade.
func (s *Service) Forget(ctx context.Context, id types.ID) {
	if err := s.cache.Forget(ctx, id); err != nil {
		s.log.Warning("bill cache forget failed", logger.Int64("bill_id", int64(id)), logger.Error(err))
	}
}

func (s *Service) remember(ctx context.Context, b *Bill) {
	if err := s.cache.Put(ctx, b); err != nil {
		s.log.Warning("bill cache write failed", logger.Int64("bill_id", int64(b.ID)), logger.Error(err))
	}
}

func (s *Service) fail(op string, err error, fields ...logger.Field) error {
	s.log.Error("failed to "+op, append(fields, logger.Error(err))...)
	return fmt.Errorf("%w: %s: %w", types.ErrInternal, op, err)
}

func validateAmounts(total *decimal.Decimal, tax, discount decimal.Decimal) error {
	if total == nil {
		return fmt.Errorf("%w: total amount is required", ErrBadRequest)
	}
	if total.IsNegative() || tax.IsNegative() || discount.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", ErrBadRequest)
	}
	return nil
}
