// README: Lifecycle service accepts bookings and bills them in one transaction.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ridebook/internal/logger"
	"ridebook/internal/modules/billing"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/types"
)

type Bookings interface {
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	Delete(ctx context.Context, id types.ID) error
}

// Bills is what booking deletion needs to keep the bill cache honest.
type Bills interface {
	GetByBooking(ctx context.Context, bookingID types.ID) (*billing.Bill, error)
	Forget(ctx context.Context, id types.ID)
}

// Tx is the set of writes acceptance performs atomically.
type Tx interface {
	MarkAccepted(ctx context.Context, id types.ID, version int, driverID types.ID) (bool, error)
	CreateBill(ctx context.Context, b *billing.Bill) error
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Service struct {
	bookings Bookings
	bills    Bills
	tx       Transactor
	pricing  *pricing.Service
	log      logger.ILogger
	now      func() time.Time
}

func NewService(bookings Bookings, bills Bills, tx Transactor, pricingSvc *pricing.Service, log logger.ILogger) *Service {
	return &Service{
		bookings: bookings,
		bills:    bills,
		tx:       tx,
		pricing:  pricingSvc,
		log:      log,
		now:      time.Now,
	}
}

type AcceptCommand struct {
	BookingID       types.ID
	DriverID        types.ID
	DiscountPercent decimal.Decimal
}

// Accept validates everything up front, then flips the booking to ACCEPTED
// and inserts its bill in a single transaction. Of several concurrent
// accepts on one booking exactly one succeeds; the rest get ErrInvalidState.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*booking.Booking, error) {
	if cmd.BookingID <= 0 || cmd.DriverID <= 0 {
		return nil, fmt.Errorf("%w: booking id and driver id are required", booking.ErrBadRequest)
	}
	if err := pricing.ValidateDiscount(cmd.DiscountPercent); err != nil {
		return nil, fmt.Errorf("%w: %w", booking.ErrBadRequest, err)
	}

	b, err := s.bookings.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, s.lookupFailed("load booking", cmd.BookingID, err)
	}
	if !booking.CanTransition(b.Status, booking.StatusAccepted) {
		return nil, fmt.Errorf("%w: booking is %s", booking.ErrInvalidState, b.Status)
	}

	quote, err := s.pricing.Quote(b.Amount, cmd.DiscountPercent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", booking.ErrBadRequest, err)
	}
	bill := billing.NewBill(b.ID, quote.Total, quote.Tax, quote.Discount, s.now())

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		ok, err := tx.MarkAccepted(ctx, b.ID, b.StatusVersion, cmd.DriverID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: booking changed while accepting", booking.ErrInvalidState)
		}
		return tx.CreateBill(ctx, bill)
	})
	if err != nil {
		if isDomainError(err) {
			s.log.Info("booking accept rejected",
				logger.Int64("booking_id", int64(b.ID)),
				logger.Int64("driver_id", int64(cmd.DriverID)),
				logger.Error(err),
			)
			return nil, err
		}
		s.log.Error("failed to accept booking", logger.Int64("booking_id", int64(b.ID)), logger.Error(err))
		return nil, fmt.Errorf("%w: accept booking %d: %w", types.ErrInternal, b.ID, err)
	}

	driverID := cmd.DriverID
	b.Status = booking.StatusAccepted
	b.DriverID = &driverID
	b.StatusVersion++

	s.log.Info("booking accepted",
		logger.Int64("booking_id", int64(b.ID)),
		logger.Int64("driver_id", int64(driverID)),
		logger.Int64("bill_id", int64(bill.ID)),
		logger.Stringer("tax", bill.TaxAmount),
		logger.Stringer("discount", bill.DiscountAmount),
	)
	return b, nil
}

// DeleteBooking removes a booking. Its bill goes with it through the foreign
// key cascade, so the bill is also marked deleted in the cache.
func (s *Service) DeleteBooking(ctx context.Context, id types.ID) error {
	bill, err := s.bills.GetByBooking(ctx, id)
	if err != nil {
		return s.lookupFailed("load bill", id, err)
	}
	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	if bill != nil {
		s.bills.Forget(ctx, bill.ID)
		s.log.Info("bill removed with booking", logger.Int64("booking_id", int64(id)), logger.Int64("bill_id", int64(bill.ID)))
	}
	return nil
}

// lookupFailed passes not-found and already classified failures through and
// wraps anything else as types.ErrInternal.
func (s *Service) lookupFailed(op string, bookingID types.ID, err error) error {
	if errors.Is(err, booking.ErrNotFound) || errors.Is(err, types.ErrInternal) {
		return err
	}
	s.log.Error("failed to "+op, logger.Int64("booking_id", int64(bookingID)), logger.Error(err))
	return fmt.Errorf("%w: %s %d: %w", types.ErrInternal, op, bookingID, err)
}

func isDomainError(err error) bool {
	return errors.Is(err, booking.ErrInvalidState) ||
		errors.Is(err, billing.ErrConflict) ||
		errors.Is(err, billing.ErrBookingMissing)
}
