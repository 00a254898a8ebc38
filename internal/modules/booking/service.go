// README: Booking service implements creation, cancellation, overrides and updates.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"ridebook/internal/logger"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/types"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	GetByNumber(ctx context.Context, number string) (*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
	ListByCustomer(ctx context.Context, customerID types.ID) ([]*Booking, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]*Booking, error)
	SetStatus(ctx context.Context, id types.ID, to Status, clearDriver bool) (*Booking, error)
	Update(ctx context.Context, b *Booking) (*Booking, error)
	Delete(ctx context.Context, id types.ID) (bool, error)
}

type Service struct {
	store   Repository
	numbers NumberGenerator
	pricing *pricing.Service
	log     logger.ILogger
	retries int
	now     func() time.Time
}

func NewService(store Repository, numbers NumberGenerator, pricingSvc *pricing.Service, log logger.ILogger) *Service {
	return &Service{
		store:   store,
		numbers: numbers,
		pricing: pricingSvc,
		log:     log,
		retries: 5,
		now:     time.Now,
	}
}

// SetNumberRetries bounds how many booking numbers Create tries before
// giving up with ErrConflict.
func (s *Service) SetNumberRetries(n int) {
	if n > 0 {
		s.retries = n
	}
}

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("booking not found")
	ErrConflict     = errors.New("booking conflict")
	ErrBadRequest   = errors.New("bad request")
)

type CreateCommand struct {
	CustomerID         types.ID
	PickupAddress      string
	DestinationAddress string
	Distance           *decimal.Decimal
	PickupTime         *time.Time
	DropoffTime        *time.Time
	DriverID           *types.ID
	VehicleID          *types.ID
}

type CancelCommand struct {
	BookingID  types.ID
	CallerRole string
}

type OverrideCommand struct {
	BookingID types.ID
	Status    string
}

type UpdateCommand struct {
	PickupAddress      string
	DestinationAddress string
	Distance           *decimal.Decimal
	PickupTime         *time.Time
	DropoffTime        *time.Time
	DriverID           *types.ID
	VehicleID          *types.ID
	// Status replaces the current status; empty keeps it.
	Status Status
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.CustomerID <= 0 {
		return nil, fmt.Errorf("%w: customer id is required", ErrBadRequest)
	}
	pickup, dest, err := validateAddresses(cmd.PickupAddress, cmd.DestinationAddress)
	if err != nil {
		return nil, err
	}
	amount, err := s.amount(cmd.Distance)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		CustomerID:         cmd.CustomerID,
		DriverID:           cmd.DriverID,
		VehicleID:          cmd.VehicleID,
		PickupAddress:      pickup,
		DestinationAddress: dest,
		PickupTime:         cmd.PickupTime,
		DropoffTime:        cmd.DropoffTime,
		Status:             StatusPending,
		StatusVersion:      0,
		Distance:           *cmd.Distance,
		Amount:             amount,
		BookingDate:        s.now(),
	}

	for attempt := 1; ; attempt++ {
		number, err := s.numbers.Next(ctx)
		if err != nil {
			return nil, s.fail("generate booking number", err)
		}
		b.Number = number
		err = s.store.Create(ctx, b)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateNumber) {
			return nil, s.fail("create booking", err, logger.Int64("customer_id", int64(cmd.CustomerID)))
		}
		if attempt >= s.retries {
			s.log.Error("booking number space exhausted", logger.Int("attempts", attempt))
			return nil, fmt.Errorf("%w: could not allocate a unique booking number", ErrConflict)
		}
		s.log.Warning("booking number collision, retrying", logger.String("number", number), logger.Int("attempt", attempt))
	}

	s.log.Info("booking created",
		logger.Int64("booking_id", int64(b.ID)),
		logger.String("number", b.Number),
		logger.Stringer("amount", b.Amount),
	)
	return b, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, s.fail("get booking", err, logger.Int64("booking_id", int64(id)))
	}
	return b, err
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrBadRequest
	}
	b, err := s.store.GetByNumber(ctx, number)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, s.fail("get booking by number", err, logger.String("number", number))
	}
	return b, err
}

func (s *Service) List(ctx context.Context) ([]*Booking, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail("list bookings", err)
	}
	return list, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Booking, error) {
	list, err := s.store.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, s.fail("list customer bookings", err, logger.Int64("customer_id", int64(customerID)))
	}
	return list, nil
}

func (s *Service) ListByDriver(ctx context.Context, driverID types.ID) ([]*Booking, error) {
	list, err := s.store.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, s.fail("list driver bookings", err, logger.Int64("driver_id", int64(driverID)))
	}
	return list, nil
}

// Cancel moves the booking to the cancellation status matching the caller's
// role. Any current status may be cancelled.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (Status, error) {
	b, err := s.Get(ctx, cmd.BookingID)
	if err != nil {
		return "", err
	}
	role := types.NormalizeRole(cmd.CallerRole)
	to, ok := CancellationFor(role)
	if !ok {
		return "", fmt.Errorf("%w: role %q cannot cancel bookings", ErrBadRequest, cmd.CallerRole)
	}
	if !CanTransition(b.Status, to) {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidState, b.Status, to)
	}
	if _, err := s.store.SetStatus(ctx, b.ID, to, to == StatusDriverCancelled); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", s.fail("cancel booking", err, logger.Int64("booking_id", int64(b.ID)))
	}
	s.log.Info("booking cancelled",
		logger.Int64("booking_id", int64(b.ID)),
		logger.String("from", string(b.Status)),
		logger.String("to", string(to)),
	)
	return to, nil
}

// OverrideStatus is the administrative escape hatch: it stores any non-blank
// status without consulting the transition table.
func (s *Service) OverrideStatus(ctx context.Context, cmd OverrideCommand) (*Booking, error) {
	status := strings.TrimSpace(cmd.Status)
	if status == "" || utf8.RuneCountInString(status) > MaxAddressLen {
		return nil, fmt.Errorf("%w: status must be 1-%d characters", ErrBadRequest, MaxAddressLen)
	}
	prev, err := s.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	b, err := s.store.SetStatus(ctx, cmd.BookingID, Status(status), false)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, s.fail("override booking status", err, logger.Int64("booking_id", int64(cmd.BookingID)))
	}
	s.log.Warning("booking status overridden",
		logger.Int64("booking_id", int64(b.ID)),
		logger.String("from", string(prev.Status)),
		logger.String("to", status),
	)
	return b, nil
}

// Update overwrites every mutable field and recomputes the amount from the
// supplied distance. Number, customer and booking date are preserved.
func (s *Service) Update(ctx context.Context, id types.ID, cmd UpdateCommand) (*Booking, error) {
	pickup, dest, err := validateAddresses(cmd.PickupAddress, cmd.DestinationAddress)
	if err != nil {
		return nil, err
	}
	amount, err := s.amount(cmd.Distance)
	if err != nil {
		return nil, err
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *cur
	next.PickupAddress = pickup
	next.DestinationAddress = dest
	next.Distance = *cmd.Distance
	next.Amount = amount
	next.PickupTime = cmd.PickupTime
	next.DropoffTime = cmd.DropoffTime
	next.DriverID = cmd.DriverID
	next.VehicleID = cmd.VehicleID
	if st := Status(strings.TrimSpace(string(cmd.Status))); st != "" {
		next.Status = st
	}

	b, err := s.store.Update(ctx, &next)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, s.fail("update booking", err, logger.Int64("booking_id", int64(id)))
	}
	return b, nil
}

// Delete is idempotent: removing an absent booking succeeds.
func (s *Service) Delete(ctx context.Context, id types.ID) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return s.fail("delete booking", err, logger.Int64("booking_id", int64(id)))
	}
	if !removed {
		s.log.Debug("delete of absent booking ignored", logger.Int64("booking_id", int64(id)))
	}
	return nil
}

// fail logs an unexpected store failure and wraps it as types.ErrInternal.
func (s *Service) fail(op string, err error, fields ...logger.Field) error {
	s.log.Error("failed to "+op, append(fields, logger.Error(err))...)
	return fmt.Errorf("%w: %s: %w", types.ErrInternal, op, err)
}

func (s *Service) amount(distance *decimal.Decimal) (decimal.Decimal, error) {
	if distance == nil {
		return decimal.Zero, fmt.Errorf("%w: distance is required", ErrBadRequest)
	}
	amount, err := s.pricing.Amount(*distance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return amount, nil
}

func validateAddresses(pickup, dest string) (string, string, error) {
	pickup = strings.TrimSpace(pickup)
	dest = strings.TrimSpace(dest)
	if pickup == "" || dest == "" {
		return "", "", fmt.Errorf("%w: pickup and destination addresses are required", ErrBadRequest)
	}
	if utf8.RuneCountInString(pickup) > MaxAddressLen || utf8.RuneCountInString(dest) > MaxAddressLen {
		return "", "", fmt.Errorf("%w: addresses are limited to %d characters", ErrBadRequest, MaxAddressLen)
	}
	return pickup, dest, nil
}
