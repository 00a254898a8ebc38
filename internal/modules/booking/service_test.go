// README: Booking service tests (creation, cancellation, overrides, updates).
package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ridebook/internal/logger"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/types"
)

func newTestService(t *testing.T) (*Service, *memStore, *scriptedNumbers) {
	t.Helper()
	store := newMemStore()
	numbers := &scriptedNumbers{}
	svc := NewService(store, numbers, pricing.NewService(pricing.DefaultRate), logger.NewNop())
	return svc, store, numbers
}

func dist(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func idPtr(v types.ID) *types.ID {
	return &v
}

func mustCreate(t *testing.T, svc *Service, customerID types.ID, distance string) *Booking {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateCommand{
		CustomerID:         customerID,
		PickupAddress:      "1 Main St",
		DestinationAddress: "99 Harbour Rd",
		Distance:           dist(distance),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		// cancellation is accepted from any status
		{StatusPending, StatusCustomerCancelled, true},
		{StatusAccepted, StatusDriverCancelled, true},
		{StatusAdminCancelled, StatusCustomerCancelled, true},
		{Status("ON_HOLD"), StatusAdminCancelled, true},
		// acceptance only from PENDING
		{StatusAccepted, StatusAccepted, false},
		{StatusCustomerCancelled, StatusAccepted, false},
		{StatusDriverCancelled, StatusPending, false},
		{StatusAccepted, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCreate(t *testing.T) {
	svc, _, _ := newTestService(t)
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	b := mustCreate(t, svc, 11, "10")
	if b.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if b.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", b.Status)
	}
	if !b.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("amount = %s, want 1000", b.Amount)
	}
	if !strings.HasPrefix(b.Number, "BK") {
		t.Errorf("number = %q, want BK prefix", b.Number)
	}
	if !b.BookingDate.Equal(fixed) {
		t.Errorf("booking date = %v, want %v", b.BookingDate, fixed)
	}
	if b.CustomerID != 11 || b.DriverID != nil {
		t.Errorf("unexpected parties: customer=%d driver=%v", b.CustomerID, b.DriverID)
	}
}

func TestCreateInvalidInput(t *testing.T) {
	svc, store, _ := newTestService(t)
	long := strings.Repeat("x", MaxAddressLen+1)

	tests := []struct {
		name string
		cmd  CreateCommand
	}{
		{"missing customer", CreateCommand{PickupAddress: "a", DestinationAddress: "b", Distance: dist("1")}},
		{"blank pickup", CreateCommand{CustomerID: 1, PickupAddress: "  ", DestinationAddress: "b", Distance: dist("1")}},
		{"blank destination", CreateCommand{CustomerID: 1, PickupAddress: "a", Distance: dist("1")}},
		{"address too long", CreateCommand{CustomerID: 1, PickupAddress: long, DestinationAddress: "b", Distance: dist("1")}},
		{"missing distance", CreateCommand{CustomerID: 1, PickupAddress: "a", DestinationAddress: "b"}},
		{"negative distance", CreateCommand{CustomerID: 1, PickupAddress: "a", DestinationAddress: "b", Distance: dist("-0.5")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.cmd)
			if !errors.Is(err, ErrBadRequest) {
				t.Fatalf("expected ErrBadRequest, got %v", err)
			}
		})
	}
	if all, _ := store.List(context.Background()); len(all) != 0 {
		t.Fatalf("expected no bookings persisted, got %d", len(all))
	}
}

func TestCreateRetriesOnNumberCollision(t *testing.T) {
	svc, _, numbers := newTestService(t)
	first := mustCreate(t, svc, 1, "1")

	numbers.script = []string{first.Number, first.Number, "BKFRESH0001"}
	b := mustCreate(t, svc, 2, "2")
	if b.Number != "BKFRESH0001" {
		t.Fatalf("number = %q, want BKFRESH0001", b.Number)
	}
}

func TestCreateGivesUpAfterRetries(t *testing.T) {
	svc, _, numbers := newTestService(t)
	svc.SetNumberRetries(2)
	first := mustCreate(t, svc, 1, "1")

	numbers.script = []string{first.Number, first.Number, first.Number}
	_, err := svc.Create(context.Background(), CreateCommand{
		CustomerID:         2,
		PickupAddress:      "a",
		DestinationAddress: "b",
		Distance:           dist("1"),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateNumberGeneratorFailure(t *testing.T) {
	svc, _, numbers := newTestService(t)
	numbers.err = errStoreDown
	_, err := svc.Create(context.Background(), CreateCommand{
		CustomerID:         2,
		PickupAddress:      "a",
		DestinationAddress: "b",
		Distance:           dist("1"),
	})
	if !errors.Is(err, errStoreDown) || !errors.Is(err, types.ErrInternal) {
		t.Fatalf("expected internal generator error, got %v", err)
	}
}

func TestCancelByRole(t *testing.T) {
	tests := []struct {
		role       string
		want       Status
		driverKept bool
	}{
		{"ROLE_DRIVER", StatusDriverCancelled, false},
		{"driver", StatusDriverCancelled, false},
		{"ROLE_CUSTOMER", StatusCustomerCancelled, true},
		{"ROLE_ADMIN", StatusAdminCancelled, true},
		{"admin", StatusAdminCancelled, true},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			ctx := context.Background()
			b := mustCreate(t, svc, 5, "3")
			// simulate an accepted booking carrying a driver
			if _, err := store.Update(ctx, &Booking{
				ID:                 b.ID,
				DriverID:           idPtr(7),
				PickupAddress:      b.PickupAddress,
				DestinationAddress: b.DestinationAddress,
				Status:             StatusAccepted,
				Distance:           b.Distance,
				Amount:             b.Amount,
			}); err != nil {
				t.Fatalf("seed driver: %v", err)
			}

			got, err := svc.Cancel(ctx, CancelCommand{BookingID: b.ID, CallerRole: tt.role})
			if err != nil {
				t.Fatalf("cancel: %v", err)
			}
			if got != tt.want {
				t.Fatalf("status = %s, want %s", got, tt.want)
			}
			after, _ := svc.Get(ctx, b.ID)
			if after.Status != tt.want {
				t.Fatalf("stored status = %s, want %s", after.Status, tt.want)
			}
			if tt.driverKept && (after.DriverID == nil || *after.DriverID != 7) {
				t.Fatalf("driver should be untouched, got %v", after.DriverID)
			}
			if !tt.driverKept && after.DriverID != nil {
				t.Fatalf("driver should be cleared, got %d", *after.DriverID)
			}
		})
	}
}

func TestCancelErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Cancel(ctx, CancelCommand{BookingID: 404, CallerRole: "ROLE_ADMIN"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	b := mustCreate(t, svc, 5, "3")
	if _, err := svc.Cancel(ctx, CancelCommand{BookingID: b.ID, CallerRole: "ROLE_DISPATCHER"}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	after, _ := svc.Get(ctx, b.ID)
	if after.Status != StatusPending {
		t.Fatalf("status changed on rejected cancel: %s", after.Status)
	}
}

func TestCancelTwiceIsAllowed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b := mustCreate(t, svc, 5, "3")

	if _, err := svc.Cancel(ctx, CancelCommand{BookingID: b.ID, CallerRole: "ROLE_CUSTOMER"}); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	got, err := svc.Cancel(ctx, CancelCommand{BookingID: b.ID, CallerRole: "ROLE_ADMIN"})
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if got != StatusAdminCancelled {
		t.Fatalf("status = %s", got)
	}
}

func TestOverrideStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b := mustCreate(t, svc, 5, "3")

	got, err := svc.OverrideStatus(ctx, OverrideCommand{BookingID: b.ID, Status: "ON_HOLD"})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if got.Status != Status("ON_HOLD") {
		t.Fatalf("status = %s", got.Status)
	}
	if got.StatusVersion != b.StatusVersion+1 {
		t.Fatalf("version = %d, want %d", got.StatusVersion, b.StatusVersion+1)
	}

	if _, err := svc.OverrideStatus(ctx, OverrideCommand{BookingID: b.ID, Status: "   "}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for blank status, got %v", err)
	}
	if _, err := svc.OverrideStatus(ctx, OverrideCommand{BookingID: 999, Status: "PENDING"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRecomputesAmount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b := mustCreate(t, svc, 5, "3")

	pickup := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	got, err := svc.Update(ctx, b.ID, UpdateCommand{
		PickupAddress:      "2 New St",
		DestinationAddress: "3 Other Rd",
		Distance:           dist("7.25"),
		PickupTime:         &pickup,
		DriverID:           idPtr(9),
		VehicleID:          idPtr(4),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("725")) {
		t.Errorf("amount = %s, want 725", got.Amount)
	}
	if got.Number != b.Number || got.CustomerID != b.CustomerID {
		t.Errorf("identity changed: %q/%d", got.Number, got.CustomerID)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %s, want unchanged PENDING", got.Status)
	}
	if got.DriverID == nil || *got.DriverID != 9 || got.VehicleID == nil || *got.VehicleID != 4 {
		t.Errorf("parties not overwritten: %v %v", got.DriverID, got.VehicleID)
	}

	got, err = svc.Update(ctx, b.ID, UpdateCommand{
		PickupAddress:      "2 New St",
		DestinationAddress: "3 Other Rd",
		Distance:           dist("1"),
		Status:             StatusAdminCancelled,
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if got.Status != StatusAdminCancelled || got.DriverID != nil {
		t.Errorf("full overwrite expected, got status=%s driver=%v", got.Status, got.DriverID)
	}
}

func TestUpdateErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, 404, UpdateCommand{PickupAddress: "a", DestinationAddress: "b", Distance: dist("1")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	b := mustCreate(t, svc, 5, "3")
	_, err = svc.Update(ctx, b.ID, UpdateCommand{PickupAddress: "a", DestinationAddress: "b", Distance: dist("-1")})
	if !errors.Is(err, ErrBadRequest) || !errors.Is(err, pricing.ErrNegativeDistance) {
		t.Fatalf("expected wrapped negative distance, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := mustCreate(t, svc, 5, "3")

	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("second delete should succeed, got %v", err)
	}
	if _, err := svc.Get(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	store.failDel = errStoreDown
	if err := svc.Delete(ctx, b.ID); !errors.Is(err, errStoreDown) || !errors.Is(err, types.ErrInternal) {
		t.Fatalf("store failure must propagate, got %v", err)
	}
}

func TestQueries(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, 1, "1")
	mustCreate(t, svc, 2, "2")
	c := mustCreate(t, svc, 1, "3")
	c.DriverID = idPtr(8)
	if _, err := store.Update(ctx, c); err != nil {
		t.Fatalf("seed driver: %v", err)
	}

	byCustomer, err := svc.ListByCustomer(ctx, 1)
	if err != nil || len(byCustomer) != 2 {
		t.Fatalf("ListByCustomer = %d, %v", len(byCustomer), err)
	}
	byDriver, err := svc.ListByDriver(ctx, 8)
	if err != nil || len(byDriver) != 1 || byDriver[0].ID != c.ID {
		t.Fatalf("ListByDriver = %v, %v", byDriver, err)
	}
	all, err := svc.List(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("List = %d, %v", len(all), err)
	}
	got, err := svc.GetByNumber(ctx, a.Number)
	if err != nil || got.ID != a.ID {
		t.Fatalf("GetByNumber = %v, %v", got, err)
	}
	if _, err := svc.GetByNumber(ctx, "BKMISSING"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByNumber(ctx, ""); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestReadFailuresAreInternal(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(svc *Service, id types.ID) error
	}{
		{"get", func(svc *Service, id types.ID) error { _, err := svc.Get(ctx, id); return err }},
		{"get by number", func(svc *Service, _ types.ID) error { _, err := svc.GetByNumber(ctx, "BKTEST0001"); return err }},
		{"list", func(svc *Service, _ types.ID) error { _, err := svc.List(ctx); return err }},
		{"list by customer", func(svc *Service, _ types.ID) error { _, err := svc.ListByCustomer(ctx, 5); return err }},
		{"list by driver", func(svc *Service, _ types.ID) error { _, err := svc.ListByDriver(ctx, 7); return err }},
		{"cancel lookup", func(svc *Service, id types.ID) error {
			_, err := svc.Cancel(ctx, CancelCommand{BookingID: id, CallerRole: "ROLE_ADMIN"})
			return err
		}},
		{"override lookup", func(svc *Service, id types.ID) error {
			_, err := svc.OverrideStatus(ctx, OverrideCommand{BookingID: id, Status: "ON_HOLD"})
			return err
		}},
		{"update lookup", func(svc *Service, id types.ID) error {
			_, err := svc.Update(ctx, id, UpdateCommand{PickupAddress: "a", DestinationAddress: "b", Distance: dist("1")})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			b := mustCreate(t, svc, 5, "3")
			store.failRead = errStoreDown

			err := tt.call(svc, b.ID)
			if !errors.Is(err, types.ErrInternal) || !errors.Is(err, errStoreDown) {
				t.Fatalf("expected internal store error, got %v", err)
			}
		})
	}

	svc, _, _ := newTestService(t)
	if _, err := svc.Get(ctx, 404); !errors.Is(err, ErrNotFound) || errors.Is(err, types.ErrInternal) {
		t.Fatalf("not found must stay a domain error, got %v", err)
	}
}
