// README: Booking aggregate and status definitions.
package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"ridebook/internal/types"
)

type Status string

const (
	StatusPending           Status = "PENDING"
	StatusAccepted          Status = "ACCEPTED"
	StatusDriverCancelled   Status = "DRIVER_CANCELLED"
	StatusCustomerCancelled Status = "CUSTOMER_CANCELLED"
	StatusAdminCancelled    Status = "ADMIN_CANCELLED"
)

const MaxAddressLen = 255

type Booking struct {
	ID                 types.ID
	Number             string
	CustomerID         types.ID
	DriverID           *types.ID
	VehicleID          *types.ID
	PickupAddress      string
	DestinationAddress string
	PickupTime         *time.Time
	DropoffTime        *time.Time
	Status             Status
	StatusVersion      int
	Distance           decimal.Decimal
	Amount             decimal.Decimal
	BookingDate        time.Time
}

// AllowedTransitions represents the guarded booking flow. Cancellation is
// handled separately: it is permitted from every status.
var AllowedTransitions = map[Status][]Status{
	StatusPending: {StatusAccepted},
}

var cancellations = map[Status]bool{
	StatusDriverCancelled:   true,
	StatusCustomerCancelled: true,
	StatusAdminCancelled:    true,
}

func (s Status) IsCancellation() bool {
	return cancellations[s]
}

func CanTransition(from, to Status) bool {
	if to.IsCancellation() {
		return true
	}
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// CancellationFor maps a caller role to its terminal cancellation status.
func CancellationFor(role types.Role) (Status, bool) {
	switch role {
	case types.RoleDriver:
		return StatusDriverCancelled, true
	case types.RoleCustomer:
		return StatusCustomerCancelled, true
	case types.RoleAdmin:
		return StatusAdminCancelled, true
	default:
		return "", false
	}
}
