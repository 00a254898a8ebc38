// README: Request and response bodies for booking and bill endpoints.
package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"ridebook/internal/modules/billing"
	"ridebook/internal/modules/booking"
	"ridebook/internal/types"
)

type bookingReq struct {
	PickupAddress      string           `json:"pickup_address"`
	DestinationAddress string           `json:"destination_address"`
	Distance           *decimal.Decimal `json:"distance"`
	PickupTime         *time.Time       `json:"pickup_time"`
	DropoffTime        *time.Time       `json:"dropoff_time"`
	DriverID           *int64           `json:"driver_id"`
	VehicleID          *int64           `json:"vehicle_id"`
	Status             string           `json:"status"`
}

type bookingResp struct {
	ID                 types.ID        `json:"id"`
	BookingNumber      string          `json:"booking_number"`
	CustomerID         types.ID        `json:"customer_id"`
	DriverID           *types.ID       `json:"driver_id"`
	VehicleID          *types.ID       `json:"vehicle_id"`
	PickupAddress      string          `json:"pickup_address"`
	DestinationAddress string          `json:"destination_address"`
	PickupTime         *time.Time      `json:"pickup_time"`
	DropoffTime        *time.Time      `json:"dropoff_time"`
	Status             booking.Status  `json:"status"`
	Distance           decimal.Decimal `json:"distance"`
	Amount             decimal.Decimal `json:"amount"`
	BookingDate        time.Time       `json:"booking_date"`
}

func toBookingResp(b *booking.Booking) bookingResp {
	return bookingResp{
		ID:                 b.ID,
		BookingNumber:      b.Number,
		CustomerID:         b.CustomerID,
		DriverID:           b.DriverID,
		VehicleID:          b.VehicleID,
		PickupAddress:      b.PickupAddress,
		DestinationAddress: b.DestinationAddress,
		PickupTime:         b.PickupTime,
		DropoffTime:        b.DropoffTime,
		Status:             b.Status,
		Distance:           b.Distance,
		Amount:             b.Amount,
		BookingDate:        b.BookingDate,
	}
}

func toBookingList(in []*booking.Booking) []bookingResp {
	out := make([]bookingResp, 0, len(in))
	for _, b := range in {
		out = append(out, toBookingResp(b))
	}
	return out
}

type billReq struct {
	BookingID      int64            `json:"booking_id"`
	TotalAmount    *decimal.Decimal `json:"total_amount"`
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	PaymentStatus  string           `json:"payment_status"`
	PaymentMethod  string           `json:"payment_method"`
	BillDate       *time.Time       `json:"bill_date"`
}

func toBillList(in []*billing.Bill) []*billing.Bill {
	if in == nil {
		return []*billing.Bill{}
	}
	return in
}
