// README: Bill record and payment constants.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"ridebook/internal/types"
)

const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "Payment Completed"

	MethodNotSpecified = "NOT_SPECIFIED"
)

type Bill struct {
	ID             types.ID        `json:"id"`
	BookingID      types.ID        `json:"booking_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	PaymentStatus  string          `json:"payment_status"`
	PaymentMethod  string          `json:"payment_method"`
	BillDate       time.Time       `json:"bill_date"`
}
