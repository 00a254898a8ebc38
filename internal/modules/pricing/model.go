// README: Fare rate definition and quote breakdown.
package pricing

import "github.com/shopspring/decimal"

type Rate struct {
	PerDistance decimal.Decimal
	TaxRate     decimal.Decimal
}

// DefaultRate charges 100 per distance unit and 2% tax.
var DefaultRate = Rate{
	PerDistance: decimal.NewFromInt(100),
	TaxRate:     decimal.RequireFromString("0.02"),
}

type Quote struct {
	Total    decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
}
