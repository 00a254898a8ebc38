// README: Pricing service computes fare amount, tax and discount with exact decimals.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"ridebook/internal/types"
)

var (
	ErrNegativeDistance   = errors.New("distance must not be negative")
	ErrDiscountOutOfRange = errors.New("discount percent must be between 0 and 100")
)

var hundred = decimal.NewFromInt(100)

type Service struct {
	rate Rate
}

func NewService(rate Rate) *Service {
	return &Service{rate: rate}
}

func (s *Service) Rate() Rate {
	return s.rate
}

// Amount is distance times the per-distance rate, unrounded.
func (s *Service) Amount(distance decimal.Decimal) (decimal.Decimal, error) {
	if distance.IsNegative() {
		return decimal.Zero, ErrNegativeDistance
	}
	return distance.Mul(s.rate.PerDistance), nil
}

func (s *Service) Tax(amount decimal.Decimal) decimal.Decimal {
	return types.RoundMoney(amount.Mul(s.rate.TaxRate))
}

func (s *Service) Discount(amount, percent decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateDiscount(percent); err != nil {
		return decimal.Zero, err
	}
	return types.RoundMoney(amount.Mul(percent).Div(hundred)), nil
}

// Quote derives the bill figures for an already computed booking amount.
func (s *Service) Quote(amount, discountPercent decimal.Decimal) (Quote, error) {
	discount, err := s.Discount(amount, discountPercent)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Total:    amount,
		Tax:      s.Tax(amount),
		Discount: discount,
	}, nil
}

func ValidateDiscount(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return ErrDiscountOutOfRange
	}
	return nil
}
