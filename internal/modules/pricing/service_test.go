package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestService_Amount(t *testing.T) {
	s := NewService(DefaultRate)

	tests := []struct {
		name     string
		distance string
		want     string
		wantErr  error
	}{
		{name: "zero distance", distance: "0", want: "0"},
		{name: "whole units", distance: "10", want: "1000"},
		{name: "fractional distance stays exact", distance: "12.345", want: "1234.5"},
		{name: "tiny fraction", distance: "0.001", want: "0.1"},
		{name: "negative rejected", distance: "-1", wantErr: ErrNegativeDistance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Amount(d(tt.distance))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Amount() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Amount() error = %v", err)
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("Amount() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestService_Tax(t *testing.T) {
	s := NewService(DefaultRate)

	tests := []struct {
		amount string
		want   string
	}{
		{"1250.00", "25.00"},
		{"1000", "20.00"},
		{"0", "0"},
		// 0.25 * 0.02 = 0.005 -> half-up to 0.01
		{"0.25", "0.01"},
		// 0.24 * 0.02 = 0.0048 -> 0.00
		{"0.24", "0.00"},
		// 123.45 * 0.02 = 2.469 -> 2.47
		{"123.45", "2.47"},
	}
	for _, tt := range tests {
		got := s.Tax(d(tt.amount))
		if !got.Equal(d(tt.want)) {
			t.Errorf("Tax(%s) = %s, want %s", tt.amount, got, tt.want)
		}
		if got.Exponent() < -2 {
			t.Errorf("Tax(%s) has more than two fraction digits: %s", tt.amount, got)
		}
	}
}

func TestService_Discount(t *testing.T) {
	s := NewService(DefaultRate)

	tests := []struct {
		name    string
		amount  string
		percent string
		want    string
		wantErr bool
	}{
		{name: "ten percent", amount: "1000", percent: "10", want: "100.00"},
		{name: "zero percent", amount: "1000", percent: "0", want: "0"},
		{name: "full discount", amount: "1000", percent: "100", want: "1000.00"},
		{name: "half cent rounds up", amount: "0.05", percent: "10", want: "0.01"},
		{name: "fractional percent", amount: "200", percent: "12.5", want: "25.00"},
		{name: "below range", amount: "1000", percent: "-0.01", wantErr: true},
		{name: "above range", amount: "1000", percent: "100.01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Discount(d(tt.amount), d(tt.percent))
			if tt.wantErr {
				if !errors.Is(err, ErrDiscountOutOfRange) {
					t.Fatalf("Discount() error = %v, want ErrDiscountOutOfRange", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Discount() error = %v", err)
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("Discount() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestService_DiscountMonotonic(t *testing.T) {
	s := NewService(DefaultRate)
	amount := d("987.65")
	prev := decimal.Zero
	for p := int64(0); p <= 100; p++ {
		got, err := s.Discount(amount, decimal.NewFromInt(p))
		if err != nil {
			t.Fatalf("Discount(%d) error = %v", p, err)
		}
		if got.LessThan(prev) {
			t.Fatalf("discount decreased at %d%%: %s < %s", p, got, prev)
		}
		if got.IsNegative() || got.GreaterThan(amount) {
			t.Fatalf("discount %s outside [0, %s]", got, amount)
		}
		prev = got
	}
}

func TestService_Quote(t *testing.T) {
	s := NewService(DefaultRate)
	q, err := s.Quote(d("1000"), d("10"))
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if !q.Total.Equal(d("1000")) || !q.Tax.Equal(d("20.00")) || !q.Discount.Equal(d("100.00")) {
		t.Fatalf("Quote() = %+v", q)
	}
	if _, err := s.Quote(d("1000"), d("101")); !errors.Is(err, ErrDiscountOutOfRange) {
		t.Fatalf("Quote() with bad discount error = %v", err)
	}
}
