package currency

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/pkg/utils"
)

// StaticConverter converts through a fixed table of rates quoted against one pivot currency.
// A rate r for code C means 1 C = r pivot.
type StaticConverter struct {
	pivot string
	rates map[string]decimal.Decimal
	scale int32
}

// NewStaticConverter builds a converter from rates keyed by currency code.
// The pivot always has rate 1.
func NewStaticConverter(pivot string, rates map[string]string) (*StaticConverter, error) {
	pivot = strings.ToUpper(pivot)
	if err := utils.ValidateCurrencyCode(pivot); err != nil {
		return nil, err
	}

	c := &StaticConverter{
		pivot: pivot,
		rates: map[string]decimal.Decimal{pivot: decimal.NewFromInt(1)},
		scale: 2,
	}
	for code, raw := range rates {
		code = strings.ToUpper(code)
		if err := utils.ValidateCurrencyCode(code); err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive", code)
		}
		if code == pivot && !rate.Equal(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("pivot currency %s must have rate 1", code)
		}
		c.rates[code] = rate
	}
	return c, nil
}

// Convert implements port.CurrencyConverter. Results are rounded to cents.
func (c *StaticConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	fromRate, ok := c.rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("no exchange rate for %s", from)
	}
	toRate, ok := c.rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no exchange rate for %s", to)
	}

	return amount.Mul(fromRate).DivRound(toRate, c.scale+4).Round(c.scale), nil
}

// Supported lists the currencies the converter knows
func (c *StaticConverter) Supported() []string {
	codes := make([]string, 0, len(c.rates))
	for code := range c.rates {
		codes = append(codes, code)
	}
	return codes
}

var _ port.CurrencyConverter = (*StaticConverter)(nil)
