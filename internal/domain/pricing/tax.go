package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidTaxBands = errors.New("invalid tax bands")

// TaxBand applies Rate (percent) to subtotals up to and including Ceiling.
// A nil Ceiling marks the open-ended top band.
type TaxBand struct {
	Ceiling *decimal.Decimal
	Rate    decimal.Decimal
}

type TaxBands []TaxBand

// ParseTaxBands reads "8999:5,15999:12,35999:18,*:28". Bands must be listed in
// ascending order and end with the open band.
func ParseTaxBands(s string) (TaxBands, error) {
	parts := strings.Split(s, ",")
	bands := make(TaxBands, 0, len(parts))
	for i, part := range parts {
		ceil, rate, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, ErrInvalidTaxBands
		}
		r, err := decimal.NewFromString(strings.TrimSpace(rate))
		if err != nil || r.IsNegative() {
			return nil, ErrInvalidTaxBands
		}
		band := TaxBand{Rate: r}
		if strings.TrimSpace(ceil) != "*" {
			c, err := decimal.NewFromString(strings.TrimSpace(ceil))
			if err != nil {
				return nil, ErrInvalidTaxBands
			}
			if len(bands) > 0 && !c.GreaterThan(*bands[len(bands)-1].Ceiling) {
				return nil, ErrInvalidTaxBands
			}
			band.Ceiling = &c
		} else if i != len(parts)-1 {
			return nil, ErrInvalidTaxBands
		}
		bands = append(bands, band)
	}
	if len(bands) == 0 || bands[len(bands)-1].Ceiling != nil {
		return nil, ErrInvalidTaxBands
	}
	return bands, nil
}

func DefaultTaxBands() TaxBands {
	bands, _ := ParseTaxBands("8999:5,15999:12,35999:18,*:28")
	return bands
}

func (b TaxBands) RateFor(subtotal decimal.Decimal) decimal.Decimal {
	for _, band := range b {
		if band.Ceiling == nil || subtotal.LessThanOrEqual(*band.Ceiling) {
			return band.Rate
		}
	}
	return decimal.Zero
}
