package shopify

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is a MoneyV2 value. Amount is the decimal string the API sends.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Minor parses Amount into minor units (cents). Amounts carry at most two
// decimals; an empty amount is zero.
func (m Money) Minor() (int64, error) {
	raw := strings.TrimSpace(m.Amount)
	if raw == "" {
		return 0, nil
	}
	neg := false
	switch raw[0] {
	case '-':
		neg = true
		raw = raw[1:]
	case '+':
		raw = raw[1:]
	}
	whole, frac, _ := strings.Cut(raw, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		if strings.Trim(frac[2:], "0") != "" {
			return 0, fmt.Errorf("parse amount %q: more than two decimals", m.Amount)
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", m.Amount, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || cents < 0 {
		return 0, fmt.Errorf("parse amount %q: invalid fraction", m.Amount)
	}
	total := units*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}

// MustMinor is Minor with unparsable amounts treated as zero.
func (m Money) MustMinor() int64 {
	v, err := m.Minor()
	if err != nil {
		return 0
	}
	return v
}

// MoneyFromMinor formats minor units back into a Money value.
func MoneyFromMinor(minor int64, currency string) Money {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return Money{
		Amount:       fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100),
		CurrencyCode: currency,
	}
}

// String renders "12.50 EUR".
func (m Money) String() string {
	minor, err := m.Minor()
	if err != nil {
		return strings.TrimSpace(m.Amount + " " + m.CurrencyCode)
	}
	return strings.TrimSpace(MoneyFromMinor(minor, m.CurrencyCode).Amount + " " + m.CurrencyCode)
}
