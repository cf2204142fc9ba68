// Package finance computes fee totals and tenant-level aggregate statistics.
// All monetary amounts are decimal strings; services must route every fee
// write through TotalTariff rather than trusting a client-supplied total.
package finance

import (
	"strings"

	"autohaul_crm_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

// TotalTariff returns the sum of the carrier and broker fee components as a
// decimal string. Empty inputs count as zero; negative or non-numeric inputs
// are rejected.
func TotalTariff(carrierFee, brokerFee string) (string, error) {
	carrier, err := parseFee(carrierFee)
	if err != nil {
		return "", err
	}
	broker, err := parseFee(brokerFee)
	if err != nil {
		return "", err
	}
	return carrier.Add(broker).String(), nil
}

func parseFee(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, apperr.Validation("fee is not a valid decimal: " + trimmed)
	}
	if d.IsNegative() {
		return decimal.Zero, apperr.Validation("fee cannot be negative: " + trimmed)
	}
	return d, nil
}

// sumFees adds decimal fee strings, skipping unparseable values. Used by the
// stats rollup where historical rows may carry dirty data.
func sumFees(values []string) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		total = total.Add(d)
	}
	return total
}
