package finance

import (
	"testing"

	"autohaul_crm_backend/platform/apperr"
)

func TestTotalTariff(t *testing.T) {
	cases := []struct {
		name    string
		carrier string
		broker  string
		want    string
	}{
		{"simple sum", "100", "50", "150"},
		{"both zero", "0", "0", "0"},
		{"empty counts as zero", "", "75", "75"},
		{"decimal cents", "100.25", "49.75", "150"},
		{"uneven cents", "10.10", "0.05", "10.15"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TotalTariff(tc.carrier, tc.broker)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("TotalTariff(%q, %q) = %q, want %q", tc.carrier, tc.broker, got, tc.want)
			}
		})
	}
}

func TestTotalTariffRejectsNegative(t *testing.T) {
	if _, err := TotalTariff("-5", "10"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for negative carrier fee, got %v", err)
	}
}

func TestTotalTariffRejectsGarbage(t *testing.T) {
	if _, err := TotalTariff("100", "fifty"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for non-numeric broker fee, got %v", err)
	}
}
