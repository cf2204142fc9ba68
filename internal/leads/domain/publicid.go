// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Public identifiers have the form YYYYMM#### — the calendar period of the
// lead's creation followed by a 4-digit sequence unique within that period.
// The identifier is allocated once at lead creation and copied verbatim onto
// every entity derived from the lead.
const (
	sequenceDigits = 4
	sequenceMax    = 9999
)

// ErrSequenceExhausted is returned when a period's 4-digit sequence is used
// up. Monthly per-tenant volume is assumed to stay well below 10000; the
// allocator surfaces this instead of wrapping around.
var ErrSequenceExhausted = errors.New("public identifier sequence exhausted for period")

// PeriodPrefix returns the YYYYMM prefix for the given creation time.
func PeriodPrefix(t time.Time) string {
	return t.Format("200601")
}

// FormatPublicID builds the identifier for a period and sequence number.
func FormatPublicID(t time.Time, seq int) string {
	return fmt.Sprintf("%s%0*d", PeriodPrefix(t), sequenceDigits, seq)
}

// NextPublicID computes the identifier following currentMax for the period of
// t. An empty or foreign-period currentMax starts the sequence at 1.
func NextPublicID(t time.Time, currentMax string) (string, error) {
	prefix := PeriodPrefix(t)

	seq := 0
	if strings.HasPrefix(currentMax, prefix) && len(currentMax) == len(prefix)+sequenceDigits {
		parsed, err := strconv.Atoi(currentMax[len(prefix):])
		if err != nil {
			return "", fmt.Errorf("malformed public identifier %q: %w", currentMax, err)
		}
		seq = parsed
	}

	if seq >= sequenceMax {
		return "", ErrSequenceExhausted
	}

	return FormatPublicID(t, seq+1), nil
}
