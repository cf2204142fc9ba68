package domain

import (
	"errors"
	"testing"
	"time"
)

var june = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

func TestNextPublicIDFirstOfPeriod(t *testing.T) {
	id, err := NextPublicID(june, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "2025060001" {
		t.Fatalf("expected 2025060001, got %q", id)
	}
}

func TestNextPublicIDIncrements(t *testing.T) {
	id, err := NextPublicID(june, "2025060001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "2025060002" {
		t.Fatalf("expected 2025060002, got %q", id)
	}
}

func TestNextPublicIDZeroPadsSequence(t *testing.T) {
	id, err := NextPublicID(june, "2025060099")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "2025060100" {
		t.Fatalf("expected 2025060100, got %q", id)
	}
}

func TestNextPublicIDIgnoresForeignPeriodMax(t *testing.T) {
	// A max from a previous month restarts the sequence.
	id, err := NextPublicID(june, "2025050042")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "2025060001" {
		t.Fatalf("expected 2025060001, got %q", id)
	}
}

func TestNextPublicIDSequenceExhausted(t *testing.T) {
	_, err := NextPublicID(june, "2025069999")
	if !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("expected ErrSequenceExhausted, got %v", err)
	}
}

func TestPeriodPrefix(t *testing.T) {
	if got := PeriodPrefix(june); got != "202506" {
		t.Fatalf("expected 202506, got %q", got)
	}
	december := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	if got := PeriodPrefix(december); got != "202412" {
		t.Fatalf("expected 202412, got %q", got)
	}
}
