// Package testutil provides helper functions for testing mailscan components
package testutil

import (
	"math"
	"testing"

	"github.com/ludo-technologies/mailscan/internal/dom"
)

// MustParse parses an HTML document, failing the test on error
func MustParse(t *testing.T, input string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse test document: %v", err)
	}
	return doc
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertEqual fails the test if expected != actual
func AssertEqual(t *testing.T, expected, actual any) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}

// AssertTrue fails the test if condition is false
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Error(msg)
	}
}

// AssertFalse fails the test if condition is true
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Error(msg)
	}
}

// AssertNotNil fails the test if value is nil
func AssertNotNil(t *testing.T, value any) {
	t.Helper()
	if value == nil {
		t.Error("Expected non-nil value")
	}
}

// AssertNil fails the test if value is not nil
func AssertNil(t *testing.T, value any) {
	t.Helper()
	if value != nil {
		t.Errorf("Expected nil, got %v", value)
	}
}

// AssertInDelta fails the test if actual differs from expected by more than delta
func AssertInDelta(t *testing.T, expected, actual, delta float64) {
	t.Helper()
	if math.Abs(expected-actual) > delta {
		t.Errorf("Expected %g within %g, got %g", expected, delta, actual)
	}
}

// AssertInRange fails the test if value is outside [lo, hi]
func AssertInRange(t *testing.T, value, lo, hi float64) {
	t.Helper()
	if value < lo || value > hi {
		t.Errorf("Expected value in [%g, %g], got %g", lo, hi, value)
	}
}
