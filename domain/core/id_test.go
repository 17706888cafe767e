package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	// Generate many IDs
	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDString tests ID string conversion
func TestIDString(t *testing.T) {
	id := ID("test-123")
	if id.String() != "test-123" {
		t.Errorf("Expected String() to return 'test-123', got '%s'", id.String())
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"run-123", RunID("run-123"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestParseCustomerID tests customer ID parsing
func TestParseCustomerID(t *testing.T) {
	tests := []struct {
		input    string
		expected CustomerID
		hasError bool
	}{
		{"7590-VHVEG", CustomerID("7590-VHVEG"), false},
		{"", "", true},
		{"  ", "", true},
	}

	for _, test := range tests {
		result, err := ParseCustomerID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestDivideByZero tests the undefined ratio sentinel
func TestDivideByZero(t *testing.T) {
	r := Divide(10, 0)
	if r.Valid {
		t.Error("Expected division by zero to yield an undefined ratio")
	}
	if r.Render(2) != "" {
		t.Errorf("Expected undefined ratio to render empty, got '%s'", r.Render(2))
	}

	zero := Percent(0, 5)
	if !zero.Valid {
		t.Error("Expected 0/5 to be a defined ratio")
	}
	if zero.Render(2) != "0.00" {
		t.Errorf("Expected true zero to render '0.00', got '%s'", zero.Render(2))
	}
}

// TestPercentBounds tests percentage computation stays in range
func TestPercentBounds(t *testing.T) {
	r := Percent(3, 4)
	if !r.Valid || r.Value != 75 {
		t.Errorf("Expected 75, got %+v", r)
	}
}

// TestSnapshotHashOrderIndependence tests row order never changes the fingerprint
func TestSnapshotHashOrderIndependence(t *testing.T) {
	digests := map[string]string{"a": "1", "b": "2", "c": "3"}

	h1 := ComputeSnapshotHash([]string{"a", "b", "c"}, digests)
	h2 := ComputeSnapshotHash([]string{"c", "a", "b"}, digests)

	if !Hash(h1).Equals(Hash(h2)) {
		t.Errorf("Fingerprint changed with row order: %s vs %s", h1, h2)
	}

	digests["c"] = "changed"
	h3 := ComputeSnapshotHash([]string{"a", "b", "c"}, digests)
	if Hash(h1).Equals(Hash(h3)) {
		t.Error("Fingerprint did not change when a row changed")
	}
}
