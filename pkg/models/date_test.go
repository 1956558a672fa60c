package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateDaysUntil(t *testing.T) {
	start := NewDate(2024, time.January, 1)
	end := NewDate(2024, time.January, 31)

	if got := start.DaysUntil(end); got != 30 {
		t.Errorf("Expected 30 days, got %d", got)
	}
	if got := start.DaysUntil(start); got != 0 {
		t.Errorf("Expected 0 days, got %d", got)
	}
	if got := end.DaysUntil(start); got != -30 {
		t.Errorf("Expected -30 days, got %d", got)
	}

	// Leap day: Feb 2024 has 29 days.
	if got := NewDate(2024, time.February, 1).DaysUntil(NewDate(2024, time.March, 1)); got != 29 {
		t.Errorf("Expected 29 days across leap February, got %d", got)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Day Date `json:"day"`
	}

	out, err := json.Marshal(wrapper{Day: NewDate(2024, time.June, 5)})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != `{"day":"2024-06-05"}` {
		t.Errorf("Unexpected JSON: %s", out)
	}

	var in wrapper
	if err := json.Unmarshal(out, &in); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if in.Day.String() != "2024-06-05" {
		t.Errorf("Round trip mismatch: %s", in.Day)
	}

	var zero wrapper
	if err := json.Unmarshal([]byte(`{"day":null}`), &zero); err != nil {
		t.Fatalf("Unmarshal null failed: %v", err)
	}
	if !zero.Day.IsZero() {
		t.Errorf("Expected zero date from null, got %s", zero.Day)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	if _, err := ParseDate("31-01-2024"); err == nil {
		t.Error("Expected error for wrong layout")
	}
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Error("Expected error for impossible month")
	}
}
