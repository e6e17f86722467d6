package calendar

import (
	"reflect"
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	cal := New(time.UTC)

	tests := []struct {
		date string
		want string
	}{
		{"2024-01-08", "2024-01-08"}, // Monday
		{"2024-01-10", "2024-01-08"},
		{"2024-01-14", "2024-01-08"}, // Sunday belongs to the previous Monday
		{"2024-01-15", "2024-01-15"},
		{"2025-01-01", "2024-12-30"}, // ISO week crossing the year
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got, err := cal.WeekStart(tt.date)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("WeekStart(%s) = %s, want %s", tt.date, got, tt.want)
			}
		})
	}
}

func TestWeekStart_InvalidDate(t *testing.T) {
	if _, err := New(time.UTC).WeekStart("2024-13-01"); err == nil {
		t.Error("expected error for invalid month")
	}
}

func TestDayBoundaries_ReferenceTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	cal := New(loc)

	start, err := cal.DayStart("2024-03-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	end, err := cal.DayEnd("2024-03-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// DST starts on 2024-03-31 in Paris.
	if got := end.Sub(start); got != 23*time.Hour {
		t.Errorf("expected 23h day, got %s", got)
	}

	// 23:30 UTC on the 9th is already the 10th in Paris.
	now := time.Date(2024, 1, 9, 23, 30, 0, 0, time.UTC)
	if got := cal.Today(now); got != "2024-01-10" {
		t.Errorf("Today() = %s, want 2024-01-10", got)
	}
}

func TestRange(t *testing.T) {
	cal := New(time.UTC)

	got, err := cal.Range("2024-02-27", "2024-03-01", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Range() = %v, want %v", got, want)
	}

	capped, err := cal.Range("2024-01-01", "2024-12-31", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capped) != 3 {
		t.Errorf("expected range to be capped at 3, got %d", len(capped))
	}

	if _, err := cal.Range("2024-01-02", "2024-01-01", 10); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestDaysBetween(t *testing.T) {
	cal := New(time.UTC)

	tests := []struct {
		a, b string
		want int
	}{
		{"2024-01-10", "2024-01-10", 0},
		{"2024-01-10", "2024-01-24", 14},
		{"2024-01-10", "2024-01-09", -1},
		{"2024-02-28", "2024-03-01", 2},
	}

	for _, tt := range tests {
		got, err := cal.DaysBetween(tt.a, tt.b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
