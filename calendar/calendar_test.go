package calendar

import (
	"testing"
	"time"
)

func TestFixedCutoverFiscalYear(t *testing.T) {
	svc := &FixedCutover{StartMonth: time.July, YearOffset: 57, Location: time.UTC}

	tests := []struct {
		date string
		want string
	}{
		{"2026-08-28", "2083/84"},
		{"2026-07-01", "2083/84"},
		{"2026-06-30", "2082/83"},
		{"2026-01-15", "2082/83"},
		{"2027-12-31", "2084/85"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := time.Parse("2006-01-02", tt.date)
			if err != nil {
				t.Fatal(err)
			}
			got := svc.FiscalYear(d)
			if got != tt.want {
				t.Fatalf("FiscalYear(%s) = %q, want %q", tt.date, got, tt.want)
			}
		})
	}
}

func TestFixedCutoverGregorian(t *testing.T) {
	svc := &FixedCutover{StartMonth: time.January, YearOffset: 0, Location: time.UTC}
	d := time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC)
	if got := svc.FiscalYear(d); got != "2026/27" {
		t.Fatalf("FiscalYear = %q, want 2026/27", got)
	}
}

func TestFixedCutoverCenturyRollover(t *testing.T) {
	svc := &FixedCutover{StartMonth: time.July, YearOffset: 57, Location: time.UTC}
	// 2042 + 57 = 2099; the short half must render as 00.
	d := time.Date(2042, time.August, 1, 0, 0, 0, 0, time.UTC)
	if got := svc.FiscalYear(d); got != "2099/00" {
		t.Fatalf("FiscalYear = %q, want 2099/00", got)
	}
}
