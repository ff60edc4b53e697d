// Package calendar wraps the local-calendar service the back office runs on.
// The engine only needs two facts from it: today's date and the fiscal-year
// label a document belongs to. The conversion between Gregorian and the local
// (Bikram Sambat) calendar stays behind this interface.
package calendar

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Service interface {
	Today() time.Time
	// FiscalYear returns the "YYYY/YY" accounting-year label for a date,
	// per the fixed fiscal-year start month.
	FiscalYear(t time.Time) string
}

// FixedCutover labels fiscal years from a fixed start month. YearOffset
// shifts the rendered year into the local calendar (57 approximates Bikram
// Sambat; 0 renders Gregorian years).
type FixedCutover struct {
	StartMonth time.Month
	YearOffset int
	Location   *time.Location
}

// Default reads FISCAL_YEAR_START_MONTH (default 7) and CALENDAR_YEAR_OFFSET
// (default 57) from env and pins the location to Asia/Kathmandu.
func Default() *FixedCutover {
	startMonth := 7
	if v := strings.TrimSpace(os.Getenv("FISCAL_YEAR_START_MONTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 12 {
			startMonth = n
		}
	}
	yearOffset := 57
	if v := strings.TrimSpace(os.Getenv("CALENDAR_YEAR_OFFSET")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			yearOffset = n
		}
	}
	loc, err := time.LoadLocation("Asia/Kathmandu")
	if err != nil {
		loc = time.UTC
	}
	return &FixedCutover{
		StartMonth: time.Month(startMonth),
		YearOffset: yearOffset,
		Location:   loc,
	}
}

func (s *FixedCutover) Today() time.Time {
	return time.Now().In(s.location())
}

func (s *FixedCutover) FiscalYear(t time.Time) string {
	local := t.In(s.location())
	year := local.Year() + s.YearOffset
	if local.Month() < s.StartMonth {
		year--
	}
	return fmt.Sprintf("%d/%02d", year, (year+1)%100)
}

func (s *FixedCutover) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}
