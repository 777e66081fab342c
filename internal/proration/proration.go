package proration

import (
	"time"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodNone         Method = "NONE"
	MethodCalendarDays Method = "CALENDAR_DAYS"
)

// Window is the effective date range of a compensation item.
// A nil bound means unbounded on that side.
type Window struct {
	Start *time.Time
	End   *time.Time
}

type Result struct {
	Factor     decimal.Decimal
	IsProrated bool
}

const factorScale = 9

// Compute returns the fraction of [periodStart, periodEnd] covered by the
// item's effective window. A factor of zero means the item has no overlap
// with the period and must be excluded entirely.
func Compute(periodStart, periodEnd time.Time, window Window, method Method) Result {
	switch method {
	case MethodCalendarDays:
		return calendarDays(periodStart, periodEnd, window)
	default:
		// MethodNone and any unrecognized tag: the item applies in full.
		return Result{Factor: decimal.NewFromInt(1), IsProrated: false}
	}
}

func calendarDays(periodStart, periodEnd time.Time, window Window) Result {
	start := truncateToDay(periodStart)
	end := truncateToDay(periodEnd)

	overlapStart := start
	if window.Start != nil {
		if ws := truncateToDay(*window.Start); ws.After(overlapStart) {
			overlapStart = ws
		}
	}
	overlapEnd := end
	if window.End != nil {
		if we := truncateToDay(*window.End); we.Before(overlapEnd) {
			overlapEnd = we
		}
	}

	if overlapStart.After(overlapEnd) {
		return Result{Factor: decimal.Zero, IsProrated: true}
	}

	periodDays := daysInclusive(start, end)
	overlapDays := daysInclusive(overlapStart, overlapEnd)

	if overlapDays >= periodDays {
		return Result{Factor: decimal.NewFromInt(1), IsProrated: false}
	}

	factor := decimal.NewFromInt(overlapDays).
		DivRound(decimal.NewFromInt(periodDays), factorScale)
	return Result{Factor: factor, IsProrated: true}
}

func daysInclusive(from, to time.Time) int64 {
	return int64(to.Sub(from).Hours()/24) + 1
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
