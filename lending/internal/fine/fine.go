// Package fine computes overdue fines. Nothing here touches the store.
package fine

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// OverdueDays counts whole days between due and at, rounding any partial day up.
// Zero when at is not after due.
func OverdueDays(due, at time.Time) int {
	late := at.Sub(due)
	if late <= 0 {
		return 0
	}
	days := int(late / day)
	if late%day != 0 {
		days++
	}
	return days
}

// Compute returns the fine for returning at instead of due.
func Compute(due, at time.Time, ratePerDay float64) float64 {
	days := OverdueDays(due, at)
	if days == 0 {
		return 0
	}
	return round2(float64(days) * ratePerDay)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
