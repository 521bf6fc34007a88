// Package recurrence expands scheduled recurring items into concrete occurrence
// dates. Expansion is a pure function: bounded, restartable, and free of side
// effects.
package recurrence

import (
	"time"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// Expand returns every occurrence of a schedule that falls inside
// [from, horizon], inclusive. start anchors the series; end (optional) and
// horizon both bound it. interval < 1 is treated as 1.
func Expand(start time.Time, end *time.Time, freq domain.RecurrenceFrequency, interval int, from, horizon time.Time) []time.Time {
	if interval < 1 {
		interval = 1
	}
	limit := horizon
	if end != nil && end.Before(horizon) {
		limit = *end
	}

	var out []time.Time
	for d := start; !d.After(limit); d = next(d, freq, interval) {
		if !d.Before(from) {
			out = append(out, d)
		}
	}
	return out
}

func next(d time.Time, freq domain.RecurrenceFrequency, interval int) time.Time {
	switch freq {
	case domain.FreqWeekly:
		return d.AddDate(0, 0, 7*interval)
	case domain.FreqMonthly:
		return d.AddDate(0, interval, 0)
	default:
		// Unknown frequency: step past the horizon so expansion terminates.
		return d.AddDate(100, 0, 0)
	}
}
