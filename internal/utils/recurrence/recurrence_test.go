package recurrence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
	"github.com/ledgera/ledgera_backend/internal/utils/recurrence"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandWeekly(t *testing.T) {
	start := day(2025, time.January, 6)
	from := day(2025, time.January, 1)
	horizon := day(2025, time.February, 3)

	got := recurrence.Expand(start, nil, domain.FreqWeekly, 1, from, horizon)
	want := []time.Time{
		day(2025, time.January, 6),
		day(2025, time.January, 13),
		day(2025, time.January, 20),
		day(2025, time.January, 27),
		day(2025, time.February, 3),
	}
	assert.Equal(t, want, got)
}

func TestExpandMonthlyWithInterval(t *testing.T) {
	start := day(2025, time.January, 15)
	from := day(2025, time.January, 1)
	horizon := day(2025, time.July, 31)

	got := recurrence.Expand(start, nil, domain.FreqMonthly, 2, from, horizon)
	want := []time.Time{
		day(2025, time.January, 15),
		day(2025, time.March, 15),
		day(2025, time.May, 15),
		day(2025, time.July, 15),
	}
	assert.Equal(t, want, got)
}

func TestExpandHonorsEndDate(t *testing.T) {
	start := day(2025, time.January, 6)
	end := day(2025, time.January, 20)
	from := day(2025, time.January, 1)
	horizon := day(2025, time.March, 1)

	got := recurrence.Expand(start, &end, domain.FreqWeekly, 1, from, horizon)
	assert.Len(t, got, 3)
	assert.Equal(t, day(2025, time.January, 20), got[len(got)-1])
}

func TestExpandSkipsOccurrencesBeforeFrom(t *testing.T) {
	start := day(2024, time.December, 1)
	from := day(2025, time.January, 1)
	horizon := day(2025, time.January, 31)

	got := recurrence.Expand(start, nil, domain.FreqWeekly, 1, from, horizon)
	for _, d := range got {
		assert.False(t, d.Before(from))
	}
	assert.NotEmpty(t, got)
}

func TestExpandZeroIntervaltreatedAsOne(t *testing.T) {
	start := day(2025, time.January, 6)
	got := recurrence.Expand(start, nil, domain.FreqWeekly, 0, start, day(2025, time.January, 20))
	assert.Len(t, got, 3)
}

func TestExpandUnknownFrequencyTerminates(t *testing.T) {
	start := day(2025, time.January, 6)
	got := recurrence.Expand(start, nil, domain.RecurrenceFrequency("DAILY"), 1, start, day(2025, time.December, 31))
	assert.Len(t, got, 1)
}
