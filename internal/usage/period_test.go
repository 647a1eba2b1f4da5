package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	anchor := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{"at anchor", anchor, anchor},
		{"mid first week", anchor.Add(3 * 24 * time.Hour), anchor},
		{"last second of first week", anchor.Add(PeriodLength - time.Second), anchor},
		{"exact boundary belongs to next window", anchor.Add(PeriodLength), anchor.Add(PeriodLength)},
		{"tenth week", anchor.Add(9*PeriodLength + time.Hour), anchor.Add(9 * PeriodLength)},
		{"anchor in the future clamps to week zero", anchor.Add(-time.Hour), anchor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Window(anchor, tt.now)
			assert.True(t, tt.wantStart.Equal(start), "start %s, want %s", start, tt.wantStart)
			assert.True(t, tt.wantStart.Add(PeriodLength).Equal(end), "end %s", end)
		})
	}
}

func TestWindow_NotCalendarAligned(t *testing.T) {
	// A Wednesday anchor keeps producing Wednesday windows.
	anchor := time.Date(2026, 1, 7, 18, 0, 0, 0, time.UTC)
	start, _ := Window(anchor, anchor.Add(20*24*time.Hour))
	assert.Equal(t, time.Wednesday, start.Weekday())
	assert.Equal(t, 18, start.Hour())
}

func TestWindow_FarPastAnchorContainsNow(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	for _, anchor := range []time.Time{
		{},
		time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
	} {
		start, end := Window(anchor, now)
		assert.False(t, now.Before(start), "anchor %s: start %s after now", anchor, start)
		assert.True(t, now.Before(end), "anchor %s: end %s not after now", anchor, end)
		assert.Equal(t, anchor.Weekday(), start.Weekday())
	}
}

func TestWindow_SubSecondAnchor(t *testing.T) {
	anchor := time.Date(2026, 1, 5, 10, 30, 0, 500_000_000, time.UTC)

	start, _ := Window(anchor, anchor.Add(PeriodLength-300*time.Millisecond))
	assert.True(t, anchor.Equal(start), "start %s", start)

	start, _ = Window(anchor, anchor.Add(PeriodLength))
	assert.True(t, anchor.Add(PeriodLength).Equal(start), "start %s", start)
}
