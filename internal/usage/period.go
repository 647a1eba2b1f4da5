package usage

import "time"

const (
	PeriodLength  = 7 * 24 * time.Hour
	periodSeconds = int64(PeriodLength / time.Second)
)

// Window returns the accounting window containing now for a subscription
// anchored at anchor. Windows are [start, end) and never calendar-aligned.
// An anchor in the future resolves to week 0.
func Window(anchor, now time.Time) (start, end time.Time) {
	if !now.After(anchor) {
		return anchor, anchor.Add(PeriodLength)
	}

	// Whole seconds, since time.Duration saturates past ~292 years.
	week := (now.Unix() - anchor.Unix()) / periodSeconds
	start = weekStart(anchor, week)

	// Sub-second parts can put the estimate one week off.
	if now.Before(start) {
		week--
		start = weekStart(anchor, week)
	} else if !now.Before(start.Add(PeriodLength)) {
		week++
		start = weekStart(anchor, week)
	}
	return start, start.Add(PeriodLength)
}

func weekStart(anchor time.Time, week int64) time.Time {
	return time.Unix(anchor.Unix()+week*periodSeconds, int64(anchor.Nanosecond())).In(anchor.Location())
}
