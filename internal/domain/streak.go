package domain

import "time"

// NextStreak advances a consecutive-day counter for activity at now.
// Days are compared in UTC.
func NextStreak(streak int, lastActive, now time.Time) int {
	if lastActive.IsZero() || streak <= 0 {
		return 1
	}
	last := truncateDay(lastActive)
	today := truncateDay(now)
	switch {
	case today.Equal(last):
		return streak
	case today.Equal(last.AddDate(0, 0, 1)):
		return streak + 1
	default:
		return 1
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
