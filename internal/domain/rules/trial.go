package rules

import (
	"math"
	"time"
)

type TrialState struct {
	Active    bool
	Expired   bool
	HoursLeft int
}

// Trial derives the state of a time-boxed free trial that starts at firstUsed.
// A trial that was never started is reported as fully available.
func Trial(firstUsed *time.Time, duration time.Duration, now time.Time) TrialState {
	if duration <= 0 {
		return TrialState{Expired: true}
	}
	if firstUsed == nil {
		return TrialState{Active: true, HoursLeft: ceilHours(duration)}
	}

	left := firstUsed.Add(duration).Sub(now)
	if left <= 0 {
		return TrialState{Expired: true}
	}
	return TrialState{Active: true, HoursLeft: ceilHours(left)}
}

func ceilHours(d time.Duration) int {
	return int(math.Ceil(d.Hours()))
}
