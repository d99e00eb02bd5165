package rules

import "time"

const (
	DefaultFreeLikesPerDay = 10
	MaxBoostsPerWeek       = 3
	boostWeek              = 7 * 24 * time.Hour
)

func DayKey(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}

// StartOfDay is the first instant of now's calendar day in loc, returned in UTC.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}

func NextResetAt(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return next.UTC()
}

// BoostWeekExpired reports whether the rolling 7-day boost counter should restart.
func BoostWeekExpired(reset *time.Time, now time.Time) bool {
	if reset == nil {
		return true
	}
	return !now.Before(reset.Add(boostWeek))
}
