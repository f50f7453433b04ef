// Package age computes display ages and retention countdowns.
package age

import "time"

// Day is the unit retention countdowns are expressed in.
const Day = 24 * time.Hour

// AgeData computes display age and whether timing data exists.
// A start in the future clamps to zero.
func AgeData(startedAt time.Time, now time.Time) (time.Duration, bool) {
	if startedAt.IsZero() {
		return 0, false
	}
	age := now.Sub(startedAt)
	if age < 0 {
		age = 0
	}
	return age, true
}

// DaysLeft returns how many whole days remain of a ttl that started at
// since. Elapsed time is floored to whole days, so a ttl of 30 days
// reports 30 on the day it starts and 0 once it has run out.
func DaysLeft(since time.Time, ttl time.Duration, now time.Time) int {
	if since.IsZero() {
		since = now
	}
	elapsed := now.Sub(since)
	if elapsed < 0 {
		elapsed = 0
	}
	left := int(ttl/Day) - int(elapsed/Day)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether a ttl that started at since has run out.
// A zero since never expires.
func Expired(since time.Time, ttl time.Duration, now time.Time) bool {
	if since.IsZero() {
		return false
	}
	return now.Sub(since) >= ttl
}
