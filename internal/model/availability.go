package model

import (
	"fmt"
	"strings"
	"time"
)

// Period is a part of the day a worker can declare as bookable
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

type periodWindow struct {
	period     Period
	start, end int // minutes since midnight, half-open
}

var periodWindows = []periodWindow{
	{PeriodMorning, 6 * 60, 12 * 60},
	{PeriodAfternoon, 12 * 60, 17 * 60},
	{PeriodEvening, 17 * 60, 22 * 60},
}

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
	time.Sunday:    "sunday",
}

// Slot formats an availability slot such as "monday-morning"
func Slot(day time.Weekday, p Period) string {
	return weekdayNames[day] + "-" + string(p)
}

// ValidSlot reports whether s names a known weekday-period pair
func ValidSlot(s string) bool {
	day, period, ok := strings.Cut(s, "-")
	if !ok {
		return false
	}
	known := false
	for _, name := range weekdayNames {
		if name == day {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	for _, w := range periodWindows {
		if string(w.period) == period {
			return true
		}
	}
	return false
}

// ParseClock parses an "HH:MM" string into minutes since midnight
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DurationMinutes returns end-start for an HH:MM pair. End must be after start.
func DurationMinutes(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		return 0, fmt.Errorf("end time %s must be after start time %s", end, start)
	}
	return e - s, nil
}

// RequiredSlots lists the slots the window [start,end) on date touches.
// ok is false when part of the window falls outside every period.
func RequiredSlots(date time.Time, start, end string) (slots []string, ok bool, err error) {
	s, err := ParseClock(start)
	if err != nil {
		return nil, false, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return nil, false, err
	}

	covered := 0
	for _, w := range periodWindows {
		lo, hi := max(s, w.start), min(e, w.end)
		if lo < hi {
			slots = append(slots, Slot(date.Weekday(), w.period))
			covered += hi - lo
		}
	}
	return slots, covered == e-s, nil
}

// Overlaps applies half-open interval semantics to two HH:MM windows
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}
