package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Grid is the discrete weekly calendar: Days × SlotsPerDay slots of SlotMinutes each.
// Slots are 1-based, the first slot of every day starts at DayStart.
type Grid struct {
	Days        []string
	SlotsPerDay int
	SlotMinutes int
	DayStart    time.Duration
}

// Interval is a contiguous run of slots on one day.
type Interval struct {
	Day      int
	Start    int
	Duration int
}

// Window is an inclusive slot range [From, To] on one day.
type Window struct {
	Day  int
	From int
	To   int
}

// SlotsOverlap reports whether [startA, startA+durA) and [startB, startB+durB) intersect on the same day.
// A run ending exactly where another begins does not overlap it.
func SlotsOverlap(dayA, startA, durA, dayB, startB, durB int) bool {
	if dayA != dayB || durA <= 0 || durB <= 0 {
		return false
	}
	return startA < startB+durB && startB < startA+durA
}

func (interval Interval) End() int {
	return interval.Start + interval.Duration - 1
}

func (interval Interval) Overlaps(other Interval) bool {
	return SlotsOverlap(interval.Day, interval.Start, interval.Duration, other.Day, other.Start, other.Duration)
}

// Within reports whether the whole interval lies inside the window.
func (interval Interval) Within(window Window) bool {
	return interval.Day == window.Day && interval.Start >= window.From && interval.End() <= window.To
}

// Gap returns the idle slots between two same-day intervals, or -1 when they overlap or lie on different days.
func (interval Interval) Gap(other Interval) int {
	if interval.Day != other.Day || interval.Overlaps(other) {
		return -1
	}
	if interval.Start > other.Start {
		interval, other = other, interval
	}
	return other.Start - interval.End() - 1
}

func (window Window) Contains(interval Interval) bool {
	return interval.Within(window)
}

func (window Window) Overlaps(other Window) bool {
	return window.Day == other.Day && window.From <= other.To && other.From <= window.To
}

func (window Window) String() string {
	return fmt.Sprintf("%d:%d-%d", window.Day, window.From, window.To)
}

// Covered reports whether the interval fits entirely inside at least one of the windows.
func Covered(interval Interval, windows []Window) bool {
	for _, window := range windows {
		if interval.Within(window) {
			return true
		}
	}
	return false
}

func (g Grid) Validate() error {
	var errs []error
	if len(g.Days) == 0 {
		errs = append(errs, errors.New("grid must define at least one day"))
	}
	if g.SlotsPerDay < 1 {
		errs = append(errs, fmt.Errorf("slots per day must be positive: %d", g.SlotsPerDay))
	}
	if g.SlotMinutes < 1 {
		errs = append(errs, fmt.Errorf("slot minutes must be positive: %d", g.SlotMinutes))
	}
	if g.DayStart < 0 || g.DayStart+time.Duration(g.SlotsPerDay*g.SlotMinutes)*time.Minute > 24*time.Hour {
		errs = append(errs, fmt.Errorf("a day of %d slots of %d minutes starting at %v does not fit in 24 hours", g.SlotsPerDay, g.SlotMinutes, g.DayStart))
	}
	return errors.Join(errs...)
}

// Fits reports whether a run of duration slots starting at start stays inside the day.
func (g Grid) Fits(start, duration int) bool {
	return start >= 1 && duration > 0 && start+duration-1 <= g.SlotsPerDay
}

func (g Grid) ValidDay(day int) bool {
	return day >= 0 && day < len(g.Days)
}

// SlotToClock returns the wall-clock offset from midnight at which slot begins.
func (g Grid) SlotToClock(slot int) time.Duration {
	return g.DayStart + time.Duration((slot-1)*g.SlotMinutes)*time.Minute
}

// ClockString formats the start of slot as HH:MM.
func (g Grid) ClockString(slot int) string {
	return formatClock(g.SlotToClock(slot))
}

// EndClockString formats the end of slot as HH:MM.
func (g Grid) EndClockString(slot int) string {
	return formatClock(g.SlotToClock(slot + 1))
}

func (g Grid) DayName(day int) string {
	if !g.ValidDay(day) {
		return strconv.Itoa(day)
	}
	return g.Days[day]
}

// DayIndex resolves a day written as a configured name, its three-letter prefix or a numeric index.
func (g Grid) DayIndex(name string) (int, error) {
	name = strings.TrimSpace(name)
	if index, err := strconv.Atoi(name); err == nil {
		if !g.ValidDay(index) {
			return 0, fmt.Errorf("day index %d is outside the %d configured days", index, len(g.Days))
		}
		return index, nil
	}
	for i, day := range g.Days {
		if strings.EqualFold(day, name) {
			return i, nil
		}
	}
	lowerName := strings.ToLower(name)
	for i, day := range g.Days {
		lowerDay := strings.ToLower(day)
		if len(lowerName) >= 3 && len(lowerDay) >= 3 && (strings.HasPrefix(lowerDay, lowerName) || strings.HasPrefix(lowerName, lowerDay)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", name)
}

// ParseWindow parses an availability window written as "Day:from-to", e.g. "Mon:1-8".
func (g Grid) ParseWindow(text string) (Window, error) {
	dayPart, rangePart, ok := strings.Cut(strings.TrimSpace(text), ":")
	if !ok {
		return Window{}, fmt.Errorf("malformed window %q: expected \"Day:from-to\"", text)
	}
	day, err := g.DayIndex(dayPart)
	if err != nil {
		return Window{}, fmt.Errorf("malformed window %q: %w", text, err)
	}
	fromPart, toPart, ok := strings.Cut(rangePart, "-")
	if !ok {
		return Window{}, fmt.Errorf("malformed window %q: expected a slot range \"from-to\"", text)
	}
	from, err := strconv.Atoi(strings.TrimSpace(fromPart))
	if err != nil {
		return Window{}, fmt.Errorf("malformed window %q: %w", text, err)
	}
	to, err := strconv.Atoi(strings.TrimSpace(toPart))
	if err != nil {
		return Window{}, fmt.Errorf("malformed window %q: %w", text, err)
	}
	if from < 1 || to < from || to > g.SlotsPerDay {
		return Window{}, fmt.Errorf("malformed window %q: slot range must satisfy 1 <= from <= to <= %d", text, g.SlotsPerDay)
	}
	return Window{Day: day, From: from, To: to}, nil
}

// FormatWindow is the inverse of ParseWindow.
func (g Grid) FormatWindow(window Window) string {
	return fmt.Sprintf("%s:%d-%d", g.DayName(window.Day), window.From, window.To)
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(text string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("malformed clock %q: %w", text, err)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

func formatClock(offset time.Duration) string {
	minutes := int(offset / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
