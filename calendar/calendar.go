// Package calendar decides which dates are instructional days.
package calendar

import (
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"attendance-backend/models"
)

// Policy holds the non-working weekday and a flat set of holiday dates.
// It is read-only after construction and safe for concurrent use.
type Policy struct {
	weekday  time.Weekday
	holidays mapset.Set[string]
	names    map[string]string
}

func NewPolicy(nonWorking time.Weekday, holidays ...models.Holiday) *Policy {
	p := &Policy{
		weekday:  nonWorking,
		holidays: mapset.NewThreadUnsafeSet[string](),
		names:    make(map[string]string, len(holidays)),
	}
	for _, h := range holidays {
		k := Day(h.Date).Format(models.DateLayout)
		p.holidays.Add(k)
		name := strings.TrimSpace(h.Name)
		if name == "" {
			name = "Holiday"
		}
		p.names[k] = name
	}
	return p
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func (p *Policy) NonWorkingWeekday() time.Weekday { return p.weekday }

// IsInstructionalDay is false on the non-working weekday and on holidays.
func (p *Policy) IsInstructionalDay(date time.Time) bool {
	_, off := p.Reason(date)
	return !off
}

// Reason explains why date is not instructional. ok is false for instructional days.
func (p *Policy) Reason(date time.Time) (reason string, ok bool) {
	d := Day(date)
	if name, hit := p.names[d.Format(models.DateLayout)]; hit {
		return name, true
	}
	if d.Weekday() == p.weekday {
		return d.Weekday().String() + " is not a working day", true
	}
	return "", false
}

// CountInstructionalDays counts instructional days in [from, to], both inclusive.
func (p *Policy) CountInstructionalDays(from, to time.Time) (int, error) {
	from, to = Day(from), Day(to)
	if from.After(to) {
		return 0, &models.InvalidRangeError{From: from, To: to}
	}
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if p.IsInstructionalDay(d) {
			n++
		}
	}
	return n, nil
}

// Holidays returns the configured holidays in date order.
func (p *Policy) Holidays() []models.Holiday {
	keys := p.holidays.ToSlice()
	sort.Strings(keys)
	out := make([]models.Holiday, 0, len(keys))
	for _, k := range keys {
		d, _ := time.Parse(models.DateLayout, k)
		out = append(out, models.Holiday{Date: d, Name: p.names[k]})
	}
	return out
}

// ParseWeekday accepts full or three-letter English weekday names, case-insensitively.
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, true
		}
	}
	return time.Sunday, false
}
