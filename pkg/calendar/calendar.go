// Package calendar turns YYYY-MM-DD booking dates into instants in the
// reference timezone and buckets them into ISO weeks.
package calendar

import (
	"fmt"
	"time"
)

const Layout = "2006-01-02"

type Calendar struct {
	loc *time.Location
}

func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc}
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Parse returns midnight of date in the reference timezone.
func (c *Calendar) Parse(date string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, date, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

func (c *Calendar) Format(t time.Time) string {
	return t.In(c.loc).Format(Layout)
}

func (c *Calendar) Today(now time.Time) string {
	return c.Format(now)
}

// DayStart is the first instant of date; DayEnd is the first instant of the
// following day. DST days are 23 or 25 hours long, so AddDate is used.
func (c *Calendar) DayStart(date string) (time.Time, error) {
	return c.Parse(date)
}

func (c *Calendar) DayEnd(date string) (time.Time, error) {
	t, err := c.Parse(date)
	if err != nil {
		return time.Time{}, err
	}
	return t.AddDate(0, 0, 1), nil
}

// WeekStart returns the Monday of the ISO week containing date.
func (c *Calendar) WeekStart(date string) (string, error) {
	t, err := c.Parse(date)
	if err != nil {
		return "", err
	}
	offset := (int(t.Weekday()) + 6) % 7
	return c.Format(t.AddDate(0, 0, -offset)), nil
}

func (c *Calendar) AddDays(date string, days int) (string, error) {
	t, err := c.Parse(date)
	if err != nil {
		return "", err
	}
	return c.Format(t.AddDate(0, 0, days)), nil
}

// Range lists every date from..to inclusive. It stops after maxDays entries.
func (c *Calendar) Range(from, to string, maxDays int) ([]string, error) {
	start, err := c.Parse(from)
	if err != nil {
		return nil, err
	}
	end, err := c.Parse(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s is before start %s", to, from)
	}

	var dates []string
	for d := start; !d.After(end) && len(dates) < maxDays; d = d.AddDate(0, 0, 1) {
		dates = append(dates, c.Format(d))
	}
	return dates, nil
}

// DaysBetween counts calendar days from a to b (negative when b is earlier).
func (c *Calendar) DaysBetween(a, b string) (int, error) {
	ta, err := c.Parse(a)
	if err != nil {
		return 0, err
	}
	tb, err := c.Parse(b)
	if err != nil {
		return 0, err
	}
	ua := time.Date(ta.Year(), ta.Month(), ta.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(tb.Year(), tb.Month(), tb.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24), nil
}
