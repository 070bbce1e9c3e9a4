package tracker

import "time"

// Calendar truncates instants to days, weeks and months in a fixed location.
// Days are stepped by their date components, so zones where a DST change
// skips midnight still get one start instant per calendar day.
type Calendar struct {
	Location     *time.Location
	FirstWeekday time.Weekday
}

func DefaultCalendar() Calendar {
	return Calendar{Location: time.Local, FirstWeekday: time.Sunday}
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// midnight returns the first instant of the normalized date y-m-d. When a DST
// gap swallows 00:00, time.Date lands on the previous day and the day really
// starts at the end of the gap.
func (c Calendar) midnight(y int, m time.Month, d int) time.Time {
	loc := c.location()
	noon := time.Date(y, m, d, 12, 0, 0, 0, loc)
	y, m, d = noon.Date()

	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if sy, sm, sd := start.Date(); sy != y || sm != m || sd != d {
		_, before := start.Zone()
		_, after := noon.Zone()
		start = start.Add(time.Duration(after-before) * time.Second)
	}
	return start
}

func (c Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.location()).Date()
	return c.midnight(y, m, d)
}

// NextDay returns the start of the calendar day after t's.
func (c Calendar) NextDay(t time.Time) time.Time {
	y, m, d := t.In(c.location()).Date()
	return c.midnight(y, m, d+1)
}

// AddDays moves by calendar days, keeping the wall clock across DST changes.
func (c Calendar) AddDays(t time.Time, days int) time.Time {
	return t.In(c.location()).AddDate(0, 0, days)
}

func (c Calendar) SameDay(a, b time.Time) bool {
	return c.dayKey(a) == c.dayKey(b)
}

func (c Calendar) StartOfWeek(t time.Time) time.Time {
	y, m, d := t.In(c.location()).Date()
	weekday := time.Date(y, m, d, 12, 0, 0, 0, c.location()).Weekday()
	offset := (int(weekday) - int(c.FirstWeekday) + 7) % 7
	return c.midnight(y, m, d-offset)
}

func (c Calendar) SameWeek(a, b time.Time) bool {
	return c.dayKey(c.StartOfWeek(a)) == c.dayKey(c.StartOfWeek(b))
}

func (c Calendar) StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.In(c.location()).Date()
	return c.midnight(y, m, 1)
}

// AddMonths steps from the first of t's month, so the result never overflows
// into the following month the way time.AddDate does for the 31st.
func (c Calendar) AddMonths(t time.Time, months int) time.Time {
	y, m, _ := t.In(c.location()).Date()
	return c.midnight(y, m+time.Month(months), 1)
}

// AddMonthsClamped keeps the day of month, clamped to the target month's
// last day (Jan 31 + 1 month is Feb 28 or 29).
func (c Calendar) AddMonthsClamped(t time.Time, months int) time.Time {
	local := t.In(c.location())
	y, m, _ := local.Date()
	lastDay := time.Date(y, m+time.Month(months)+1, 0, 12, 0, 0, 0, c.location()).Day()
	day := min(local.Day(), lastDay)
	return time.Date(y, m+time.Month(months), day, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), c.location())
}

func (c Calendar) SameMonth(a, b time.Time) bool {
	ay, am, _ := a.In(c.location()).Date()
	by, bm, _ := b.In(c.location()).Date()
	return ay == by && am == bm
}

func (c Calendar) dayKey(t time.Time) string {
	return t.In(c.location()).Format("2006-01-02")
}
