// utils/dates.go
package utils

import "time"

// AgendaDateLayout is the date format the backend expects in ?date=.
const AgendaDateLayout = "2006-01-02"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// AgendaDate formats the calendar date of t as seen in loc.
func AgendaDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return BeginningOfDay(t.In(loc)).Format(AgendaDateLayout)
}
