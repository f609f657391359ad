// README: Common identifier and calendar-date helpers used across modules.
package types

import "time"

type ID string

// DateFormat is the wire format for calendar dates (no time component).
const DateFormat = "2006-01-02"

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// AddDays shifts a date by n whole days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
