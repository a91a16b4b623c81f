// Copyright © 2025 The typls authors

package typst

import (
	"fmt"
	"time"
)

// Datetime is a calendar date in the document model.
type Datetime struct {
	Year  int
	Month time.Month
	Day   int
}

// DatetimeOf truncates an instant to its date.
func DatetimeOf(t time.Time) *Datetime {
	return &Datetime{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Display renders the date as ISO 8601.
func (d *Datetime) Display() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
