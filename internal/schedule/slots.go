// Package schedule is the single source of truth for bookable time slots.
// Both the availability resolver and the booking writer consume this catalog,
// so the enumeration cannot drift between read and write paths.
package schedule

import (
	"fmt"
	"time"
)

// Clinic hours: 09:00-13:00 and 14:00-18:00 in half-hour slots, with a lunch
// gap 13:00-14:00. Sunday is closed.
const (
	slotMinutes = 30
	DateFormat  = "2006-01-02"
)

var catalog = buildCatalog()

func buildCatalog() []string {
	var slots []string
	for _, r := range []struct{ from, to int }{{9, 13}, {14, 18}} {
		start := time.Date(0, 1, 1, r.from, 0, 0, 0, time.UTC)
		end := time.Date(0, 1, 1, r.to, 0, 0, 0, time.UTC)
		for t := start; t.Before(end); t = t.Add(slotMinutes * time.Minute) {
			slots = append(slots, fmt.Sprintf("%s-%s",
				t.Format("15:04"),
				t.Add(slotMinutes*time.Minute).Format("15:04")))
		}
	}
	return slots
}

// Catalog returns the full ordered slot list for a business day.
func Catalog() []string {
	out := make([]string, len(catalog))
	copy(out, catalog)
	return out
}

// IsOpen reports whether the clinic takes appointments on the given date.
func IsOpen(date time.Time) bool {
	return date.Weekday() != time.Sunday
}

// SlotsFor returns the ordered slot catalog for date, or an empty list when
// the clinic is closed that day.
func SlotsFor(date time.Time) []string {
	if !IsOpen(date) {
		return []string{}
	}
	return Catalog()
}

// IsValidSlot reports whether s is a member of the catalog.
func IsValidSlot(s string) bool {
	for _, slot := range catalog {
		if slot == s {
			return true
		}
	}
	return false
}
