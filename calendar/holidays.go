/*
holidays.go - French public holidays

PURPOSE:
  Computes the 11 French jours feries for any year: 8 fixed dates plus the
  three Easter-relative holidays (Easter Monday, Ascension, Whit Monday).
  Easter Sunday comes from the anonymous Gregorian (Gauss/Meeus) algorithm.

CACHING:
  Holiday lists are memoized per year in a process-wide table. Entries are
  immutable once computed and never invalidated; the calendar does not change
  under a running process.
*/
package calendar

import (
	"fmt"
	"sync"
	"time"
)

var (
	holidayMu    sync.RWMutex
	holidayCache = map[int][]string{}
)

// easterSunday computes the Gregorian Easter date for a year using the
// anonymous Gauss/Meeus algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// FrenchHolidays returns the 11 public holidays of a year as ISO dates:
// the 8 fixed holidays followed by Easter Monday (Easter+1), Ascension
// (Easter+39) and Whit Monday (Easter+50). The result is cached per year;
// callers must not mutate it.
func FrenchHolidays(year int) []string {
	holidayMu.RLock()
	cached, ok := holidayCache[year]
	holidayMu.RUnlock()
	if ok {
		return cached
	}

	easter := easterSunday(year)
	list := []string{
		fmt.Sprintf("%04d-01-01", year), // Jour de l'an
		fmt.Sprintf("%04d-05-01", year), // Fete du Travail
		fmt.Sprintf("%04d-05-08", year), // Victoire 1945
		fmt.Sprintf("%04d-07-14", year), // Fete nationale
		fmt.Sprintf("%04d-08-15", year), // Assomption
		fmt.Sprintf("%04d-11-01", year), // Toussaint
		fmt.Sprintf("%04d-11-11", year), // Armistice
		fmt.Sprintf("%04d-12-25", year), // Noel
		Format(easter.AddDate(0, 0, 1)),  // Lundi de Paques
		Format(easter.AddDate(0, 0, 39)), // Ascension
		Format(easter.AddDate(0, 0, 50)), // Lundi de Pentecote
	}

	holidayMu.Lock()
	holidayCache[year] = list
	holidayMu.Unlock()
	return list
}

// IsHoliday reports whether the ISO date is a French public holiday.
func IsHoliday(iso string) bool {
	if !IsISO(iso) {
		return false
	}
	for _, h := range FrenchHolidays(Year(iso)) {
		if h == iso {
			return true
		}
	}
	return false
}
