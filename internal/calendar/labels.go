package calendar

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var weekdayNames = [...]string{
	time.Sunday:    "søndag",
	time.Monday:    "mandag",
	time.Tuesday:   "tirsdag",
	time.Wednesday: "onsdag",
	time.Thursday:  "torsdag",
	time.Friday:    "fredag",
	time.Saturday:  "lørdag",
}

var monthNames = [...]string{
	"", "januar", "februar", "mars", "april", "mai", "juni",
	"juli", "august", "september", "oktober", "november", "desember",
}

var shortMonthNames = [...]string{
	"", "jan", "feb", "mar", "apr", "mai", "jun",
	"jul", "aug", "sep", "okt", "nov", "des",
}

// capitalise upper-cases the first letter of every word using Norwegian
// casing rules. A Caser keeps state, so a fresh one is built per call.
func capitalise(s string) string {
	return cases.Title(language.Norwegian).String(s)
}

// WeekdayName is the capitalised Norwegian weekday name, e.g. "Mandag".
func WeekdayName(wd time.Weekday) string {
	return capitalise(weekdayNames[wd])
}

// MonthLabel is the capitalised month and year, e.g. "Oktober 2025".
func MonthLabel(year int, month time.Month) string {
	return capitalise(fmt.Sprintf("%s %d", monthNames[month], year))
}

// ShortLabel is the compact day/month label used on trend charts, e.g. "3/10".
func ShortLabel(d Date) string {
	return fmt.Sprintf("%d/%d", d.Day(), int(d.Month()))
}

// FormatShort renders "5. jan", adding the year when it differs from
// currentYear: "5. jan 2024".
func FormatShort(d Date, currentYear int) string {
	s := fmt.Sprintf("%d. %s", d.Day(), shortMonthNames[d.Month()])
	if d.Year() == currentYear {
		return s
	}
	return fmt.Sprintf("%s %d", s, d.Year())
}

// FormatLong renders "3. mars 2025".
func FormatLong(d Date) string {
	return fmt.Sprintf("%d. %s %d", d.Day(), monthNames[d.Month()], d.Year())
}

// Headline is the title shown above a day's result:
// "Dagens quiz: Mandag 3. mars 2025" for today, "Quiz: ..." otherwise.
func Headline(d, today Date) string {
	prefix := "Quiz"
	if d.Equal(today) {
		prefix = "Dagens quiz"
	}
	return fmt.Sprintf("%s: %s %s", prefix, WeekdayName(d.Weekday()), FormatLong(d))
}
