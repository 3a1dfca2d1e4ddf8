package format

import (
	"strconv"

	"aruskas/internal/core"
)

// Indonesian month names as rendered by the id-ID locale.
var (
	shortMonths = [12]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}
	longMonths  = [12]string{"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli", "Agustus", "September", "Oktober", "November", "Desember"}
)

// DayLabel renders the short chart label for a day bucket, e.g. "1 Jan".
func DayLabel(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return strconv.Itoa(d.Day()) + " " + shortMonths[d.Month()-1]
}

// LongDate renders a table date, e.g. "1 Januari 2024".
func LongDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return strconv.Itoa(d.Day()) + " " + longMonths[d.Month()-1] + " " + strconv.Itoa(d.Year())
}

// MonthLabel renders "Januari 2024" for month overviews.
func MonthLabel(year, month int) string {
	if month < 1 || month > 12 {
		return strconv.Itoa(year)
	}
	return longMonths[month-1] + " " + strconv.Itoa(year)
}
