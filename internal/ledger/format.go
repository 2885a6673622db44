package ledger

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatAmount groups thousands with commas: 3430000 -> "3,430,000".
func FormatAmount(n int64) string {
	return amountPrinter.Sprintf("%d", n)
}

// MonthName returns the Indonesian month name, or "" when month is out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
