// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"AUD": "A$",
	"":    "€",
}

// CurrencySymbol returns the display prefix for an ISO currency code.
// Unknown codes render as "CHF ".
func CurrencySymbol(code string) string {
	code = strings.ToUpper(code)
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code + " "
}

// FormatMoney formats an amount with thousands separators. Whole amounts
// drop the cents: 7000 -> "€7,000", 750.5 -> "€750.50".
func FormatMoney(amount float64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	whole := cents / 100
	frac := cents % 100

	s := sign + CurrencySymbol(currency) + FormatNumber(whole)
	if frac != 0 {
		s += fmt.Sprintf(".%02d", frac)
	}
	return s
}

// FormatMoneyShort abbreviates large amounts for chart labels.
// e.g., 1234 -> "€1.2K", 1234567 -> "€1.2M"
func FormatMoneyShort(amount float64, currency string) string {
	sym := CurrencySymbol(currency)
	abs := math.Abs(amount)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s%.1fM", sym, amount/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s%.1fK", sym, amount/1_000)
	default:
		return fmt.Sprintf("%s%.0f", sym, amount)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDelta formats a money delta with sign.
func FormatDelta(current, previous float64, currency string) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatMoney(delta, currency)
	}
	return "-" + FormatMoney(-delta, currency)
}

// FormatDate renders a nullable date, or "-" when absent.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

// FormatDateRange renders "01-08 Jun 2024" style ranges, widening as the
// months or years differ.
func FormatDateRange(start, end *time.Time) string {
	switch {
	case start == nil:
		return "-"
	case end == nil:
		return FormatDate(start)
	case start.Year() != end.Year():
		return start.Format("02 Jan 2006") + " - " + end.Format("02 Jan 2006")
	case start.Month() != end.Month():
		return start.Format("02 Jan") + " - " + end.Format("02 Jan 2006")
	default:
		return start.Format("02") + "-" + end.Format("02 Jan 2006")
	}
}

// FormatNights renders a night count.
func FormatNights(n int) string {
	if n == 1 {
		return "1 night"
	}
	return fmt.Sprintf("%d nights", n)
}

// FormatOptionalInt renders a nullable count, or "-" when absent.
func FormatOptionalInt(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}
