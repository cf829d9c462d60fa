package cli

import (
	"strings"
	"testing"
	"time"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     string
	}{
		{7000, "EUR", "€7,000"},
		{750.5, "EUR", "€750.50"},
		{1234567.891, "USD", "$1,234,567.89"},
		{-42, "GBP", "-£42"},
		{0, "", "€0"},
		{99, "CHF", "CHF 99"},
	}
	for _, tc := range cases {
		if got := FormatMoney(tc.amount, tc.currency); got != tc.want {
			t.Errorf("FormatMoney(%v, %q) = %q, want %q", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestFormatMoneyShort(t *testing.T) {
	if got := FormatMoneyShort(1234, "EUR"); got != "€1.2K" {
		t.Errorf("got %q", got)
	}
	if got := FormatMoneyShort(2_500_000, "USD"); got != "$2.5M" {
		t.Errorf("got %q", got)
	}
}

func TestFormatDateRange(t *testing.T) {
	d := func(s string) *time.Time {
		v, _ := time.Parse("2006-01-02", s)
		return &v
	}
	cases := []struct {
		start, end *time.Time
		want       string
	}{
		{d("2024-06-01"), d("2024-06-08"), "01-08 Jun 2024"},
		{d("2024-06-28"), d("2024-07-05"), "28 Jun - 05 Jul 2024"},
		{d("2024-12-28"), d("2025-01-04"), "28 Dec 2024 - 04 Jan 2025"},
		{nil, nil, "-"},
		{d("2024-06-01"), nil, "01 Jun 2024"},
	}
	for _, tc := range cases {
		if got := FormatDateRange(tc.start, tc.end); got != tc.want {
			t.Errorf("FormatDateRange = %q, want %q", got, tc.want)
		}
	}
}

func TestRenderTable_AlignsMultibyteCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Month", "Revenue"},
		Rows: [][]string{
			{"Jun 2024", "€1,500"},
			{"Jul 2024", "€800"},
		},
	})
	var widths []int
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		widths = append(widths, len([]rune(stripANSI(line))))
	}
	for i := 1; i < len(widths); i++ {
		if widths[i] != widths[0] {
			t.Fatalf("line %d width %d != %d:\n%s", i, widths[i], widths[0], out)
		}
	}
}

func TestRenderTable_SeparatorAndLeftCols(t *testing.T) {
	out := stripANSI(RenderTable(Table{
		Headers:  []string{"Boat", "Skipper", "Total"},
		LeftCols: 2,
		Rows: [][]string{
			{"Aurora", "Nikos", "€900"},
			{Separator},
			{"Total", "", "€12,900"},
		},
	}))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[4], "├") {
		t.Errorf("separator row = %q", lines[4])
	}
	if !strings.Contains(lines[3], "│ Nikos   │    €900 │") {
		t.Errorf("alignment row = %q", lines[3])
	}
	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}

func TestRenderEmpty(t *testing.T) {
	if !strings.Contains(RenderEmpty("2024"), "No data for 2024") {
		t.Error("missing placeholder text")
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && r == 'm':
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
