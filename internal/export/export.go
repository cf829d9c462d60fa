// Package export writes reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/charterdesk/internal/dashboard"
	"github.com/theirongolddev/charterdesk/internal/model"
)

// Sheet names in the finance workbook.
const (
	SheetMonthly  = "Monthly"
	SheetYoY      = "Year over year"
	SheetBoats    = "Boats"
	SheetForecast = "Forecast"
)

const noData = "No data"

// Built-in number format for #,##0.00.
const moneyNumFmt = 4

// FinanceReport is everything the finance workbook contains.
type FinanceReport struct {
	Currency string
	Monthly  model.MonthlyReport
	YoY      model.YearOverYear
	Boats    []model.BoatStats
	Forecast *model.Forecast
}

type book struct {
	f     *excelize.File
	bold  int
	money int
}

func newBook() (*book, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &book{f: f, bold: bold, money: money}, nil
}

// sheet creates (or renames the default sheet to) name and writes the header row.
func (b *book) sheet(name string, header []any) error {
	if b.f.SheetCount == 1 && b.f.GetSheetName(0) == "Sheet1" {
		if err := b.f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := b.f.NewSheet(name); err != nil {
		return err
	}
	if err := b.f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	return b.f.SetRowStyle(name, 1, 1, b.bold)
}

func (b *book) row(sheet string, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return b.f.SetSheetRow(sheet, cell, &values)
}

// moneyCols applies the money format to the given 1-based columns of rows 2..last.
func (b *book) moneyCols(sheet string, last int, cols ...int) error {
	if last < 2 {
		return nil
	}
	for _, c := range cols {
		top, err := excelize.CoordinatesToCellName(c, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(c, last)
		if err != nil {
			return err
		}
		if err := b.f.SetCellStyle(sheet, top, bottom, b.money); err != nil {
			return err
		}
	}
	return nil
}

// FinanceWorkbook writes the finance report as an .xlsx document.
func FinanceWorkbook(w io.Writer, r FinanceReport) error {
	b, err := newBook()
	if err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}
	defer func() { _ = b.f.Close() }()

	if err := writeMonthly(b, r); err != nil {
		return fmt.Errorf("monthly sheet: %w", err)
	}
	if err := writeYoY(b, r); err != nil {
		return fmt.Errorf("year over year sheet: %w", err)
	}
	if err := writeBoats(b, r); err != nil {
		return fmt.Errorf("boats sheet: %w", err)
	}
	if r.Forecast != nil {
		if err := writeForecast(b, *r.Forecast); err != nil {
			return fmt.Errorf("forecast sheet: %w", err)
		}
	}

	b.f.SetActiveSheet(0)
	return b.f.Write(w)
}

func writeMonthly(b *book, r FinanceReport) error {
	header := []any{"Month", "Revenue (" + r.Currency + ")", "Bookings", "Guests", "Avg booking"}
	if err := b.sheet(SheetMonthly, header); err != nil {
		return err
	}
	if r.Monthly.Empty() {
		return b.row(SheetMonthly, 2, []any{noData})
	}
	n := 2
	for _, m := range r.Monthly.Months {
		if err := b.row(SheetMonthly, n, []any{m.Label(), m.Revenue, m.Bookings, m.Guests, m.AvgBookingValue}); err != nil {
			return err
		}
		n++
	}
	if r.Monthly.UndatedBookings > 0 {
		if err := b.row(SheetMonthly, n, []any{"Undated", r.Monthly.UndatedRevenue, r.Monthly.UndatedBookings}); err != nil {
			return err
		}
		n++
	}
	if err := b.f.SetColWidth(SheetMonthly, "A", "E", 14); err != nil {
		return err
	}
	return b.moneyCols(SheetMonthly, n-1, 2, 5)
}

func writeYoY(b *book, r FinanceReport) error {
	header := []any{"Month"}
	for _, y := range r.YoY.Years {
		header = append(header, strconv.Itoa(y))
	}
	if err := b.sheet(SheetYoY, header); err != nil {
		return err
	}
	if r.YoY.Empty() {
		return b.row(SheetYoY, 2, []any{noData})
	}
	for i, row := range r.YoY.Rows {
		values := []any{row.Month.String()}
		for _, cell := range row.Cells {
			if cell == nil {
				values = append(values, "")
				continue
			}
			values = append(values, cell.Revenue)
		}
		if err := b.row(SheetYoY, i+2, values); err != nil {
			return err
		}
	}
	cols := make([]int, len(r.YoY.Years))
	for i := range cols {
		cols[i] = i + 2
	}
	return b.moneyCols(SheetYoY, len(r.YoY.Rows)+1, cols...)
}

func writeBoats(b *book, r FinanceReport) error {
	header := []any{"Boat", "Bookings", "Nights", "Guests", "Revenue", "Share %", "Avg booking"}
	if err := b.sheet(SheetBoats, header); err != nil {
		return err
	}
	if len(r.Boats) == 0 {
		return b.row(SheetBoats, 2, []any{noData})
	}
	for i, bs := range r.Boats {
		if err := b.row(SheetBoats, i+2, []any{bs.Boat, bs.Bookings, bs.Nights, bs.Guests, bs.Revenue, bs.SharePercent, bs.AvgBookingValue}); err != nil {
			return err
		}
	}
	if err := b.f.SetColWidth(SheetBoats, "A", "A", 20); err != nil {
		return err
	}
	return b.moneyCols(SheetBoats, len(r.Boats)+1, 5, 7)
}

func writeForecast(b *book, fc model.Forecast) error {
	header := []any{"Month", "Target", "Actual", "Projected", "Attainment %"}
	if err := b.sheet(SheetForecast, header); err != nil {
		return err
	}
	for i, m := range fc.Months {
		if err := b.row(SheetForecast, i+2, []any{m.Month.String(), m.Target, m.Actual, m.Projected, m.Attainment}); err != nil {
			return err
		}
	}
	total := len(fc.Months) + 2
	if err := b.row(SheetForecast, total, []any{"Total " + strconv.Itoa(fc.Year), fc.Target, fc.Actual, fc.Projected, fc.Attainment}); err != nil {
		return err
	}
	if err := b.f.SetRowStyle(SheetForecast, total, total, b.bold); err != nil {
		return err
	}
	return b.moneyCols(SheetForecast, total-1, 2, 3, 4)
}

// ViewWorkbook writes one dashboard result as a single-sheet workbook.
func ViewWorkbook(w io.Writer, title string, res dashboard.Result) error {
	b, err := newBook()
	if err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}
	defer func() { _ = b.f.Close() }()

	name := sheetName(title)
	header := make([]any, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	if err := b.sheet(name, header); err != nil {
		return err
	}
	if res.Empty() {
		if err := b.row(name, 2, []any{noData}); err != nil {
			return err
		}
	}
	for i, r := range res.Rows {
		if err := b.row(name, i+2, r); err != nil {
			return err
		}
	}
	return b.f.Write(w)
}

// sheetName trims title to Excel's 31 character sheet name limit and drops
// characters Excel rejects.
func sheetName(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	if len(out) == 0 {
		return "View"
	}
	return string(out)
}

// WriteFile creates path and fills it with write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // caller-controlled export path
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
