package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/charterdesk/internal/model"
)

// Max line size for JSONL reads.
const maxLineSize = 1 << 20

// columnAliases maps normalized header text onto booking fields.
var columnAliases = map[string]string{
	"reference":      "reference",
	"ref":            "reference",
	"booking ref":    "reference",
	"booking":        "reference",
	"guest":          "guest_name",
	"guest name":     "guest_name",
	"name":           "guest_name",
	"client":         "guest_name",
	"phone":          "guest_phone",
	"mobile":         "guest_phone",
	"whatsapp":       "guest_phone",
	"email":          "guest_email",
	"e-mail":         "guest_email",
	"boat":           "boat",
	"yacht":          "boat",
	"vessel":         "boat",
	"start":          "start_date",
	"start date":     "start_date",
	"embark":         "start_date",
	"check-in":       "start_date",
	"end":            "end_date",
	"end date":       "end_date",
	"disembark":      "end_date",
	"check-out":      "end_date",
	"guests":         "guests",
	"pax":            "guests",
	"total":          "total",
	"price":          "total",
	"amount":         "total",
	"charter fee":    "total",
	"paid":           "amount_paid",
	"amount paid":    "amount_paid",
	"currency":       "currency",
	"status":         "status",
	"payment":        "payment_status",
	"payment status": "payment_status",
	"source":         "source",
	"lead source":    "source",
	"notes":          "notes",
	"comments":       "notes",
}

var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
	time.RFC3339,
}

// ParseFile reads one import file. Rows sharing a reference are deduplicated;
// the last occurrence wins, so a re-exported sheet overrides older lines.
func ParseFile(df DiscoveredFile) ParseResult {
	result := ParseResult{File: df}

	data, err := os.ReadFile(df.Path)
	if err != nil {
		result.Err = err
		return result
	}

	var raws []RawBooking
	switch df.Format {
	case FormatXLSX:
		rows, err := readWorkbook(data)
		if err != nil {
			result.Err = err
			return result
		}
		raws = rowsToRaw(rows, &result)
	case FormatCSV:
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		rows, err := r.ReadAll()
		if err != nil {
			result.Err = fmt.Errorf("reading csv: %w", err)
			return result
		}
		raws = rowsToRaw(rows, &result)
	case FormatJSONL:
		raws = readJSONL(data, &result)
	default:
		result.Err = fmt.Errorf("unsupported format %q", df.Format)
		return result
	}

	byRef := make(map[string]int)
	for i, raw := range raws {
		b, warn, err := raw.toBooking()
		if err != nil {
			result.ParseErrors++
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if warn != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", i+1, warn))
		}
		if b.Reference != "" {
			if idx, ok := byRef[b.Reference]; ok {
				result.Bookings[idx] = b
				continue
			}
			byRef[b.Reference] = len(result.Bookings)
		}
		result.Bookings = append(result.Bookings, b)
	}

	return result
}

func readWorkbook(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("no worksheet found")
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("worksheet is empty")
	}
	return rows, nil
}

func readJSONL(data []byte, result *ParseResult) []RawBooking {
	var raws []RawBooking
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var raw RawBooking
		if err := json.Unmarshal(line, &raw); err != nil {
			result.ParseErrors++
			continue
		}
		raws = append(raws, raw)
	}
	if err := scanner.Err(); err != nil {
		result.Err = err
	}
	return raws
}

// rowsToRaw maps a header row plus data rows onto RawBooking values.
func rowsToRaw(rows [][]string, result *ParseResult) []RawBooking {
	if len(rows) == 0 {
		return nil
	}
	cols := make(map[string]int)
	for i, h := range rows[0] {
		if field, ok := columnAliases[normalizeHeader(h)]; ok {
			if _, seen := cols[field]; !seen {
				cols[field] = i
			}
		}
	}
	if len(cols) == 0 {
		result.Warnings = append(result.Warnings, "no recognised columns in header row")
		return nil
	}

	raws := make([]RawBooking, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		get := func(field string) string {
			idx, ok := cols[field]
			if !ok {
				return ""
			}
			return cellValue(row, idx)
		}
		raw := RawBooking{
			Reference:     get("reference"),
			GuestName:     get("guest_name"),
			GuestPhone:    get("guest_phone"),
			GuestEmail:    get("guest_email"),
			Boat:          get("boat"),
			StartDate:     get("start_date"),
			EndDate:       get("end_date"),
			Currency:      get("currency"),
			Status:        get("status"),
			PaymentStatus: get("payment_status"),
			Source:        get("source"),
			Notes:         get("notes"),
		}
		if v := get("guests"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				raw.Guests = &n
			}
		}
		if v := get("total"); v != "" {
			if f, ok := ParseAmount(v); ok {
				raw.Total = &f
			}
		}
		if v := get("amount_paid"); v != "" {
			if f, ok := ParseAmount(v); ok {
				raw.AmountPaid = f
			}
		}
		raws = append(raws, raw)
	}
	return raws
}

func (r RawBooking) toBooking() (model.Booking, string, error) {
	if strings.TrimSpace(r.GuestName) == "" && strings.TrimSpace(r.Reference) == "" {
		return model.Booking{}, "", errors.New("missing guest name and reference")
	}

	b := model.Booking{
		Reference:  strings.TrimSpace(r.Reference),
		GuestName:  strings.TrimSpace(r.GuestName),
		GuestPhone: strings.TrimSpace(r.GuestPhone),
		GuestEmail: strings.ToLower(strings.TrimSpace(r.GuestEmail)),
		Boat:       strings.TrimSpace(r.Boat),
		Guests:     r.Guests,
		Total:      r.Total,
		AmountPaid: r.AmountPaid,
		Currency:   strings.ToUpper(strings.TrimSpace(r.Currency)),
		Source:     strings.ToLower(strings.TrimSpace(r.Source)),
		Notes:      strings.TrimSpace(r.Notes),
	}

	var warns []string
	if r.StartDate != "" {
		t, ok := ParseDate(r.StartDate)
		if !ok {
			return model.Booking{}, "", fmt.Errorf("unparseable start date %q", r.StartDate)
		}
		b.StartDate = &t
	}
	if r.EndDate != "" {
		t, ok := ParseDate(r.EndDate)
		if !ok {
			return model.Booking{}, "", fmt.Errorf("unparseable end date %q", r.EndDate)
		}
		b.EndDate = &t
	}
	if b.StartDate != nil && b.EndDate != nil && b.EndDate.Before(*b.StartDate) {
		return model.Booking{}, "", errors.New("end date before start date")
	}

	status, ok := NormalizeStatus(r.Status)
	if !ok {
		warns = append(warns, fmt.Sprintf("unknown status %q, using %s", r.Status, status))
	}
	b.Status = status
	b.PaymentStatus = normalizePayment(r.PaymentStatus, b)

	return b, strings.Join(warns, "; "), nil
}

// NormalizeStatus maps spreadsheet wording onto a booking status.
// Unknown values fall back to enquiry and report false.
func NormalizeStatus(s string) (model.BookingStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "enquiry", "inquiry", "option", "hold", "pending":
		return model.StatusEnquiry, true
	case "confirmed", "booked", "contract":
		return model.StatusConfirmed, true
	case "completed", "complete", "done", "finished":
		return model.StatusCompleted, true
	case "cancelled", "canceled", "lost":
		return model.StatusCancelled, true
	}
	return model.StatusEnquiry, false
}

func normalizePayment(s string, b model.Booking) model.PaymentStatus {
	switch ps := model.PaymentStatus(strings.ToLower(strings.TrimSpace(s))); {
	case ps.Valid():
		return ps
	case b.Total != nil && b.AmountPaid >= *b.Total && b.AmountPaid > 0:
		return model.PaymentPaid
	case b.AmountPaid > 0:
		return model.PaymentDeposit
	}
	return model.PaymentUnpaid
}

// ParseDate accepts ISO, day-first European and long-form dates as well as
// Excel serial numbers.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		// Keep to a plausible booking range so plain years aren't read as serials.
		if serial >= 30000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), true
			}
		}
		return time.Time{}, false
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseAmount reads a money cell such as "€1,500.00" or "1.500,00".
func ParseAmount(value string) (float64, bool) {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot && len(s)-lastComma-1 <= 2:
		// Decimal comma: 1.500,00
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
