package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/charterdesk/internal/model"
)

// writeImport creates a temp import file and returns a DiscoveredFile for it.
func writeImport(t *testing.T, name string, lines ...string) DiscoveredFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	df, ok := Discover(path)
	if !ok {
		t.Fatalf("Discover(%s) returned !ok", name)
	}
	return df
}

func TestParseFile_CSV(t *testing.T) {
	df := writeImport(t, "bookings.csv",
		`Ref,Guest Name,Yacht,Start Date,End Date,Pax,Price,Paid,Status`,
		`CH-1,Ana Ruiz,Sea Breeze,2024-06-01,2024-06-08,6,"€7,000.00",2000,Booked`,
		`CH-2,Tom Beck,Aurora,15/06/2024,22/06/2024,4,"1.500,50",,option`,
		`,,,,,,,,`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Bookings) != 2 {
		t.Fatalf("Bookings = %d, want 2", len(result.Bookings))
	}

	first := result.Bookings[0]
	if first.Status != model.StatusConfirmed {
		t.Errorf("Status = %q, want confirmed", first.Status)
	}
	if first.PaymentStatus != model.PaymentDeposit {
		t.Errorf("PaymentStatus = %q, want deposit", first.PaymentStatus)
	}
	if first.Revenue() != 7000 {
		t.Errorf("Revenue = %.2f, want 7000", first.Revenue())
	}
	if first.Nights() != 7 {
		t.Errorf("Nights = %d, want 7", first.Nights())
	}

	second := result.Bookings[1]
	if second.Revenue() != 1500.50 {
		t.Errorf("Revenue = %.2f, want 1500.50", second.Revenue())
	}
	if second.StartDate.Day() != 15 || second.StartDate.Month() != time.June {
		t.Errorf("StartDate = %v, want 15 June", second.StartDate)
	}
}

func TestParseFile_DedupByReference(t *testing.T) {
	df := writeImport(t, "export.jsonl",
		`{"reference":"CH-9","guest_name":"Old","total":100}`,
		`not json`,
		`{"reference":"CH-9","guest_name":"New","total":200}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Bookings) != 1 {
		t.Fatalf("Bookings = %d, want 1 (dedup)", len(result.Bookings))
	}
	if result.Bookings[0].GuestName != "New" {
		t.Errorf("GuestName = %q, want New (last wins)", result.Bookings[0].GuestName)
	}
	if result.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", result.ParseErrors)
	}
}

func TestParseFile_MissingTotalStaysNil(t *testing.T) {
	df := writeImport(t, "b.csv",
		`guest,boat,start`,
		`Ana,Aurora,`,
	)
	result := ParseFile(df)
	if len(result.Bookings) != 1 {
		t.Fatalf("Bookings = %d, want 1", len(result.Bookings))
	}
	b := result.Bookings[0]
	if b.Total != nil || b.Guests != nil || b.StartDate != nil {
		t.Errorf("expected nullable fields to stay nil: %+v", b)
	}
}

func TestParseFile_BadRowsCounted(t *testing.T) {
	df := writeImport(t, "b.csv",
		`guest,start,end`,
		`Ana,2024-06-10,2024-06-01`,
		`Tom,not-a-date,`,
		`,,`,
	)
	result := ParseFile(df)
	if len(result.Bookings) != 0 {
		t.Errorf("Bookings = %d, want 0", len(result.Bookings))
	}
	if result.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", result.ParseErrors)
	}
}

func TestParseFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Booking Ref", "Client", "Vessel", "Embark", "Charter Fee"},
		{"CH-7", "Mia", "Aurora", "2024-07-01", 8000},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "season.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	df, ok := Discover(path)
	if !ok {
		t.Fatal("Discover returned !ok for xlsx")
	}
	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Bookings) != 1 {
		t.Fatalf("Bookings = %d, want 1", len(result.Bookings))
	}
	if got := result.Bookings[0]; got.Boat != "Aurora" || got.Revenue() != 8000 {
		t.Errorf("booking = %+v", got)
	}
}

func TestParseDate_ExcelSerial(t *testing.T) {
	// 45444 is 2024-06-01 in the 1900 date system.
	d, ok := ParseDate("45444")
	if !ok {
		t.Fatal("ParseDate returned !ok for serial")
	}
	if d.Format("2006-01-02") != "2024-06-01" {
		t.Errorf("ParseDate = %s, want 2024-06-01", d.Format("2006-01-02"))
	}
	if _, ok := ParseDate("2024"); ok {
		t.Error("plain year should not parse as a serial date")
	}
}

func TestScanDir_SkipsLockFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "~$a.xlsx", ".hidden.csv", "notes.txt", "b.jsonl"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	files, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2: %+v", len(files), files)
	}

	missing, err := ScanDir(filepath.Join(dir, "nope"))
	if err != nil || missing != nil {
		t.Errorf("missing dir: files=%v err=%v", missing, err)
	}
}
