package xlsxio_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/clearport/surety-engine/customs"
	"github.com/clearport/surety-engine/ledger"
	"github.com/clearport/surety-engine/xlsxio"
)

// newTestReport builds a one-position report: 500 drawn on 05.03.2024 and
// released on 08.03.2024 against a 900 bond.
func newTestReport(t *testing.T) *ledger.Report {
	t.Helper()
	cfg := customs.DefaultConfig()
	cfg.BondStartAmount = decimal.NewFromInt(900)

	positions := []customs.ComputedPosition{{
		ReferenceNumber:  "LRN-1",
		EntryMRN:         "ATB100",
		ATBNumber:        "ATB100",
		Label:            customs.NumericLabel("1"),
		PresentationDate: customs.NewDate(2024, time.March, 5),
		EndDate:          customs.NewDate(2024, time.March, 8),
		CustomsValue:     decimal.RequireFromString("500"),
		DutyAmount:       decimal.RequireFromString("500"),
		TotalCharge:      decimal.RequireFromString("500"),
		DeclarationType:  customs.DeclImport,
	}}
	movements := ledger.BuildMovements(positions)
	days := ledger.FoldDaily(movements, cfg)
	return ledger.BuildReport(positions, movements, days, cfg)
}

// reopen parses a written workbook back for cell-level assertions.
func reopen(t *testing.T, report *ledger.Report) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, xlsxio.WriteReport(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	require.NoError(t, err)
	return v
}

func TestWriteReport_SheetLayout(t *testing.T) {
	// GIVEN: A complete report
	// WHEN: Writing and reopening the workbook
	// THEN: All three sheets exist in order

	f := reopen(t, newTestReport(t))
	assert.Equal(t, []string{"Result", "Movement Details", "Daily Summary"}, f.GetSheetList())
}

func TestWriteReport_ResultSheet(t *testing.T) {
	// GIVEN: The one-position report
	// WHEN: Writing
	// THEN: The position row carries its values and, being the last row of
	//       its day, the day totals

	f := reopen(t, newTestReport(t))

	assert.Equal(t, "Reference Number", cellValue(t, f, "Result", "A1"))
	assert.Equal(t, "LRN-1", cellValue(t, f, "Result", "A2"))
	assert.Equal(t, "05.03.2024", cellValue(t, f, "Result", "E2"))
	assert.Equal(t, "1", cellValue(t, f, "Result", "J2"))
	assert.Equal(t, "500.00", cellValue(t, f, "Result", "Q2"))
	assert.Equal(t, "IMDC", cellValue(t, f, "Result", "R2"))
	assert.Equal(t, "DAY TOTAL 05.03.2024", cellValue(t, f, "Result", "S2"))
	assert.Equal(t, "400.00", cellValue(t, f, "Result", "W2"))
}

func TestWriteReport_MovementSheet(t *testing.T) {
	// GIVEN: The one-position report
	// WHEN: Writing
	// THEN: START opens the trail, movements carry the running balance and
	//       spacer rows stay blank

	f := reopen(t, newTestReport(t))

	assert.Equal(t, "START", cellValue(t, f, "Movement Details", "B2"))
	assert.Equal(t, "900.00", cellValue(t, f, "Movement Details", "I2"))

	// Debit row, day total, spacer, credit row, day total.
	assert.Equal(t, "ATB100", cellValue(t, f, "Movement Details", "B3"))
	assert.Equal(t, "500.00", cellValue(t, f, "Movement Details", "F3"))
	assert.Equal(t, "400.00", cellValue(t, f, "Movement Details", "I3"))
	assert.Equal(t, "DAY TOTAL", cellValue(t, f, "Movement Details", "B4"))
	assert.Equal(t, "", cellValue(t, f, "Movement Details", "B5"))
	assert.Equal(t, "500.00", cellValue(t, f, "Movement Details", "G6"))
	assert.Equal(t, "900.00", cellValue(t, f, "Movement Details", "I6"))
}

func TestWriteReport_DailySummarySheet(t *testing.T) {
	// GIVEN: The one-position report
	// WHEN: Writing
	// THEN: START row, one row per day with utilization, TOTAL row after a gap

	f := reopen(t, newTestReport(t))

	assert.Equal(t, "START", cellValue(t, f, "Daily Summary", "A2"))
	assert.Equal(t, "900.00", cellValue(t, f, "Daily Summary", "G2"))

	assert.Equal(t, "05.03.2024", cellValue(t, f, "Daily Summary", "A3"))
	assert.Equal(t, "500.00", cellValue(t, f, "Daily Summary", "B3"))
	assert.Equal(t, "400.00", cellValue(t, f, "Daily Summary", "G3"))
	assert.Equal(t, "55.56", cellValue(t, f, "Daily Summary", "H3"))

	assert.Equal(t, "08.03.2024", cellValue(t, f, "Daily Summary", "A4"))
	assert.Equal(t, "900.00", cellValue(t, f, "Daily Summary", "G4"))

	// Row 5 is the gap; TOTAL closes the sheet.
	assert.Equal(t, "", cellValue(t, f, "Daily Summary", "A5"))
	assert.Equal(t, "TOTAL", cellValue(t, f, "Daily Summary", "A6"))
	assert.Equal(t, "55.56", cellValue(t, f, "Daily Summary", "H6"))
}
