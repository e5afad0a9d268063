/*
writer.go - Report workbook writer

PURPOSE:
  Renders a ledger report into the three-sheet workbook downstream
  consumers expect: the annotated result table, the full movement trail,
  and the per-day summary. Structure is fixed; consumers read it
  positionally.
*/
package xlsxio

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/clearport/surety-engine/customs"
	"github.com/clearport/surety-engine/ledger"
)

const (
	sheetResult    = "Result"
	sheetMovements = "Movement Details"
	sheetDays      = "Daily Summary"
)

var resultHeader = []string{
	"Reference Number", "Entry MRN", "ATB Number", "SUMA Position",
	"Presentation Date", "End of Storage", "Storage Deadline", "Storage Days",
	"Resolved With", "Pos", "Tariff Code", "Quantity",
	"Customs Value (total)", "Duty Rate %", "Duty (total)", "Import VAT",
	"Total Charges", "Declaration Type",
	"", "Debit", "Credit", "Net", "Balance",
}

var movementHeader = []string{
	"Date", "ATB Number", "Reference Number", "SUMA Position", "Pos",
	"Debit", "Credit", "Net", "Balance",
}

var daysHeader = []string{
	"Date", "Day Debit", "Day Credit", "Net Movement",
	"Low", "High", "Close", "Utilization %", "Note",
}

type workbookStyles struct {
	date     int
	currency int
	percent  int
}

// WriteReport writes the three-sheet report workbook.
func WriteReport(w io.Writer, report *ledger.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("report styles: %w", err)
	}

	f.SetSheetName(f.GetSheetName(0), sheetResult)
	if _, err := f.NewSheet(sheetMovements); err != nil {
		return fmt.Errorf("sheet %s: %w", sheetMovements, err)
	}
	if _, err := f.NewSheet(sheetDays); err != nil {
		return fmt.Errorf("sheet %s: %w", sheetDays, err)
	}

	s := sheetWriter{f: f, styles: styles}
	s.writeResult(report)
	s.writeMovements(report)
	s.writeDays(report)
	if s.err != nil {
		return s.err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error

	dateFormat := "dd.mm.yyyy"
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat}); err != nil {
		return s, err
	}
	currencyFormat := "#,##0.00"
	if s.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFormat}); err != nil {
		return s, err
	}
	percentFormat := "0.00"
	if s.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &percentFormat}); err != nil {
		return s, err
	}
	return s, nil
}

// sheetWriter accumulates the first cell error instead of threading error
// returns through every SetCellValue call.
type sheetWriter struct {
	f      *excelize.File
	styles workbookStyles
	err    error
}

func (s *sheetWriter) set(sheet string, col, row int, value any, style int) {
	if s.err != nil {
		return
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetCellValue(sheet, axis, value); err != nil {
		s.err = err
		return
	}
	if style != 0 {
		s.err = s.f.SetCellStyle(sheet, axis, axis, style)
	}
}

func (s *sheetWriter) setRow(sheet string, row int, values []string) {
	for i, v := range values {
		s.set(sheet, i+1, row, v, 0)
	}
}

func (s *sheetWriter) setDate(sheet string, col, row int, d customs.Date) {
	if d.IsZero() {
		return
	}
	s.set(sheet, col, row, d.Time, s.styles.date)
}

func (s *sheetWriter) setMoney(sheet string, col, row int, d decimal.Decimal) {
	s.set(sheet, col, row, d.InexactFloat64(), s.styles.currency)
}

func (s *sheetWriter) setMoneyNull(sheet string, col, row int, d decimal.NullDecimal) {
	if !d.Valid {
		return
	}
	s.setMoney(sheet, col, row, d.Decimal)
}

// =============================================================================
// SHEET 1 - RESULT
// =============================================================================

func (s *sheetWriter) writeResult(report *ledger.Report) {
	s.setRow(sheetResult, 1, resultHeader)

	for i, ap := range report.Positions {
		row := i + 2
		p := ap.Position

		s.set(sheetResult, 1, row, p.ReferenceNumber, 0)
		s.set(sheetResult, 2, row, p.EntryMRN, 0)
		s.set(sheetResult, 3, row, p.ATBNumber, 0)
		s.set(sheetResult, 4, row, p.SumaPosition, 0)
		s.setDate(sheetResult, 5, row, p.PresentationDate)
		s.setDate(sheetResult, 6, row, p.EndDate)
		s.setDate(sheetResult, 7, row, p.StorageDeadline)
		s.set(sheetResult, 8, row, p.StorageDurationDays, 0)
		s.set(sheetResult, 9, row, p.ResolvedWith, 0)
		s.set(sheetResult, 10, row, p.Label.String(), 0)
		s.set(sheetResult, 11, row, p.TariffCode, 0)
		if p.Quantity.Valid {
			s.set(sheetResult, 12, row, p.Quantity.Decimal.InexactFloat64(), 0)
		}
		s.setMoney(sheetResult, 13, row, p.CustomsValue)
		s.set(sheetResult, 14, row, p.DutyRate.InexactFloat64(), s.styles.percent)
		s.setMoney(sheetResult, 15, row, p.DutyAmount)
		s.setMoney(sheetResult, 16, row, p.SecondaryTax)
		s.setMoney(sheetResult, 17, row, p.TotalCharge)
		s.set(sheetResult, 18, row, string(p.DeclarationType), 0)

		if ap.Day != nil {
			s.set(sheetResult, 19, row, ap.Marker, 0)
			s.setMoney(sheetResult, 20, row, ap.Day.DebitSum)
			s.setMoney(sheetResult, 21, row, ap.Day.CreditSum)
			s.setMoney(sheetResult, 22, row, ap.Day.Net)
			s.setMoney(sheetResult, 23, row, ap.Day.Balance)
		}
	}
}

// =============================================================================
// SHEET 2 - MOVEMENT TRAIL
// =============================================================================

func (s *sheetWriter) writeMovements(report *ledger.Report) {
	s.setRow(sheetMovements, 1, movementHeader)

	for i, tr := range report.Trail {
		row := i + 2
		if tr.Kind == ledger.TrailSpacer {
			continue
		}
		s.setDate(sheetMovements, 1, row, tr.Date)
		s.set(sheetMovements, 2, row, tr.ATBNumber, 0)
		s.set(sheetMovements, 3, row, tr.ReferenceNumber, 0)
		s.set(sheetMovements, 4, row, tr.SumaPosition, 0)
		if tr.Kind == ledger.TrailMovement {
			s.set(sheetMovements, 5, row, tr.Label.String(), 0)
		}
		s.setMoneyNull(sheetMovements, 6, row, tr.Debit)
		s.setMoneyNull(sheetMovements, 7, row, tr.Credit)
		s.setMoneyNull(sheetMovements, 8, row, tr.Net)
		s.setMoneyNull(sheetMovements, 9, row, tr.Balance)
	}
}

// =============================================================================
// SHEET 3 - DAILY SUMMARY
// =============================================================================

func (s *sheetWriter) writeDays(report *ledger.Report) {
	s.setRow(sheetDays, 1, daysHeader)

	s.set(sheetDays, 1, 2, "START", 0)
	s.setMoney(sheetDays, 5, 2, report.Start)
	s.setMoney(sheetDays, 6, 2, report.Start)
	s.setMoney(sheetDays, 7, 2, report.Start)

	for i, d := range report.Days {
		row := i + 3
		s.setDate(sheetDays, 1, row, d.Date)
		s.setMoney(sheetDays, 2, row, d.DebitSum)
		s.setMoney(sheetDays, 3, row, d.CreditSum)
		s.setMoney(sheetDays, 4, row, d.Net)
		s.setMoney(sheetDays, 5, row, d.Low)
		s.setMoney(sheetDays, 6, row, d.High)
		s.setMoney(sheetDays, 7, row, d.Balance)
		s.set(sheetDays, 8, row, ledger.Utilization(report.Start, d.Low).InexactFloat64(), s.styles.percent)
		if d.IncreaseApplied {
			s.set(sheetDays, 9, row, "scheduled bond increase", 0)
		}
	}

	totalRow := len(report.Days) + 4
	s.set(sheetDays, 1, totalRow, "TOTAL", 0)
	s.setMoney(sheetDays, 2, totalRow, report.Totals.Debit)
	s.setMoney(sheetDays, 3, totalRow, report.Totals.Credit)
	s.setMoney(sheetDays, 4, totalRow, report.Totals.Net)
	s.setMoney(sheetDays, 5, totalRow, report.Totals.Low)
	s.setMoney(sheetDays, 6, totalRow, report.Totals.High)
	s.setMoney(sheetDays, 7, totalRow, report.Totals.Close)
	s.set(sheetDays, 8, totalRow, report.Totals.MaxUtilization.InexactFloat64(), s.styles.percent)
}
