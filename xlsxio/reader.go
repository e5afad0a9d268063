/*
reader.go - Workbook readers

PURPOSE:
  Reads the five input workbooks into domain records. Sheet access goes
  through excelize; all readers take the first sheet, treat its first row
  as the header, and resolve columns through the candidate schemas.

ERROR POLICY:
  Missing required columns fail the file. Bad cell values never do: a
  value that fails to parse reads as zero/empty and, where it matters,
  surfaces a warning through the caller's collector.
*/
package xlsxio

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/clearport/surety-engine/customs"
)

// sheetRows loads the first sheet of a workbook. The header row is
// returned separately from the data rows.
func sheetRows(r io.Reader, file string) (header, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return header{}, nil, fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return header{}, nil, fmt.Errorf("read %s: %w", file, err)
	}
	if len(rows) == 0 {
		return header{}, nil, &customs.SchemaError{File: file, Field: "header row"}
	}
	return newHeader(file, rows[0]), rows[1:], nil
}

// =============================================================================
// MASTER FILE
// =============================================================================

// ReadMaster parses the master workbook. Join keys and position references
// are canonicalized on the way in so matching is plain string equality.
func ReadMaster(r io.Reader) ([]customs.MasterRecord, error) {
	h, rows, err := sheetRows(r, "master file")
	if err != nil {
		return nil, err
	}

	pres, err := h.require("presentation date", masterPresentationDate)
	if err != nil {
		return nil, err
	}
	declType, err := h.require("declaration type", masterDeclarationType)
	if err != nil {
		return nil, err
	}
	entryMRN, err := h.require("entry MRN", masterEntryMRN)
	if err != nil {
		return nil, err
	}
	primary := h.find(masterPrimaryKey)
	secondary := h.find(masterSecondaryKey)
	if primary < 0 && secondary < 0 {
		return nil, &customs.SchemaError{File: h.file, Field: "follow-up registration", Candidates: masterPrimaryKey}
	}
	ref := h.find(masterReferenceNumber)
	end := h.find(masterEndDate)
	posRef := h.find(masterPositionRef)
	fuValue := h.find(masterFollowUpValue)
	fuDuty := h.find(masterFollowUpDuty)

	records := make([]customs.MasterRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, customs.MasterRecord{
			DeclarationType:      customs.DeclarationType(cell(row, declType)),
			PrimaryKey:           customs.CleanIdentifier(cell(row, primary)),
			SecondaryKey:         customs.CleanIdentifier(cell(row, secondary)),
			ReferenceNumber:      cell(row, ref),
			EntryMRN:             cell(row, entryMRN),
			PositionRef:          customs.CleanIdentifier(cell(row, posRef)),
			PresentationDate:     customs.ParseDate(cell(row, pres)),
			EndDate:              customs.ParseDate(cell(row, end)),
			FollowUpCustomsValue: parseDecimal(cell(row, fuValue)),
			FollowUpDutyAmount:   parseDecimal(cell(row, fuDuty)),
		})
	}
	return records, nil
}

// =============================================================================
// IMPORT-DUTY FILE
// =============================================================================

// ReadImportDuty parses a Type-I workbook: optional reduction to the fixed
// 13-column layout, duplicate removal on (match key, position) keeping the
// first row, then allocation expansion of the annotation column.
func ReadImportDuty(r io.Reader, autoReduce bool, warn func(customs.Warning)) ([]customs.ImportRecord, error) {
	h, rows, err := sheetRows(r, "import-duty file")
	if err != nil {
		return nil, err
	}
	if autoReduce && len(h.index) > len(importDutyLayout) {
		h = reduceToLayout(h)
	}

	matchKey, err := h.require("match key", importMatchKey)
	if err != nil {
		return nil, err
	}
	position, err := h.require("position number", importPosition)
	if err != nil {
		return nil, err
	}
	value, err := h.require("customs value", importValue)
	if err != nil {
		return nil, err
	}
	rate, err := h.require("duty rate", importRate)
	if err != nil {
		return nil, err
	}
	tariff, err := h.require("tariff code", importTariffCode)
	if err != nil {
		return nil, err
	}
	quantity := h.find(importQuantity)
	allocation := h.find(importAllocation)

	type rowKey struct{ key, pos string }
	seen := make(map[rowKey]bool, len(rows))

	var records []customs.ImportRecord
	for _, row := range rows {
		rec := customs.ImportRecord{
			MatchKey:       customs.CleanIdentifier(cell(row, matchKey)),
			PositionNumber: customs.CleanIdentifier(cell(row, position)),
			TariffCode:     cell(row, tariff),
			CustomsValue:   parseDecimal(cell(row, value)),
			DutyRate:       parseDecimal(cell(row, rate)),
			Quantity:       parseNullDecimal(cell(row, quantity)),
		}

		k := rowKey{rec.MatchKey, rec.PositionNumber}
		if seen[k] {
			continue
		}
		seen[k] = true

		records = append(records, customs.ExpandAllocations(rec, cell(row, allocation), warn)...)
	}
	return records, nil
}

// reduceToLayout drops every column outside the canonical 13-column
// layout, provided enough of them are present to be sure this really is
// the standard file and not something else entirely.
func reduceToLayout(h header) header {
	const minLayoutColumns = 5
	reduced := header{file: h.file, index: make(map[string]int, len(importDutyLayout))}
	for _, name := range importDutyLayout {
		if i, ok := h.index[name]; ok {
			reduced.index[name] = i
		}
	}
	if len(reduced.index) < minLayoutColumns {
		return h
	}
	return reduced
}

// =============================================================================
// WAREHOUSE FILE
// =============================================================================

// ReadWarehouse parses a Type-II workbook.
func ReadWarehouse(r io.Reader) ([]customs.ImportRecord, error) {
	h, rows, err := sheetRows(r, "warehouse file")
	if err != nil {
		return nil, err
	}

	matchKey, err := h.require("match key", warehouseMatchKey)
	if err != nil {
		return nil, err
	}
	position, err := h.require("position number", warehousePosition)
	if err != nil {
		return nil, err
	}
	tariff, err := h.require("tariff code", warehouseTariffCode)
	if err != nil {
		return nil, err
	}
	duty, err := h.require("projected duty amount", warehouseDuty)
	if err != nil {
		return nil, err
	}
	rate, err := h.require("projected duty rate", warehouseRate)
	if err != nil {
		return nil, err
	}
	invoice, err := h.require("converted invoice amount", warehouseInvoice)
	if err != nil {
		return nil, err
	}

	records := make([]customs.ImportRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, customs.ImportRecord{
			MatchKey:               customs.CleanIdentifier(cell(row, matchKey)),
			PositionNumber:         customs.CleanIdentifier(cell(row, position)),
			TariffCode:             cell(row, tariff),
			ProjectedDutyAmount:    parseDecimal(cell(row, duty)),
			ProjectedDutyRate:      parseDecimal(cell(row, rate)),
			ConvertedInvoiceAmount: parseDecimal(cell(row, invoice)),
		})
	}
	return records, nil
}

// =============================================================================
// TRANSIT FILE
// =============================================================================

// ReadTransit parses a Type-IV workbook. The security column stays an
// opaque blob here; the engine extracts the amount.
func ReadTransit(r io.Reader) ([]customs.ImportRecord, error) {
	h, rows, err := sheetRows(r, "transit file")
	if err != nil {
		return nil, err
	}

	matchKey, err := h.require("match key", transitMatchKey)
	if err != nil {
		return nil, err
	}
	security, err := h.require("security", transitSecurity)
	if err != nil {
		return nil, err
	}

	records := make([]customs.ImportRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, customs.ImportRecord{
			MatchKey:     customs.CleanIdentifier(cell(row, matchKey)),
			SecurityBlob: cell(row, security),
		})
	}
	return records, nil
}

// =============================================================================
// TRANSPORT FILE
// =============================================================================

// ReadTransport parses the optional arrival-notification workbook.
func ReadTransport(r io.Reader) ([]customs.TransportRecord, error) {
	h, rows, err := sheetRows(r, "transport file")
	if err != nil {
		return nil, err
	}

	entryReg, err := h.require("entry registration", transportEntryReg)
	if err != nil {
		return nil, err
	}
	mrn, err := h.require("transport MRN", transportMRN)
	if err != nil {
		return nil, err
	}
	packages, err := h.require("package count", transportPackages)
	if err != nil {
		return nil, err
	}

	records := make([]customs.TransportRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, customs.TransportRecord{
			EntryRegistration: cell(row, entryReg),
			TransportMRN:      cell(row, mrn),
			PackageCount:      parseNullDecimal(cell(row, packages)),
		})
	}
	return records, nil
}

// =============================================================================
// CELL PARSING
// =============================================================================

// parseDecimal reads a numeric cell, tolerating a decimal comma. Anything
// unparseable reads as zero; callers that care surface a warning instead.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(normalizeNumber(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseNullDecimal distinguishes an absent cell from an explicit zero.
func parseNullDecimal(s string) decimal.NullDecimal {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: parseDecimal(s), Valid: true}
}

func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}
