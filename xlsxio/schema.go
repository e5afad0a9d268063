/*
schema.go - Workbook column schemas

PURPOSE:
  Declares, per input file, the ordered column-name candidates for each
  logical field and resolves them against a workbook's header row. The
  candidate lists deliberately include known misspellings that occur in
  the wild; the first present candidate wins.

ERROR POLICY:
  A required logical field with no matching column is a fatal schema
  error; optional fields resolve to -1 and read as empty.
*/
package xlsxio

import (
	"strings"

	"github.com/clearport/surety-engine/customs"
)

// Master file columns.
var (
	masterPresentationDate = []string{"Datum Überlassung - CUSTST"}
	masterEndDate          = []string{"Datum Ende - CUSFIN"}
	masterPrimaryKey       = []string{"Registriernummer Folgeverfahren"}
	masterSecondaryKey     = []string{"Weitere Registriernummer Folgeverfahren", "Weitere Registriernummer"}
	masterDeclarationType  = []string{"Anmeldeart Folgeverfahren"}
	masterReferenceNumber  = []string{"Bezugsnummer/LRN SumA"}
	masterEntryMRN         = []string{"Registriernummer/MRN SumA"}
	masterPositionRef      = []string{"Position SumA", "Pos. SumA", "PositionNo SumA", "Position", "Pos", "PositionNo"}
	masterFollowUpValue    = []string{"Zollwert Folgeverfahren"}
	masterFollowUpDuty     = []string{"Zollbetrag Folgeverfahren"}
)

// Import-duty file columns. The fixed 13-column layout drives the optional
// auto-reduction; lookups still go by name so extra columns are harmless.
var importDutyLayout = []string{
	"Teilnehmer",
	"Verfahren",
	"Bezugsnummer/LRN",
	"Überlassungsdatum",
	"Registriernummer/MRN",
	"PositionNo",
	"Zollwert",
	"AbgabeZoll",
	"AbgabeZollsatz",
	"Eustwert",
	"AbgabeEust",
	"Warentarifnummer",
	"BEAnteil SumA",
}

var (
	importMatchKey   = []string{"Registriernummer/MRN", "Registriernummer / MRN", "MRN"}
	importPosition   = []string{"PositionNo"}
	importTariffCode = []string{"Warentarifnummer"}
	importValue      = []string{"Zollwert"}
	importRate       = []string{"AbgabeZollsatz"}
	importQuantity   = []string{"Menge"}
	importAllocation = []string{"BEAnteil SumA"}
)

// Warehouse file columns, misspelled variants first because that is what
// the producing system actually emits.
var (
	warehouseMatchKey   = []string{"Registriernummer/MRN", "Registriernummer / MRN", "MRN", "Registrienummer/MRN"}
	warehousePosition   = []string{"PositionNo"}
	warehouseTariffCode = []string{"Warentarifnummer"}
	warehouseDuty       = []string{"Vorraussichtliche Zollabgabe", "Voraussichtliche Zollabgabe"}
	warehouseRate       = []string{"Vorraussichtliche Zollsatzabgabe", "Voraussichtliche Zollsatzabgabe"}
	warehouseInvoice    = []string{"DV1UmgerechnerterRechnungsbetrag", "DV1 Umgerechneter Rechnungsbetrag"}
)

// Transit file columns.
var (
	transitMatchKey = []string{"MRN"}
	transitSecurity = []string{"Sicherheit", "Sicherheitsleistungen"}
)

// Transport (arrival notification) file columns.
var (
	transportEntryReg = []string{"Registriernr.-SumA"}
	transportMRN      = []string{"RegistriernNr./MRN"}
	transportPackages = []string{"Anzahl Packstücke"}
)

// header maps a workbook's first row to column indices.
type header struct {
	file  string
	index map[string]int
}

func newHeader(file string, row []string) header {
	h := header{file: file, index: make(map[string]int, len(row))}
	for i, name := range row {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := h.index[name]; !ok {
			h.index[name] = i
		}
	}
	return h
}

// find resolves the first present candidate, -1 when none matches.
func (h header) find(candidates []string) int {
	for _, c := range candidates {
		if i, ok := h.index[c]; ok {
			return i
		}
	}
	return -1
}

// require resolves a mandatory field or fails the whole file.
func (h header) require(field string, candidates []string) (int, error) {
	if i := h.find(candidates); i >= 0 {
		return i, nil
	}
	return -1, &customs.SchemaError{File: h.file, Field: field, Candidates: candidates}
}

// cell reads a column from a data row, tolerating short rows: the sheet
// reader trims trailing empty cells.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
