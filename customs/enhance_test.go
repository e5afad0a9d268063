package customs_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/clearport/surety-engine/customs"
)

func pkgCount(n int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(n), Valid: true}
}

func TestEnhanceTransport_OverlaysMRNAndQuantity(t *testing.T) {
	// GIVEN: Two positions, one with a transport row carrying MRN and count
	// WHEN: Enhancing
	// THEN: That position gets both overlays; the other stays untouched

	positions := []customs.ComputedPosition{
		{ATBNumber: "ATB100", EntryMRN: "ATB100"},
		{ATBNumber: "ATB200", EntryMRN: "ATB200"},
	}
	transport := []customs.TransportRecord{
		{EntryRegistration: "ATB100", TransportMRN: "24DEMRN100", PackageCount: pkgCount(12)},
	}

	mrn, qty := customs.EnhanceTransport(positions, transport)

	assert.Equal(t, 1, mrn)
	assert.Equal(t, 1, qty)
	assert.Equal(t, "24DEMRN100", positions[0].EntryMRN)
	assert.Equal(t, "ATB100", positions[0].ATBNumber, "registration itself never changes")
	assert.True(t, positions[0].Quantity.Valid)
	assert.Equal(t, "ATB200", positions[1].EntryMRN)
}

func TestEnhanceTransport_PartialRow(t *testing.T) {
	// GIVEN: A transport row with an MRN but no package count
	// WHEN: Enhancing
	// THEN: Only the MRN is overlaid; the quantity keeps its value

	positions := []customs.ComputedPosition{
		{ATBNumber: "ATB300", EntryMRN: "ATB300", Quantity: pkgCount(3)},
	}
	transport := []customs.TransportRecord{
		{EntryRegistration: "ATB300", TransportMRN: "24DEMRN300"},
	}

	mrn, qty := customs.EnhanceTransport(positions, transport)

	assert.Equal(t, 1, mrn)
	assert.Equal(t, 0, qty)
	assert.Equal(t, "24DEMRN300", positions[0].EntryMRN)
	assert.True(t, positions[0].Quantity.Decimal.Equal(decimal.NewFromInt(3)))
}

func TestEnhanceTransport_FirstRowPerRegistrationWins(t *testing.T) {
	// GIVEN: Two transport rows under one registration
	// WHEN: Enhancing
	// THEN: The first row in file order is the one applied

	positions := []customs.ComputedPosition{{ATBNumber: "ATB400"}}
	transport := []customs.TransportRecord{
		{EntryRegistration: "ATB400", TransportMRN: "FIRST"},
		{EntryRegistration: "ATB400", TransportMRN: "SECOND"},
	}

	customs.EnhanceTransport(positions, transport)
	assert.Equal(t, "FIRST", positions[0].EntryMRN)
}

func TestEnhanceTransport_NoFile(t *testing.T) {
	// GIVEN: No transport file
	// WHEN: Enhancing
	// THEN: Nothing changes

	positions := []customs.ComputedPosition{{ATBNumber: "ATB500", EntryMRN: "ATB500"}}
	mrn, qty := customs.EnhanceTransport(positions, nil)

	assert.Zero(t, mrn)
	assert.Zero(t, qty)
	assert.Equal(t, "ATB500", positions[0].EntryMRN)
}

// =============================================================================
// FINANCIAL SUMMARY
// =============================================================================

func TestSummarize_TotalsOverallAndPerType(t *testing.T) {
	// GIVEN: Two import positions and one warehouse position
	// WHEN: Summarizing
	// THEN: Overall totals add up and per-type blocks follow the display order

	positions := []customs.ComputedPosition{
		{DeclarationType: customs.DeclWarehouse, CustomsValue: dec("300"), DutyAmount: dec("30"), TotalCharge: dec("30")},
		{DeclarationType: customs.DeclImport, CustomsValue: dec("100"), DutyAmount: dec("10"), SecondaryTax: dec("20.90"), TotalCharge: dec("10")},
		{DeclarationType: customs.DeclImport, CustomsValue: dec("200"), DutyAmount: dec("20"), TotalCharge: dec("20")},
	}

	s := customs.Summarize(positions)

	assert.Equal(t, 3, s.Positions)
	assertDecimal(t, "600", s.CustomsValue, "customs value")
	assertDecimal(t, "60", s.TotalCharge, "total charge")
	assertDecimal(t, "20.90", s.SecondaryTax, "secondary tax")

	assert.Len(t, s.ByType, 2)
	assert.Equal(t, customs.DeclImport, s.ByType[0].DeclarationType)
	assert.Equal(t, 2, s.ByType[0].Positions)
	assertDecimal(t, "300", s.ByType[0].CustomsValue, "import value")
	assert.Equal(t, customs.DeclWarehouse, s.ByType[1].DeclarationType)
}

func TestSummarize_Empty(t *testing.T) {
	s := customs.Summarize(nil)
	assert.Zero(t, s.Positions)
	assert.Empty(t, s.ByType)
}
