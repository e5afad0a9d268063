package customs_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearport/surety-engine/customs"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testConfig() customs.Config {
	cfg := customs.DefaultConfig()
	cfg.BondStartAmount = decimal.NewFromInt(1_000_000)
	return cfg
}

func day(d int) customs.Date {
	return customs.NewDate(2024, time.March, d)
}

func importMaster(key string, d int) customs.MasterRecord {
	return customs.MasterRecord{
		DeclarationType:  customs.DeclImport,
		PrimaryKey:       key,
		SecondaryKey:     key,
		ReferenceNumber:  "REF-" + key,
		EntryMRN:         "MRN-" + key,
		PresentationDate: day(d),
		EndDate:          day(d + 2),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// assertDecimal compares by numeric value, not representation: 120 and
// 120.00 are the same amount.
func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s: want %s, got %s", field, want, got)
}

func mustProcess(t *testing.T, cfg customs.Config, in customs.Inputs) *customs.Result {
	t.Helper()
	res, err := customs.Process(cfg, in)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

// =============================================================================
// IMPORT PASS (TYPE I)
// =============================================================================

func TestProcess_ImportZeroRateSubstitution(t *testing.T) {
	// GIVEN: An import row with a positive customs value and a 0% duty rate
	// WHEN: Processing with substitution enabled at 12%
	// THEN: Duty is derived from the substituted rate, import VAT on top

	in := customs.Inputs{
		Master: []customs.MasterRecord{importMaster("24DE100", 5)},
		ImportDuty: []customs.ImportRecord{{
			MatchKey:       "24DE100",
			PositionNumber: "1",
			CustomsValue:   dec("1000"),
			DutyRate:       decimal.Zero,
		}},
	}
	res := mustProcess(t, testConfig(), in)

	require.Len(t, res.Positions, 1)
	p := res.Positions[0]
	assertDecimal(t, "1000", p.CustomsValue, "customs value")
	assertDecimal(t, "12", p.DutyRate, "duty rate")
	assertDecimal(t, "120.00", p.TotalCharge, "total charge")
	assertDecimal(t, "212.80", p.SecondaryTax, "secondary tax")
	assert.True(t, p.DutyAmount.Equal(p.TotalCharge), "recorded duty equals total charge")
}

func TestProcess_ImportSubstitutionDisabled(t *testing.T) {
	// GIVEN: The same zero-rate row with substitution switched off
	// WHEN: Processing
	// THEN: Duty stays zero and the minimum-charge rule lifts the charge to 1

	cfg := testConfig()
	cfg.ZeroRateSubstitutionEnabled = false

	in := customs.Inputs{
		Master: []customs.MasterRecord{importMaster("24DE100", 5)},
		ImportDuty: []customs.ImportRecord{{
			MatchKey:     "24DE100",
			CustomsValue: dec("1000"),
		}},
	}
	res := mustProcess(t, cfg, in)

	p := res.Positions[0]
	assertDecimal(t, "0", p.DutyRate, "duty rate")
	assertDecimal(t, "1", p.TotalCharge, "total charge")
}

func TestProcess_ImportExactMatchBeatsFallback(t *testing.T) {
	// GIVEN: Two allocation-tagged rows under one key, only one tagged with
	//        the master's entry registration and position
	// WHEN: Processing
	// THEN: The tagged row wins even though its position number is higher

	m := importMaster("24DE200", 5)
	m.PositionRef = "7"

	in := customs.Inputs{
		Master: []customs.MasterRecord{m},
		ImportDuty: []customs.ImportRecord{
			{
				MatchKey:       "24DE200",
				PositionNumber: "1",
				CustomsValue:   dec("500"),
				DutyRate:       dec("4"),
				Tag:            customs.AllocationTag{SecondaryMatch: "MRN-OTHER", PositionTag: "1"},
			},
			{
				MatchKey:       "24DE200",
				PositionNumber: "7",
				CustomsValue:   dec("2000"),
				DutyRate:       dec("4"),
				Tag:            customs.AllocationTag{SecondaryMatch: "MRN-24DE200", PositionTag: "7"},
			},
		},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assert.Equal(t, "7", p.Label.String())
	assertDecimal(t, "2000", p.CustomsValue, "customs value")
	assert.Equal(t, 1, res.Stats.Match[customs.DeclImport].ExactMatches)
	assert.Equal(t, 1, res.Stats.Match[customs.DeclImport].TaggedRows)
}

func TestProcess_ImportFallbackPicksLowestPosition(t *testing.T) {
	// GIVEN: Three untagged rows under one key with positions 12, 3, 3
	// WHEN: Processing
	// THEN: The fallback selects position 3, first occurrence on the tie

	in := customs.Inputs{
		Master: []customs.MasterRecord{importMaster("24DE300", 5)},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "24DE300", PositionNumber: "12", CustomsValue: dec("900"), DutyRate: dec("2")},
			{MatchKey: "24DE300", PositionNumber: "3", CustomsValue: dec("100"), DutyRate: dec("2")},
			{MatchKey: "24DE300", PositionNumber: "3", CustomsValue: dec("200"), DutyRate: dec("2")},
		},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assert.Equal(t, "3", p.Label.String())
	assertDecimal(t, "100", p.CustomsValue, "customs value")
	assert.Equal(t, 1, res.Stats.Match[customs.DeclImport].FallbackMatches)
}

func TestProcess_ImportSecondaryKeyResolves(t *testing.T) {
	// GIVEN: A master record whose primary key misses but whose secondary
	//        key hits
	// WHEN: Processing
	// THEN: The match resolves and records the secondary key

	m := importMaster("24DE400", 5)
	m.SecondaryKey = "24DE400-ALT"

	in := customs.Inputs{
		Master: []customs.MasterRecord{m},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "24DE400-ALT", PositionNumber: "1", CustomsValue: dec("100"), DutyRate: dec("10")},
		},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assert.Equal(t, "24DE400-ALT", p.ResolvedWith)
	assertDecimal(t, "10.00", p.TotalCharge, "total charge")
}

func TestProcess_ImportSecondaryKeyPreferredOverPrimary(t *testing.T) {
	// GIVEN: A master record whose primary and secondary keys both hit
	//        different import rows
	// WHEN: Processing
	// THEN: The secondary key resolves the match and is recorded

	m := importMaster("24DE410", 5)
	m.SecondaryKey = "24DE410-ALT"

	in := customs.Inputs{
		Master: []customs.MasterRecord{m},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "24DE410", PositionNumber: "1", CustomsValue: dec("100"), DutyRate: dec("10")},
			{MatchKey: "24DE410-ALT", PositionNumber: "1", CustomsValue: dec("200"), DutyRate: dec("10")},
		},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assert.Equal(t, "24DE410-ALT", p.ResolvedWith)
	assertDecimal(t, "200", p.CustomsValue, "customs value")
	assertDecimal(t, "20.00", p.TotalCharge, "total charge")
}

func TestProcess_ImportNoMatchPlaceholder(t *testing.T) {
	// GIVEN: A master record with no import row under either key
	// WHEN: Processing
	// THEN: A placeholder position carries the flat default

	in := customs.Inputs{
		Master: []customs.MasterRecord{importMaster("24DE500", 5)},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "UNRELATED", CustomsValue: dec("1")},
		},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assert.Equal(t, "NO MATCH", p.Label.String())
	assert.Empty(t, p.ResolvedWith)
	assertDecimal(t, "10000", p.TotalCharge, "total charge")
	assert.Equal(t, 1, res.Stats.Match[customs.DeclImport].NoMatch)
}

// =============================================================================
// WAREHOUSE PASS (TYPE II)
// =============================================================================

func warehouseMaster(key string, d int) customs.MasterRecord {
	m := importMaster(key, d)
	m.DeclarationType = customs.DeclWarehouse
	return m
}

func TestProcess_WarehouseValueFromProjectedDuty(t *testing.T) {
	// GIVEN: One warehouse row with projected duty 240 at 12%
	// WHEN: Processing
	// THEN: The customs value is backed out as 2000

	in := customs.Inputs{
		Master: []customs.MasterRecord{warehouseMaster("24DE600", 5)},
		Warehouse: []customs.ImportRecord{{
			MatchKey:            "24DE600",
			PositionNumber:      "1",
			ProjectedDutyAmount: dec("240"),
			ProjectedDutyRate:   dec("12"),
		}},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assertDecimal(t, "2000.00", p.CustomsValue, "customs value")
	assertDecimal(t, "240", p.TotalCharge, "total charge")
	assert.False(t, p.Quantity.Valid, "warehouse quantity stays blank")
}

func TestProcess_WarehouseZeroRateUsesInvoiceAmount(t *testing.T) {
	// GIVEN: A warehouse row with a zero projected rate and an invoice amount
	// WHEN: Processing
	// THEN: The invoice amount is the value; substitution derives the duty

	in := customs.Inputs{
		Master: []customs.MasterRecord{warehouseMaster("24DE700", 5)},
		Warehouse: []customs.ImportRecord{{
			MatchKey:               "24DE700",
			PositionNumber:         "1",
			ConvertedInvoiceAmount: dec("1500"),
		}},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assertDecimal(t, "1500", p.CustomsValue, "customs value")
	assertDecimal(t, "12", p.DutyRate, "duty rate")
	assertDecimal(t, "180.00", p.TotalCharge, "total charge")
}

func TestProcess_WarehouseAggregateMaxValue(t *testing.T) {
	// GIVEN: Three warehouse rows under one key, values 1000/3000/2000
	// WHEN: Processing under the max_value policy
	// THEN: The 3000 row wins and the label is annotated

	in := customs.Inputs{
		Master: []customs.MasterRecord{warehouseMaster("24DE800", 5)},
		Warehouse: []customs.ImportRecord{
			{MatchKey: "24DE800", PositionNumber: "1", ProjectedDutyAmount: dec("100"), ProjectedDutyRate: dec("10")},
			{MatchKey: "24DE800", PositionNumber: "2", ProjectedDutyAmount: dec("300"), ProjectedDutyRate: dec("10")},
			{MatchKey: "24DE800", PositionNumber: "3", ProjectedDutyAmount: dec("200"), ProjectedDutyRate: dec("10")},
		},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assert.Equal(t, "2 (max of 3)", p.Label.String())
	assertDecimal(t, "3000.00", p.CustomsValue, "customs value")
	assertDecimal(t, "300", p.TotalCharge, "total charge")
}

func TestProcess_WarehouseAggregateFirst(t *testing.T) {
	// GIVEN: The same three rows under the first policy
	// WHEN: Processing
	// THEN: The lowest position is kept alone, annotated "(1 of 3)"

	cfg := testConfig()
	cfg.AggregationPolicy = customs.AggregateFirst

	in := customs.Inputs{
		Master: []customs.MasterRecord{warehouseMaster("24DE800", 5)},
		Warehouse: []customs.ImportRecord{
			{MatchKey: "24DE800", PositionNumber: "2", ProjectedDutyAmount: dec("300"), ProjectedDutyRate: dec("10")},
			{MatchKey: "24DE800", PositionNumber: "1", ProjectedDutyAmount: dec("100"), ProjectedDutyRate: dec("10")},
			{MatchKey: "24DE800", PositionNumber: "3", ProjectedDutyAmount: dec("200"), ProjectedDutyRate: dec("10")},
		},
	}
	res := mustProcess(t, cfg, in)

	p := res.Positions[0]
	assert.Equal(t, "1 (1 of 3)", p.Label.String())
	assertDecimal(t, "100", p.TotalCharge, "total charge")
}

func TestProcess_WarehouseAggregateSum(t *testing.T) {
	// GIVEN: Two rows, 100 duty on 1000 value and 300 duty on 3000 value
	// WHEN: Processing under the sum policy
	// THEN: Value and duty are summed and the rate averaged over the sum

	cfg := testConfig()
	cfg.AggregationPolicy = customs.AggregateSum

	in := customs.Inputs{
		Master: []customs.MasterRecord{warehouseMaster("24DE900", 5)},
		Warehouse: []customs.ImportRecord{
			{MatchKey: "24DE900", PositionNumber: "1", ProjectedDutyAmount: dec("100"), ProjectedDutyRate: dec("10")},
			{MatchKey: "24DE900", PositionNumber: "2", ProjectedDutyAmount: dec("300"), ProjectedDutyRate: dec("10")},
		},
	}
	res := mustProcess(t, cfg, in)

	p := res.Positions[0]
	assert.Equal(t, "SUM (2 positions)", p.Label.String())
	assertDecimal(t, "4000.00", p.CustomsValue, "customs value")
	assertDecimal(t, "10", p.DutyRate, "averaged rate")
	assertDecimal(t, "400", p.TotalCharge, "total charge")
}

// =============================================================================
// FOLLOW-UP PASS (TYPE III)
// =============================================================================

func TestProcess_FollowUpRateDerivedAndRounded(t *testing.T) {
	// GIVEN: A self-contained follow-up record, duty 10 on value 300
	// WHEN: Processing
	// THEN: The derived rate rounds to one decimal (3.3%)

	m := importMaster("24DEF01", 5)
	m.DeclarationType = customs.DeclFollowUp
	m.FollowUpCustomsValue = dec("300")
	m.FollowUpDutyAmount = dec("10")

	res := mustProcess(t, testConfig(), customs.Inputs{Master: []customs.MasterRecord{m}})

	p := res.Positions[0]
	assertDecimal(t, "3.3", p.DutyRate, "derived rate")
	assertDecimal(t, "10", p.TotalCharge, "total charge")
	assert.Equal(t, "24DEF01", p.ResolvedWith, "closes via its own registration")
	assert.Equal(t, 1, res.Stats.FollowUpWithValue)
}

func TestProcess_FollowUpWithoutValue(t *testing.T) {
	// GIVEN: A follow-up record with neither value nor duty
	// WHEN: Processing
	// THEN: The flat default applies and the record is counted separately

	m := importMaster("24DEF02", 5)
	m.DeclarationType = customs.DeclFollowUp

	res := mustProcess(t, testConfig(), customs.Inputs{Master: []customs.MasterRecord{m}})

	assertDecimal(t, "10000", res.Positions[0].TotalCharge, "total charge")
	assert.Equal(t, 1, res.Stats.FollowUpWithoutValue)
}

// =============================================================================
// TRANSIT PASS (TYPE IV)
// =============================================================================

func TestProcess_TransitSecurityAmount(t *testing.T) {
	// GIVEN: A transit row whose security blob carries a decimal-comma amount
	// WHEN: Processing
	// THEN: The amount becomes the total charge verbatim

	m := importMaster("24DET01", 5)
	m.DeclarationType = customs.DeclTransit

	in := customs.Inputs{
		Master: []customs.MasterRecord{m},
		Transit: []customs.ImportRecord{{
			MatchKey:     "24DET01",
			SecurityBlob: "Art: Barsicherheit Sicherheit: 2500,75 EUR",
		}},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assertDecimal(t, "2500.75", p.TotalCharge, "total charge")
	assert.Empty(t, res.Warnings)
}

func TestProcess_TransitUnparseableSecurityWarns(t *testing.T) {
	// GIVEN: A transit row whose security blob has no extractable amount
	// WHEN: Processing
	// THEN: A warning is recorded and the flat default covers the position

	m := importMaster("24DET02", 5)
	m.DeclarationType = customs.DeclTransit

	in := customs.Inputs{
		Master: []customs.MasterRecord{m},
		Transit: []customs.ImportRecord{{
			MatchKey:     "24DET02",
			SecurityBlob: "keine Angabe",
		}},
	}
	res := mustProcess(t, testConfig(), in)

	assertDecimal(t, "10000", res.Positions[0].TotalCharge, "total charge")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "security blob", res.Warnings[0].Context)
}

// =============================================================================
// FLAT-RATE PASSES AND SKIPS
// =============================================================================

func TestProcess_FlatRateTypes(t *testing.T) {
	// GIVEN: One archive marker with a position reference, one record with
	//        no declaration type at all
	// WHEN: Processing
	// THEN: Both carry the flat default; the reference becomes the label

	withRef := importMaster("24DEA01", 5)
	withRef.DeclarationType = customs.DeclArchive
	withRef.PositionRef = "4"

	empty := importMaster("24DEA02", 6)
	empty.DeclarationType = ""

	res := mustProcess(t, testConfig(), customs.Inputs{
		Master: []customs.MasterRecord{withRef, empty},
	})

	require.Len(t, res.Positions, 2)
	assert.Equal(t, "4", res.Positions[0].Label.String())
	assert.Equal(t, "FLAT RATE", res.Positions[1].Label.String())
	assertDecimal(t, "10000", res.Positions[0].TotalCharge, "archive charge")
	assertDecimal(t, "10000", res.Positions[1].TotalCharge, "untyped charge")
	assert.Equal(t, 1, res.Stats.FlatProcessed[customs.DeclArchive])
	assert.Equal(t, 1, res.Stats.FlatProcessed[customs.DeclEmpty])
	assert.Equal(t, customs.DeclEmpty, res.Positions[1].DeclarationType)
}

func TestProcess_SkipsConsolidatedAndInternal(t *testing.T) {
	// GIVEN: A consolidated record (ATB secondary key) and an internal
	//        consolidation type next to one real import record
	// WHEN: Processing
	// THEN: Only the real record produces a position; skips are counted

	consolidated := importMaster("24DEC01", 5)
	consolidated.SecondaryKey = "ATB0001"

	internal := importMaster("24DEC02", 5)
	internal.DeclarationType = "SUSP"

	real := importMaster("24DEC03", 5)

	in := customs.Inputs{
		Master: []customs.MasterRecord{consolidated, internal, real},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "24DEC03", PositionNumber: "1", CustomsValue: dec("100"), DutyRate: dec("5")},
		},
	}
	res := mustProcess(t, testConfig(), in)

	require.Len(t, res.Positions, 1)
	assert.Equal(t, "REF-24DEC03", res.Positions[0].ReferenceNumber)
	assert.Equal(t, 1, res.Stats.SkippedConsolidated)
	assert.Equal(t, 1, res.Stats.SkippedInternal)
	assert.Equal(t, 3, res.Stats.TotalMaster)
}

// =============================================================================
// MINIMUM-CHARGE NORMALIZATION
// =============================================================================

func TestProcess_SubUnitChargeLiftedToOne(t *testing.T) {
	// GIVEN: A tiny consignment whose derived duty lands strictly inside (0, 1)
	// WHEN: Processing
	// THEN: The charge is lifted to 1; the recorded duty follows it

	in := customs.Inputs{
		Master: []customs.MasterRecord{importMaster("24DEN01", 5)},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "24DEN01", PositionNumber: "1", CustomsValue: dec("10"), DutyRate: dec("5")},
		},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assertDecimal(t, "1", p.TotalCharge, "total charge")
	assert.True(t, p.DutyAmount.Equal(p.TotalCharge))
}

func TestProcess_ChargeNeverInsideUnitInterval(t *testing.T) {
	// GIVEN: A mixed batch
	// WHEN: Processing
	// THEN: No position's charge lies strictly between 0 and 1, and every
	//       recorded duty equals the total charge

	in := customs.Inputs{
		Master: []customs.MasterRecord{
			importMaster("24DEN02", 5),
			importMaster("24DEN03", 6),
		},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "24DEN02", PositionNumber: "1", CustomsValue: dec("4"), DutyRate: dec("10")},
			{MatchKey: "24DEN03", PositionNumber: "1", CustomsValue: dec("1000"), DutyRate: dec("4")},
		},
	}
	res := mustProcess(t, testConfig(), in)

	for _, p := range res.Positions {
		inside := p.TotalCharge.IsPositive() && p.TotalCharge.LessThan(decimal.NewFromInt(1))
		assert.False(t, inside, "charge %s strictly inside (0,1)", p.TotalCharge)
		assert.True(t, p.DutyAmount.Equal(p.TotalCharge))
	}
}

// =============================================================================
// PERIOD FILTER AND FATAL ERRORS
// =============================================================================

func TestProcess_PeriodFilter(t *testing.T) {
	// GIVEN: Records on days 1, 15 and 31 with a window of [10, 20]
	// WHEN: Processing
	// THEN: Only the day-15 record survives

	cfg := testConfig()
	cfg.PeriodFrom = day(10)
	cfg.PeriodTo = day(20)

	in := customs.Inputs{
		Master: []customs.MasterRecord{
			importMaster("24DEP01", 1),
			importMaster("24DEP02", 15),
			importMaster("24DEP03", 31),
		},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "24DEP02", PositionNumber: "1", CustomsValue: dec("100"), DutyRate: dec("5")},
		},
	}
	res := mustProcess(t, cfg, in)

	require.Len(t, res.Positions, 1)
	assert.Equal(t, "REF-24DEP02", res.Positions[0].ReferenceNumber)
	assert.Equal(t, 1, res.Stats.TotalMaster)
}

func TestProcess_EmptyPeriodFails(t *testing.T) {
	// GIVEN: A window that excludes every record
	// WHEN: Processing
	// THEN: The run aborts with the empty-run error

	cfg := testConfig()
	cfg.PeriodFrom = day(25)
	cfg.PeriodTo = day(28)

	_, err := customs.Process(cfg, customs.Inputs{
		Master: []customs.MasterRecord{importMaster("24DEP04", 1)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, customs.ErrEmptyRun)
}

func TestProcess_MissingImportFileFails(t *testing.T) {
	// GIVEN: An import-type master record but no import-duty file
	// WHEN: Processing
	// THEN: The run aborts before producing any output

	_, err := customs.Process(testConfig(), customs.Inputs{
		Master: []customs.MasterRecord{importMaster("24DEP05", 5)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, customs.ErrMissingImportFile)
}

// =============================================================================
// RESULT ORDER AND DETERMINISM
// =============================================================================

func TestProcess_StandardSortOrder(t *testing.T) {
	// GIVEN: Records out of order by date, registration and position
	// WHEN: Processing
	// THEN: Results sort by date, then registration, then numeric position,
	//       with absent dates last; Order indexes follow the sort

	late := importMaster("24DES01", 9)
	undated := importMaster("24DES02", 5)
	undated.PresentationDate = customs.Date{}
	undated.DeclarationType = customs.DeclArchive
	early := importMaster("24DES03", 2)

	posB := importMaster("24DES04", 2)
	posB.EntryMRN = early.EntryMRN
	posB.PositionRef = "10"
	early.PositionRef = "2"

	in := customs.Inputs{
		Master: []customs.MasterRecord{late, undated, early, posB},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "24DES01", PositionNumber: "1", CustomsValue: dec("100"), DutyRate: dec("5")},
			{MatchKey: "24DES03", PositionNumber: "1", CustomsValue: dec("100"), DutyRate: dec("5")},
			{MatchKey: "24DES04", PositionNumber: "1", CustomsValue: dec("100"), DutyRate: dec("5")},
		},
	}
	res := mustProcess(t, testConfig(), in)

	require.Len(t, res.Positions, 4)
	var refs []string
	for i, p := range res.Positions {
		refs = append(refs, p.ReferenceNumber)
		assert.Equal(t, i, p.Order)
	}
	assert.Equal(t, []string{"REF-24DES03", "REF-24DES04", "REF-24DES01", "REF-24DES02"}, refs)
}

func TestProcess_Deterministic(t *testing.T) {
	// GIVEN: One batch
	// WHEN: Processing it twice under the same config
	// THEN: Both results are identical

	in := customs.Inputs{
		Master: []customs.MasterRecord{
			importMaster("24DED01", 5),
			warehouseMaster("24DED02", 6),
		},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "24DED01", PositionNumber: "1", CustomsValue: dec("100"), DutyRate: dec("5")},
		},
		Warehouse: []customs.ImportRecord{
			{MatchKey: "24DED02", PositionNumber: "1", ProjectedDutyAmount: dec("50"), ProjectedDutyRate: dec("10")},
		},
	}

	first := mustProcess(t, testConfig(), in)
	second := mustProcess(t, testConfig(), in)
	assert.Equal(t, first, second)
}

// =============================================================================
// STORAGE DATES
// =============================================================================

func TestProcess_StorageDeadlineAndDuration(t *testing.T) {
	// GIVEN: A record presented on day 5 and ended on day 7, 90-day storage
	// WHEN: Processing
	// THEN: Deadline is presentation + 90 days, duration counts inclusively

	in := customs.Inputs{
		Master: []customs.MasterRecord{importMaster("24DEG01", 5)},
		ImportDuty: []customs.ImportRecord{
			{MatchKey: "24DEG01", PositionNumber: "1", CustomsValue: dec("100"), DutyRate: dec("5")},
		},
	}
	res := mustProcess(t, testConfig(), in)

	p := res.Positions[0]
	assert.True(t, p.StorageDeadline.Equal(day(5).AddDays(90)))
	assert.Equal(t, 3, p.StorageDurationDays)
}
