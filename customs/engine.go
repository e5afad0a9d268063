/*
engine.go - Run orchestration

PURPOSE:
  Drives one batch run: period filtering, per-type matching and derivation,
  flat-rate passes, charge normalization and the standard result sort.
  The run is synchronous and side-effect free; all inputs are materialized
  before it starts and the result is returned fully materialized.

PROCESSING ORDER:
  Matched types first (import, warehouse, follow-up, transit), then the
  flat-rate passes (empty declaration type and the administrative markers).
  Within a type, master file order is preserved; the final result order is
  the standard sort (presentation date, entry registration, position).

ERROR POLICY:
  A declaration type present in the batch without its import file aborts
  the run before any output is produced. Data-level problems never abort;
  they are collected as warnings on the result.
*/
package customs

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Inputs is one fully materialized batch. Import sets are keyed by the
// declaration type they serve; the import-duty set is expected to be
// allocation-expanded already (see ExpandAllocations).
type Inputs struct {
	Master     []MasterRecord
	ImportDuty []ImportRecord // Type I files
	Warehouse  []ImportRecord // Type II files
	Transit    []ImportRecord // Type IV files
}

// Result is the outcome of one run.
type Result struct {
	Positions []ComputedPosition
	Stats     Stats
	Warnings  []Warning
}

// matchedTypeOrder fixes the processing order of the matched passes.
var matchedTypeOrder = []DeclarationType{DeclImport, DeclWarehouse, DeclFollowUp, DeclTransit}

// flatTypeOrder fixes the processing order of the flat-rate passes.
var flatTypeOrder = []DeclarationType{DeclEmpty, DeclArchive, DeclDiversion, DeclArrival}

// Process executes one run under an immutable config. Rerunning with
// identical inputs and config yields an identical result.
func Process(cfg Config, in Inputs) (*Result, error) {
	e := &engine{
		cfg:   cfg,
		calc:  calculator{cfg: cfg},
		stats: NewStats(),
	}

	master := filterPeriod(in.Master, cfg)
	if len(master) == 0 {
		return nil, ErrEmptyRun
	}
	e.countTypes(master)

	if err := e.checkImportFiles(in); err != nil {
		return nil, err
	}

	for _, t := range matchedTypeOrder {
		e.processType(t, master, in)
	}
	for _, t := range flatTypeOrder {
		e.processFlat(t, master)
	}

	Normalize(e.positions, cfg)
	sortStandard(e.positions)

	return &Result{
		Positions: e.positions,
		Stats:     *e.stats,
		Warnings:  e.warnings,
	}, nil
}

type engine struct {
	cfg       Config
	calc      calculator
	stats     *Stats
	positions []ComputedPosition
	warnings  []Warning
}

func (e *engine) warn(w Warning) { e.warnings = append(e.warnings, w) }

// filterPeriod keeps master records whose presentation date falls inside
// the configured window. A zero window keeps everything; with a window set,
// records with unparseable presentation dates are excluded.
func filterPeriod(master []MasterRecord, cfg Config) []MasterRecord {
	if cfg.PeriodFrom.IsZero() && cfg.PeriodTo.IsZero() {
		return master
	}
	var out []MasterRecord
	for _, m := range master {
		d := m.PresentationDate
		if d.IsZero() {
			continue
		}
		if !cfg.PeriodFrom.IsZero() && d.Before(cfg.PeriodFrom) {
			continue
		}
		if !cfg.PeriodTo.IsZero() && d.After(cfg.PeriodTo) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (e *engine) countTypes(master []MasterRecord) {
	e.stats.TotalMaster = len(master)
	for _, m := range master {
		e.stats.TypeCounts[normalizeType(m.DeclarationType)]++
		if m.DeclarationType.IsInternal() {
			e.stats.SkippedInternal++
		}
	}
}

// normalizeType folds the absent declaration type onto its marker.
func normalizeType(t DeclarationType) DeclarationType {
	if t == "" {
		return DeclEmpty
	}
	return t
}

// checkImportFiles verifies that every matched type present in the batch has
// its import file. Missing files are configuration errors: fatal.
func (e *engine) checkImportFiles(in Inputs) error {
	need := []struct {
		t       DeclarationType
		imports []ImportRecord
		file    string
	}{
		{DeclImport, in.ImportDuty, "import-duty file"},
		{DeclWarehouse, in.Warehouse, "warehouse file"},
		{DeclTransit, in.Transit, "transit file"},
	}
	for _, n := range need {
		if e.stats.TypeCounts[n.t] > 0 && len(n.imports) == 0 {
			return fmt.Errorf("%d %s records: %s: %w", e.stats.TypeCounts[n.t], n.t, n.file, ErrMissingImportFile)
		}
	}
	return nil
}

// =============================================================================
// MATCHED PASSES
// =============================================================================

func (e *engine) processType(t DeclarationType, master []MasterRecord, in Inputs) {
	ms := e.stats.matchStats(t)
	for _, m := range master {
		if normalizeType(m.DeclarationType) != t {
			continue
		}
		if m.consolidated() {
			e.stats.SkippedConsolidated++
			continue
		}
		ms.Processed++

		switch t {
		case DeclImport:
			e.positions = append(e.positions, e.processImport(m, in.ImportDuty, ms))
		case DeclWarehouse:
			e.positions = append(e.positions, e.processWarehouse(m, in.Warehouse, ms))
		case DeclFollowUp:
			e.positions = append(e.positions, e.processFollowUp(m))
		case DeclTransit:
			e.positions = append(e.positions, e.processTransit(m, in.Transit, ms))
		}
	}
}

// basePosition carries the fields every result line shares, derived from
// the master record alone.
func (e *engine) basePosition(m MasterRecord) ComputedPosition {
	p := ComputedPosition{
		ReferenceNumber:  m.ReferenceNumber,
		EntryMRN:         m.EntryMRN,
		ATBNumber:        m.EntryMRN,
		SumaPosition:     m.PositionRef,
		PresentationDate: m.PresentationDate,
		EndDate:          m.EndDate,
		DeclarationType:  normalizeType(m.DeclarationType),
	}
	if !m.PresentationDate.IsZero() {
		p.StorageDeadline = m.PresentationDate.AddDays(e.cfg.StoragePeriodDays)
	}
	p.StorageDurationDays = DaysBetween(m.PresentationDate, m.EndDate)
	return p
}

func (e *engine) noMatch(m MasterRecord) ComputedPosition {
	p := e.basePosition(m)
	p.Label = PositionLabel{Kind: LabelNoMatch}
	p.Quantity = zeroQuantity(p.DeclarationType)
	p.TotalCharge = e.cfg.FlatDefault
	return p
}

func (e *engine) processImport(m MasterRecord, imports []ImportRecord, ms *MatchStats) ComputedPosition {
	outcome := findMatches(m, imports)
	if !outcome.matched() {
		ms.NoMatch++
		return e.noMatch(m)
	}
	ms.Matched++

	var row ImportRecord
	switch outcome.tier {
	case TierExact:
		ms.ExactMatches++
		row = outcome.rows[0]
	default:
		ms.FallbackMatches++
		row = selectLowestPosition(outcome.rows)
	}
	if !row.Tag.IsZero() {
		ms.TaggedRows++
	}

	p := e.basePosition(m)
	p.ResolvedWith = outcome.resolvedWith
	p.Label = NumericLabel(row.PositionNumber)
	p.TariffCode = row.TariffCode
	p.Quantity = row.Quantity
	applyValues(&p, e.calc.importDuty(row))
	return p
}

func (e *engine) processWarehouse(m MasterRecord, imports []ImportRecord, ms *MatchStats) ComputedPosition {
	outcome := findMatches(m, imports)
	if !outcome.matched() {
		ms.NoMatch++
		return e.noMatch(m)
	}
	ms.Matched++
	ms.FallbackMatches++

	p := e.basePosition(m)
	p.ResolvedWith = outcome.resolvedWith

	if len(outcome.rows) == 1 {
		row := outcome.rows[0]
		p.Label = NumericLabel(row.PositionNumber)
		p.TariffCode = row.TariffCode
		applyValues(&p, e.calc.warehouseDuty(row))
		return p
	}

	vs, label, row := e.calc.aggregate(outcome.rows, e.cfg.AggregationPolicy)
	p.Label = label
	p.TariffCode = row.TariffCode
	applyValues(&p, vs)
	return p
}

func (e *engine) processFollowUp(m MasterRecord) ComputedPosition {
	if m.FollowUpCustomsValue.IsPositive() {
		e.stats.FollowUpWithValue++
	} else {
		e.stats.FollowUpWithoutValue++
	}

	p := e.basePosition(m)
	// Self-contained: the follow-up registration itself closes the entry.
	p.ResolvedWith = m.SecondaryKey
	applyValues(&p, e.calc.followUpDuty(m))
	return p
}

func (e *engine) processTransit(m MasterRecord, imports []ImportRecord, ms *MatchStats) ComputedPosition {
	outcome := findMatches(m, imports)
	if !outcome.matched() {
		ms.NoMatch++
		return e.noMatch(m)
	}
	ms.Matched++

	p := e.basePosition(m)
	p.ResolvedWith = outcome.resolvedWith
	p.Quantity = zeroQuantity(DeclTransit)
	applyValues(&p, e.calc.transitSecurity(outcome.rows[0], e.warn))
	return p
}

// =============================================================================
// FLAT-RATE PASSES
// =============================================================================

func (e *engine) processFlat(t DeclarationType, master []MasterRecord) {
	for _, m := range master {
		if normalizeType(m.DeclarationType) != t {
			continue
		}
		if m.consolidated() {
			e.stats.SkippedConsolidated++
			continue
		}
		e.stats.FlatProcessed[t]++

		p := e.basePosition(m)
		if m.PositionRef != "" {
			p.Label = NumericLabel(m.PositionRef)
		} else {
			p.Label = PositionLabel{Kind: LabelFlatRate}
		}
		p.Quantity = zeroQuantity(t)
		applyValues(&p, e.calc.flatRate())
		e.positions = append(e.positions, p)
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func applyValues(p *ComputedPosition, vs valueSet) {
	p.CustomsValue = vs.customsValue
	p.DutyRate = vs.dutyRate
	p.DutyAmount = vs.dutyAmount
	p.SecondaryTax = vs.secondaryTax
	p.TotalCharge = vs.totalCharge
}

// zeroQuantity returns the display quantity for positions without a matched
// import quantity: warehouse and follow-up lines leave it blank, everything
// else shows an explicit zero.
func zeroQuantity(t DeclarationType) (q decimal.NullDecimal) {
	switch t {
	case DeclWarehouse, DeclFollowUp:
		return q // blank
	default:
		q.Valid = true
		return q
	}
}

// sortStandard orders the result: presentation date ascending with absent
// dates last, then entry registration, then numeric master position with
// non-numeric sorted last. Order indexes are assigned afterwards; the
// movement ledger ties back to them.
func sortStandard(positions []ComputedPosition) {
	sort.SliceStable(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if !a.PresentationDate.Equal(b.PresentationDate) {
			if a.PresentationDate.IsZero() {
				return false
			}
			if b.PresentationDate.IsZero() {
				return true
			}
			return a.PresentationDate.Before(b.PresentationDate)
		}
		if a.ATBNumber != b.ATBNumber {
			return a.ATBNumber < b.ATBNumber
		}
		return labelOrd(a.SumaPosition) < labelOrd(b.SumaPosition)
	})
	for i := range positions {
		positions[i].Order = i
	}
}
