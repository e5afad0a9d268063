/*
Package customs contains the declaration matching and duty derivation core.

PURPOSE:
  This package reconciles a batch of master customs-procedure records
  against per-procedure import files and derives one computed position per
  master record: resolved identifiers, storage dates, customs value, duty
  rate, duty amount, secondary tax and the total charge that hits the
  surety bond.

KEY CONCEPTS IN THIS FILE (types.go):
  - MasterRecord:     One customs procedure event from the master file
  - ImportRecord:     One row of a procedure-type-specific import file
  - ComputedPosition: The derived result line for one master record
  - PositionLabel:    Tagged variant for the "maybe number, maybe sentinel"
                      position field (numeric, NO MATCH, FLAT RATE, aggregated)
  - Config:           Immutable engine configuration for one run

DESIGN PRINCIPLES:
  1. Determinism: identical inputs and config yield identical output
  2. Precision: decimal.Decimal for every monetary value and rate
  3. No ambient state: Config is passed explicitly, never read globally
  4. Fatal vs recoverable: schema problems abort, data problems warn

SEE ALSO:
  - match.go: Tiered candidate search per declaration type
  - calc.go:  Per-type duty derivation
  - rules.go: Minimum-charge normalization applied across all positions
  - engine.go: Run orchestration and statistics
*/
package customs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DECLARATION TYPES
// =============================================================================

// DeclarationType is the coded customs procedure category that selects the
// matching and calculation rules for a master record.
type DeclarationType string

const (
	// Matched against an import file.
	DeclImport    DeclarationType = "IMDC" // release to free circulation
	DeclWarehouse DeclarationType = "WIDS" // customs warehouse discharge
	DeclTransit   DeclarationType = "NCDP" // transit departure, security-based

	// Self-contained: derived from master record fields alone.
	DeclFollowUp DeclarationType = "IPDC" // inward processing follow-up

	// Flat-rate administrative markers.
	DeclArchive   DeclarationType = "APDC"
	DeclDiversion DeclarationType = "AVDC"
	DeclArrival   DeclarationType = "NCAR"
	DeclEmpty     DeclarationType = "(leer)" // no declaration type recorded
)

// internalTypes are consolidation records with no bond relevance. They are
// counted but never processed.
var internalTypes = map[DeclarationType]bool{
	"SUSP": true,
	"SUDC": true,
	"SUCO": true,
	"SUCF": true,
}

// IsInternal reports whether t denotes an internally-consolidated procedure
// that must be excluded from bond accounting.
func (t DeclarationType) IsInternal() bool { return internalTypes[t] }

// IsFlatRate reports whether t always carries the configured flat default.
func (t DeclarationType) IsFlatRate() bool {
	switch t {
	case DeclArchive, DeclDiversion, DeclArrival, DeclEmpty:
		return true
	}
	return false
}

// consolidatedPrefix marks master records that were folded into another
// procedure. Such rows are skipped before matching.
const consolidatedPrefix = "ATB"

// =============================================================================
// INPUT RECORDS
// =============================================================================

// MasterRecord is one row of the master file: a single customs procedure
// event. Immutable once loaded; the engine never mutates it.
type MasterRecord struct {
	DeclarationType DeclarationType

	// Two alternate join identifiers, often equal. The matcher tries
	// PrimaryKey first and falls back to SecondaryKey.
	PrimaryKey   string
	SecondaryKey string

	ReferenceNumber string // external reference (LRN)
	EntryMRN        string // registration number of the presentation entry
	PositionRef     string // position within the presentation entry, optional

	PresentationDate Date
	EndDate          Date

	// Follow-up procedure figures, present for self-contained types only.
	FollowUpCustomsValue decimal.Decimal
	FollowUpDutyAmount   decimal.Decimal
}

// consolidated reports whether the record was folded into another procedure
// and must be skipped (counted separately, never matched).
func (m MasterRecord) consolidated() bool {
	return len(m.SecondaryKey) >= len(consolidatedPrefix) &&
		m.SecondaryKey[:len(consolidatedPrefix)] == consolidatedPrefix
}

// AllocationTag is one (secondaryMatch, position) pair expanded from a
// partial-allocation annotation. Untagged rows carry the zero value.
type AllocationTag struct {
	SecondaryMatch string
	PositionTag    string
}

// IsZero reports whether the row carries no allocation tag.
func (t AllocationTag) IsZero() bool { return t.SecondaryMatch == "" && t.PositionTag == "" }

// ImportRecord is one row of a procedure-type-specific import file, possibly
// a synthetic copy produced by the partial-allocation expander.
type ImportRecord struct {
	MatchKey       string
	PositionNumber string
	TariffCode     string

	// Import-duty fields (Type I files).
	CustomsValue decimal.Decimal
	DutyRate     decimal.Decimal
	Quantity     decimal.NullDecimal

	// Warehouse projection fields (Type II files).
	ProjectedDutyAmount    decimal.Decimal
	ProjectedDutyRate      decimal.Decimal
	ConvertedInvoiceAmount decimal.Decimal

	// Security blob (Type IV files), structured or free text.
	SecurityBlob string

	Tag AllocationTag
}

// positionOrd returns the numeric position for deterministic selection.
// Non-numeric positions sort after every numeric one.
func (r ImportRecord) positionOrd() float64 { return labelOrd(r.PositionNumber) }

// =============================================================================
// POSITION LABEL - tagged variant instead of a stringly-typed field
// =============================================================================

type LabelKind int

const (
	LabelNone LabelKind = iota
	LabelNumeric
	LabelNoMatch
	LabelFlatRate
	LabelFirstOf   // "<pos> (1 of N)"
	LabelMaxOf     // "<pos> (max of N)"
	LabelSum       // "SUM (N positions)"
)

// PositionLabel is the position field of a computed result line. It is either
// the matched import position, a sentinel, or an aggregation annotation.
// Keeping the cases explicit makes sentinel handling in sorting and export
// exhaustive.
type PositionLabel struct {
	Kind  LabelKind
	Value string // underlying position for Numeric/FirstOf/MaxOf
	Count int    // candidate count for aggregated kinds
}

func NumericLabel(pos string) PositionLabel { return PositionLabel{Kind: LabelNumeric, Value: pos} }

func (l PositionLabel) String() string {
	switch l.Kind {
	case LabelNumeric:
		return l.Value
	case LabelNoMatch:
		return "NO MATCH"
	case LabelFlatRate:
		return "FLAT RATE"
	case LabelFirstOf:
		return fmt.Sprintf("%s (1 of %d)", l.Value, l.Count)
	case LabelMaxOf:
		return fmt.Sprintf("%s (max of %d)", l.Value, l.Count)
	case LabelSum:
		return fmt.Sprintf("SUM (%d positions)", l.Count)
	}
	return ""
}

// Ord is the label's place in position-number ordering. Every non-numeric
// label sorts after all numeric ones.
func (l PositionLabel) Ord() float64 {
	if l.Kind == LabelNumeric {
		return labelOrd(l.Value)
	}
	return nonNumericOrd
}

// nonNumericOrd is the sort sentinel for labels that are not plain numbers.
const nonNumericOrd = 999999

func labelOrd(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nonNumericOrd
	}
	return v
}

// SumaOrd orders raw master position references numerically, with anything
// non-numeric after all numbers. Shared with the ledger sort.
func SumaOrd(s string) float64 { return labelOrd(s) }

// =============================================================================
// COMPUTED POSITION - one result line per master record
// =============================================================================

// ComputedPosition is the derived result line for one master record. All
// monetary fields are in the bond currency; TotalCharge is what debits the
// bond at presentation and credits it again at procedure end.
//
// INVARIANT (after Normalize): DutyAmount == TotalCharge, and TotalCharge is
// never strictly inside (0, 1).
type ComputedPosition struct {
	ReferenceNumber string
	EntryMRN        string // may be overridden by transport enhancement
	ATBNumber       string // presentation entry registration, never overridden
	SumaPosition    string // master position reference, display only
	ResolvedWith    string // identifier that resolved the match, empty if none

	PresentationDate    Date
	EndDate             Date
	StorageDeadline     Date
	StorageDurationDays int

	Label      PositionLabel
	TariffCode string
	Quantity   decimal.NullDecimal

	CustomsValue decimal.Decimal
	DutyRate     decimal.Decimal // percent
	DutyAmount   decimal.Decimal
	SecondaryTax decimal.Decimal // import VAT, reported separately
	TotalCharge  decimal.Decimal

	DeclarationType DeclarationType

	// Order is the position's index after the standard result sort. Movement
	// ordering ties back to it.
	Order int
}

// =============================================================================
// CONFIGURATION - explicit and immutable, no ambient reads
// =============================================================================

// AggregationPolicy selects how multiple warehouse candidate rows collapse
// into a single computed position.
type AggregationPolicy string

const (
	AggregateFirst    AggregationPolicy = "first"
	AggregateMaxValue AggregationPolicy = "max_value"
	AggregateSum      AggregationPolicy = "sum"
)

// ScheduledIncrease is a one-time bond increase credited on a fixed date.
type ScheduledIncrease struct {
	Enabled bool
	Date    Date
	Amount  decimal.Decimal
}

// Config carries every tunable the engine reads. It is passed explicitly
// into each component; nothing reads ambient state.
type Config struct {
	VATRate                     decimal.Decimal // e.g. 0.19
	FlatDefault                 decimal.Decimal // fallback charge, e.g. 10000
	ZeroRateSubstitutionEnabled bool
	ZeroRateSubstitutionRate    decimal.Decimal // percent, e.g. 12
	StoragePeriodDays           int
	BondStartAmount             decimal.Decimal
	ScheduledIncrease           ScheduledIncrease
	AggregationPolicy           AggregationPolicy

	// Master records outside [PeriodFrom, PeriodTo] are excluded before the
	// run. Zero dates disable the filter.
	PeriodFrom Date
	PeriodTo   Date
}

// DefaultConfig returns the engine defaults used when a settings document
// does not override them.
func DefaultConfig() Config {
	return Config{
		VATRate:                     decimal.NewFromFloat(0.19),
		FlatDefault:                 decimal.NewFromInt(10000),
		ZeroRateSubstitutionEnabled: true,
		ZeroRateSubstitutionRate:    decimal.NewFromInt(12),
		StoragePeriodDays:           90,
		BondStartAmount:             decimal.Zero,
		AggregationPolicy:           AggregateMaxValue,
	}
}
