/*
errors.go - Error taxonomy for the matching and ledger core

PURPOSE:
  Splits the two failure classes the run distinguishes:

  1. Schema errors   - a required column/field is absent. FATAL: the run
                       aborts before producing partial output.
  2. Data warnings   - an individual value is malformed (bad date, bad
                       security amount, malformed allocation annotation).
                       RECOVERABLE: the value is treated as absent/zero,
                       a warning is recorded, processing continues.

  Matching misses are neither: they produce a well-formed placeholder
  position and are only counted in the run statistics.

USAGE:
  if errors.Is(err, customs.ErrSchema) { ... abort ... }
*/
package customs

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSchema is the fatal class: a required column or field is missing
	// from an input file. Wrapped by SchemaError.
	ErrSchema = errors.New("input schema error")

	// ErrEmptyRun is returned when the master file contains no processable
	// records inside the configured period.
	ErrEmptyRun = errors.New("no master records in period")

	// ErrMissingImportFile is returned when the master batch contains a
	// declaration type whose import file was not supplied.
	ErrMissingImportFile = errors.New("required import file not supplied")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// SchemaError reports a required logical field with no matching column.
type SchemaError struct {
	File       string   // which input file
	Field      string   // logical field name
	Candidates []string // column names that were tried, in order
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: none of the columns %s found for required field %q",
		e.File, strings.Join(e.Candidates, ", "), e.Field)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// =============================================================================
// DATA WARNINGS - recoverable, collected per run
// =============================================================================

// Warning records a recovered data-quality problem. The engine collects
// warnings instead of logging so the core stays side-effect free; callers
// surface them through their own logger.
type Warning struct {
	Context string // where it happened, e.g. "allocation annotation"
	Value   string // the offending raw value
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (value %q)", w.Context, w.Message, w.Value)
}
