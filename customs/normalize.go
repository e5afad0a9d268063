/*
normalize.go - Identifier normalization and partial-allocation expansion

PURPOSE:
  Two pure preprocessing steps that make join keys comparable by equality:

  1. CleanIdentifier strips formatting artifacts from registration numbers.
     Spreadsheet round-trips turn text keys into floats ("24DE1234.0");
     everything from the first dot is dropped.

  2. ExpandAllocations parses the delimited allocation annotation of an
     import row and expands it into N synthetic rows, one per
     (secondaryMatch, position) pair. The expansion is what later allows
     the matcher to perform exact 3-criteria matches.

GRAMMAR:
  annotation := entry ("," entry)*
  entry      := <secondaryMatch> " - POS " <position>

  Entries that do not match the grammar emit the row untagged and record a
  warning; the run continues.
*/
package customs

import (
	"strings"
)

// trimCell normalizes raw cell text: surrounding whitespace and quote
// artifacts are removed.
func trimCell(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// CleanIdentifier canonicalizes a join key. Trailing ".0"-style numeric
// artifacts are removed by cutting at the first dot. Idempotent; empty
// input yields the empty string.
func CleanIdentifier(raw string) string {
	cleaned := trimCell(raw)
	if i := strings.IndexByte(cleaned, '.'); i >= 0 {
		cleaned = cleaned[:i]
	}
	return cleaned
}

// allocationSeparator splits the secondary match key from the position tag
// inside one annotation entry.
const allocationSeparator = " - POS "

// ExpandAllocations expands one import record by its allocation annotation.
// An empty annotation emits the record unchanged with empty tags. Malformed
// entries emit an untagged copy and a warning. One input record becomes
// 1..N output records.
func ExpandAllocations(rec ImportRecord, annotation string, warn func(Warning)) []ImportRecord {
	annotation = trimCell(annotation)
	if annotation == "" {
		rec.Tag = AllocationTag{}
		return []ImportRecord{rec}
	}

	var out []ImportRecord
	for _, entry := range strings.Split(annotation, ",") {
		entry = strings.TrimSpace(entry)
		row := rec

		left, right, ok := strings.Cut(entry, allocationSeparator)
		if ok {
			row.Tag = AllocationTag{
				SecondaryMatch: strings.TrimSpace(left),
				PositionTag:    strings.TrimSpace(right),
			}
		} else {
			row.Tag = AllocationTag{}
			if warn != nil {
				warn(Warning{
					Context: "allocation annotation",
					Value:   entry,
					Message: "entry does not match '<key> - POS <position>'",
				})
			}
		}
		out = append(out, row)
	}
	return out
}

// hasAllocationTags reports whether any record in the import set carries an
// allocation tag. Tier-A matching is only attempted against tagged sets.
func hasAllocationTags(imports []ImportRecord) bool {
	for _, r := range imports {
		if !r.Tag.IsZero() {
			return true
		}
	}
	return false
}
