/*
match.go - Tiered candidate search for one master record

PURPOSE:
  Finds the import record(s) that close a master procedure. Three tiers,
  strongest first:

  Tier A (exact, 3 criteria): only when the master carries both an entry
    registration and a position reference, and the import set carries
    allocation tags. Matches key + secondaryMatch + positionTag.

  Tier B (fallback, key only): always attempted when Tier A missed.
    Multiple hits select the lowest position number; the warehouse type
    instead hands all hits to the aggregation policy.

  Tier C (none): the caller produces a placeholder position.

  Both tiers try the secondary key first and retry with the primary key
  when it differs. Whichever key resolved the match is recorded on the
  computed position as ResolvedWith.
*/
package customs

import (
	"sort"
)

// MatchTier identifies which tier resolved a master record.
type MatchTier int

const (
	TierNone MatchTier = iota
	TierExact
	TierFallback
)

// matchOutcome is the result of the tiered search for one master record.
type matchOutcome struct {
	rows         []ImportRecord
	resolvedWith string
	tier         MatchTier
}

func (o matchOutcome) matched() bool { return len(o.rows) > 0 }

// findMatches runs the tiered search for m over the (expanded) import set.
func findMatches(m MasterRecord, imports []ImportRecord) matchOutcome {
	// Tier A: exact 3-criteria match, only meaningful when the import set
	// was expanded with allocation tags.
	if m.EntryMRN != "" && m.PositionRef != "" && hasAllocationTags(imports) {
		for _, key := range candidateKeys(m) {
			rows := filterImports(imports, func(r ImportRecord) bool {
				return r.MatchKey == key &&
					r.Tag.SecondaryMatch == m.EntryMRN &&
					r.Tag.PositionTag == m.PositionRef
			})
			if len(rows) > 0 {
				return matchOutcome{rows: rows, resolvedWith: key, tier: TierExact}
			}
		}
	}

	// Tier B: key-only fallback.
	for _, key := range candidateKeys(m) {
		rows := filterImports(imports, func(r ImportRecord) bool {
			return r.MatchKey == key
		})
		if len(rows) > 0 {
			return matchOutcome{rows: rows, resolvedWith: key, tier: TierFallback}
		}
	}

	return matchOutcome{tier: TierNone}
}

// candidateKeys returns the join keys to try, secondary first. The primary
// key is only retried when it differs; empty keys are never tried.
func candidateKeys(m MasterRecord) []string {
	var keys []string
	if m.SecondaryKey != "" {
		keys = append(keys, m.SecondaryKey)
	}
	if m.PrimaryKey != "" && m.PrimaryKey != m.SecondaryKey {
		keys = append(keys, m.PrimaryKey)
	}
	return keys
}

func filterImports(imports []ImportRecord, keep func(ImportRecord) bool) []ImportRecord {
	var out []ImportRecord
	for _, r := range imports {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// selectLowestPosition picks the deterministic single candidate out of a
// multi-hit fallback match: the row with the lowest numeric position.
// Stable for equal positions, so input order breaks ties.
func selectLowestPosition(rows []ImportRecord) ImportRecord {
	sorted := make([]ImportRecord, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].positionOrd() < sorted[j].positionOrd()
	})
	return sorted[0]
}
