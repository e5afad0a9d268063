package customs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearport/surety-engine/customs"
)

// =============================================================================
// IDENTIFIER NORMALIZATION
// =============================================================================

func TestCleanIdentifier_StripsNumericArtifacts(t *testing.T) {
	assert.Equal(t, "24DE123456789", customs.CleanIdentifier("24DE123456789.0"))
	assert.Equal(t, "24DE123456789", customs.CleanIdentifier("  24DE123456789  "))
	assert.Equal(t, "24DE123456789", customs.CleanIdentifier(`"24DE123456789"`))
	assert.Equal(t, "171", customs.CleanIdentifier("171.0"))
}

func TestCleanIdentifier_EmptyInput(t *testing.T) {
	assert.Equal(t, "", customs.CleanIdentifier(""))
	assert.Equal(t, "", customs.CleanIdentifier("   "))
}

func TestCleanIdentifier_Idempotent(t *testing.T) {
	// Cleaning an already-clean value must not change it again.
	for _, raw := range []string{"24DE123456789.0", "ATB123", "171.25", ""} {
		once := customs.CleanIdentifier(raw)
		assert.Equal(t, once, customs.CleanIdentifier(once), "input %q", raw)
	}
}

// =============================================================================
// PARTIAL-ALLOCATION EXPANSION
// =============================================================================

func TestExpandAllocations_EmptyAnnotation(t *testing.T) {
	// GIVEN: An import row without an allocation annotation
	// WHEN: Expanding
	// THEN: Exactly one untagged row comes back

	rec := customs.ImportRecord{MatchKey: "24DE1", PositionNumber: "1"}
	out := customs.ExpandAllocations(rec, "", nil)

	require.Len(t, out, 1)
	assert.True(t, out[0].Tag.IsZero())
	assert.Equal(t, "24DE1", out[0].MatchKey)
}

func TestExpandAllocations_MultipleEntries(t *testing.T) {
	// GIVEN: An annotation allocating one import row to two entries
	// WHEN: Expanding
	// THEN: One tagged row per entry, all carrying the source row's values

	rec := customs.ImportRecord{MatchKey: "24DE1", PositionNumber: "3"}
	out := customs.ExpandAllocations(rec, "ATB100 - POS 1, ATB200 - POS 2", nil)

	require.Len(t, out, 2)
	assert.Equal(t, "ATB100", out[0].Tag.SecondaryMatch)
	assert.Equal(t, "1", out[0].Tag.PositionTag)
	assert.Equal(t, "ATB200", out[1].Tag.SecondaryMatch)
	assert.Equal(t, "2", out[1].Tag.PositionTag)
	assert.Equal(t, "3", out[0].PositionNumber)
	assert.Equal(t, "3", out[1].PositionNumber)
}

func TestExpandAllocations_MalformedEntry(t *testing.T) {
	// GIVEN: An annotation whose second entry misses the separator
	// WHEN: Expanding
	// THEN: The bad entry emits an untagged row plus a warning; the run goes on

	var warnings []customs.Warning
	rec := customs.ImportRecord{MatchKey: "24DE1"}
	out := customs.ExpandAllocations(rec, "ATB100 - POS 1, garbage", func(w customs.Warning) {
		warnings = append(warnings, w)
	})

	require.Len(t, out, 2)
	assert.False(t, out[0].Tag.IsZero())
	assert.True(t, out[1].Tag.IsZero())
	require.Len(t, warnings, 1)
	assert.Equal(t, "allocation annotation", warnings[0].Context)
	assert.Equal(t, "garbage", warnings[0].Value)
}
