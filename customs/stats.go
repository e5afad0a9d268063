package customs

// MatchStats counts match outcomes for one declaration type within a run.
type MatchStats struct {
	Processed       int `json:"processed"`
	Matched         int `json:"matched"`
	NoMatch         int `json:"noMatch"`
	ExactMatches    int `json:"exactMatches"`
	FallbackMatches int `json:"fallbackMatches"`
	TaggedRows      int `json:"taggedRows"`
}

// Stats summarizes one run for reporting. Counters only; nothing in the
// engine branches on these.
type Stats struct {
	TotalMaster int `json:"totalMaster"`

	// TypeCounts is the raw per-type row count of the filtered master set,
	// internal types and the empty marker included.
	TypeCounts map[DeclarationType]int `json:"typeCounts"`

	Match         map[DeclarationType]*MatchStats `json:"match"`
	FlatProcessed map[DeclarationType]int         `json:"flatProcessed"`

	SkippedConsolidated int `json:"skippedConsolidated"`
	SkippedInternal     int `json:"skippedInternal"`

	FollowUpWithValue    int `json:"followUpWithValue"`
	FollowUpWithoutValue int `json:"followUpWithoutValue"`
}

func NewStats() *Stats {
	return &Stats{
		TypeCounts:    make(map[DeclarationType]int),
		Match:         make(map[DeclarationType]*MatchStats),
		FlatProcessed: make(map[DeclarationType]int),
	}
}

func (s *Stats) matchStats(t DeclarationType) *MatchStats {
	ms, ok := s.Match[t]
	if !ok {
		ms = &MatchStats{}
		s.Match[t] = ms
	}
	return ms
}
