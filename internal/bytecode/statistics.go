package bytecode

// Statistics holds the hit/miss counters of the cache.
type Statistics struct {
	hits   int64
	misses int64
}

func NewStatistics(hits, misses int64) Statistics {
	return Statistics{hits: hits, misses: misses}
}

func (s Statistics) Hits() int64 {
	return s.hits
}

func (s Statistics) Misses() int64 {
	return s.misses
}

// Lookups returns the total number of cache lookups.
func (s Statistics) Lookups() int64 {
	return s.hits + s.misses
}

// HitRateInPercent returns 0 when no lookups have been recorded yet.
func (s Statistics) HitRateInPercent() float64 {
	lookups := s.Lookups()
	if lookups == 0 {
		return 0
	}
	return float64(s.hits) / float64(lookups) * 100
}
