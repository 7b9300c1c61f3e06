package collector

// Querier performs best-effort one-property lookups against the host's
// management service. Implementations are stateless and idempotent: the
// same query with no intervening system change returns the same result,
// and any failure is reported as a miss, never an error.
type Querier interface {
	// QueryProperty resolves a single named property of the first instance
	// of the given management class. The second return is false when the
	// class, the property, or the service itself is unavailable.
	QueryProperty(class, property string) (string, bool)
}

// staticQuerier serves queries from a fixed (class, property) -> value map.
// It backs hosts without a management service and tests.
type staticQuerier struct {
	values map[[2]string]string
}

func (s *staticQuerier) QueryProperty(class, property string) (string, bool) {
	v, ok := s.values[[2]string{class, property}]
	return v, ok
}
