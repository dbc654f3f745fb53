package storage

// Priorities maps a source name to its precedence. When the same VIN is
// seen from two sources, the stored row is kept only if its source ranks
// strictly higher than the incoming one.
type Priorities map[string]int

// DefaultPriorities ranks the search API above the listings API.
func DefaultPriorities() Priorities {
	return Priorities{
		"marketcheck": 10,
		"autodev":     5,
	}
}

// Rank returns the precedence of source; unknown sources rank 0.
func (p Priorities) Rank(source string) int {
	return p[source]
}

// Allows reports whether an incoming record from incoming may replace a
// row currently stored from stored.
func (p Priorities) Allows(stored, incoming string) bool {
	return p.Rank(stored) <= p.Rank(incoming)
}
