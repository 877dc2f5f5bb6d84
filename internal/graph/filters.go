package graph

// DefaultMinFollowers hides accounts with too few followers to matter.
const DefaultMinFollowers = 10

type Filters struct {
	// MinFollowers is exclusive: an account needs more followers than this.
	MinFollowers int
	MaxNodes     int
}

func DefaultFilters() Filters {
	return Filters{MinFollowers: DefaultMinFollowers}
}

func (f Filters) Passes(followers int) bool {
	return followers > f.MinFollowers
}

func (f Filters) OverLimit(count int) bool {
	return f.MaxNodes > 0 && count > f.MaxNodes
}
