package shared

// Filter narrows candidate selection queries
type Filter struct {
	// Limit caps the number of candidates returned; zero means no limit
	Limit int
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{Limit: 500}
}
