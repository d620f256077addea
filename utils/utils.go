package utils

// Truncate cuts s to max bytes and appends an ellipsis marker when it cut.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// StripQuotes removes at most one matching quote pair from the ends of s.
// Asymmetric or internal quotes are left untouched.
func StripQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
