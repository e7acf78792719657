package model

// DefaultCategories seeds the user-extensible category set on first run.
func DefaultCategories() []string {
	return []string{
		"Electrical",
		"Plumbing",
		"Structural",
		"Fire Safety",
		"Security",
		"General",
	}
}

// ContainsCategory reports whether the set already holds the given label.
// Matching is exact; the set is dedup-on-value, not case-folded.
func ContainsCategory(set []string, category string) bool {
	for _, c := range set {
		if c == category {
			return true
		}
	}
	return false
}

// AppendCategory returns the set with category appended, unless it is empty
// or already present. The operation is append-only.
func AppendCategory(set []string, category string) []string {
	if category == "" || ContainsCategory(set, category) {
		return set
	}
	return append(set, category)
}
