package store

// Suggest is the narrow interface to the fuzzy-match layer spec §1
// names out of scope ("the spatial-text search (spellfix + FTS)").
// A real deployment backs this with a spellfix1-style virtual table;
// this pass-through degrades to echoing the input token, per spec §7's
// search-failure degradation policy.
func Suggest(term string) []string {
	return []string{term}
}
