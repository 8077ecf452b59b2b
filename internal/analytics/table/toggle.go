package table

// SortState is the active sort column and its direction.
type SortState struct {
	Key       SortKey   `json:"sort,omitempty"`
	Direction Direction `json:"dir"`
}

// Active reports whether a column has been selected.
func (s SortState) Active() bool {
	return s.Key != SortNone
}

// Toggle returns the state after the user clicks the header of key. A new
// column starts ascending; clicking the active column flips the direction.
// Once a column is active the table never returns to unsorted.
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key != key {
		return SortState{Key: key, Direction: Ascending}
	}
	if s.Direction == Ascending {
		return SortState{Key: key, Direction: Descending}
	}
	return SortState{Key: key, Direction: Ascending}
}
