package dashboard

import "github.com/psilva/leadboard/internal/models"

// Selection tracks a set of selected email ids across filter and page
// changes. Ids, not positions: the set survives re-sorting and re-filtering
// as long as the rows themselves still exist.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Add selects id unconditionally. Unlike Toggle, repeated ids stay
// selected, so it is safe for seeding from request payloads.
func (s *Selection) Add(id string) {
	s.ids[id] = struct{}{}
}

// Toggle flips membership of id.
func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
}

// ToggleAllVisible selects every visible row, or deselects them all if every
// one is already selected. Scoped to the visible page, not the full list.
func (s *Selection) ToggleAllVisible(visible []models.Email) {
	if s.IsAllSelected(visible) {
		for _, e := range visible {
			delete(s.ids, e.ID)
		}
		return
	}
	for _, e := range visible {
		s.ids[e.ID] = struct{}{}
	}
}

// IsAllSelected reports whether visible is non-empty and every visible row is
// selected.
func (s *Selection) IsAllSelected(visible []models.Email) bool {
	if len(visible) == 0 {
		return false
	}
	for _, e := range visible {
		if _, ok := s.ids[e.ID]; !ok {
			return false
		}
	}
	return true
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Count returns the number of selected ids.
func (s *Selection) Count() int {
	return len(s.ids)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// Reconcile intersects the selection with the ids present in full. Ids for
// rows that no longer exist are dropped silently.
func (s *Selection) Reconcile(full []models.Email) {
	valid := make(map[string]struct{}, len(full))
	for _, e := range full {
		valid[e.ID] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := valid[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// Selected returns the selected rows in full-list order.
func (s *Selection) Selected(full []models.Email) []models.Email {
	out := make([]models.Email, 0, len(s.ids))
	for _, e := range full {
		if _, ok := s.ids[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}
