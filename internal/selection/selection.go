package selection

import (
	"sync"

	"github.com/market-ar/market/internal/models"
)

// Filters is the active category/condition pair. Nil means any.
type Filters struct {
	Category  *models.Category  `json:"category"`
	Condition *models.Condition `json:"condition"`
}

// State holds what the user currently has selected and what they viewed
// recently. It lives for the lifetime of the process.
type State struct {
	mu       sync.RWMutex
	selected *models.Listing
	filters  Filters
	recent   []models.Listing
}

func New() *State {
	return &State{}
}

func (s *State) SelectListing(l models.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &l
}

// Selected returns a copy of the selected listing, if any
func (s *State) Selected() (models.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return models.Listing{}, false
	}
	return *s.selected, true
}

// ClearSelected drops the selected listing if it has the given id and
// reports whether it did
func (s *State) ClearSelected(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil || s.selected.ID != id {
		return false
	}
	s.selected = nil
	return true
}

func (s *State) SelectCategory(c *models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Category = copyPtr(c)
}

func (s *State) SelectCondition(c *models.Condition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Condition = copyPtr(c)
}

func (s *State) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filters{
		Category:  copyPtr(s.filters.Category),
		Condition: copyPtr(s.filters.Condition),
	}
}

// AddRecentlySeen puts the listing at the front. A listing already in the
// list is moved rather than duplicated.
func (s *State) AddRecentlySeen(l models.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Listing, 0, len(s.recent)+1)
	next = append(next, l)
	for _, r := range s.recent {
		if r.ID != l.ID {
			next = append(next, r)
		}
	}
	s.recent = next
}

// RemoveRecentlySeen drops the listing with the given id. It reports
// whether anything was removed.
func (s *State) RemoveRecentlySeen(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.recent {
		if r.ID == id {
			s.recent = append(s.recent[:i:i], s.recent[i+1:]...)
			return true
		}
	}
	return false
}

func (s *State) ClearRecentlySeen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = nil
}

// RecentlySeen returns the recently viewed listings, most recent first
func (s *State) RecentlySeen() []models.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Listing, len(s.recent))
	copy(result, s.recent)
	return result
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
