package selection

import (
	"sync"
	"testing"

	"github.com/market-ar/market/internal/models"
)

func listing(id int64, name string) models.Listing {
	return models.Listing{ID: id, ProductName: name, Category: models.CategoryChairs, Price: 10, Condition: models.ConditionNew}
}

func ids(list []models.Listing) []int64 {
	out := make([]int64, len(list))
	for i, l := range list {
		out[i] = l.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecentlySeen(t *testing.T) {
	tests := []struct {
		name     string
		views    []int64
		remove   []int64
		expected []int64
	}{
		{name: "most recent first", views: []int64{1, 2, 3}, expected: []int64{3, 2, 1}},
		{name: "re-view moves to front", views: []int64{1, 2, 1}, expected: []int64{1, 2}},
		{name: "re-view of front is a no-op", views: []int64{1, 2, 2}, expected: []int64{2, 1}},
		{name: "remove middle", views: []int64{1, 2, 3}, remove: []int64{2}, expected: []int64{3, 1}},
		{name: "remove unknown", views: []int64{1}, remove: []int64{9}, expected: []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			for _, id := range tt.views {
				s.AddRecentlySeen(listing(id, "x"))
			}
			for _, id := range tt.remove {
				s.RemoveRecentlySeen(id)
			}
			if got := ids(s.RecentlySeen()); !equalIDs(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRecentlySeenKeepsLatestValue(t *testing.T) {
	s := New()
	s.AddRecentlySeen(listing(1, "old name"))
	s.AddRecentlySeen(listing(1, "new name"))

	got := s.RecentlySeen()
	if len(got) != 1 || got[0].ProductName != "new name" {
		t.Errorf("Expected single refreshed entry, got %+v", got)
	}
}

func TestClearRecentlySeen(t *testing.T) {
	s := New()
	s.AddRecentlySeen(listing(1, "a"))
	s.AddRecentlySeen(listing(2, "b"))
	s.ClearRecentlySeen()
	if len(s.RecentlySeen()) != 0 {
		t.Error("Expected empty list after clear")
	}
}

func TestRecentlySeenReturnsCopy(t *testing.T) {
	s := New()
	s.AddRecentlySeen(listing(1, "a"))
	got := s.RecentlySeen()
	got[0].ProductName = "mutated"
	if s.RecentlySeen()[0].ProductName != "a" {
		t.Error("Expected internal list to be unaffected by caller mutation")
	}
}

func TestSelection(t *testing.T) {
	s := New()
	if _, ok := s.Selected(); ok {
		t.Error("Expected nothing selected initially")
	}
	s.SelectListing(listing(4, "desk"))
	if l, ok := s.Selected(); !ok || l.ID != 4 {
		t.Errorf("Unexpected selection %+v", l)
	}

	c := models.CategoryBeds
	s.SelectCategory(&c)
	c = models.CategoryDesks
	f := s.Filters()
	if f.Category == nil || *f.Category != models.CategoryBeds || f.Condition != nil {
		t.Errorf("Unexpected filters %+v", f)
	}

	s.SelectCategory(nil)
	if s.Filters().Category != nil {
		t.Error("Expected category filter cleared")
	}
}

func TestClearSelected(t *testing.T) {
	s := New()
	if s.ClearSelected(1) {
		t.Error("Expected nothing cleared without a selection")
	}
	s.SelectListing(listing(2, "bed"))
	if s.ClearSelected(3) {
		t.Error("Expected a different id to leave the selection alone")
	}
	if !s.ClearSelected(2) {
		t.Error("Expected matching id to clear the selection")
	}
	if _, ok := s.Selected(); ok {
		t.Error("Expected nothing selected after clearing")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.AddRecentlySeen(listing(id%10, "x"))
			s.RecentlySeen()
		}(int64(i))
	}
	wg.Wait()

	if n := len(s.RecentlySeen()); n != 10 {
		t.Errorf("Expected 10 distinct entries, got %d", n)
	}
}
