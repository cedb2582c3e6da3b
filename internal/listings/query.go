package listings

import (
	"context"
	"fmt"
	"sort"

	"github.com/market-ar/market/internal/models"
)

// Reader is the read side of the listing store
type Reader interface {
	GetAll(ctx context.Context) ([]models.Listing, error)
}

// Store is the full listing persistence contract
type Store interface {
	Reader
	GetByID(ctx context.Context, id int64) (*models.Listing, error)
	Insert(ctx context.Context, l *models.Listing) (int64, error)
	Update(ctx context.Context, l models.Listing) error
	Delete(ctx context.Context, l models.Listing) error
}

// SortOrder selects price ordering for Browse
type SortOrder string

const (
	SortNone       SortOrder = ""
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// ParseSortOrder accepts "", "asc" or "desc"
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortNone, SortAscending, SortDescending:
		return SortOrder(s), nil
	default:
		return SortNone, fmt.Errorf("invalid sort order %q (use asc or desc)", s)
	}
}

// Query combines the catalog filters with an optional price ordering
type Query struct {
	Category  *models.Category
	Condition *models.Condition
	Sort      SortOrder
}

// QueryService filters and sorts the catalog. Every call re-reads the whole
// table so results always reflect the latest store state.
type QueryService struct {
	store Reader
}

// NewQueryService creates a query service over the given store
func NewQueryService(store Reader) *QueryService {
	return &QueryService{store: store}
}

// Filter keeps listings matching every non-nil criterion. Nil criteria match
// anything, so Filter(ctx, nil, nil) returns the full catalog.
func (s *QueryService) Filter(ctx context.Context, category *models.Category, condition *models.Condition) ([]models.Listing, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return filterListings(all, category, condition), nil
}

// Sort returns the full catalog ordered by price. Equal prices keep their
// stored order.
func (s *QueryService) Sort(ctx context.Context, ascending bool) ([]models.Listing, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return sortByPrice(all, ascending), nil
}

// Browse applies q's filters and then its sort order
func (s *QueryService) Browse(ctx context.Context, q Query) ([]models.Listing, error) {
	list, err := s.Filter(ctx, q.Category, q.Condition)
	if err != nil {
		return nil, err
	}
	switch q.Sort {
	case SortAscending:
		list = sortByPrice(list, true)
	case SortDescending:
		list = sortByPrice(list, false)
	}
	return list, nil
}

func filterListings(all []models.Listing, category *models.Category, condition *models.Condition) []models.Listing {
	if category == nil && condition == nil {
		return all
	}

	filtered := make([]models.Listing, 0, len(all))
	for _, l := range all {
		if category != nil && l.Category != *category {
			continue
		}
		if condition != nil && l.Condition != *condition {
			continue
		}
		filtered = append(filtered, l)
	}
	return filtered
}

func sortByPrice(list []models.Listing, ascending bool) []models.Listing {
	sorted := make([]models.Listing, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return sorted[i].Price < sorted[j].Price
		}
		return sorted[i].Price > sorted[j].Price
	})
	return sorted
}
