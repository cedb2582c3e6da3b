package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/market-ar/market/internal/models"
	"github.com/market-ar/market/internal/storage"
)

// MockStore is an in-memory listing store for tests
type MockStore struct {
	mu      sync.RWMutex
	nextID  int64
	order   []int64
	records map[int64]models.Listing

	// Hooks let tests fail specific operations
	InsertErr error
	UpdateErr error
	DeleteErr error
	GetAllErr error

	Deleted []int64
}

// NewMockStore creates an empty store
func NewMockStore() *MockStore {
	return &MockStore{records: make(map[int64]models.Listing)}
}

func (m *MockStore) GetAll(ctx context.Context) ([]models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetAllErr != nil {
		return nil, m.GetAllErr
	}
	list := make([]models.Listing, 0, len(m.order))
	for _, id := range m.order {
		list = append(list, m.records[id])
	}
	return list, nil
}

func (m *MockStore) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", storage.ErrNotFound, id)
	}
	return &l, nil
}

func (m *MockStore) Insert(ctx context.Context, l *models.Listing) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertErr != nil {
		return 0, m.InsertErr
	}
	m.nextID++
	l.ID = m.nextID
	m.records[l.ID] = *l
	m.order = append(m.order, l.ID)
	return l.ID, nil
}

func (m *MockStore) Update(ctx context.Context, l models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if _, ok := m.records[l.ID]; ok {
		m.records[l.ID] = l
	}
	return nil
}

func (m *MockStore) Delete(ctx context.Context, l models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.records[l.ID]; !ok {
		return nil
	}
	delete(m.records, l.ID)
	for i, id := range m.order {
		if id == l.ID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.Deleted = append(m.Deleted, l.ID)
	return nil
}

// Len returns the number of stored listings
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// MockUploader records asset uploads and returns canned URLs
type MockUploader struct {
	mu sync.Mutex

	ImageErr error
	ModelErr error
	// EmptyModelURL makes UploadModel succeed without a URL
	EmptyModelURL bool

	Images []string
	Models []string
}

func (u *MockUploader) UploadImage(ctx context.Context, listingID int64, path string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ImageErr != nil {
		return "", u.ImageErr
	}
	u.Images = append(u.Images, path)
	return fmt.Sprintf("https://cdn.example/listings/%d/image.jpg", listingID), nil
}

func (u *MockUploader) UploadModel(ctx context.Context, listingID int64, path string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ModelErr != nil {
		return "", u.ModelErr
	}
	u.Models = append(u.Models, path)
	if u.EmptyModelURL {
		return "", nil
	}
	return fmt.Sprintf("https://cdn.example/listings/%d/model.glb", listingID), nil
}
