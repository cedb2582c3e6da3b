package listings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/market-ar/market/internal/backend"
	"github.com/market-ar/market/internal/listings/mocks"
	"github.com/market-ar/market/internal/models"
	"github.com/market-ar/market/internal/upload"
)

func validRequest() CreateRequest {
	return CreateRequest{
		ProductName: "Oak table",
		Category:    models.CategoryTables,
		Price:       150,
		Condition:   models.ConditionUsed,
		ImagePath:   "/tmp/table.jpg",
		ModelPath:   "/tmp/table.glb",
	}
}

func TestCreateSuccess(t *testing.T) {
	store := mocks.NewMockStore()
	uploader := &mocks.MockUploader{}
	creator := NewCreator(store, uploader)

	listing, err := creator.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stored, err := store.GetByID(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !stored.HasAssets() {
		t.Errorf("Expected stored listing to carry both urls, got %+v", stored)
	}
	if !strings.HasSuffix(models.Deref(stored.ModelURL), "model.glb") {
		t.Errorf("Unexpected model url %q", models.Deref(stored.ModelURL))
	}
	if len(uploader.Images) != 1 || uploader.Images[0] != "/tmp/table.jpg" {
		t.Errorf("Unexpected image uploads: %v", uploader.Images)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateRequest)
		expect string
	}{
		{name: "empty name", mutate: func(r *CreateRequest) { r.ProductName = "" }, expect: "product name"},
		{name: "zero price", mutate: func(r *CreateRequest) { r.Price = 0 }, expect: "price"},
		{name: "missing image", mutate: func(r *CreateRequest) { r.ImagePath = "" }, expect: "image file"},
		{name: "missing model", mutate: func(r *CreateRequest) { r.ModelPath = "" }, expect: "model file"},
		{name: "bad category", mutate: func(r *CreateRequest) { r.Category = "LAMPS" }, expect: "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockStore()
			creator := NewCreator(store, &mocks.MockUploader{})

			req := validRequest()
			tt.mutate(&req)

			_, err := creator.Create(context.Background(), req)
			if err == nil || !strings.Contains(err.Error(), tt.expect) {
				t.Errorf("Expected error containing %q, got %v", tt.expect, err)
			}
			if store.Len() != 0 {
				t.Errorf("Expected nothing stored, got %d listings", store.Len())
			}
		})
	}
}

func TestCreateRollsBackOnUploadFailure(t *testing.T) {
	tests := []struct {
		name     string
		uploader *mocks.MockUploader
		expect   string
	}{
		{
			name:     "image upload fails",
			uploader: &mocks.MockUploader{ImageErr: errors.New("status 500: boom")},
			expect:   "image upload failed",
		},
		{
			name:     "model upload fails",
			uploader: &mocks.MockUploader{ModelErr: errors.New("status 413: too large")},
			expect:   "model upload failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockStore()
			creator := NewCreator(store, tt.uploader)

			_, err := creator.Create(context.Background(), validRequest())
			if err == nil || !strings.Contains(err.Error(), tt.expect) {
				t.Fatalf("Expected error containing %q, got %v", tt.expect, err)
			}
			if store.Len() != 0 {
				t.Errorf("Expected row to be compensated, store has %d listings", store.Len())
			}
			if len(store.Deleted) != 1 {
				t.Errorf("Expected one delete, got %v", store.Deleted)
			}
		})
	}
}

func TestCreateRollsBackOnMissingAssetURL(t *testing.T) {
	store := mocks.NewMockStore()
	creator := NewCreator(store, &mocks.MockUploader{EmptyModelURL: true})

	_, err := creator.Create(context.Background(), validRequest())
	if !errors.Is(err, ErrMissingAssetURL) {
		t.Fatalf("Expected ErrMissingAssetURL, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected row to be compensated, store has %d listings", store.Len())
	}
}

func TestCreateWithBackendMissingImageURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/image") {
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"modelUrl":"https://cdn/m.glb"}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	req := validRequest()
	req.ImagePath = filepath.Join(dir, "table.jpg")
	req.ModelPath = filepath.Join(dir, "table.glb")
	for _, p := range []string{req.ImagePath, req.ModelPath} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	store := mocks.NewMockStore()
	creator := NewCreator(store, upload.NewClient(backend.NewClient(server.URL, 5*time.Second)))

	if _, err := creator.Create(context.Background(), req); !errors.Is(err, backend.ErrEmptyBody) {
		t.Fatalf("Expected ErrEmptyBody, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected no listing left behind, store has %d", store.Len())
	}
}

func TestCreateRollsBackOnUpdateFailure(t *testing.T) {
	store := mocks.NewMockStore()
	store.UpdateErr = errors.New("database is locked")
	creator := NewCreator(store, &mocks.MockUploader{})

	_, err := creator.Create(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "attach asset urls") {
		t.Fatalf("Expected attach error, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected row to be compensated, store has %d listings", store.Len())
	}
}

func TestCreateReportsFailedCompensation(t *testing.T) {
	store := mocks.NewMockStore()
	store.DeleteErr = errors.New("read-only database")
	cause := errors.New("connection reset")
	creator := NewCreator(store, &mocks.MockUploader{ImageErr: cause})

	_, err := creator.Create(context.Background(), validRequest())
	if !errors.Is(err, cause) {
		t.Errorf("Expected cause to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "delete listing") {
		t.Errorf("Expected compensation failure in error, got %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Expected orphaned row to remain when delete fails, got %d", store.Len())
	}
}

func TestCreateInsertFailure(t *testing.T) {
	store := mocks.NewMockStore()
	store.InsertErr = errors.New("constraint failed")
	uploader := &mocks.MockUploader{}
	creator := NewCreator(store, uploader)

	if _, err := creator.Create(context.Background(), validRequest()); err == nil {
		t.Fatal("Expected insert failure")
	}
	if len(uploader.Images) != 0 {
		t.Error("Expected no uploads after failed insert")
	}
}

func TestSeedCatalog(t *testing.T) {
	store := mocks.NewMockStore()
	seeded, err := SeedCatalog(context.Background(), store)
	if err != nil {
		t.Fatalf("SeedCatalog failed: %v", err)
	}
	if len(seeded) != 5 || store.Len() != 5 {
		t.Fatalf("Expected 5 seeded listings, got %d/%d", len(seeded), store.Len())
	}
	for _, l := range seeded {
		if l.ID == 0 {
			t.Errorf("Expected id to be assigned for %s", l.ProductName)
		}
		if err := l.Validate(); err != nil {
			t.Errorf("Seed listing %s invalid: %v", l.ProductName, err)
		}
	}
}
