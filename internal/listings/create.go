package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/market-ar/market/internal/models"
)

// ErrMissingAssetURL is returned when an upload succeeds without a URL
var ErrMissingAssetURL = errors.New("upload returned no asset url")

// AssetUploader sends listing assets to the backend and returns their URLs
type AssetUploader interface {
	UploadImage(ctx context.Context, listingID int64, path string) (string, error)
	UploadModel(ctx context.Context, listingID int64, path string) (string, error)
}

// CreateRequest carries the fields of the create-listing form
type CreateRequest struct {
	ProductName string
	Category    models.Category
	Price       float64
	Condition   models.Condition
	ImagePath   string
	ModelPath   string
}

// Validate mirrors the form checks: every field is required and the price
// must be positive.
func (r CreateRequest) Validate() error {
	var errs []error
	if strings.TrimSpace(r.ProductName) == "" {
		errs = append(errs, errors.New("product name is required"))
	}
	if r.Price <= 0 {
		errs = append(errs, errors.New("price must be greater than zero"))
	}
	if !r.Category.Valid() {
		errs = append(errs, fmt.Errorf("invalid category %q", string(r.Category)))
	}
	if !r.Condition.Valid() {
		errs = append(errs, fmt.Errorf("invalid condition %q", string(r.Condition)))
	}
	if r.ImagePath == "" {
		errs = append(errs, errors.New("image file is required"))
	}
	if r.ModelPath == "" {
		errs = append(errs, errors.New("model file is required"))
	}
	return errors.Join(errs...)
}

// Creator runs the create-listing flow: insert the row, upload both assets,
// then attach their URLs. A failure after the insert deletes the row again so
// no listing is left without assets.
type Creator struct {
	store    Store
	uploader AssetUploader
}

// NewCreator wires the create flow to a store and an uploader
func NewCreator(store Store, uploader AssetUploader) *Creator {
	return &Creator{store: store, uploader: uploader}
}

type compensation struct {
	name string
	undo func(context.Context) error
}

// Create executes the flow and returns the stored listing with both URLs set
func (c *Creator) Create(ctx context.Context, req CreateRequest) (*models.Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid listing: %w", err)
	}

	listing := models.Listing{
		ProductName: strings.TrimSpace(req.ProductName),
		Category:    req.Category,
		Price:       req.Price,
		Condition:   req.Condition,
	}

	id, err := c.store.Insert(ctx, &listing)
	if err != nil {
		return nil, fmt.Errorf("failed to insert listing: %w", err)
	}
	slog.Info("Inserted listing", "id", id, "product", listing.ProductName)

	var undo []compensation
	undo = append(undo, compensation{
		name: "delete listing",
		undo: func(ctx context.Context) error { return c.store.Delete(ctx, listing) },
	})

	imageURL, err := c.uploader.UploadImage(ctx, id, req.ImagePath)
	if err == nil && imageURL == "" {
		err = ErrMissingAssetURL
	}
	if err != nil {
		return nil, c.rollback(ctx, undo, fmt.Errorf("image upload failed: %w", err))
	}

	modelURL, err := c.uploader.UploadModel(ctx, id, req.ModelPath)
	if err == nil && modelURL == "" {
		err = ErrMissingAssetURL
	}
	if err != nil {
		return nil, c.rollback(ctx, undo, fmt.Errorf("model upload failed: %w", err))
	}

	listing.ImageURL = models.StringPtr(imageURL)
	listing.ModelURL = models.StringPtr(modelURL)
	if err := c.store.Update(ctx, listing); err != nil {
		return nil, c.rollback(ctx, undo, fmt.Errorf("failed to attach asset urls: %w", err))
	}

	return &listing, nil
}

// rollback runs compensations newest first. It uses a fresh context so a
// cancelled request still cleans up after itself.
func (c *Creator) rollback(ctx context.Context, undo []compensation, cause error) error {
	cleanupCtx := context.WithoutCancel(ctx)
	errs := []error{cause}
	for i := len(undo) - 1; i >= 0; i-- {
		step := undo[i]
		if err := step.undo(cleanupCtx); err != nil {
			slog.Error("Compensation failed", "step", step.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			continue
		}
		slog.Warn("Rolled back create step", "step", step.name, "cause", cause)
	}
	return errors.Join(errs...)
}
