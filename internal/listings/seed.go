package listings

import (
	"context"
	"fmt"

	"github.com/market-ar/market/internal/models"
)

// DemoCatalog is the sample furniture shipped with the app. Model paths point
// at bundled assets rather than uploaded URLs.
func DemoCatalog() []models.Listing {
	return []models.Listing{
		{ProductName: "Old couch", Category: models.CategoryCouches, Price: 199.99, Condition: models.ConditionFair, ModelURL: models.StringPtr("models/couch.glb")},
		{ProductName: "Viking bed", Category: models.CategoryBeds, Price: 399.99, Condition: models.ConditionNew, ModelURL: models.StringPtr("models/bed.glb")},
		{ProductName: "Elegant bookcase", Category: models.CategoryBookcases, Price: 499.99, Condition: models.ConditionNew, ModelURL: models.StringPtr("models/bookcase.glb")},
		{ProductName: "Simple desk", Category: models.CategoryDesks, Price: 299.99, Condition: models.ConditionUsed, ModelURL: models.StringPtr("models/computer_desk.glb")},
		{ProductName: "Wood chair", Category: models.CategoryChairs, Price: 99.99, Condition: models.ConditionUsed, ModelURL: models.StringPtr("models/chair.glb")},
	}
}

// SeedCatalog inserts the demo catalog and returns the stored rows
func SeedCatalog(ctx context.Context, store Store) ([]models.Listing, error) {
	seeded := DemoCatalog()
	for i := range seeded {
		if _, err := store.Insert(ctx, &seeded[i]); err != nil {
			return nil, fmt.Errorf("failed to seed %q: %w", seeded[i].ProductName, err)
		}
	}
	return seeded, nil
}
