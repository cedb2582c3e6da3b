package models

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    Category
		expectError bool
	}{
		{name: "exact name", input: "CHAIRS", expected: CategoryChairs},
		{name: "lower case", input: "bookcases", expected: CategoryBookcases},
		{name: "surrounding space", input: "  Desks ", expected: CategoryDesks},
		{name: "unknown", input: "lamps", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error for %q, got %s", tt.input, got)
				}
				if !strings.Contains(err.Error(), "CHAIRS") {
					t.Errorf("Expected error to list valid names, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseCondition(t *testing.T) {
	if got, err := ParseCondition("used"); err != nil || got != ConditionUsed {
		t.Errorf("Expected USED, got %s (err %v)", got, err)
	}
	if _, err := ParseCondition("broken"); err == nil {
		t.Error("Expected error for unknown condition")
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := CategoryBookcases.Label(); got != "Bookcases" {
		t.Errorf("Expected Bookcases, got %s", got)
	}
}

func TestListingJSONUsesSymbolicNames(t *testing.T) {
	listing := Listing{
		ID:          7,
		ProductName: "Wood chair",
		Category:    CategoryChairs,
		Price:       99.99,
		Condition:   ConditionUsed,
	}

	data, err := json.Marshal(listing)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"category":"CHAIRS"`) || !strings.Contains(s, `"condition":"USED"`) {
		t.Errorf("Expected enum names in JSON, got %s", s)
	}
	if strings.Contains(s, "imageUrl") {
		t.Errorf("Expected nil imageUrl to be omitted, got %s", s)
	}

	var decoded Listing
	if err := json.Unmarshal([]byte(`{"productName":"Bed","category":"beds","price":10,"condition":"new"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Category != CategoryBeds || decoded.Condition != ConditionNew {
		t.Errorf("Expected BEDS/NEW, got %s/%s", decoded.Category, decoded.Condition)
	}

	if err := json.Unmarshal([]byte(`{"category":"LAMPS"}`), &decoded); err == nil {
		t.Error("Expected unknown category to fail decoding")
	}
}

func TestListingYAML(t *testing.T) {
	var decoded Listing
	input := "product_name: Old couch\ncategory: couches\nprice: 199.99\ncondition: FAIR\nmodel_url: models/couch.glb\n"
	if err := yaml.Unmarshal([]byte(input), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Category != CategoryCouches {
		t.Errorf("Expected COUCHES, got %s", decoded.Category)
	}
	if Deref(decoded.ModelURL) != "models/couch.glb" {
		t.Errorf("Expected model url, got %q", Deref(decoded.ModelURL))
	}
}

func TestListingValidate(t *testing.T) {
	tests := []struct {
		name        string
		listing     Listing
		expectError string
	}{
		{
			name:    "valid listing",
			listing: Listing{ProductName: "Desk", Category: CategoryDesks, Price: 0, Condition: ConditionNew},
		},
		{
			name:        "missing name",
			listing:     Listing{ProductName: "  ", Category: CategoryDesks, Price: 10, Condition: ConditionNew},
			expectError: "product name",
		},
		{
			name:        "negative price",
			listing:     Listing{ProductName: "Desk", Category: CategoryDesks, Price: -1, Condition: ConditionNew},
			expectError: "price",
		},
		{
			name:        "unknown enums",
			listing:     Listing{ProductName: "Desk", Category: "LAMPS", Price: 1, Condition: "MINT"},
			expectError: "invalid condition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.listing.Validate()
			if tt.expectError == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.expectError) {
				t.Errorf("Expected error containing %q, got %v", tt.expectError, err)
			}
		})
	}
}

func TestCategoryScan(t *testing.T) {
	var c Category
	if err := c.Scan([]byte("TABLES")); err != nil || c != CategoryTables {
		t.Errorf("Expected TABLES, got %s (err %v)", c, err)
	}
	if err := c.Scan(nil); err == nil {
		t.Error("Expected NULL to fail")
	}
	if err := c.Scan(int64(3)); err == nil {
		t.Error("Expected ordinal to fail")
	}
}

func TestHasAssets(t *testing.T) {
	l := Listing{ImageURL: StringPtr("https://host/i.jpg")}
	if l.HasAssets() {
		t.Error("Expected partial assets to report false")
	}
	l.ModelURL = StringPtr("https://host/m.glb")
	if !l.HasAssets() {
		t.Error("Expected both assets to report true")
	}
	if StringPtr("") != nil {
		t.Error("Expected empty string to map to nil")
	}
}
