package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// Category is the furniture category of a listing. Values are persisted by
// their symbolic name, so renaming a constant breaks stored rows.
type Category string

const (
	CategoryChairs    Category = "CHAIRS"
	CategoryTables    Category = "TABLES"
	CategoryBeds      Category = "BEDS"
	CategoryDesks     Category = "DESKS"
	CategoryDressers  Category = "DRESSERS"
	CategoryCouches   Category = "COUCHES"
	CategoryBookcases Category = "BOOKCASES"
)

// Categories lists every known category in display order
var Categories = []Category{
	CategoryChairs,
	CategoryTables,
	CategoryBeds,
	CategoryDesks,
	CategoryDressers,
	CategoryCouches,
	CategoryBookcases,
}

// Condition is the wear state of a listed item
type Condition string

const (
	ConditionNew  Condition = "NEW"
	ConditionUsed Condition = "USED"
	ConditionFair Condition = "FAIR"
)

// Conditions lists every known condition
var Conditions = []Condition{ConditionNew, ConditionUsed, ConditionFair}

// ParseCategory resolves a category name, ignoring case and surrounding space
func ParseCategory(s string) (Category, error) {
	name := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !name.Valid() {
		return "", fmt.Errorf("unknown category %q (valid: %s)", s, JoinNames(Categories))
	}
	return name, nil
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// Label returns the human form used in menus, e.g. "Bookcases"
func (c Category) Label() string {
	s := strings.ToLower(string(c))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the category by name
func (c Category) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %q", string(c))
	}
	return string(c), nil
}

// Scan reads a category name back from the database
func (c *Category) Scan(src any) error {
	s, err := scanName(src)
	if err != nil {
		return fmt.Errorf("scan category: %w", err)
	}
	return c.UnmarshalText([]byte(s))
}

// ParseCondition resolves a condition name, ignoring case and surrounding space
func ParseCondition(s string) (Condition, error) {
	name := Condition(strings.ToUpper(strings.TrimSpace(s)))
	if !name.Valid() {
		return "", fmt.Errorf("unknown condition %q (valid: %s)", s, JoinNames(Conditions))
	}
	return name, nil
}

// Valid reports whether c is one of the known conditions
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

func (c Condition) String() string { return string(c) }

func (c Condition) MarshalText() ([]byte, error) {
	return []byte(c), nil
}

func (c *Condition) UnmarshalText(text []byte) error {
	parsed, err := ParseCondition(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the condition by name
func (c Condition) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid condition %q", string(c))
	}
	return string(c), nil
}

// Scan reads a condition name back from the database
func (c *Condition) Scan(src any) error {
	s, err := scanName(src)
	if err != nil {
		return fmt.Errorf("scan condition: %w", err)
	}
	return c.UnmarshalText([]byte(s))
}

// Listing is a furniture item offered on the marketplace.
// ImageURL and ModelURL stay nil until the asset uploads complete.
type Listing struct {
	ID          int64     `db:"id" json:"id" yaml:"id"`
	ProductName string    `db:"product_name" json:"productName" yaml:"product_name"`
	Category    Category  `db:"category" json:"category" yaml:"category"`
	Price       float64   `db:"price" json:"price" yaml:"price"`
	Condition   Condition `db:"condition" json:"condition" yaml:"condition"`
	ImageURL    *string   `db:"image_url" json:"imageUrl,omitempty" yaml:"image_url,omitempty"`
	ModelURL    *string   `db:"model_url" json:"modelUrl,omitempty" yaml:"model_url,omitempty"`
}

// Validate checks the fields a listing must carry before it is stored
func (l Listing) Validate() error {
	var errs []error
	if strings.TrimSpace(l.ProductName) == "" {
		errs = append(errs, errors.New("product name is required"))
	}
	if l.Price < 0 {
		errs = append(errs, fmt.Errorf("price must not be negative, got %.2f", l.Price))
	}
	if !l.Category.Valid() {
		errs = append(errs, fmt.Errorf("invalid category %q", string(l.Category)))
	}
	if !l.Condition.Valid() {
		errs = append(errs, fmt.Errorf("invalid condition %q", string(l.Condition)))
	}
	return errors.Join(errs...)
}

// HasAssets reports whether both the image and the model have been attached
func (l Listing) HasAssets() bool {
	return l.ImageURL != nil && l.ModelURL != nil
}

// StringPtr returns a pointer to s, or nil for the empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "" for nil
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func scanName(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", errors.New("unexpected NULL")
	default:
		return "", fmt.Errorf("unsupported type %T", src)
	}
}

// JoinNames renders enum values as a comma separated list
func JoinNames[T ~string](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
