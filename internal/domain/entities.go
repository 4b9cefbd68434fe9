package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Category classifies a venue.
type Category string

const (
	CategoryCafe       Category = "cafe"
	CategoryRestaurant Category = "restaurant"
	CategoryBar        Category = "bar"
	CategoryBakery     Category = "bakery"
	CategoryFoodTruck  Category = "food_truck"
	CategoryOther      Category = "other"
)

// ValidCategory reports whether c is one of the known venue categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryCafe, CategoryRestaurant, CategoryBar, CategoryBakery, CategoryFoodTruck, CategoryOther:
		return true
	}
	return false
}

// VenueEntities is the structured entity record produced by the
// entity-extraction collaborator. Absent fields are empty strings.
type VenueEntities struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Specialties []string `json:"specialties"`
	Category    Category `json:"category"`
}

// Value implements the driver.Valuer interface for database serialization.
func (e *VenueEntities) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

// Scan implements the sql.Scanner interface for database deserialization.
func (e *VenueEntities) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan VenueEntities")
		}
		bytes = []byte(str)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, e)
}
