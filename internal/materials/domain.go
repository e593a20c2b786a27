// Package materials manages the construction-material catalog: codes,
// categories, thresholds, prices, and the running on-hand quantity.
// Stock quantities are mutated exclusively by the movements package.
package materials

import (
	"errors"
	"time"
)

// Category enumerates material categories.
type Category string

const (
	CategoryCement     Category = "CEMENT"
	CategorySteel      Category = "STEEL"
	CategorySand       Category = "SAND"
	CategoryAggregate  Category = "AGGREGATE"
	CategoryBricks     Category = "BRICKS"
	CategoryElectrical Category = "ELECTRICAL"
	CategoryPlumbing   Category = "PLUMBING"
	CategoryPaint      Category = "PAINT"
	CategoryTiles      Category = "TILES"
	CategoryOther      Category = "OTHER"
)

// Unit enumerates units of measurement.
type Unit string

const (
	UnitBag   Unit = "BAG"
	UnitKg    Unit = "KG"
	UnitTon   Unit = "TON"
	UnitCum   Unit = "CUM"
	UnitSqm   Unit = "SQM"
	UnitSqft  Unit = "SQFT"
	UnitNos   Unit = "NOS"
	UnitLitre Unit = "LTR"
)

// Material is a catalog item with a running on-hand quantity.
type Material struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Category     Category  `json:"category"`
	Unit         Unit      `json:"unit"`
	CurrentStock float64   `json:"current_stock"`
	MinimumStock float64   `json:"minimum_stock"`
	MaximumStock float64   `json:"maximum_stock"`
	UnitPrice    float64   `json:"unit_price"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LowStock reports whether the material is at or below its minimum threshold.
func (m Material) LowStock() bool {
	return m.CurrentStock <= m.MinimumStock
}

// StockValue returns the value of the on-hand quantity at the current unit price.
func (m Material) StockValue() float64 {
	return m.CurrentStock * m.UnitPrice
}

// ListFilters narrows catalog listings.
type ListFilters struct {
	Category *Category
	IsActive *bool
	LowStock bool
	Search   string
	Page     int
	Limit    int
}

// CategoryStat summarises one category.
type CategoryStat struct {
	Category   Category `json:"category"`
	Count      int      `json:"count"`
	StockValue float64  `json:"stock_value"`
}

// Stats aggregates catalog statistics.
type Stats struct {
	TotalMaterials  int            `json:"total_materials"`
	ActiveMaterials int            `json:"active_materials"`
	LowStockCount   int            `json:"low_stock_count"`
	TotalStockValue float64        `json:"total_stock_value"`
	ByCategory      []CategoryStat `json:"by_category"`
}

// ErrNotFound indicates the referenced material does not exist.
var ErrNotFound = errors.New("materials: material not found")

// ErrCodeExists indicates a duplicate material code.
var ErrCodeExists = errors.New("materials: code already exists")

// ErrInvalidCategory indicates an unknown category value.
var ErrInvalidCategory = errors.New("materials: invalid category")

// ErrInvalidUnit indicates an unknown unit value.
var ErrInvalidUnit = errors.New("materials: invalid unit")

var validCategories = map[Category]struct{}{
	CategoryCement: {}, CategorySteel: {}, CategorySand: {}, CategoryAggregate: {},
	CategoryBricks: {}, CategoryElectrical: {}, CategoryPlumbing: {}, CategoryPaint: {},
	CategoryTiles: {}, CategoryOther: {},
}

var validUnits = map[Unit]struct{}{
	UnitBag: {}, UnitKg: {}, UnitTon: {}, UnitCum: {},
	UnitSqm: {}, UnitSqft: {}, UnitNos: {}, UnitLitre: {},
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	_, ok := validCategories[c]
	return ok
}

// ValidUnit reports whether u is a known unit.
func ValidUnit(u Unit) bool {
	_, ok := validUnits[u]
	return ok
}
