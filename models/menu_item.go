package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultStockQuantity     = 100
	DefaultLowStockThreshold = 10
	DefaultPreparationTime   = 15
)

// MenuItem represents a dish or drink offered on the menu
type MenuItem struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Name              string          `gorm:"size:200;not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"price"`
	CategoryID        uint            `gorm:"not null;index" json:"category_id"` // required, many-to-one
	Category          *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	ImageKey          *string         `json:"image_key"`
	ImageURL          *string         `gorm:"-" json:"image_url,omitempty"`
	IsAvailable       bool            `gorm:"not null" json:"is_available"`
	IsFeatured        bool            `gorm:"not null" json:"is_featured"`
	Ingredients       string          `gorm:"type:text" json:"ingredients"`
	PreparationTime   int             `gorm:"not null" json:"preparation_time"`    // minutes
	StockQuantity     int             `gorm:"not null" json:"stock_quantity"`      // not constrained at the data layer
	LowStockThreshold int             `gorm:"not null" json:"low_stock_threshold"`
	Calories          *int            `json:"calories"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}

// IsOutOfStock reports whether no units are left
func (m MenuItem) IsOutOfStock() bool {
	return m.StockQuantity <= 0
}

// IsLowStock reports whether stock is at or below the alert threshold.
// Out-of-stock items are always low-stock as well.
func (m MenuItem) IsLowStock() bool {
	return m.StockQuantity <= m.LowStockThreshold
}

// MarshalJSON adds the derived stock flags to the serialized item
func (m MenuItem) MarshalJSON() ([]byte, error) {
	type plain MenuItem
	return json.Marshal(struct {
		plain
		IsLowStock   bool `json:"is_low_stock"`
		IsOutOfStock bool `json:"is_out_of_stock"`
	}{
		plain:        plain(m),
		IsLowStock:   m.IsLowStock(),
		IsOutOfStock: m.IsOutOfStock(),
	})
}
