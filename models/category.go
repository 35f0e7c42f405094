package models

import (
	"time"
)

// Category groups menu items on the public menu
type Category struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	ImageKey    *string    `json:"image_key"`                     // nullable, storage key for the category image
	ImageURL    *string    `gorm:"-" json:"image_url,omitempty"`  // computed field, resolved from ImageKey
	IsActive    bool       `gorm:"not null" json:"is_active"`     // inactive categories are hidden, never deleted implicitly
	SortOrder   int        `gorm:"not null" json:"sort_order"`    // lower numbers appear first
	ItemCount   *int64     `gorm:"-" json:"item_count,omitempty"` // available items, filled on the admin listing only
	MenuItems   []MenuItem `gorm:"foreignKey:CategoryID" json:"menu_items,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// CategoryDisplayOrder is the ORDER BY clause for menu display sequence
const CategoryDisplayOrder = "sort_order ASC, name ASC"
