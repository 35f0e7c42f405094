package testutil

import (
	"context"
	"testing"

	"github.com/kendall-kelly/chillas-api/config"
	"github.com/kendall-kelly/chillas-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SetupTestDB opens a private in-memory sqlite database, migrates every model
// and installs it as config.DB. The connection is closed when the test ends.
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	RequireTestEnvironment(t)

	db, err := config.OpenDatabase("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateCategory inserts an active category
func CreateCategory(t testing.TB, db *gorm.DB, name string, sortOrder int) models.Category {
	t.Helper()

	category := models.Category{Name: name, IsActive: true, SortOrder: sortOrder}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("Failed to create category %q: %v", name, err)
	}
	return category
}

// CreateMenuItem inserts an available item with default stock levels
func CreateMenuItem(t testing.TB, db *gorm.DB, categoryID uint, name, price string) models.MenuItem {
	t.Helper()

	item := models.MenuItem{
		Name:              name,
		Price:             decimal.RequireFromString(price),
		CategoryID:        categoryID,
		IsAvailable:       true,
		PreparationTime:   models.DefaultPreparationTime,
		StockQuantity:     models.DefaultStockQuantity,
		LowStockThreshold: models.DefaultLowStockThreshold,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("Failed to create menu item %q: %v", name, err)
	}
	return item
}

// CreateSettings inserts the settings row with the given delivery fee and
// free delivery minimum
func CreateSettings(t testing.TB, db *gorm.DB, fee, freeMinimum string) models.SiteSettings {
	t.Helper()

	settings := models.DefaultSiteSettings()
	settings.DeliveryFee = decimal.RequireFromString(fee)
	settings.FreeDeliveryMinimum = decimal.RequireFromString(freeMinimum)
	if err := db.WithContext(context.Background()).Create(&settings).Error; err != nil {
		t.Fatalf("Failed to create site settings: %v", err)
	}
	return settings
}
