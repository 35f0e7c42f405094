package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/kendall-kelly/chillas-api/metrics"
	"github.com/kendall-kelly/chillas-api/models"
	"github.com/kendall-kelly/chillas-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuPageSize is the admin menu item list page size
const MenuPageSize = 10

// CatalogService manages categories and menu items
type CatalogService struct {
	db    *gorm.DB
	cache MenuCache
}

// NewCatalogService creates a catalog service backed by db and the global menu cache
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db, cache: GetMenuCache()}
}

// CategoryInput holds category fields. Nil fields are left unchanged on update.
type CategoryInput struct {
	Name        *string
	Description *string
	IsActive    *bool
	SortOrder   *int
}

func (in CategoryInput) updates() (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name", "must not be blank")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.SortOrder != nil {
		updates["sort_order"] = *in.SortOrder
	}
	return updates, nil
}

// CreateCategory adds a category. New categories are active unless stated otherwise.
func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "is required")
	}

	category := models.Category{
		Name:     strings.TrimSpace(*in.Name),
		IsActive: true,
	}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		category.SortOrder = *in.SortOrder
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	s.invalidate(ctx)
	return &category, nil
}

// UpdateCategory applies the non-nil fields of in
func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	updates, err := in.updates()
	if err != nil {
		return nil, err
	}

	var category models.Category
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&category).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateName
			}
			return err
		}
		return tx.First(&category, id).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &category, nil
}

// SetCategoryImage stores a new image key and returns the one it replaced
func (s *CatalogService) SetCategoryImage(ctx context.Context, id uint, key string) (previous *string, err error) {
	var category models.Category
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		previous = cloneKey(category.ImageKey)
		return tx.Model(&category).Update("image_key", key).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return previous, nil
}

// GetCategory loads one category
func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}
	return &category, nil
}

// ListCategories returns categories in display order
func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := s.db.WithContext(ctx).Order(models.CategoryDisplayOrder)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var categories []models.Category
	err := query.Find(&categories).Error
	return categories, err
}

// ListCategoriesWithItemCounts returns every category with the number of
// available menu items in each
func (s *CatalogService) ListCategoriesWithItemCounts(ctx context.Context) ([]models.Category, error) {
	categories, err := s.ListCategories(ctx, false)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		CategoryID uint
		Total      int64
	}
	err = s.db.WithContext(ctx).Model(&models.MenuItem{}).
		Select("category_id, COUNT(*) AS total").
		Where("is_available = ?", true).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Total
	}
	for i := range categories {
		count := counts[categories[i].ID]
		categories[i].ItemCount = &count
	}
	return categories, nil
}

// DeleteCategory removes a category that no menu item references and returns it
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return notFound(err, ErrCategoryNotFound)
		}

		var items int64
		if err := tx.Model(&models.MenuItem{}).Where("category_id = ?", id).Count(&items).Error; err != nil {
			return err
		}
		if items > 0 {
			return ErrCategoryInUse
		}

		return tx.Delete(&models.Category{}, id).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &category, nil
}

// MenuItemInput holds menu item fields. Nil fields are left unchanged on update.
type MenuItemInput struct {
	Name              *string
	Description       *string
	Price             *decimal.Decimal
	CategoryID        *uint
	IsAvailable       *bool
	IsFeatured        *bool
	Ingredients       *string
	PreparationTime   *int
	StockQuantity     *int
	LowStockThreshold *int
	Calories          *int
}

func (in MenuItemInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return invalid("name", "must not be blank")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if in.PreparationTime != nil && *in.PreparationTime < 0 {
		return invalid("preparation_time", "must not be negative")
	}
	if in.StockQuantity != nil && *in.StockQuantity < 0 {
		return invalid("stock_quantity", "must not be negative")
	}
	if in.LowStockThreshold != nil && *in.LowStockThreshold < 0 {
		return invalid("low_stock_threshold", "must not be negative")
	}
	if in.Calories != nil && *in.Calories < 0 {
		return invalid("calories", "must not be negative")
	}
	return nil
}

func (in MenuItemInput) updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		updates["price"] = *in.Price
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.Ingredients != nil {
		updates["ingredients"] = *in.Ingredients
	}
	if in.PreparationTime != nil {
		updates["preparation_time"] = *in.PreparationTime
	}
	if in.StockQuantity != nil {
		updates["stock_quantity"] = *in.StockQuantity
	}
	if in.LowStockThreshold != nil {
		updates["low_stock_threshold"] = *in.LowStockThreshold
	}
	if in.Calories != nil {
		updates["calories"] = *in.Calories
	}
	return updates
}

func requireCategory(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return invalid("category_id", "category does not exist")
	}
	return nil
}

// CreateMenuItem adds a menu item. Unset fields take the catalog defaults:
// available, not featured, 15 minutes preparation, 100 in stock, alert at 10.
func (s *CatalogService) CreateMenuItem(ctx context.Context, in MenuItemInput) (*models.MenuItem, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if in.Price == nil {
		return nil, invalid("price", "is required")
	}
	if in.CategoryID == nil {
		return nil, invalid("category_id", "is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	item := models.MenuItem{
		Name:              strings.TrimSpace(*in.Name),
		Price:             *in.Price,
		CategoryID:        *in.CategoryID,
		IsAvailable:       true,
		PreparationTime:   models.DefaultPreparationTime,
		StockQuantity:     models.DefaultStockQuantity,
		LowStockThreshold: models.DefaultLowStockThreshold,
		Calories:          in.Calories,
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}
	if in.IsFeatured != nil {
		item.IsFeatured = *in.IsFeatured
	}
	if in.Ingredients != nil {
		item.Ingredients = *in.Ingredients
	}
	if in.PreparationTime != nil {
		item.PreparationTime = *in.PreparationTime
	}
	if in.StockQuantity != nil {
		item.StockQuantity = *in.StockQuantity
	}
	if in.LowStockThreshold != nil {
		item.LowStockThreshold = *in.LowStockThreshold
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireCategory(tx, item.CategoryID); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return tx.Preload("Category").First(&item, item.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &item, nil
}

// UpdateMenuItem applies the non-nil fields of in
func (s *CatalogService) UpdateMenuItem(ctx context.Context, id uint, in MenuItemInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	updates := in.updates()

	var item models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return notFound(err, ErrMenuItemNotFound)
		}
		if in.CategoryID != nil {
			if err := requireCategory(tx, *in.CategoryID); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&item).Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Category").First(&item, id).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &item, nil
}

// SetMenuItemImage stores a new image key and returns the one it replaced
func (s *CatalogService) SetMenuItemImage(ctx context.Context, id uint, key string) (previous *string, err error) {
	var item models.MenuItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return notFound(err, ErrMenuItemNotFound)
		}
		previous = cloneKey(item.ImageKey)
		return tx.Model(&item).Update("image_key", key).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return previous, nil
}

// GetMenuItem loads a menu item with its category
func (s *CatalogService) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).Preload("Category").First(&item, id).Error; err != nil {
		return nil, notFound(err, ErrMenuItemNotFound)
	}
	return &item, nil
}

// MenuSearch filters the admin menu item list
type MenuSearch struct {
	Query      string
	CategoryID uint // zero means all categories
	Page       int
	PageSize   int
}

// SearchMenuItems matches name or description, optionally within one category
func (s *CatalogService) SearchMenuItems(ctx context.Context, in MenuSearch) ([]models.MenuItem, utils.Page, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.PageSize <= 0 {
		in.PageSize = MenuPageSize
	}

	query := s.db.WithContext(ctx).Model(&models.MenuItem{})
	if q := strings.ToLower(strings.TrimSpace(in.Query)); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if in.CategoryID != 0 {
		query = query.Where("category_id = ?", in.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.Page{}, err
	}

	var items []models.MenuItem
	if err := query.Preload("Category").
		Order("name ASC, id ASC").
		Offset(utils.Offset(in.Page, in.PageSize)).
		Limit(in.PageSize).
		Find(&items).Error; err != nil {
		return nil, utils.Page{}, err
	}

	return items, utils.NewPage(in.Page, in.PageSize, total), nil
}

// ListPublicMenu returns active categories in display order, each with its
// available items. Categories without available items are left out. The
// result is served from the menu cache until the next catalog write.
func (s *CatalogService) ListPublicMenu(ctx context.Context) ([]models.Category, error) {
	var menu []models.Category
	if s.cache.Get(ctx, publicMenuCacheKey, &menu) {
		return menu, nil
	}

	generation := s.cache.Generation(ctx)

	var categories []models.Category
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order(models.CategoryDisplayOrder).
		Preload("MenuItems", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_available = ?", true).Order("name ASC")
		}).
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	menu = make([]models.Category, 0, len(categories))
	for _, category := range categories {
		if len(category.MenuItems) > 0 {
			menu = append(menu, category)
		}
	}

	if err := s.cache.Set(ctx, publicMenuCacheKey, menu, generation); err != nil {
		log.Printf("warning: failed to cache public menu: %v", err)
	}
	return menu, nil
}

// FeaturedItems returns up to n featured, available items. When nothing is
// featured it falls back to any available items so the home page is never empty.
func (s *CatalogService) FeaturedItems(ctx context.Context, n int) ([]models.MenuItem, error) {
	db := s.db.WithContext(ctx)

	var items []models.MenuItem
	if err := db.Preload("Category").
		Where("is_featured = ? AND is_available = ?", true, true).
		Order("name ASC").
		Limit(n).
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}

	err := db.Preload("Category").
		Where("is_available = ?", true).
		Order("name ASC").
		Limit(n).
		Find(&items).Error
	return items, err
}

// LowStockItems returns available items at or below their alert threshold,
// emptiest first
func (s *CatalogService) LowStockItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).Preload("Category").
		Where("is_available = ? AND stock_quantity <= low_stock_threshold", true).
		Order("stock_quantity ASC, name ASC").
		Find(&items).Error
	return items, err
}

// ReduceStock subtracts qty from the item's stock when enough is left and
// reports whether it did. The check and the write are one conditional UPDATE,
// so concurrent callers can never drive stock below zero.
func (s *CatalogService) ReduceStock(ctx context.Context, id uint, qty int) (bool, error) {
	if qty <= 0 {
		return false, invalid("quantity", "must be greater than zero")
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&models.MenuItem{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}

	if res.RowsAffected == 1 {
		metrics.StockDecrements.WithLabelValues("ok").Inc()
		s.invalidate(ctx)
		return true, nil
	}

	var count int64
	if err := db.Model(&models.MenuItem{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, ErrMenuItemNotFound
	}

	metrics.StockDecrements.WithLabelValues("insufficient").Inc()
	return false, nil
}

// DeleteMenuItem removes an item that no order references and returns it
func (s *CatalogService) DeleteMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return notFound(err, ErrMenuItemNotFound)
		}

		var lines int64
		if err := tx.Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&lines).Error; err != nil {
			return err
		}
		if lines > 0 {
			return ErrMenuItemInUse
		}

		return tx.Delete(&models.MenuItem{}, id).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &item, nil
}

// DashboardStats summarises the catalog for the admin dashboard
type DashboardStats struct {
	TotalMenuItems   int64 `json:"total_menu_items"`
	ActiveCategories int64 `json:"active_categories"`
	FeaturedItems    int64 `json:"featured_items"`
	LowStockItems    int64 `json:"low_stock_items"`
}

// DashboardStats counts catalog rows for the admin dashboard
func (s *CatalogService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	var stats DashboardStats

	if err := db.Model(&models.MenuItem{}).Count(&stats.TotalMenuItems).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Category{}).Where("is_active = ?", true).Count(&stats.ActiveCategories).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.MenuItem{}).
		Where("is_featured = ? AND is_available = ?", true, true).
		Count(&stats.FeaturedItems).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.MenuItem{}).
		Where("is_available = ? AND stock_quantity <= low_stock_threshold", true).
		Count(&stats.LowStockItems).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("warning: failed to invalidate menu cache: %v", err)
	}
}
