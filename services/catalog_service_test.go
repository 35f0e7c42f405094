package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kendall-kelly/chillas-api/models"
	"github.com/kendall-kelly/chillas-api/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// CatalogServiceTestSuite covers categories, menu items and stock
type CatalogServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	cache   *MockMenuCache
	service *CatalogService
}

func (suite *CatalogServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = testutil.SetupTestDB(suite.T())

	suite.cache = NewMockMenuCache()
	suite.cache.SetAsMockForTesting()
	suite.service = NewCatalogService(suite.db)
}

func (suite *CatalogServiceTestSuite) TearDownTest() {
	SetMenuCache(nil)
}

func ptr[T any](v T) *T {
	return &v
}

func (suite *CatalogServiceTestSuite) createCategory(name string, sortOrder int) *models.Category {
	category, err := suite.service.CreateCategory(suite.ctx, CategoryInput{Name: ptr(name), SortOrder: ptr(sortOrder)})
	suite.Require().NoError(err)
	return category
}

func (suite *CatalogServiceTestSuite) createItem(categoryID uint, name, price string) *models.MenuItem {
	item, err := suite.service.CreateMenuItem(suite.ctx, MenuItemInput{
		Name:       ptr(name),
		Price:      ptr(decimal.RequireFromString(price)),
		CategoryID: ptr(categoryID),
	})
	suite.Require().NoError(err)
	return item
}

func (suite *CatalogServiceTestSuite) TestCreateCategory() {
	category := suite.createCategory("  Burgers ", 1)

	suite.Equal("Burgers", category.Name)
	suite.True(category.IsActive, "New categories are active")

	_, err := suite.service.CreateCategory(suite.ctx, CategoryInput{Name: ptr("Burgers")})
	suite.ErrorIs(err, ErrDuplicateName)

	_, err = suite.service.CreateCategory(suite.ctx, CategoryInput{Name: ptr(" ")})
	var validationErr *ValidationError
	suite.True(errors.As(err, &validationErr))
}

func (suite *CatalogServiceTestSuite) TestUpdateCategory() {
	category := suite.createCategory("Burgers", 1)
	suite.createCategory("Pizzas", 2)

	updated, err := suite.service.UpdateCategory(suite.ctx, category.ID, CategoryInput{
		Description: ptr("Stacked high"),
		IsActive:    ptr(false),
	})
	suite.Require().NoError(err)
	suite.Equal("Stacked high", updated.Description)
	suite.False(updated.IsActive)
	suite.Equal("Burgers", updated.Name, "Unset fields are unchanged")

	_, err = suite.service.UpdateCategory(suite.ctx, category.ID, CategoryInput{Name: ptr("Pizzas")})
	suite.ErrorIs(err, ErrDuplicateName)

	_, err = suite.service.UpdateCategory(suite.ctx, 999, CategoryInput{})
	suite.ErrorIs(err, ErrCategoryNotFound)
}

func (suite *CatalogServiceTestSuite) TestListCategories_DisplayOrder() {
	suite.createCategory("Sides", 4)
	suite.createCategory("Drinks", 3)
	hidden := suite.createCategory("Specials", 1)
	suite.createCategory("Burgers", 3)
	_, err := suite.service.UpdateCategory(suite.ctx, hidden.ID, CategoryInput{IsActive: ptr(false)})
	suite.Require().NoError(err)

	all, err := suite.service.ListCategories(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Len(all, 4)

	active, err := suite.service.ListCategories(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Require().Len(active, 3)
	suite.Equal("Burgers", active[0].Name, "Equal sort order falls back to name")
	suite.Equal("Drinks", active[1].Name)
	suite.Equal("Sides", active[2].Name)
}

func (suite *CatalogServiceTestSuite) TestListCategoriesWithItemCounts() {
	burgers := suite.createCategory("Burgers", 1)
	sides := suite.createCategory("Sides", 2)
	suite.createCategory("Specials", 3)
	suite.createItem(burgers.ID, "Chill Burger", "12.99")
	suite.createItem(burgers.ID, "Double Chill", "15.99")
	fries := suite.createItem(sides.ID, "Fries", "3.99")
	_, err := suite.service.UpdateMenuItem(suite.ctx, fries.ID, MenuItemInput{IsAvailable: ptr(false)})
	suite.Require().NoError(err)

	categories, err := suite.service.ListCategoriesWithItemCounts(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(categories, 3)

	counts := map[string]int64{}
	for _, category := range categories {
		suite.Require().NotNil(category.ItemCount, category.Name)
		counts[category.Name] = *category.ItemCount
	}
	suite.Equal(map[string]int64{"Burgers": 2, "Sides": 0, "Specials": 0}, counts, "Only available items are counted")

	plain, err := suite.service.ListCategories(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Nil(plain[0].ItemCount)
}

func (suite *CatalogServiceTestSuite) TestDeleteCategory_RestrictedWhileItemsExist() {
	category := suite.createCategory("Burgers", 1)
	item := suite.createItem(category.ID, "Chill Burger", "12.99")

	_, err := suite.service.DeleteCategory(suite.ctx, category.ID)
	suite.ErrorIs(err, ErrCategoryInUse)

	_, err = suite.service.DeleteMenuItem(suite.ctx, item.ID)
	suite.Require().NoError(err)

	deleted, err := suite.service.DeleteCategory(suite.ctx, category.ID)
	suite.Require().NoError(err)
	suite.Equal("Burgers", deleted.Name)

	_, err = suite.service.GetCategory(suite.ctx, category.ID)
	suite.ErrorIs(err, ErrCategoryNotFound)
}

func (suite *CatalogServiceTestSuite) TestCreateMenuItem_Defaults() {
	category := suite.createCategory("Burgers", 1)
	item := suite.createItem(category.ID, "Chill Burger", "12.99")

	suite.True(item.IsAvailable)
	suite.False(item.IsFeatured)
	suite.Equal(models.DefaultPreparationTime, item.PreparationTime)
	suite.Equal(models.DefaultStockQuantity, item.StockQuantity)
	suite.Equal(models.DefaultLowStockThreshold, item.LowStockThreshold)
	suite.Nil(item.Calories)
	suite.Require().NotNil(item.Category)
	suite.Equal("Burgers", item.Category.Name)
}

func (suite *CatalogServiceTestSuite) TestCreateMenuItem_Validation() {
	category := suite.createCategory("Burgers", 1)

	tests := []struct {
		name  string
		in    MenuItemInput
		field string
	}{
		{"missing name", MenuItemInput{Price: ptr(decimal.NewFromInt(1)), CategoryID: ptr(category.ID)}, "name"},
		{"missing price", MenuItemInput{Name: ptr("X"), CategoryID: ptr(category.ID)}, "price"},
		{"missing category", MenuItemInput{Name: ptr("X"), Price: ptr(decimal.NewFromInt(1))}, "category_id"},
		{"unknown category", MenuItemInput{Name: ptr("X"), Price: ptr(decimal.NewFromInt(1)), CategoryID: ptr(uint(999))}, "category_id"},
		{"negative price", MenuItemInput{Name: ptr("X"), Price: ptr(decimal.NewFromInt(-1)), CategoryID: ptr(category.ID)}, "price"},
		{"negative stock", MenuItemInput{Name: ptr("X"), Price: ptr(decimal.NewFromInt(1)), CategoryID: ptr(category.ID), StockQuantity: ptr(-1)}, "stock_quantity"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.CreateMenuItem(suite.ctx, tt.in)
			var validationErr *ValidationError
			suite.Require().True(errors.As(err, &validationErr), "expected ValidationError, got %v", err)
			suite.Equal(tt.field, validationErr.Field)
		})
	}
}

func (suite *CatalogServiceTestSuite) TestUpdateMenuItem() {
	burgers := suite.createCategory("Burgers", 1)
	sides := suite.createCategory("Sides", 2)
	item := suite.createItem(burgers.ID, "Chill Burger", "12.99")

	updated, err := suite.service.UpdateMenuItem(suite.ctx, item.ID, MenuItemInput{
		Price:       ptr(decimal.RequireFromString("13.49")),
		CategoryID:  ptr(sides.ID),
		IsAvailable: ptr(false),
		Calories:    ptr(650),
	})
	suite.Require().NoError(err)
	suite.Equal("13.49", updated.Price.StringFixed(2))
	suite.Equal("Sides", updated.Category.Name)
	suite.False(updated.IsAvailable)
	suite.Require().NotNil(updated.Calories)
	suite.Equal(650, *updated.Calories)

	_, err = suite.service.UpdateMenuItem(suite.ctx, item.ID, MenuItemInput{CategoryID: ptr(uint(999))})
	var validationErr *ValidationError
	suite.True(errors.As(err, &validationErr))

	_, err = suite.service.UpdateMenuItem(suite.ctx, 999, MenuItemInput{})
	suite.ErrorIs(err, ErrMenuItemNotFound)
}

func (suite *CatalogServiceTestSuite) TestSetMenuItemImage_ReturnsPreviousKey() {
	category := suite.createCategory("Burgers", 1)
	item := suite.createItem(category.ID, "Chill Burger", "12.99")

	previous, err := suite.service.SetMenuItemImage(suite.ctx, item.ID, "menu_items/1_a.png")
	suite.Require().NoError(err)
	suite.Nil(previous)

	previous, err = suite.service.SetMenuItemImage(suite.ctx, item.ID, "menu_items/2_b.png")
	suite.Require().NoError(err)
	suite.Require().NotNil(previous)
	suite.Equal("menu_items/1_a.png", *previous)

	stored, err := suite.service.GetMenuItem(suite.ctx, item.ID)
	suite.Require().NoError(err)
	suite.Equal("menu_items/2_b.png", *stored.ImageKey)

	_, err = suite.service.SetCategoryImage(suite.ctx, 999, "categories/x.png")
	suite.ErrorIs(err, ErrCategoryNotFound)
}

func (suite *CatalogServiceTestSuite) TestSetCategoryImage_ReturnsPreviousKey() {
	category := suite.createCategory("Burgers", 1)

	_, err := suite.service.SetCategoryImage(suite.ctx, category.ID, "categories/old.png")
	suite.Require().NoError(err)

	previous, err := suite.service.SetCategoryImage(suite.ctx, category.ID, "categories/new.png")
	suite.Require().NoError(err)
	suite.Require().NotNil(previous)
	suite.Equal("categories/old.png", *previous)

	stored, err := suite.service.GetCategory(suite.ctx, category.ID)
	suite.Require().NoError(err)
	suite.Equal("categories/new.png", *stored.ImageKey)
}

func (suite *CatalogServiceTestSuite) TestSearchMenuItems() {
	burgers := suite.createCategory("Burgers", 1)
	drinks := suite.createCategory("Drinks", 2)
	suite.createItem(burgers.ID, "Chill Burger", "12.99")
	suite.createItem(burgers.ID, "Ramza Special", "14.99")
	suite.createItem(drinks.ID, "Chill Cola", "2.99")

	items, page, err := suite.service.SearchMenuItems(suite.ctx, MenuSearch{Query: "CHILL"})
	suite.Require().NoError(err)
	suite.Len(items, 2)
	suite.Equal(int64(2), page.Total)
	suite.Equal("Chill Burger", items[0].Name)

	items, _, err = suite.service.SearchMenuItems(suite.ctx, MenuSearch{Query: "chill", CategoryID: drinks.ID})
	suite.Require().NoError(err)
	suite.Require().Len(items, 1)
	suite.Equal("Chill Cola", items[0].Name)

	items, page, err = suite.service.SearchMenuItems(suite.ctx, MenuSearch{PageSize: 2, Page: 2})
	suite.Require().NoError(err)
	suite.Len(items, 1)
	suite.Equal(2, page.NumPages)
}

func (suite *CatalogServiceTestSuite) TestListPublicMenu() {
	burgers := suite.createCategory("Burgers", 2)
	drinks := suite.createCategory("Drinks", 1)
	empty := suite.createCategory("Desserts", 3)
	hidden := suite.createCategory("Secret", 0)
	suite.createItem(burgers.ID, "Chill Burger", "12.99")
	soldOut := suite.createItem(burgers.ID, "Ramza Special", "14.99")
	suite.createItem(drinks.ID, "Chill Cola", "2.99")
	suite.createItem(hidden.ID, "Mystery", "1.00")
	_, err := suite.service.UpdateMenuItem(suite.ctx, soldOut.ID, MenuItemInput{IsAvailable: ptr(false)})
	suite.Require().NoError(err)
	_, err = suite.service.UpdateCategory(suite.ctx, hidden.ID, CategoryInput{IsActive: ptr(false)})
	suite.Require().NoError(err)
	_ = empty

	menu, err := suite.service.ListPublicMenu(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(menu, 2, "Inactive and empty categories are left out")
	suite.Equal("Drinks", menu[0].Name)
	suite.Equal("Burgers", menu[1].Name)
	suite.Require().Len(menu[1].MenuItems, 1, "Unavailable items are left out")
	suite.Equal("Chill Burger", menu[1].MenuItems[0].Name)
}

// writeDuringReadCache invalidates right after the generation is read, as a
// catalog write landing between the database read and the cache write would
type writeDuringReadCache struct {
	*MockMenuCache
}

func (c writeDuringReadCache) Generation(ctx context.Context) int64 {
	gen := c.MockMenuCache.Generation(ctx)
	_ = c.MockMenuCache.Invalidate(ctx)
	return gen
}

func (suite *CatalogServiceTestSuite) TestListPublicMenu_SkipsCacheAfterConcurrentWrite() {
	category := suite.createCategory("Burgers", 1)
	suite.createItem(category.ID, "Chill Burger", "12.99")

	racing := writeDuringReadCache{NewMockMenuCache()}
	service := &CatalogService{db: suite.db, cache: racing}

	menu, err := service.ListPublicMenu(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(menu, 1)
	suite.False(racing.Has(publicMenuCacheKey), "A menu read before an invalidation is not cached")
}

func (suite *CatalogServiceTestSuite) TestListPublicMenu_CachedUntilCatalogWrite() {
	category := suite.createCategory("Burgers", 1)
	item := suite.createItem(category.ID, "Chill Burger", "12.99")

	_, err := suite.service.ListPublicMenu(suite.ctx)
	suite.Require().NoError(err)
	suite.True(suite.cache.Has(publicMenuCacheKey))

	// A write that bypasses the service is not seen while the cache is warm
	suite.db.Model(&models.MenuItem{}).Where("id = ?", item.ID).Update("name", "Renamed")
	menu, err := suite.service.ListPublicMenu(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal("Chill Burger", menu[0].MenuItems[0].Name)

	before := suite.cache.Invalidations()
	_, err = suite.service.UpdateMenuItem(suite.ctx, item.ID, MenuItemInput{Name: ptr("Chill Burger Deluxe")})
	suite.Require().NoError(err)
	suite.Equal(before+1, suite.cache.Invalidations())
	suite.False(suite.cache.Has(publicMenuCacheKey))

	menu, err = suite.service.ListPublicMenu(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal("Chill Burger Deluxe", menu[0].MenuItems[0].Name)
	suite.Equal("12.99", menu[0].MenuItems[0].Price.StringFixed(2))
}

func (suite *CatalogServiceTestSuite) TestFeaturedItems() {
	category := suite.createCategory("Burgers", 1)
	plain := suite.createItem(category.ID, "Plain Burger", "9.99")
	featured := suite.createItem(category.ID, "Chill Burger", "12.99")

	items, err := suite.service.FeaturedItems(suite.ctx, 6)
	suite.Require().NoError(err)
	suite.Len(items, 2, "Falls back to available items when nothing is featured")

	_, err = suite.service.UpdateMenuItem(suite.ctx, featured.ID, MenuItemInput{IsFeatured: ptr(true)})
	suite.Require().NoError(err)

	items, err = suite.service.FeaturedItems(suite.ctx, 6)
	suite.Require().NoError(err)
	suite.Require().Len(items, 1)
	suite.Equal(featured.ID, items[0].ID)
	suite.NotEqual(plain.ID, items[0].ID)
}

func (suite *CatalogServiceTestSuite) TestLowStockItemsAndDashboardStats() {
	category := suite.createCategory("Burgers", 1)
	low := suite.createItem(category.ID, "Chill Burger", "12.99")
	suite.createItem(category.ID, "Ramza Special", "14.99")
	_, err := suite.service.UpdateMenuItem(suite.ctx, low.ID, MenuItemInput{StockQuantity: ptr(3), IsFeatured: ptr(true)})
	suite.Require().NoError(err)

	items, err := suite.service.LowStockItems(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(items, 1)
	suite.Equal(low.ID, items[0].ID)
	suite.True(items[0].IsLowStock())

	stats, err := suite.service.DashboardStats(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(2), stats.TotalMenuItems)
	suite.Equal(int64(1), stats.ActiveCategories)
	suite.Equal(int64(1), stats.FeaturedItems)
	suite.Equal(int64(1), stats.LowStockItems)
}

func (suite *CatalogServiceTestSuite) TestReduceStock() {
	category := suite.createCategory("Burgers", 1)
	item := suite.createItem(category.ID, "Chill Burger", "12.99")
	_, err := suite.service.UpdateMenuItem(suite.ctx, item.ID, MenuItemInput{StockQuantity: ptr(5)})
	suite.Require().NoError(err)

	ok, err := suite.service.ReduceStock(suite.ctx, item.ID, 3)
	suite.Require().NoError(err)
	suite.True(ok)

	ok, err = suite.service.ReduceStock(suite.ctx, item.ID, 3)
	suite.Require().NoError(err)
	suite.False(ok, "Only 2 left")

	ok, err = suite.service.ReduceStock(suite.ctx, item.ID, 2)
	suite.Require().NoError(err)
	suite.True(ok, "Stock may reach exactly zero")

	stored, err := suite.service.GetMenuItem(suite.ctx, item.ID)
	suite.Require().NoError(err)
	suite.Equal(0, stored.StockQuantity)
	suite.True(stored.IsOutOfStock())
}

func (suite *CatalogServiceTestSuite) TestReduceStock_InvalidInput() {
	category := suite.createCategory("Burgers", 1)
	item := suite.createItem(category.ID, "Chill Burger", "12.99")

	_, err := suite.service.ReduceStock(suite.ctx, item.ID, 0)
	var validationErr *ValidationError
	suite.True(errors.As(err, &validationErr))

	_, err = suite.service.ReduceStock(suite.ctx, 999, 1)
	suite.ErrorIs(err, ErrMenuItemNotFound)
}

func (suite *CatalogServiceTestSuite) TestReduceStock_ConcurrentCallersNeverOversell() {
	category := suite.createCategory("Burgers", 1)
	item := suite.createItem(category.ID, "Chill Burger", "12.99")
	_, err := suite.service.UpdateMenuItem(suite.ctx, item.ID, MenuItemInput{StockQuantity: ptr(5)})
	suite.Require().NoError(err)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = suite.service.ReduceStock(suite.ctx, item.ID, 3)
		}(i)
	}
	wg.Wait()

	suite.NoError(errs[0])
	suite.NoError(errs[1])
	suite.True(results[0] != results[1], "Exactly one decrement succeeds")

	stored, err := suite.service.GetMenuItem(suite.ctx, item.ID)
	suite.Require().NoError(err)
	suite.Equal(2, stored.StockQuantity)
}

func (suite *CatalogServiceTestSuite) TestDeleteMenuItem_RestrictedWhenOrdered() {
	category := suite.createCategory("Burgers", 1)
	item := suite.createItem(category.ID, "Chill Burger", "12.99")

	orders := NewOrderService(suite.db)
	_, err := orders.CreateOrder(suite.ctx, CreateOrderInput{
		CustomerName:  "Jane",
		CustomerPhone: "555-0100",
		OrderType:     models.OrderTypePickup,
		Items:         []OrderLineInput{{MenuItemID: item.ID, Quantity: 1}},
	})
	suite.Require().NoError(err)

	_, err = suite.service.DeleteMenuItem(suite.ctx, item.ID)
	suite.ErrorIs(err, ErrMenuItemInUse)

	_, err = suite.service.GetMenuItem(suite.ctx, item.ID)
	suite.NoError(err, "Item is still there")

	_, err = suite.service.DeleteMenuItem(suite.ctx, 999)
	suite.ErrorIs(err, ErrMenuItemNotFound)
}

func TestCatalogServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}
