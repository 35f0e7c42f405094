package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/chillas-api/services"
	"github.com/kendall-kelly/chillas-api/utils"
	"github.com/shopspring/decimal"
)

// CategoryRequest represents the request body for creating or editing a category
type CategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order"`
}

func (r CategoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
	}
}

// MenuItemRequest represents the request body for creating or editing a menu item
type MenuItemRequest struct {
	Name              *string          `json:"name" binding:"omitempty,max=200"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	CategoryID        *uint            `json:"category_id"`
	IsAvailable       *bool            `json:"is_available"`
	IsFeatured        *bool            `json:"is_featured"`
	Ingredients       *string          `json:"ingredients"`
	PreparationTime   *int             `json:"preparation_time" binding:"omitempty,gte=0"`
	StockQuantity     *int             `json:"stock_quantity" binding:"omitempty,gte=0"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,gte=0"`
	Calories          *int             `json:"calories" binding:"omitempty,gte=0"`
}

func (r MenuItemRequest) input() services.MenuItemInput {
	return services.MenuItemInput{
		Name:              r.Name,
		Description:       r.Description,
		Price:             r.Price,
		CategoryID:        r.CategoryID,
		IsAvailable:       r.IsAvailable,
		IsFeatured:        r.IsFeatured,
		Ingredients:       r.Ingredients,
		PreparationTime:   r.PreparationTime,
		StockQuantity:     r.StockQuantity,
		LowStockThreshold: r.LowStockThreshold,
		Calories:          r.Calories,
	}
}

// ReduceStockRequest represents the request body for a manual stock reduction
type ReduceStockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// ListMenuItems handles GET /api/v1/admin/menu-items?q=&category=&page=
func ListMenuItems(c *gin.Context) {
	ctx := c.Request.Context()

	var categoryID uint
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "category must be a numeric id")
			return
		}
		categoryID = uint(id)
	}

	items, page, err := catalogService().SearchMenuItems(ctx, services.MenuSearch{
		Query:      c.Query("q"),
		CategoryID: categoryID,
		Page:       utils.ParsePage(c.Query("page")),
	})
	if err != nil {
		handleServiceError(c, err, "Failed to retrieve menu items")
		return
	}

	resolveMenuItemImages(ctx, items)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       items,
		"pagination": page,
	})
}

// GetMenuItem handles GET /api/v1/admin/menu-items/:id
func GetMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := catalogService().GetMenuItem(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to load menu item")
		return
	}

	item.ImageURL = services.ResolveImageURL(c.Request.Context(), item.ImageKey)
	respondOK(c, http.StatusOK, item)
}

// CreateMenuItem handles POST /api/v1/admin/menu-items
func CreateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	item, err := catalogService().CreateMenuItem(c.Request.Context(), req.input())
	if err != nil {
		handleServiceError(c, err, "Failed to create menu item")
		return
	}

	respondOK(c, http.StatusCreated, item)
}

// UpdateMenuItem handles PUT /api/v1/admin/menu-items/:id - fields left out are unchanged
func UpdateMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	item, err := catalogService().UpdateMenuItem(c.Request.Context(), id, req.input())
	if err != nil {
		handleServiceError(c, err, "Failed to update menu item")
		return
	}

	item.ImageURL = services.ResolveImageURL(c.Request.Context(), item.ImageKey)
	respondOK(c, http.StatusOK, item)
}

// DeleteMenuItem handles DELETE /api/v1/admin/menu-items/:id
func DeleteMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := catalogService().DeleteMenuItem(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to delete menu item")
		return
	}

	services.DiscardImage(c.Request.Context(), item.ImageKey)
	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// ReduceStock handles POST /api/v1/admin/menu-items/:id/reduce-stock
func ReduceStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ReduceStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	catalog := catalogService()
	reduced, err := catalog.ReduceStock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		handleServiceError(c, err, "Failed to reduce stock")
		return
	}
	if !reduced {
		respondError(c, http.StatusConflict, "INSUFFICIENT_STOCK", "Not enough stock to reduce by the requested quantity")
		return
	}

	item, err := catalog.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to load menu item")
		return
	}

	respondOK(c, http.StatusOK, item)
}

// ListLowStockItems handles GET /api/v1/admin/menu-items/low-stock
func ListLowStockItems(c *gin.Context) {
	items, err := catalogService().LowStockItems(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to retrieve low stock items")
		return
	}

	respondOK(c, http.StatusOK, items)
}

// UploadMenuItemImage handles POST /api/v1/admin/menu-items/:id/image (multipart "image")
func UploadMenuItemImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	catalog := catalogService()
	uploadImage(c, services.FolderMenuItems, func(ctx context.Context, key string) (*string, error) {
		return catalog.SetMenuItemImage(ctx, id, key)
	})
}

// ListAdminCategories handles GET /api/v1/admin/categories - all categories including inactive, with available item counts
func ListAdminCategories(c *gin.Context) {
	ctx := c.Request.Context()

	categories, err := catalogService().ListCategoriesWithItemCounts(ctx)
	if err != nil {
		handleServiceError(c, err, "Failed to retrieve categories")
		return
	}

	resolveCategoryImages(ctx, categories)
	respondOK(c, http.StatusOK, categories)
}

// CreateCategory handles POST /api/v1/admin/categories
func CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	category, err := catalogService().CreateCategory(c.Request.Context(), req.input())
	if err != nil {
		handleServiceError(c, err, "Failed to create category")
		return
	}

	respondOK(c, http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/v1/admin/categories/:id
func UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	category, err := catalogService().UpdateCategory(c.Request.Context(), id, req.input())
	if err != nil {
		handleServiceError(c, err, "Failed to update category")
		return
	}

	respondOK(c, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/v1/admin/categories/:id
func DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	category, err := catalogService().DeleteCategory(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to delete category")
		return
	}

	services.DiscardImage(c.Request.Context(), category.ImageKey)
	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// UploadCategoryImage handles POST /api/v1/admin/categories/:id/image (multipart "image")
func UploadCategoryImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	catalog := catalogService()
	uploadImage(c, services.FolderCategories, func(ctx context.Context, key string) (*string, error) {
		return catalog.SetCategoryImage(ctx, id, key)
	})
}

// uploadImage stores the multipart "image" field below folder and hands the
// key to attach. The previous image is deleted once attach succeeds; on
// failure the new upload is removed instead.
func uploadImage(c *gin.Context, folder string, attach func(ctx context.Context, key string) (*string, error)) {
	ctx := c.Request.Context()

	imageService, ok := requireImageService(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the 'image' field")
		return
	}

	key, err := imageService.UploadImage(ctx, fileHeader, folder)
	if err != nil {
		handleServiceError(c, err, "Failed to upload image")
		return
	}

	previous, err := attach(ctx, key)
	if err != nil {
		if delErr := imageService.DeleteImage(ctx, key); delErr != nil {
			log.Printf("warning: failed to remove orphaned upload %s: %v", key, delErr)
		}
		handleServiceError(c, err, "Failed to save image")
		return
	}
	if previous == nil || *previous != key {
		services.DiscardImage(ctx, previous)
	}

	respondOK(c, http.StatusOK, gin.H{
		"image_key": key,
		"image_url": services.ResolveImageURL(ctx, &key),
	})
}
