package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/chillas-api/models"
	"github.com/kendall-kelly/chillas-api/services"
)

const (
	defaultFeaturedCount = 6
	maxFeaturedCount     = 24
)

func resolveMenuItemImages(ctx context.Context, items []models.MenuItem) {
	for i := range items {
		items[i].ImageURL = services.ResolveImageURL(ctx, items[i].ImageKey)
		if items[i].Category != nil {
			items[i].Category.ImageURL = services.ResolveImageURL(ctx, items[i].Category.ImageKey)
		}
	}
}

func resolveCategoryImages(ctx context.Context, categories []models.Category) {
	for i := range categories {
		categories[i].ImageURL = services.ResolveImageURL(ctx, categories[i].ImageKey)
		resolveMenuItemImages(ctx, categories[i].MenuItems)
	}
}

func resolveSettingsImages(ctx context.Context, settings *models.SiteSettings) {
	settings.LogoURL = services.ResolveImageURL(ctx, settings.LogoKey)
}

func resolveSiteImages(ctx context.Context, images []models.SiteImage) {
	for i := range images {
		key := images[i].ImageKey
		images[i].ImageURL = services.ResolveImageURL(ctx, &key)
	}
}

// GetSite handles GET /api/v1/site - settings, active sections and images for page chrome
func GetSite(c *gin.Context) {
	ctx := c.Request.Context()

	site, err := contentService().SiteContext(ctx)
	if err != nil {
		handleServiceError(c, err, "Failed to load site content")
		return
	}

	resolveSettingsImages(ctx, &site.Settings)
	for imageType := range site.Images {
		resolveSiteImages(ctx, site.Images[imageType])
	}

	respondOK(c, http.StatusOK, site)
}

// GetMenu handles GET /api/v1/menu - available items grouped by active category
func GetMenu(c *gin.Context) {
	ctx := c.Request.Context()

	menu, err := catalogService().ListPublicMenu(ctx)
	if err != nil {
		handleServiceError(c, err, "Failed to load menu")
		return
	}

	resolveCategoryImages(ctx, menu)
	respondOK(c, http.StatusOK, menu)
}

// GetFeaturedItems handles GET /api/v1/menu/featured?limit=
func GetFeaturedItems(c *gin.Context) {
	ctx := c.Request.Context()

	limit := defaultFeaturedCount
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxFeaturedCount {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 24")
			return
		}
		limit = n
	}

	items, err := catalogService().FeaturedItems(ctx, limit)
	if err != nil {
		handleServiceError(c, err, "Failed to load featured items")
		return
	}

	resolveMenuItemImages(ctx, items)
	respondOK(c, http.StatusOK, items)
}

// GetCategories handles GET /api/v1/categories - active categories in display order
func GetCategories(c *gin.Context) {
	ctx := c.Request.Context()

	categories, err := catalogService().ListCategories(ctx, true)
	if err != nil {
		handleServiceError(c, err, "Failed to load categories")
		return
	}

	resolveCategoryImages(ctx, categories)
	respondOK(c, http.StatusOK, categories)
}
