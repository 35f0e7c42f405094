package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/chillas-api/config"
	"github.com/kendall-kelly/chillas-api/middleware"
	"github.com/kendall-kelly/chillas-api/models"
	"github.com/kendall-kelly/chillas-api/services"
	"github.com/shopspring/decimal"
)

const dashboardRecentOrders = 10

// Dashboard handles GET /api/v1/admin/dashboard
func Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	orders := orderService()

	stats, err := catalogService().DashboardStats(ctx)
	if err != nil {
		handleServiceError(c, err, "Failed to load dashboard")
		return
	}

	counts, err := orders.CountOrders(ctx)
	if err != nil {
		handleServiceError(c, err, "Failed to load dashboard")
		return
	}

	recent, err := orders.RecentOrders(ctx, dashboardRecentOrders)
	if err != nil {
		handleServiceError(c, err, "Failed to load dashboard")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"catalog":       stats,
		"order_counts":  counts,
		"recent_orders": recent,
	})
}

// GetAdminProfile handles GET /api/v1/admin/me - the signed-in staff member
func GetAdminProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	cfg := config.GetConfig()
	token := middleware.GetAccessToken(c)
	if cfg == nil || cfg.Auth0Domain == "" || token == "" {
		respondOK(c, http.StatusOK, services.AdminProfile{Sub: userID})
		return
	}

	profile, err := services.NewAuth0Service(cfg).GetAdminProfile(c.Request.Context(), token)
	if err != nil {
		respondError(c, http.StatusBadGateway, "AUTH0_ERROR", "Failed to fetch profile from Auth0", err.Error())
		return
	}

	respondOK(c, http.StatusOK, profile)
}

// SettingsRequest represents the editable site settings
type SettingsRequest struct {
	SiteName            *string          `json:"site_name" binding:"omitempty,max=100"`
	SiteDescription     *string          `json:"site_description"`
	PhoneNumber         *string          `json:"phone_number" binding:"omitempty,max=20"`
	Email               *string          `json:"email" binding:"omitempty,email"`
	Address             *string          `json:"address"`
	FacebookURL         *string          `json:"facebook_url" binding:"omitempty,url"`
	InstagramURL        *string          `json:"instagram_url" binding:"omitempty,url"`
	TwitterURL          *string          `json:"twitter_url" binding:"omitempty,url"`
	OpeningTime         *string          `json:"opening_time"`
	ClosingTime         *string          `json:"closing_time"`
	BusinessHoursText   *string          `json:"business_hours_text"`
	DeliveryFee         *decimal.Decimal `json:"delivery_fee"`
	FreeDeliveryMinimum *decimal.Decimal `json:"free_delivery_minimum"`
	DeliveryRadius      *int             `json:"delivery_radius"`
	DeliveryTimeText    *string          `json:"delivery_time_text" binding:"omitempty,max=100"`
	TaxRate             *decimal.Decimal `json:"tax_rate"`
	NavHomeText         *string          `json:"nav_home_text" binding:"omitempty,max=50"`
	NavMenuText         *string          `json:"nav_menu_text" binding:"omitempty,max=50"`
	NavAboutText        *string          `json:"nav_about_text" binding:"omitempty,max=50"`
	NavContactText      *string          `json:"nav_contact_text" binding:"omitempty,max=50"`
	NavCartText         *string          `json:"nav_cart_text" binding:"omitempty,max=50"`
	FooterCopyright     *string          `json:"footer_copyright" binding:"omitempty,max=200"`
	FooterDescription   *string          `json:"footer_description"`
}

func (r SettingsRequest) input() services.SettingsInput {
	return services.SettingsInput{
		SiteName:            r.SiteName,
		SiteDescription:     r.SiteDescription,
		PhoneNumber:         r.PhoneNumber,
		Email:               r.Email,
		Address:             r.Address,
		FacebookURL:         r.FacebookURL,
		InstagramURL:        r.InstagramURL,
		TwitterURL:          r.TwitterURL,
		OpeningTime:         r.OpeningTime,
		ClosingTime:         r.ClosingTime,
		BusinessHoursText:   r.BusinessHoursText,
		DeliveryFee:         r.DeliveryFee,
		FreeDeliveryMinimum: r.FreeDeliveryMinimum,
		DeliveryRadius:      r.DeliveryRadius,
		DeliveryTimeText:    r.DeliveryTimeText,
		TaxRate:             r.TaxRate,
		NavHomeText:         r.NavHomeText,
		NavMenuText:         r.NavMenuText,
		NavAboutText:        r.NavAboutText,
		NavContactText:      r.NavContactText,
		NavCartText:         r.NavCartText,
		FooterCopyright:     r.FooterCopyright,
		FooterDescription:   r.FooterDescription,
	}
}

// GetSettings handles GET /api/v1/admin/settings - creates the defaults on first visit
func GetSettings(c *gin.Context) {
	settings, err := contentService().EnsureSettings(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to load settings")
		return
	}

	resolveSettingsImages(c.Request.Context(), settings)
	respondOK(c, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/v1/admin/settings
func UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	settings, err := contentService().UpdateSettings(c.Request.Context(), req.input())
	if err != nil {
		handleServiceError(c, err, "Failed to update settings")
		return
	}

	resolveSettingsImages(c.Request.Context(), settings)
	respondOK(c, http.StatusOK, settings)
}

// UploadSettingsImage handles POST /api/v1/admin/settings/:image where image
// is logo, favicon or hero
func UploadSettingsImage(c *gin.Context) {
	which := services.SettingsImage(c.Param("image"))
	switch which {
	case services.SettingsLogo, services.SettingsFavicon, services.SettingsHero:
	default:
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Unknown settings image")
		return
	}

	content := contentService()
	uploadImage(c, services.FolderSite, func(ctx context.Context, key string) (*string, error) {
		return content.SetSettingsImage(ctx, which, key)
	})
}

// SectionRequest represents the editable text of a content section
type SectionRequest struct {
	Title           *string `json:"title" binding:"omitempty,max=200"`
	Subtitle        *string `json:"subtitle" binding:"omitempty,max=300"`
	Description     *string `json:"description"`
	ButtonText      *string `json:"button_text" binding:"omitempty,max=100"`
	ButtonURL       *string `json:"button_url" binding:"omitempty,max=200"`
	ExtraText1      *string `json:"extra_text_1"`
	ExtraText2      *string `json:"extra_text_2"`
	ExtraText3      *string `json:"extra_text_3"`
	MetaTitle       *string `json:"meta_title" binding:"omitempty,max=200"`
	MetaDescription *string `json:"meta_description"`
	IsActive        *bool   `json:"is_active"`
}

// ListContentSections handles GET /api/v1/admin/content-sections. Every known
// section is listed; ones never saved come back empty with id 0.
func ListContentSections(c *gin.Context) {
	ctx := c.Request.Context()

	stored, err := contentService().ListSections(ctx)
	if err != nil {
		handleServiceError(c, err, "Failed to retrieve content sections")
		return
	}

	byKey := make(map[models.SectionKey]models.ContentSection, len(stored))
	for _, section := range stored {
		byKey[section.Section] = section
	}

	sections := make([]models.ContentSection, 0, len(models.SectionKeys))
	for _, key := range models.SectionKeys {
		section, ok := byKey[key]
		if !ok {
			section = models.ContentSection{Section: key}
		}
		sections = append(sections, section)
	}

	respondOK(c, http.StatusOK, sections)
}

// UpdateContentSection handles PUT /api/v1/admin/content-sections/:section
func UpdateContentSection(c *gin.Context) {
	var req SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	section, err := contentService().UpsertSection(c.Request.Context(), models.SectionKey(c.Param("section")), services.SectionInput{
		Title:           req.Title,
		Subtitle:        req.Subtitle,
		Description:     req.Description,
		ButtonText:      req.ButtonText,
		ButtonURL:       req.ButtonURL,
		ExtraText1:      req.ExtraText1,
		ExtraText2:      req.ExtraText2,
		ExtraText3:      req.ExtraText3,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		IsActive:        req.IsActive,
	})
	if err != nil {
		handleServiceError(c, err, "Failed to update content section")
		return
	}

	respondOK(c, http.StatusOK, section)
}

// UploadSectionImage handles POST /api/v1/admin/content-sections/:section/image?background=true
func UploadSectionImage(c *gin.Context) {
	key := models.SectionKey(c.Param("section"))
	background := c.Query("background") == "true"

	content := contentService()
	uploadImage(c, services.FolderContent, func(ctx context.Context, imageKey string) (*string, error) {
		return content.SetSectionImage(ctx, key, imageKey, background)
	})
}

// ListSiteImages handles GET /api/v1/admin/site-images - grouped by image type
func ListSiteImages(c *gin.Context) {
	ctx := c.Request.Context()

	images, err := contentService().ListSiteImages(ctx, false)
	if err != nil {
		handleServiceError(c, err, "Failed to retrieve site images")
		return
	}

	resolveSiteImages(ctx, images)
	respondOK(c, http.StatusOK, services.GroupSiteImages(images))
}

// CreateSiteImage handles POST /api/v1/admin/site-images (multipart: image,
// name, image_type, alt_text, description, sort_order, sections)
func CreateSiteImage(c *gin.Context) {
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

	sortOrder := 0
	if raw := c.PostForm("sort_order"); raw != "" {
		if sortOrder, err = strconv.Atoi(raw); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "sort_order must be an integer")
			return
		}
	}

	var sections []models.SectionKey
	for _, raw := range strings.Split(c.PostForm("sections"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			sections = append(sections, models.SectionKey(raw))
		}
	}

	in := services.SiteImageInput{
		Name:        c.PostForm("name"),
		ImageType:   models.ImageType(c.PostForm("image_type")),
		AltText:     c.PostForm("alt_text"),
		Description: c.PostForm("description"),
		FileSize:    fileHeader.Size,
		SortOrder:   sortOrder,
		Sections:    sections,
	}
	if in.Name == "" {
		in.Name = fileHeader.Filename
	}

	key, err := imageService.UploadImage(ctx, fileHeader, services.FolderSiteImages)
	if err != nil {
		handleServiceError(c, err, "Failed to upload image")
		return
	}
	in.ImageKey = key

	image, err := contentService().CreateSiteImage(ctx, in)
	if err != nil {
		services.DiscardImage(ctx, &key)
		handleServiceError(c, err, "Failed to save site image")
		return
	}

	image.ImageURL = services.ResolveImageURL(ctx, &key)
	respondOK(c, http.StatusCreated, image)
}

// DeleteSiteImage handles DELETE /api/v1/admin/site-images/:id
func DeleteSiteImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	image, err := contentService().DeleteSiteImage(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to delete site image")
		return
	}

	services.DiscardImage(c.Request.Context(), &image.ImageKey)
	respondOK(c, http.StatusOK, gin.H{"id": id})
}
