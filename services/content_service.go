package services

import (
	"context"
	"errors"
	"strings"

	"github.com/kendall-kelly/chillas-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContentService manages site settings, page sections and site images
type ContentService struct {
	db *gorm.DB
}

// NewContentService creates a content service backed by db
func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{db: db}
}

// settingsRowID is the fixed primary key of the SiteSettings row. The key
// enforces the single row even when two creates race.
const settingsRowID = 1

// CreateSettings stores the one and only SiteSettings row. A second call
// fails with ErrSettingsExist.
func (s *ContentService) CreateSettings(ctx context.Context, settings models.SiteSettings) (*models.SiteSettings, error) {
	settings.ID = settingsRowID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.SiteSettings{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSettingsExist
		}
		return tx.Create(&settings).Error
	})
	if isUniqueViolation(err) {
		return nil, ErrSettingsExist
	}
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

// GetSettings loads the settings row
func (s *ContentService) GetSettings(ctx context.Context) (*models.SiteSettings, error) {
	settings, found, err := findSettings(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSettingsNotFound
	}
	return settings, nil
}

func findSettings(db *gorm.DB) (*models.SiteSettings, bool, error) {
	var settings models.SiteSettings
	result := db.Order("id ASC").Limit(1).Find(&settings)
	if result.Error != nil {
		return nil, false, result.Error
	}
	return &settings, result.RowsAffected > 0, nil
}

// EnsureSettings loads the settings row, creating it with defaults when absent
func (s *ContentService) EnsureSettings(ctx context.Context) (*models.SiteSettings, error) {
	db := s.db.WithContext(ctx)

	settings, found, err := findSettings(db)
	if err != nil {
		return nil, err
	}
	if found {
		return settings, nil
	}

	created, err := s.CreateSettings(ctx, models.DefaultSiteSettings())
	if errors.Is(err, ErrSettingsExist) {
		// Another request created the row first
		settings, found, err = findSettings(db)
		if err == nil && !found {
			err = ErrSettingsNotFound
		}
		return settings, err
	}
	return created, err
}

// SettingsInput holds editable settings. Nil fields are left unchanged.
type SettingsInput struct {
	SiteName            *string
	SiteDescription     *string
	PhoneNumber         *string
	Email               *string
	Address             *string
	FacebookURL         *string
	InstagramURL        *string
	TwitterURL          *string
	OpeningTime         *string
	ClosingTime         *string
	BusinessHoursText   *string
	DeliveryFee         *decimal.Decimal
	FreeDeliveryMinimum *decimal.Decimal
	DeliveryRadius      *int
	DeliveryTimeText    *string
	TaxRate             *decimal.Decimal
	NavHomeText         *string
	NavMenuText         *string
	NavAboutText        *string
	NavContactText      *string
	NavCartText         *string
	FooterCopyright     *string
	FooterDescription   *string
}

func (in SettingsInput) updates() (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	strs := map[string]*string{
		"site_description":    in.SiteDescription,
		"phone_number":        in.PhoneNumber,
		"email":               in.Email,
		"address":             in.Address,
		"facebook_url":        in.FacebookURL,
		"instagram_url":       in.InstagramURL,
		"twitter_url":         in.TwitterURL,
		"business_hours_text": in.BusinessHoursText,
		"delivery_time_text":  in.DeliveryTimeText,
		"nav_home_text":       in.NavHomeText,
		"nav_menu_text":       in.NavMenuText,
		"nav_about_text":      in.NavAboutText,
		"nav_contact_text":    in.NavContactText,
		"nav_cart_text":       in.NavCartText,
		"footer_copyright":    in.FooterCopyright,
		"footer_description":  in.FooterDescription,
	}
	for column, value := range strs {
		if value != nil {
			updates[column] = *value
		}
	}

	if in.SiteName != nil {
		if strings.TrimSpace(*in.SiteName) == "" {
			return nil, invalid("site_name", "must not be blank")
		}
		updates["site_name"] = strings.TrimSpace(*in.SiteName)
	}
	if in.OpeningTime != nil {
		if !validClock(*in.OpeningTime) {
			return nil, invalid("opening_time", "must be HH:MM")
		}
		updates["opening_time"] = *in.OpeningTime
	}
	if in.ClosingTime != nil {
		if !validClock(*in.ClosingTime) {
			return nil, invalid("closing_time", "must be HH:MM")
		}
		updates["closing_time"] = *in.ClosingTime
	}

	money := []struct {
		column string
		value  *decimal.Decimal
	}{
		{"delivery_fee", in.DeliveryFee},
		{"free_delivery_minimum", in.FreeDeliveryMinimum},
		{"tax_rate", in.TaxRate},
	}
	for _, m := range money {
		if m.value == nil {
			continue
		}
		if m.value.IsNegative() {
			return nil, invalid(m.column, "must not be negative")
		}
		updates[m.column] = *m.value
	}
	if in.TaxRate != nil && in.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, invalid("tax_rate", "must be a fraction between 0 and 1")
	}
	if in.DeliveryRadius != nil {
		if *in.DeliveryRadius < 0 {
			return nil, invalid("delivery_radius", "must not be negative")
		}
		updates["delivery_radius"] = *in.DeliveryRadius
	}

	return updates, nil
}

// validClock accepts 24-hour HH:MM
func validClock(v string) bool {
	if len(v) != 5 || v[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	h := int(v[0]-'0')*10 + int(v[1]-'0')
	m := int(v[3]-'0')*10 + int(v[4]-'0')
	return h < 24 && m < 60
}

// UpdateSettings applies the non-nil fields, creating the row with defaults first if needed
func (s *ContentService) UpdateSettings(ctx context.Context, in SettingsInput) (*models.SiteSettings, error) {
	updates, err := in.updates()
	if err != nil {
		return nil, err
	}

	settings, err := s.EnsureSettings(ctx)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return settings, nil
	}

	db := s.db.WithContext(ctx)
	if err := db.Model(settings).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := db.First(settings, settings.ID).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// SettingsImage names one of the branding images on SiteSettings
type SettingsImage string

const (
	SettingsLogo    SettingsImage = "logo"
	SettingsFavicon SettingsImage = "favicon"
	SettingsHero    SettingsImage = "hero"
)

func (i SettingsImage) column() (string, bool) {
	switch i {
	case SettingsLogo:
		return "logo_key", true
	case SettingsFavicon:
		return "favicon_key", true
	case SettingsHero:
		return "hero_image_key", true
	}
	return "", false
}

// SetSettingsImage stores a branding image key and returns the one it replaced
func (s *ContentService) SetSettingsImage(ctx context.Context, which SettingsImage, key string) (previous *string, err error) {
	column, ok := which.column()
	if !ok {
		return nil, invalid("image", "must be logo, favicon or hero")
	}

	settings, err := s.EnsureSettings(ctx)
	if err != nil {
		return nil, err
	}

	switch which {
	case SettingsLogo:
		previous = cloneKey(settings.LogoKey)
	case SettingsFavicon:
		previous = cloneKey(settings.FaviconKey)
	case SettingsHero:
		previous = cloneKey(settings.HeroImageKey)
	}

	if err := s.db.WithContext(ctx).Model(settings).Update(column, key).Error; err != nil {
		return nil, err
	}
	return previous, nil
}

// SectionInput holds section text. Nil fields are left unchanged.
type SectionInput struct {
	Title           *string
	Subtitle        *string
	Description     *string
	ButtonText      *string
	ButtonURL       *string
	ExtraText1      *string
	ExtraText2      *string
	ExtraText3      *string
	MetaTitle       *string
	MetaDescription *string
	IsActive        *bool
}

func (in SectionInput) apply(section *models.ContentSection) {
	fields := []struct {
		dst *string
		src *string
	}{
		{&section.Title, in.Title},
		{&section.Subtitle, in.Subtitle},
		{&section.Description, in.Description},
		{&section.ButtonText, in.ButtonText},
		{&section.ButtonURL, in.ButtonURL},
		{&section.ExtraText1, in.ExtraText1},
		{&section.ExtraText2, in.ExtraText2},
		{&section.ExtraText3, in.ExtraText3},
		{&section.MetaTitle, in.MetaTitle},
		{&section.MetaDescription, in.MetaDescription},
	}
	for _, f := range fields {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	if in.IsActive != nil {
		section.IsActive = *in.IsActive
	}
}

// UpsertSection creates or edits the section identified by key. New sections are active.
func (s *ContentService) UpsertSection(ctx context.Context, key models.SectionKey, in SectionInput) (*models.ContentSection, error) {
	if !key.Valid() {
		return nil, ErrInvalidSection
	}

	var section models.ContentSection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("section = ?", key).Limit(1).Find(&section)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			section = models.ContentSection{Section: key, IsActive: true}
		}
		in.apply(&section)
		return tx.Save(&section).Error
	})
	if err != nil {
		return nil, err
	}

	return &section, nil
}

// SetSectionImage stores a section image key, or its background image when
// background is true, and returns the key it replaced
func (s *ContentService) SetSectionImage(ctx context.Context, key models.SectionKey, imageKey string, background bool) (previous *string, err error) {
	section, err := s.GetSection(ctx, key)
	if err != nil {
		return nil, err
	}

	column := "image_key"
	previous = cloneKey(section.ImageKey)
	if background {
		column = "background_image_key"
		previous = cloneKey(section.BackgroundImageKey)
	}

	if err := s.db.WithContext(ctx).Model(section).Update(column, imageKey).Error; err != nil {
		return nil, err
	}
	return previous, nil
}

// GetSection loads one section by key
func (s *ContentService) GetSection(ctx context.Context, key models.SectionKey) (*models.ContentSection, error) {
	if !key.Valid() {
		return nil, ErrInvalidSection
	}

	var section models.ContentSection
	if err := s.db.WithContext(ctx).Where("section = ?", key).First(&section).Error; err != nil {
		return nil, notFound(err, ErrSectionNotFound)
	}
	return &section, nil
}

// ListSections returns every stored section
func (s *ContentService) ListSections(ctx context.Context) ([]models.ContentSection, error) {
	var sections []models.ContentSection
	err := s.db.WithContext(ctx).Order("section ASC").Find(&sections).Error
	return sections, err
}

// ActiveSections returns the active sections keyed by section
func (s *ContentService) ActiveSections(ctx context.Context) (map[models.SectionKey]models.ContentSection, error) {
	var sections []models.ContentSection
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&sections).Error; err != nil {
		return nil, err
	}

	byKey := make(map[models.SectionKey]models.ContentSection, len(sections))
	for _, section := range sections {
		byKey[section.Section] = section
	}
	return byKey, nil
}

// SiteImageInput describes an uploaded site image
type SiteImageInput struct {
	Name        string
	ImageType   models.ImageType
	ImageKey    string
	AltText     string
	Description string
	FileSize    int64
	SortOrder   int
	IsActive    *bool
	Sections    []models.SectionKey
}

// CreateSiteImage records an uploaded image and links it to the given sections
func (s *ContentService) CreateSiteImage(ctx context.Context, in SiteImageInput) (*models.SiteImage, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if in.ImageType == "" {
		in.ImageType = models.ImageOther
	}
	if !in.ImageType.Valid() {
		return nil, invalid("image_type", "unknown image type")
	}
	if in.ImageKey == "" {
		return nil, invalid("image", "is required")
	}
	for _, key := range in.Sections {
		if !key.Valid() {
			return nil, ErrInvalidSection
		}
	}

	image := models.SiteImage{
		Name:        strings.TrimSpace(in.Name),
		ImageType:   in.ImageType,
		ImageKey:    in.ImageKey,
		AltText:     in.AltText,
		Description: in.Description,
		FileSize:    in.FileSize,
		SortOrder:   in.SortOrder,
		IsActive:    true,
	}
	if in.IsActive != nil {
		image.IsActive = *in.IsActive
	}
	if image.AltText == "" {
		image.AltText = image.Name
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(in.Sections) > 0 {
			if err := tx.Where("section IN ?", in.Sections).Find(&image.UsedInSections).Error; err != nil {
				return err
			}
		}
		return tx.Create(&image).Error
	})
	if err != nil {
		return nil, err
	}

	return &image, nil
}

// ListSiteImages returns images ordered by type, sort order and name
func (s *ContentService) ListSiteImages(ctx context.Context, activeOnly bool) ([]models.SiteImage, error) {
	query := s.db.WithContext(ctx).Preload("UsedInSections").Order("image_type ASC, sort_order ASC, name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var images []models.SiteImage
	err := query.Find(&images).Error
	return images, err
}

// GroupSiteImages buckets images by type, keeping their order
func GroupSiteImages(images []models.SiteImage) map[models.ImageType][]models.SiteImage {
	grouped := make(map[models.ImageType][]models.SiteImage)
	for _, image := range images {
		grouped[image.ImageType] = append(grouped[image.ImageType], image)
	}
	return grouped
}

// DeleteSiteImage removes the image record and its section links, returning
// the deleted record so the caller can drop the stored object
func (s *ContentService) DeleteSiteImage(ctx context.Context, id uint) (*models.SiteImage, error) {
	var image models.SiteImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&image, id).Error; err != nil {
			return notFound(err, ErrSiteImageNotFound)
		}
		if err := tx.Model(&image).Association("UsedInSections").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.SiteImage{}, id).Error
	})
	if err != nil {
		return nil, err
	}

	return &image, nil
}

// SiteContext is everything the public pages render around their content
type SiteContext struct {
	Settings models.SiteSettings                         `json:"settings"`
	Sections map[models.SectionKey]models.ContentSection `json:"sections"`
	Images   map[models.ImageType][]models.SiteImage     `json:"images"`
}

// SiteContext gathers settings, active sections and active images. Missing
// settings fall back to the defaults without writing them.
func (s *ContentService) SiteContext(ctx context.Context) (*SiteContext, error) {
	settings, err := s.GetSettings(ctx)
	if errors.Is(err, ErrSettingsNotFound) {
		defaults := models.DefaultSiteSettings()
		settings, err = &defaults, nil
	}
	if err != nil {
		return nil, err
	}

	sections, err := s.ActiveSections(ctx)
	if err != nil {
		return nil, err
	}

	images, err := s.ListSiteImages(ctx, true)
	if err != nil {
		return nil, err
	}

	return &SiteContext{
		Settings: *settings,
		Sections: sections,
		Images:   GroupSiteImages(images),
	}, nil
}
