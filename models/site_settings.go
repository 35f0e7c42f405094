package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SiteSettings holds restaurant-wide configuration. At most one row may exist;
// creation goes through services.ContentService which enforces that.
type SiteSettings struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	SiteName            string          `gorm:"size:100;not null" json:"site_name"`
	SiteDescription     string          `gorm:"type:text" json:"site_description"`
	PhoneNumber         string          `gorm:"size:20" json:"phone_number"`
	Email               string          `gorm:"size:254" json:"email"`
	Address             string          `gorm:"type:text" json:"address"`
	FacebookURL         string          `json:"facebook_url"`
	InstagramURL        string          `json:"instagram_url"`
	TwitterURL          string          `json:"twitter_url"`
	OpeningTime         string          `gorm:"size:5" json:"opening_time"` // HH:MM
	ClosingTime         string          `gorm:"size:5" json:"closing_time"` // HH:MM
	BusinessHoursText   string          `gorm:"type:text" json:"business_hours_text"`
	DeliveryFee         decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"delivery_fee"`
	FreeDeliveryMinimum decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"free_delivery_minimum"`
	DeliveryRadius      int             `gorm:"not null" json:"delivery_radius"` // kilometres
	DeliveryTimeText    string          `gorm:"size:100" json:"delivery_time_text"`
	TaxRate             decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"tax_rate"`
	NavHomeText         string          `gorm:"size:50" json:"nav_home_text"`
	NavMenuText         string          `gorm:"size:50" json:"nav_menu_text"`
	NavAboutText        string          `gorm:"size:50" json:"nav_about_text"`
	NavContactText      string          `gorm:"size:50" json:"nav_contact_text"`
	NavCartText         string          `gorm:"size:50" json:"nav_cart_text"`
	FooterCopyright     string          `gorm:"size:200" json:"footer_copyright"`
	FooterDescription   string          `gorm:"type:text" json:"footer_description"`
	LogoKey             *string         `json:"logo_key"`
	FaviconKey          *string         `json:"favicon_key"`
	HeroImageKey        *string         `json:"hero_image_key"`
	LogoURL             *string         `gorm:"-" json:"logo_url,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the SiteSettings model
func (SiteSettings) TableName() string {
	return "site_settings"
}

// DefaultSiteSettings returns the values a fresh installation starts with
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		SiteName:            "Ramza's Chillas",
		SiteDescription:     "Chill Vibes • Hot Food",
		PhoneNumber:         "(555) 123-CHILL",
		Email:               "hello@ramzaschillas.com",
		Address:             "123 Chill Street, Island City",
		OpeningTime:         "09:00",
		ClosingTime:         "22:00",
		BusinessHoursText:   "Mon-Thu: 11:00 AM - 10:00 PM\nFri-Sat: 11:00 AM - 11:00 PM\nSunday: 12:00 PM - 9:00 PM",
		DeliveryFee:         decimal.RequireFromString("3.99"),
		FreeDeliveryMinimum: decimal.RequireFromString("25.00"),
		DeliveryRadius:      5,
		DeliveryTimeText:    "25-30 minutes",
		TaxRate:             decimal.RequireFromString("0.0825"),
		NavHomeText:         "Home",
		NavMenuText:         "Menu",
		NavAboutText:        "About",
		NavContactText:      "Contact",
		NavCartText:         "Cart",
		FooterCopyright:     "© 2024 Ramza's Chillas. All rights reserved.",
		FooterDescription:   "Serving the finest food with fresh ingredients and chill vibes since 2024. Your go-to spot for quality meals in a relaxed atmosphere.",
	}
}
