package models

import (
	"math"
	"time"
)

// SectionKey identifies a fixed block of editable page text
type SectionKey string

const (
	SectionHomeHero     SectionKey = "home_hero"
	SectionHomeFeatures SectionKey = "home_features"
	SectionHomeCTA      SectionKey = "home_cta"
	SectionMenuHero     SectionKey = "menu_hero"
	SectionFooter       SectionKey = "footer"
	SectionNavigation   SectionKey = "navigation"
	SectionAbout        SectionKey = "about"
	SectionContact      SectionKey = "contact"
	SectionCheckout     SectionKey = "checkout"
	SectionCart         SectionKey = "cart"
)

// SectionKeys lists the sections in display order
var SectionKeys = []SectionKey{
	SectionHomeHero, SectionHomeFeatures, SectionHomeCTA, SectionMenuHero, SectionFooter,
	SectionNavigation, SectionAbout, SectionContact, SectionCheckout, SectionCart,
}

// Valid reports whether k is a known section
func (k SectionKey) Valid() bool {
	for _, key := range SectionKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ContentSection is the editable text and imagery of one page section
type ContentSection struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Section            SectionKey `gorm:"uniqueIndex;size:50;not null" json:"section"`
	Title              string     `gorm:"size:200" json:"title"`
	Subtitle           string     `gorm:"size:300" json:"subtitle"`
	Description        string     `gorm:"type:text" json:"description"`
	ButtonText         string     `gorm:"size:100" json:"button_text"`
	ButtonURL          string     `gorm:"size:200" json:"button_url"`
	ExtraText1         string     `gorm:"type:text" json:"extra_text_1"`
	ExtraText2         string     `gorm:"type:text" json:"extra_text_2"`
	ExtraText3         string     `gorm:"type:text" json:"extra_text_3"`
	ImageKey           *string    `json:"image_key"`
	BackgroundImageKey *string    `json:"background_image_key"`
	MetaTitle          string     `gorm:"size:200" json:"meta_title"`
	MetaDescription    string     `gorm:"type:text" json:"meta_description"`
	IsActive           bool       `gorm:"not null" json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the ContentSection model
func (ContentSection) TableName() string {
	return "content_sections"
}

// ImageType classifies where a site image is used
type ImageType string

const (
	ImageLogo       ImageType = "logo"
	ImageHero       ImageType = "hero"
	ImageBackground ImageType = "background"
	ImageCategory   ImageType = "category"
	ImageMenuItem   ImageType = "menu_item"
	ImageGallery    ImageType = "gallery"
	ImageIcon       ImageType = "icon"
	ImageOther      ImageType = "other"
)

// Valid reports whether t is a known image type
func (t ImageType) Valid() bool {
	switch t {
	case ImageLogo, ImageHero, ImageBackground, ImageCategory, ImageMenuItem, ImageGallery, ImageIcon, ImageOther:
		return true
	}
	return false
}

// SiteImage is an uploaded image managed from the admin panel
type SiteImage struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Name           string           `gorm:"size:200;not null" json:"name"`
	ImageType      ImageType        `gorm:"size:20;not null;default:'other';index" json:"image_type"`
	ImageKey       string           `gorm:"not null" json:"image_key"`
	ImageURL       *string          `gorm:"-" json:"image_url,omitempty"`
	AltText        string           `gorm:"size:200;not null" json:"alt_text"`
	Description    string           `gorm:"type:text" json:"description"`
	FileSize       int64            `json:"file_size"` // bytes
	UsedInSections []ContentSection `gorm:"many2many:site_image_sections" json:"used_in_sections,omitempty"`
	IsActive       bool             `gorm:"not null" json:"is_active"`
	SortOrder      int              `gorm:"not null" json:"sort_order"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the SiteImage model
func (SiteImage) TableName() string {
	return "site_images"
}

// FileSizeMB returns the file size in megabytes rounded to two places
func (s SiteImage) FileSizeMB() float64 {
	if s.FileSize == 0 {
		return 0
	}
	return math.Round(float64(s.FileSize)/(1024*1024)*100) / 100
}
