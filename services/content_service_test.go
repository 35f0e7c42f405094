package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kendall-kelly/chillas-api/models"
	"github.com/kendall-kelly/chillas-api/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// ContentServiceTestSuite covers site settings, page sections and site images
type ContentServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	service *ContentService
}

func (suite *ContentServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = testutil.SetupTestDB(suite.T())
	suite.service = NewContentService(suite.db)
}

func (suite *ContentServiceTestSuite) countSettings() int64 {
	var count int64
	suite.db.Model(&models.SiteSettings{}).Count(&count)
	return count
}

func (suite *ContentServiceTestSuite) TestSettingsAreASingleton() {
	_, err := suite.service.GetSettings(suite.ctx)
	suite.ErrorIs(err, ErrSettingsNotFound)

	created, err := suite.service.CreateSettings(suite.ctx, models.DefaultSiteSettings())
	suite.Require().NoError(err)
	suite.NotZero(created.ID)

	_, err = suite.service.CreateSettings(suite.ctx, models.DefaultSiteSettings())
	suite.ErrorIs(err, ErrSettingsExist)
	suite.Equal(int64(1), suite.countSettings())
}

func (suite *ContentServiceTestSuite) TestEnsureSettings_CreatesDefaultsOnce() {
	first, err := suite.service.EnsureSettings(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal("Ramza's Chillas", first.SiteName)

	second, err := suite.service.EnsureSettings(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(first.ID, second.ID)
	suite.Equal(int64(1), suite.countSettings())
}

func (suite *ContentServiceTestSuite) TestUpdateSettings() {
	fee := decimal.RequireFromString("4.50")
	updated, err := suite.service.UpdateSettings(suite.ctx, SettingsInput{
		SiteName:    ptr(" Chillas Downtown "),
		OpeningTime: ptr("10:30"),
		DeliveryFee: &fee,
	})
	suite.Require().NoError(err)
	suite.Equal("Chillas Downtown", updated.SiteName)
	suite.Equal("10:30", updated.OpeningTime)
	suite.Equal("4.50", updated.DeliveryFee.StringFixed(2))
	suite.Equal("22:00", updated.ClosingTime, "Unset fields keep their defaults")
	suite.Equal(int64(1), suite.countSettings())
}

func (suite *ContentServiceTestSuite) TestUpdateSettings_Validation() {
	tests := []struct {
		name  string
		in    SettingsInput
		field string
	}{
		{"blank name", SettingsInput{SiteName: ptr("")}, "site_name"},
		{"bad opening time", SettingsInput{OpeningTime: ptr("9am")}, "opening_time"},
		{"hour out of range", SettingsInput{ClosingTime: ptr("24:00")}, "closing_time"},
		{"negative fee", SettingsInput{DeliveryFee: ptr(decimal.NewFromInt(-1))}, "delivery_fee"},
		{"tax above one", SettingsInput{TaxRate: ptr(decimal.RequireFromString("1.5"))}, "tax_rate"},
		{"negative radius", SettingsInput{DeliveryRadius: ptr(-2)}, "delivery_radius"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.UpdateSettings(suite.ctx, tt.in)
			var validationErr *ValidationError
			suite.Require().True(errors.As(err, &validationErr), "expected ValidationError, got %v", err)
			suite.Equal(tt.field, validationErr.Field)
		})
	}
	suite.Zero(suite.countSettings(), "Invalid input never creates the settings row")
}

func (suite *ContentServiceTestSuite) TestSetSettingsImage() {
	previous, err := suite.service.SetSettingsImage(suite.ctx, SettingsLogo, "site/1_logo.png")
	suite.Require().NoError(err)
	suite.Nil(previous)

	previous, err = suite.service.SetSettingsImage(suite.ctx, SettingsLogo, "site/2_logo.png")
	suite.Require().NoError(err)
	suite.Require().NotNil(previous)
	suite.Equal("site/1_logo.png", *previous)

	_, err = suite.service.SetSettingsImage(suite.ctx, SettingsHero, "site/hero.png")
	suite.Require().NoError(err)

	settings, err := suite.service.GetSettings(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal("site/2_logo.png", *settings.LogoKey)
	suite.Equal("site/hero.png", *settings.HeroImageKey)
	suite.Nil(settings.FaviconKey)

	_, err = suite.service.SetSettingsImage(suite.ctx, SettingsImage("banner"), "x.png")
	var validationErr *ValidationError
	suite.True(errors.As(err, &validationErr))
}

func (suite *ContentServiceTestSuite) TestUpsertSection() {
	created, err := suite.service.UpsertSection(suite.ctx, models.SectionHomeHero, SectionInput{
		Title:      ptr("Chill Vibes"),
		ButtonText: ptr("Order Now"),
	})
	suite.Require().NoError(err)
	suite.True(created.IsActive, "New sections are active")

	updated, err := suite.service.UpsertSection(suite.ctx, models.SectionHomeHero, SectionInput{
		Subtitle: ptr("Hot food"),
		IsActive: ptr(false),
	})
	suite.Require().NoError(err)
	suite.Equal(created.ID, updated.ID)
	suite.Equal("Chill Vibes", updated.Title, "Unset fields are kept")
	suite.Equal("Hot food", updated.Subtitle)
	suite.False(updated.IsActive)

	_, err = suite.service.UpsertSection(suite.ctx, models.SectionKey("sidebar"), SectionInput{})
	suite.ErrorIs(err, ErrInvalidSection)

	_, err = suite.service.GetSection(suite.ctx, models.SectionFooter)
	suite.ErrorIs(err, ErrSectionNotFound)
}

func (suite *ContentServiceTestSuite) TestSetSectionImage() {
	_, err := suite.service.SetSectionImage(suite.ctx, models.SectionAbout, "content/a.png", false)
	suite.ErrorIs(err, ErrSectionNotFound)

	_, err = suite.service.UpsertSection(suite.ctx, models.SectionAbout, SectionInput{Title: ptr("About")})
	suite.Require().NoError(err)

	_, err = suite.service.SetSectionImage(suite.ctx, models.SectionAbout, "content/bg.png", true)
	suite.Require().NoError(err)
	previous, err := suite.service.SetSectionImage(suite.ctx, models.SectionAbout, "content/a.png", false)
	suite.Require().NoError(err)
	suite.Nil(previous)

	section, err := suite.service.GetSection(suite.ctx, models.SectionAbout)
	suite.Require().NoError(err)
	suite.Equal("content/a.png", *section.ImageKey)
	suite.Equal("content/bg.png", *section.BackgroundImageKey)
}

func (suite *ContentServiceTestSuite) TestSetSectionImage_ReturnsPreviousKey() {
	_, err := suite.service.UpsertSection(suite.ctx, models.SectionAbout, SectionInput{Title: ptr("About")})
	suite.Require().NoError(err)

	for _, background := range []bool{false, true} {
		_, err = suite.service.SetSectionImage(suite.ctx, models.SectionAbout, "content/old.png", background)
		suite.Require().NoError(err)

		previous, err := suite.service.SetSectionImage(suite.ctx, models.SectionAbout, "content/new.png", background)
		suite.Require().NoError(err)
		suite.Require().NotNil(previous)
		suite.Equal("content/old.png", *previous, "background=%v", background)
	}
}

func (suite *ContentServiceTestSuite) TestActiveSections() {
	_, err := suite.service.UpsertSection(suite.ctx, models.SectionHomeHero, SectionInput{Title: ptr("Hero")})
	suite.Require().NoError(err)
	_, err = suite.service.UpsertSection(suite.ctx, models.SectionFooter, SectionInput{IsActive: ptr(false)})
	suite.Require().NoError(err)

	sections, err := suite.service.ActiveSections(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(sections, 1)
	suite.Equal("Hero", sections[models.SectionHomeHero].Title)

	all, err := suite.service.ListSections(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(all, 2)
}

func (suite *ContentServiceTestSuite) TestSiteImages() {
	_, err := suite.service.UpsertSection(suite.ctx, models.SectionHomeHero, SectionInput{Title: ptr("Hero")})
	suite.Require().NoError(err)

	logo, err := suite.service.CreateSiteImage(suite.ctx, SiteImageInput{
		Name:      "Logo Image",
		ImageType: models.ImageLogo,
		ImageKey:  "site_images/logo.png",
		FileSize:  2048,
	})
	suite.Require().NoError(err)
	suite.Equal("Logo Image", logo.AltText, "Alt text defaults to the name")
	suite.True(logo.IsActive)

	hero, err := suite.service.CreateSiteImage(suite.ctx, SiteImageInput{
		Name:      "Hero Image",
		ImageType: models.ImageHero,
		ImageKey:  "site_images/hero.png",
		AltText:   "Delicious food",
		Sections:  []models.SectionKey{models.SectionHomeHero},
	})
	suite.Require().NoError(err)

	_, err = suite.service.CreateSiteImage(suite.ctx, SiteImageInput{
		Name:      "Old gallery",
		ImageType: models.ImageGallery,
		ImageKey:  "site_images/old.png",
		IsActive:  ptr(false),
	})
	suite.Require().NoError(err)

	active, err := suite.service.ListSiteImages(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Len(active, 2)

	grouped := GroupSiteImages(active)
	suite.Len(grouped[models.ImageLogo], 1)
	suite.Require().Len(grouped[models.ImageHero], 1)
	suite.Require().Len(grouped[models.ImageHero][0].UsedInSections, 1)
	suite.Equal(models.SectionHomeHero, grouped[models.ImageHero][0].UsedInSections[0].Section)

	deleted, err := suite.service.DeleteSiteImage(suite.ctx, hero.ID)
	suite.Require().NoError(err)
	suite.Equal("site_images/hero.png", deleted.ImageKey)

	_, err = suite.service.GetSection(suite.ctx, models.SectionHomeHero)
	suite.NoError(err, "Deleting an image keeps the sections it was linked to")

	_, err = suite.service.DeleteSiteImage(suite.ctx, hero.ID)
	suite.ErrorIs(err, ErrSiteImageNotFound)
}

func (suite *ContentServiceTestSuite) TestCreateSiteImage_Validation() {
	_, err := suite.service.CreateSiteImage(suite.ctx, SiteImageInput{ImageKey: "a.png"})
	var validationErr *ValidationError
	suite.True(errors.As(err, &validationErr))

	_, err = suite.service.CreateSiteImage(suite.ctx, SiteImageInput{Name: "A", ImageType: "banner", ImageKey: "a.png"})
	suite.True(errors.As(err, &validationErr))

	_, err = suite.service.CreateSiteImage(suite.ctx, SiteImageInput{Name: "A"})
	suite.True(errors.As(err, &validationErr))

	_, err = suite.service.CreateSiteImage(suite.ctx, SiteImageInput{
		Name:     "A",
		ImageKey: "a.png",
		Sections: []models.SectionKey{"sidebar"},
	})
	suite.ErrorIs(err, ErrInvalidSection)
}

func (suite *ContentServiceTestSuite) TestSiteContext_FallsBackWithoutWriting() {
	site, err := suite.service.SiteContext(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal("Ramza's Chillas", site.Settings.SiteName)
	suite.Empty(site.Sections)
	suite.Empty(site.Images)
	suite.Zero(suite.countSettings(), "Reading the site context does not create settings")

	_, err = suite.service.UpdateSettings(suite.ctx, SettingsInput{SiteName: ptr("Chillas")})
	suite.Require().NoError(err)

	site, err = suite.service.SiteContext(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal("Chillas", site.Settings.SiteName)
}

func TestContentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ContentServiceTestSuite))
}

func TestValidClock(t *testing.T) {
	for _, v := range []string{"00:00", "09:30", "23:59"} {
		assert.True(t, validClock(v), v)
	}
	for _, v := range []string{"", "9:30", "24:00", "12:60", "12-30", "ab:cd", "12:300"} {
		assert.False(t, validClock(v), v)
	}
}
