// Package seed fills a fresh database with the default site settings, page
// sections and a starter menu.
//
// Every step is idempotent: rows that already exist are left untouched, so
// running the seeder against a live database only fills in what is missing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kendall-kelly/chillas-api/models"
	"github.com/kendall-kelly/chillas-api/services"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Func is one named seeding step
type Func func(ctx context.Context, db *gorm.DB, out io.Writer) error

type step struct {
	name string
	fn   Func
}

var steps = []step{
	{"site settings", Settings},
	{"content sections", Sections},
	{"sample menu", Menu},
}

// RunAll executes every step in order and stops on the first error
func RunAll(ctx context.Context, db *gorm.DB, out io.Writer) error {
	for _, s := range steps {
		fmt.Fprintf(out, "  • Running seeder: %s\n", s.name)
		if err := s.fn(ctx, db, out); err != nil {
			return fmt.Errorf("seeder %q failed: %w", s.name, err)
		}
	}
	return nil
}

// Settings creates the settings row with default values when none exists
func Settings(ctx context.Context, db *gorm.DB, out io.Writer) error {
	content := services.NewContentService(db)
	if _, err := content.GetSettings(ctx); err == nil {
		fmt.Fprintln(out, "    site settings already exist")
		return nil
	} else if !errors.Is(err, services.ErrSettingsNotFound) {
		return err
	}

	if _, err := content.CreateSettings(ctx, models.DefaultSiteSettings()); err != nil {
		return err
	}
	fmt.Fprintln(out, "    created site settings")
	return nil
}

type sectionText struct {
	key         models.SectionKey
	title       string
	subtitle    string
	description string
	buttonText  string
	buttonURL   string
}

var defaultSections = []sectionText{
	{
		key:        models.SectionHomeHero,
		title:      "Chill Vibes & Hot Chillas",
		subtitle:   "Experience the ultimate chill spot with the hottest food in town. Fresh ingredients, cool atmosphere, amazing taste.",
		buttonText: "Order Now",
		buttonURL:  "/menu/",
	},
	{
		key:         models.SectionHomeFeatures,
		title:       "Why Choose Ramza's Chillas?",
		description: "Chill atmosphere, hot food, cool service - we're committed to providing you with the best experience through quality, speed, and unmatched vibes.",
	},
	{
		key:        models.SectionHomeCTA,
		title:      "Ready to Chill & Eat?",
		subtitle:   "Browse our full menu and place your order for delivery or pickup. Let's get this chill session started!",
		buttonText: "View Full Menu",
		buttonURL:  "/menu/",
	},
	{
		key:         models.SectionMenuHero,
		title:       "Our Chill Menu",
		subtitle:    "Discover our signature chillas, crafted with the finest ingredients and served with unmatched flavor",
		description: "Fresh • Hot • Delicious",
	},
	{
		key:      models.SectionFooter,
		title:    "Ramza's Chillas",
		subtitle: "Chill Vibes • Hot Food",
	},
	{
		key:      models.SectionNavigation,
		title:    "Ramza's Chillas",
		subtitle: "Chill Vibes • Hot Food",
	},
}

// Sections creates the default page sections that are not stored yet
func Sections(ctx context.Context, db *gorm.DB, out io.Writer) error {
	content := services.NewContentService(db)
	for _, s := range defaultSections {
		_, err := content.GetSection(ctx, s.key)
		if err == nil {
			fmt.Fprintf(out, "    section %s already exists\n", s.key)
			continue
		}
		if !errors.Is(err, services.ErrSectionNotFound) {
			return err
		}

		in := services.SectionInput{
			Title:       optional(s.title),
			Subtitle:    optional(s.subtitle),
			Description: optional(s.description),
			ButtonText:  optional(s.buttonText),
			ButtonURL:   optional(s.buttonURL),
		}
		if _, err := content.UpsertSection(ctx, s.key, in); err != nil {
			return err
		}
		fmt.Fprintf(out, "    created section %s\n", s.key)
	}
	return nil
}

type sampleItem struct {
	name        string
	description string
	price       string
	category    string
	featured    bool
}

var sampleCategories = []string{"Burgers", "Pizzas", "Drinks", "Sides"}

var sampleItems = []sampleItem{
	{"Chill Burger", "Laid-back beef patty with fresh chilled ingredients", "12.99", "Burgers", true},
	{"Ramza Special", "Signature chicken with avocado and cool ranch", "14.99", "Burgers", false},
	{"Chilla Margherita", "Classic pizza with our signature chill twist", "18.99", "Pizzas", true},
	{"Fire Pepperoni", "Hot pepperoni with cool mozzarella balance", "22.99", "Pizzas", false},
	{"Chill Cola", "Ice-cold refreshing cola to keep you cool", "2.99", "Drinks", false},
	{"Ramza Fries", "Golden fries with our special chill seasoning", "4.99", "Sides", true},
}

// Menu adds the starter categories and dishes. It does nothing once any menu
// item exists so that an edited catalog is never padded with samples.
func Menu(ctx context.Context, db *gorm.DB, out io.Writer) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.MenuItem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Fprintf(out, "    menu already has %d items\n", count)
		return nil
	}

	catalog := services.NewCatalogService(db)
	existing, err := catalog.ListCategories(ctx, false)
	if err != nil {
		return err
	}
	categoryIDs := make(map[string]uint, len(existing))
	for _, c := range existing {
		categoryIDs[c.Name] = c.ID
	}

	for i, name := range sampleCategories {
		if _, ok := categoryIDs[name]; ok {
			continue
		}
		sortOrder := i + 1
		category, err := catalog.CreateCategory(ctx, services.CategoryInput{
			Name:      &name,
			SortOrder: &sortOrder,
		})
		if err != nil {
			return err
		}
		categoryIDs[name] = category.ID
	}

	for _, item := range sampleItems {
		price := decimal.RequireFromString(item.price)
		categoryID := categoryIDs[item.category]
		in := services.MenuItemInput{
			Name:        &item.name,
			Description: &item.description,
			Price:       &price,
			CategoryID:  &categoryID,
			IsFeatured:  &item.featured,
		}
		if _, err := catalog.CreateMenuItem(ctx, in); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "    created %d sample menu items\n", len(sampleItems))
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
