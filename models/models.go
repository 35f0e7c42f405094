package models

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&Category{},
		&MenuItem{},
		&Order{},
		&OrderItem{},
		&SiteSettings{},
		&ContentSection{},
		&SiteImage{},
	}
}
