package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrMenuItemNotFound  = errors.New("menu item not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrSettingsNotFound  = errors.New("site settings not found")
	ErrSectionNotFound   = errors.New("content section not found")
	ErrSiteImageNotFound = errors.New("site image not found")

	ErrInvalidStatus        = errors.New("invalid order status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrIllegalTransition    = errors.New("illegal order status transition")
	ErrInvalidSection       = errors.New("unknown content section")

	// ErrSettingsExist is returned when a second SiteSettings row would be created
	ErrSettingsExist = errors.New("site settings already exist")

	ErrMenuItemInUse = errors.New("menu item is referenced by existing orders")
	ErrCategoryInUse = errors.New("category still has menu items")
	ErrDuplicateName = errors.New("name already in use")

	ErrOrderNumberTaken     = errors.New("order number already in use")
	ErrOrderNumberExhausted = errors.New("could not assign a unique order number")
)

// ValidationError reports caller input that cannot be accepted
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// isUniqueViolation reports whether err came from a unique index
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
