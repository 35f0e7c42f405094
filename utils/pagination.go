package utils

import (
	"strconv"
)

// Page describes one page of a listing
type Page struct {
	Number   int   `json:"page"`
	Size     int   `json:"page_size"`
	Total    int64 `json:"total"`
	NumPages int   `json:"num_pages"`
}

// ParsePage reads a 1-based page number from a query value. Missing or
// malformed values fall back to the first page.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// NewPage fills in the page count for total rows split into pages of size
func NewPage(number, size int, total int64) Page {
	numPages := 1
	if size > 0 && total > 0 {
		numPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page{Number: number, Size: size, Total: total, NumPages: numPages}
}

// Offset returns the row offset for a 1-based page number
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}
