package model

import (
	"time"
)

// PageData carries the layout fields shared by every full page.
type PageData struct {
	SiteName    string
	Description string
	Language    string

	// ViewID identifies this page load. htmx sends it back with every
	// fragment request so each tab keeps its own navigation state.
	ViewID string
	Year   int

	LiveViews bool
}

func NewPageData(siteName, description, language, viewID string) *PageData {
	return &PageData{
		SiteName:    siteName,
		Description: description,
		Language:    language,
		ViewID:      viewID,
		Year:        time.Now().Year(),
	}
}
