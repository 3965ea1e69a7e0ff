// Package model defines the API payloads and controller state of the news frontend.
package model

import (
	"time"
)

type Category struct {
	Slug string `json:"slug" validate:"required"`
	Name string `json:"name" validate:"required"`
}

type Tag struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug,omitempty"`
}

// Image is a post cover as served by the media service.
type Image struct {
	File string `json:"file" validate:"required"`
	Alt  string `json:"alt"`
}

type Post struct {
	Slug    string `json:"slug" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Excerpt string `json:"excerpt"`

	// Server-rendered HTML. The API is the sanitization authority for it.
	RenderedBody string `json:"rendered_body,omitempty"`
	BodyHTML     string `json:"body_html,omitempty"`
	// Raw markdown, only used when neither rendered field is present.
	Body string `json:"body,omitempty"`

	PublishedAt time.Time `json:"published_at"`
	Views       int       `json:"views" validate:"gte=0"`
	IsFeatured  bool      `json:"is_featured,omitempty"`

	Category Category `json:"category"`
	Cover    *Image   `json:"cover,omitempty" validate:"omitempty"`
	Tags     []Tag    `json:"tags" validate:"dive"`
}

// HTMLBody returns the pre-rendered body, preferring rendered_body over body_html.
func (p *Post) HTMLBody() string {
	if p.RenderedBody != "" {
		return p.RenderedBody
	}
	return p.BodyHTML
}

// ViewCount is the response of the hit endpoint.
type ViewCount struct {
	Views int `json:"views" validate:"gte=0"`
}
