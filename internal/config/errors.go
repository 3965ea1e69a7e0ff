package config

const (
	// Startup errors
	ErrLoadConfigFmt       = "Failed to load config: %v"
	ErrInitSessionStoreFmt = "Failed to initialize session store: %v"
	ErrParseTemplatesFmt   = "Failed to parse templates: %v"

	// Request errors
	ErrInvalidPage  = "Invalid page number"
	ErrMissingSlug  = "Slug required"
	ErrPostRequired = "Post parameter required"
	ErrStreaming    = "Streaming unsupported"
)
