package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"
	HVary         = "Vary"

	HCSRFToken = "X-CSRFToken"

	HHxRequest = "HX-Request"
	HHxTrigger = "HX-Trigger"

	// HViewID carries the page-load id set by the layout's hx-headers.
	HViewID = "X-Mediafront-View"

	CTypeHTML = "text/html; charset=utf-8"
	CTypeJSON = "application/json"
	CTypeText = "text/plain; charset=utf-8"
)

const (
	// CookieCSRF is set by the upstream API and forwarded on state-changing calls.
	CookieCSRF = "csrftoken"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
	SessionStoreRedis  = "redis"
)

const (
	CodecZstd = "zstd"
	CodecGzip = "gzip"
)

// TriggerScrollTop is raised on category and pagination swaps; static/site.js
// scrolls the viewport to the top when it fires.
const TriggerScrollTop = "scrollTop"
