// Package routes defines HTTP route constants for the application.
package routes

// Pages and assets
const (
	RootPath    = "/"
	RobotsPath  = "/robots.txt"
	MetricsPath = "/metrics"
)

// Fragments swapped into the app container
const (
	PartialsIndex    = "/partials/index"
	PartialsHome     = "/partials/home"
	PartialsBack     = "/partials/back"
	PartialsCategory = "/partials/category/{slug}"
	PartialsPage     = "/partials/page/{page}"
	PartialsPost     = "/partials/post/{slug}"
	PartialsPostHit  = "/partials/post/{slug}/hit"
	PartialsMenu     = "/partials/menu/toggle"
)

// SSE
const SSEPath = "/sse"
