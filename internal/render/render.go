// Package render produces the HTML fragments swapped into the app container.
//
// Every helper is a pure function of its arguments. Post bodies are the one
// trust boundary: rendered_body comes from the API, which sanitizes it, and is
// inserted unescaped. All other fields go through html/template escaping.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/mediafront/internal/i18n"
	"github.com/debemdeboas/mediafront/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

type Options struct {
	// LiveViews subscribes the detail page to view count broadcasts.
	LiveViews bool
}

type Renderer struct {
	tmpl *template.Template
	loc  *i18n.Localizer
	opts Options
}

func New(loc *i18n.Localizer, opts Options) (*Renderer, error) {
	funcs := template.FuncMap{
		"t":           loc.T,
		"date":        func(t time.Time) string { return loc.DateTime(t) },
		"pathEscape":  url.PathEscape,
		"queryEscape": url.QueryEscape,
	}

	tmpl, err := template.New("fragments").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing fragment templates: %w", err)
	}

	return &Renderer{tmpl: tmpl, loc: loc, opts: opts}, nil
}

// Localizer exposes the translator used by the fragments.
func (r *Renderer) Localizer() *i18n.Localizer {
	return r.loc
}

func (r *Renderer) exec(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return template.HTML(bytes.TrimSpace(buf.Bytes())), nil
}

type FiltersView struct {
	Categories []model.Category
	Current    string
}

type PaginationView struct {
	Current int
	Total   int
	HasPrev bool
	HasNext bool
	Prev    int
	Next    int
}

func NewPaginationView(current, total int) PaginationView {
	return PaginationView{
		Current: current,
		Total:   total,
		HasPrev: current > 1,
		HasNext: current < total,
		Prev:    current - 1,
		Next:    current + 1,
	}
}

type IndexView struct {
	Featured   *model.Post
	Filters    FiltersView
	Posts      []model.Post
	Pagination PaginationView
}

type detailView struct {
	Post      *model.Post
	Body      template.HTML
	LiveViews bool
}

func (r *Renderer) FeaturedPost(post *model.Post) (template.HTML, error) {
	return r.exec("featured", post)
}

func (r *Renderer) PostCard(post model.Post) (template.HTML, error) {
	return r.exec("card", post)
}

// PostGrid renders one card per post, or a single empty-state message.
func (r *Renderer) PostGrid(posts []model.Post) (template.HTML, error) {
	return r.exec("grid", posts)
}

// CategoryFilters renders nothing for an empty category list.
func (r *Renderer) CategoryFilters(categories []model.Category, current string) (template.HTML, error) {
	return r.exec("filters", FiltersView{Categories: categories, Current: current})
}

// Pagination renders nothing when there is at most one page.
func (r *Renderer) Pagination(current, total int) (template.HTML, error) {
	return r.exec("pagination", NewPaginationView(current, total))
}

func (r *Renderer) PostTags(tags []model.Tag) (template.HTML, error) {
	return r.exec("tags", tags)
}

func (r *Renderer) Index(view IndexView) (template.HTML, error) {
	if view.Posts == nil {
		view.Posts = []model.Post{}
	}
	return r.exec("index", view)
}

func (r *Renderer) PostDetail(post *model.Post) (template.HTML, error) {
	return r.exec("detail", detailView{
		Post:      post,
		Body:      PostBody(post),
		LiveViews: r.opts.LiveViews,
	})
}

// ViewCount is the text swapped into the #post-views counter.
func (r *Renderer) ViewCount(views int) template.HTML {
	return template.HTML(fmt.Sprintf("%d", views))
}

func (r *Renderer) Loading() template.HTML {
	html, err := r.exec("loading", nil)
	if err != nil {
		renderLogger.Error().Err(err).Msg("Failed to render loading placeholder")
	}
	return html
}

// Error renders the reload panel. It never fails: a broken template
// degrades to the escaped message alone.
func (r *Renderer) Error(message string) template.HTML {
	html, err := r.exec("error", message)
	if err != nil {
		renderLogger.Error().Err(err).Msg("Failed to render error panel")
		return template.HTML(`<div class="error"><p>` + template.HTMLEscapeString(message) + `</p></div>`)
	}
	return html
}
