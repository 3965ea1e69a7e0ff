// Package controller owns the per-visitor page state: it fetches from the
// API, renders the fragment for the current view and decides which
// navigation wins when several overlap.
package controller

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/debemdeboas/mediafront/internal/api"
	"github.com/debemdeboas/mediafront/internal/i18n"
	"github.com/debemdeboas/mediafront/internal/model"
	"github.com/debemdeboas/mediafront/internal/render"
)

var controllerLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	controllerLogger = l
}

// ViewNotifier is told about every view count a visitor caused.
type ViewNotifier interface {
	ViewsChanged(slug string, views int)
}

// SaveFunc persists a committed state.
type SaveFunc func(ctx context.Context, state *model.ControllerState) error

type Controller struct {
	api      api.Client
	renderer *render.Renderer
	nav      *Navigations
	pageSize int
	notifier ViewNotifier
}

func New(client api.Client, renderer *render.Renderer, pageSize int) *Controller {
	return &Controller{
		api:      client,
		renderer: renderer,
		nav:      NewNavigations(),
		pageSize: pageSize,
	}
}

func (c *Controller) SetNotifier(n ViewNotifier) {
	c.notifier = n
}

func (c *Controller) t(key string, args ...any) string {
	return c.renderer.Localizer().T(key, args...)
}

// PageController is one visitor's view of the controller. It exclusively
// owns state for the duration of a request.
type PageController struct {
	c       *Controller
	session string
	state   *model.ControllerState
	save    SaveFunc
}

// Session binds state to the visitor id. save may be nil.
func (c *Controller) Session(id string, state *model.ControllerState, save SaveFunc) *PageController {
	if state == nil {
		state = model.NewControllerState()
	}
	return &PageController{c: c, session: id, state: state, save: save}
}

// State is the last committed state.
func (p *PageController) State() *model.ControllerState {
	return p.state
}

type renderFunc func(ctx context.Context, s *model.ControllerState) (template.HTML, error)

// navigate applies mutate to a copy of the state, renders it and commits
// the copy if no newer navigation started in the meantime.
func (p *PageController) navigate(ctx context.Context, mutate func(*model.ControllerState), render renderFunc) (template.HTML, error) {
	token := p.c.nav.Begin(p.session)
	defer p.c.nav.End(p.session, token)

	next := p.state.Clone()
	mutate(next)

	html, renderErr := render(ctx, next)

	// A request the browser abandoned has nothing left to show.
	if ctx.Err() != nil {
		return "", ErrSuperseded
	}

	err := p.c.nav.Commit(p.session, token, func() error {
		p.state = next
		if p.save == nil {
			return nil
		}
		return p.save(ctx, next)
	})
	if errors.Is(err, ErrSuperseded) {
		controllerLogger.Debug().Str("session", p.session).Uint64("token", token).Msg("Navigation superseded")
		return "", ErrSuperseded
	}
	if err != nil {
		controllerLogger.Warn().Err(err).Str("session", p.session).Msg("Failed to persist session state")
	}

	return html, renderErr
}

// LoadPage switches to the named view. Failures render the error panel.
func (p *PageController) LoadPage(ctx context.Context, name model.PageName) (template.HTML, error) {
	return p.navigate(ctx, func(s *model.ControllerState) {
		s.CurrentPage = name
	}, p.renderCurrent)
}

// RenderIndex re-renders the listing for the current filters and returns
// the API error, if any, instead of a fragment.
func (p *PageController) RenderIndex(ctx context.Context) (template.HTML, error) {
	return p.navigate(ctx, func(s *model.ControllerState) {
		s.CurrentPage = model.PageIndex
	}, p.renderIndex)
}

func (p *PageController) SelectCategory(ctx context.Context, slug string) (template.HTML, error) {
	return p.navigate(ctx, func(s *model.ControllerState) {
		s.CurrentPage = model.PageIndex
		s.SelectCategory(slug)
	}, p.renderIndexOrError)
}

// SelectPage shows the given listing page. Pages past the end are clamped
// to the last page of the listing as fetched now.
func (p *PageController) SelectPage(ctx context.Context, page int) (template.HTML, error) {
	return p.navigate(ctx, func(s *model.ControllerState) {
		s.CurrentPage = model.PageIndex
		s.CurrentPostsPage = max(page, 1)
	}, p.renderIndexOrError)
}

func (p *PageController) GoHome(ctx context.Context) (template.HTML, error) {
	return p.navigate(ctx, func(s *model.ControllerState) {
		s.ResetFilters()
		s.CurrentPage = model.PageIndex
	}, p.renderIndexOrError)
}

// BackToIndex keeps the category and page the visitor left from.
func (p *PageController) BackToIndex(ctx context.Context) (template.HTML, error) {
	return p.LoadPage(ctx, model.PageIndex)
}

func (p *PageController) LoadPostDetail(ctx context.Context, slug string) (template.HTML, error) {
	return p.navigate(ctx, func(s *model.ControllerState) {
		s.CurrentPage = model.PageDetail
		s.CurrentSlug = slug
	}, p.renderDetail)
}

func (p *PageController) renderCurrent(ctx context.Context, s *model.ControllerState) (template.HTML, error) {
	switch s.CurrentPage {
	case model.PageIndex:
		return p.renderIndexOrError(ctx, s)
	case model.PageDetail:
		if s.CurrentSlug != "" {
			return p.renderDetail(ctx, s)
		}
	}

	controllerLogger.Error().Str("page", string(s.CurrentPage)).Msg("Cannot load page")
	return p.c.renderer.Error(p.c.t(i18n.MsgPageError)), nil
}

func (p *PageController) renderIndexOrError(ctx context.Context, s *model.ControllerState) (template.HTML, error) {
	html, err := p.renderIndex(ctx, s)
	if err != nil {
		controllerLogger.Error().Err(err).Str("category", s.CurrentCategory).Int("page", s.CurrentPostsPage).Msg("Failed to render index")
		return p.c.renderer.Error(p.c.t(i18n.MsgPageError)), nil
	}
	return html, nil
}

func (p *PageController) renderIndex(ctx context.Context, s *model.ControllerState) (template.HTML, error) {
	var (
		categories *model.Page[model.Category]
		featured   *model.Page[model.Post]
		posts      *model.Page[model.Post]
	)
	needCategories := s.CategoriesData == nil
	needFeatured := s.NeedsFeatured()
	category := s.CurrentCategory
	page := s.CurrentPostsPage
	fetched := page

	g, gctx := errgroup.WithContext(ctx)
	if needCategories {
		g.Go(func() error {
			var err error
			categories, err = p.c.api.FetchCategories(gctx)
			return err
		})
	}
	if needFeatured {
		g.Go(func() error {
			var err error
			featured, err = p.c.api.FetchFeaturedPost(gctx, category)
			return err
		})
	}
	g.Go(func() error {
		var err error
		posts, err = p.c.api.FetchPosts(gctx, category, fetched)
		if fetched > 1 && isNotFound(err) {
			// Past the last page. Page 1 carries the count to clamp against.
			fetched = 1
			posts, err = p.c.api.FetchPosts(gctx, category, fetched)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	s.TotalPages = model.TotalPages(posts.Count, p.c.pageSize)
	if want := s.ClampPage(page); want != fetched {
		var err error
		if posts, err = p.c.api.FetchPosts(ctx, category, want); err != nil {
			return "", err
		}
		s.TotalPages = model.TotalPages(posts.Count, p.c.pageSize)
		fetched = want
	}
	s.CurrentPostsPage = fetched

	if needCategories {
		s.CategoriesData = categories
	}
	if needFeatured {
		s.FeaturedPost = featured.First()
		s.FeaturedCategory = category
	}
	s.PostsData = posts

	return p.c.renderer.Index(render.IndexView{
		Featured: s.FeaturedPost,
		Filters: render.FiltersView{
			Categories: s.CategoriesData.Items(),
			Current:    s.CurrentCategory,
		},
		Posts:      posts.Items(),
		Pagination: render.NewPaginationView(s.CurrentPostsPage, s.TotalPages),
	})
}

func (p *PageController) renderDetail(ctx context.Context, s *model.ControllerState) (template.HTML, error) {
	post, err := p.c.api.FetchPost(ctx, s.CurrentSlug)
	if err == nil {
		var html template.HTML
		if html, err = p.c.renderer.PostDetail(post); err == nil {
			return html, nil
		}
	}

	controllerLogger.Error().Err(err).Str("slug", s.CurrentSlug).Msg("Failed to load post")
	return p.c.renderer.Error(p.c.t(i18n.MsgPostError, p.c.reason(err))), nil
}

// reason is the part of err a visitor may see. Only the upstream status is
// shown; transport and payload errors carry internal addresses.
func (c *Controller) reason(err error) string {
	var status *api.StatusError
	if errors.As(err, &status) {
		return status.Error()
	}
	return c.t(i18n.MsgUnavailable)
}

func isNotFound(err error) bool {
	var status *api.StatusError
	return errors.As(err, &status) && status.StatusCode == http.StatusNotFound
}

// RecordView registers a view and returns the refreshed count. It is best
// effort: on failure ok is false and the counter keeps its current value.
func (c *Controller) RecordView(ctx context.Context, slug, csrfToken string) (views int, ok bool) {
	hit, err := c.api.IncrementPostViews(ctx, slug, csrfToken)
	if err != nil {
		controllerLogger.Warn().Err(err).Str("slug", slug).Msg("Failed to increment post views")
		return 0, false
	}

	views = hit.Views
	if post, err := c.api.FetchPost(ctx, slug); err != nil {
		controllerLogger.Warn().Err(err).Str("slug", slug).Msg("Failed to refresh post views")
	} else {
		views = post.Views
	}

	if c.notifier != nil {
		c.notifier.ViewsChanged(slug, views)
	}
	return views, true
}

func (p *PageController) RecordView(ctx context.Context, slug, csrfToken string) (int, bool) {
	return p.c.RecordView(ctx, slug, csrfToken)
}
