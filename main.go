package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/mediafront/internal/api"
	"github.com/debemdeboas/mediafront/internal/cache"
	"github.com/debemdeboas/mediafront/internal/config"
	"github.com/debemdeboas/mediafront/internal/controller"
	"github.com/debemdeboas/mediafront/internal/db"
	"github.com/debemdeboas/mediafront/internal/i18n"
	"github.com/debemdeboas/mediafront/internal/logger"
	"github.com/debemdeboas/mediafront/internal/menu"
	"github.com/debemdeboas/mediafront/internal/model"
	"github.com/debemdeboas/mediafront/internal/render"
	"github.com/debemdeboas/mediafront/internal/routes"
	"github.com/debemdeboas/mediafront/internal/session"
	"github.com/debemdeboas/mediafront/internal/sse"
	"github.com/debemdeboas/mediafront/internal/util"
)

//go:embed static/* templates/*
var content embed.FS

type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	ctrl     *controller.Controller
	renderer *render.Renderer
	sessions session.Store
	clients  *sse.SSEClients
	layout   *template.Template
}

func main() {
	level := os.Getenv("MEDIAFRONT_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	log := logger.New(level)

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	config.SetLogger(logger.Component(log, "config"))
	configPath := os.Getenv("MEDIAFRONT_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatal().Msgf(config.ErrLoadConfigFmt, err)
	}
	cfg := config.AppConfig

	log = logger.New(cfg.Logging.Level)
	setComponentLoggers(log)

	client, err := api.NewHTTPClient(cfg.API.BaseURL, cfg.API.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid API configuration")
	}

	store, err := session.New(cfg.Session)
	if err != nil {
		log.Fatal().Msgf(config.ErrInitSessionStoreFmt, err)
	}
	defer store.Close()

	a, err := newApp(cfg, client, store, log)
	if err != nil {
		log.Fatal().Msgf(config.ErrParseTemplatesFmt, err)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Str("api", cfg.API.BaseURL).Str("sessions", cfg.Session.Store).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func setComponentLoggers(log zerolog.Logger) {
	config.SetLogger(logger.Component(log, "config"))
	api.SetLogger(logger.Component(log, "api"))
	render.SetLogger(logger.Component(log, "render"))
	controller.SetLogger(logger.Component(log, "controller"))
	session.SetLogger(logger.Component(log, "session"))
	db.SetLogger(logger.Component(log, "db"))
}

func newApp(cfg *config.Config, client api.Client, store session.Store, log zerolog.Logger) (*app, error) {
	location, err := cfg.Locale.Location()
	if err != nil {
		return nil, err
	}
	loc := i18n.New(cfg.Locale.Language, location)

	renderer, err := render.New(loc, render.Options{LiveViews: cfg.Features.LiveViews.Enabled})
	if err != nil {
		return nil, err
	}

	layout, err := template.New(config.TemplateLayout).
		Funcs(template.FuncMap{"t": loc.T}).
		ParseFS(content, config.TemplatesLocalDir+"/"+config.TemplateLayout)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		ctrl:     controller.New(client, renderer, cfg.API.PostsPerPage),
		renderer: renderer,
		sessions: store,
		clients:  sse.NewSSEClients(),
		layout:   layout,
	}
	if cfg.Features.LiveViews.Enabled {
		a.ctrl.SetNotifier(a)
	}
	return a, nil
}

func (a *app) routes() http.Handler {
	// Calculate the hash of static content
	static, _ := fs.Sub(content, config.StaticLocalDir)
	fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if data, err := fs.ReadFile(static, path); err == nil {
			cache.SetStaticHash(config.StaticUrlPath+path, util.ContentHash(data))
		}
		return nil
	})

	mux := http.NewServeMux()
	handle := func(pattern, path string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, instrument(path, h))
	}
	partial := func(pattern, path string, h http.HandlerFunc) {
		handle(pattern, path, htmxOnly(h))
	}

	mux.HandleFunc("GET "+routes.RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, config.CTypeText)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow:"))
	})

	mux.Handle(config.StaticUrlPath, http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(static))))

	handle("GET "+routes.RootPath+"{$}", routes.RootPath, a.serveLayout)
	partial("GET "+routes.PartialsIndex, routes.PartialsIndex, a.servePartialIndex)
	partial("GET "+routes.PartialsHome, routes.PartialsHome, a.servePartialHome)
	partial("GET "+routes.PartialsBack, routes.PartialsBack, a.servePartialBack)
	partial("GET "+routes.PartialsCategory, routes.PartialsCategory, a.servePartialCategory)
	partial("GET "+routes.PartialsPage, routes.PartialsPage, a.servePartialPage)
	partial("GET "+routes.PartialsPost, routes.PartialsPost, a.servePartialPost)
	handle("POST "+routes.PartialsPostHit, routes.PartialsPostHit, a.servePostHit)
	partial("GET "+routes.PartialsMenu, routes.PartialsMenu, a.serveMenuToggle)

	if a.cfg.Features.LiveViews.Enabled {
		mux.HandleFunc("GET "+routes.SSEPath, a.eventsHandler)
	}
	if a.cfg.Features.Metrics.Enabled {
		mux.Handle("GET "+routes.MetricsPath, promhttp.Handler())
	}

	securedMux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == routes.RobotsPath { // Ignore robots.txt
			mux.ServeHTTP(w, r)
		} else {
			secureHeaders(mux.ServeHTTP)(w, r)
		}
	})

	handler := cacheIt(securedMux)
	if a.cfg.Server.Compress {
		return compress(handler)
	}
	return handler
}

// pageController restores the state of the page load that sent the request
// and binds it to the store. A request without a page-load id starts fresh
// and is not persisted.
func (a *app) pageController(w http.ResponseWriter, r *http.Request) *controller.PageController {
	id := session.ID(w, r, a.cfg.Session.CookieName, a.cfg.Session.TTL)

	view, ok := session.ViewID(r)
	if !ok {
		a.log.Debug().Str("session", id).Msg("Fragment request without page-load id")
		return a.ctrl.Session(id, nil, nil)
	}
	key := session.Key(id, view)

	state, err := a.sessions.Load(r.Context(), key)
	if err != nil {
		a.log.Warn().Err(err).Str("session", key).Msg("Failed to load session, starting fresh")
		state = model.NewControllerState()
	}

	return a.ctrl.Session(key, state, func(ctx context.Context, s *model.ControllerState) error {
		return a.sessions.Save(ctx, key, s)
	})
}

// writeFragment answers a navigation. A superseded navigation gets 204,
// which htmx leaves unswapped.
func (a *app) writeFragment(w http.ResponseWriter, html template.HTML, err error, triggers ...string) {
	if errors.Is(err, controller.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Navigation failed")
		html = a.renderer.Error(a.renderer.Localizer().T(i18n.MsgPageError))
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	for _, trigger := range triggers {
		w.Header().Add(config.HHxTrigger, trigger)
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func (a *app) serveLayout(w http.ResponseWriter, r *http.Request) {
	// Issue the session cookie before the first fragment request. Every
	// load gets a new page-load id, so a reload starts from a fresh state.
	session.ID(w, r, a.cfg.Session.CookieName, a.cfg.Session.TTL)

	data := struct {
		*model.PageData
		Loading template.HTML
		Menu    template.HTML
	}{
		PageData: model.NewPageData(a.cfg.Site.Name, a.cfg.Site.Description, a.renderer.Localizer().Language(), session.NewViewID()),
		Loading:  a.renderer.Loading(),
		Menu:     menu.Render(menu.State{}, a.renderer.Localizer()),
	}
	data.LiveViews = a.cfg.Features.LiveViews.Enabled

	w.Header().Set(config.HCType, config.CTypeHTML)
	if err := a.layout.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		a.log.Error().Err(err).Msg("Failed to render layout")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (a *app) servePartialIndex(w http.ResponseWriter, r *http.Request) {
	html, err := a.pageController(w, r).LoadPage(r.Context(), model.PageIndex)
	a.writeFragment(w, html, err)
}

func (a *app) servePartialHome(w http.ResponseWriter, r *http.Request) {
	html, err := a.pageController(w, r).GoHome(r.Context())
	a.writeFragment(w, html, err, config.TriggerScrollTop)
}

func (a *app) servePartialBack(w http.ResponseWriter, r *http.Request) {
	html, err := a.pageController(w, r).BackToIndex(r.Context())
	a.writeFragment(w, html, err)
}

func (a *app) servePartialCategory(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		http.Error(w, config.ErrMissingSlug, http.StatusBadRequest)
		return
	}

	html, err := a.pageController(w, r).SelectCategory(r.Context(), slug)
	a.writeFragment(w, html, err, config.TriggerScrollTop)
}

func (a *app) servePartialPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		http.Error(w, config.ErrInvalidPage, http.StatusBadRequest)
		return
	}

	html, err := a.pageController(w, r).SelectPage(r.Context(), page)
	a.writeFragment(w, html, err, config.TriggerScrollTop)
}

func (a *app) servePartialPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		http.NotFound(w, r)
		return
	}

	html, err := a.pageController(w, r).LoadPostDetail(r.Context(), slug)
	a.writeFragment(w, html, err)
}

// servePostHit returns the refreshed counter text, or 204 so the counter
// keeps showing the count it was rendered with.
func (a *app) servePostHit(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		http.NotFound(w, r)
		return
	}

	csrfToken := ""
	if c, err := r.Cookie(config.CookieCSRF); err == nil {
		csrfToken = c.Value
	}

	views, ok := a.ctrl.RecordView(r.Context(), slug, csrfToken)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(a.renderer.ViewCount(views)))
}

func (a *app) serveMenuToggle(w http.ResponseWriter, r *http.Request) {
	state := menu.Toggle(menu.ParseExpanded(r.URL.Query().Get("expanded")))

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(menu.Render(state, a.renderer.Localizer())))
}

// ViewsChanged pushes a new count to everyone reading the post.
func (a *app) ViewsChanged(slug string, views int) {
	n := a.clients.Broadcast(slug, strconv.Itoa(views))
	a.log.Debug().Str("slug", slug).Int("views", views).Int("clients", n).Msg("Broadcast view count")
}

func (a *app) eventsHandler(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("post")
	if slug == "" {
		http.Error(w, config.ErrPostRequired, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, config.ErrStreaming, http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	client := sse.NewClient(slug)
	a.clients.Add(client)

	a.log.Debug().Str("slug", slug).Msg("New SSE client connected")

	defer func() {
		a.clients.Delete(client)
		a.log.Debug().Str("slug", slug).Msg("SSE client disconnected")
	}()

	fmt.Fprintf(w, "event: connected\ndata: SSE connection established\n\n")
	flusher.Flush()

	notify := r.Context().Done()
	for {
		select {
		case msg, ok := <-client.Msg:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: views\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}
