// Package i18n holds the user-facing strings of the frontend and formats dates per locale.
package i18n

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	MsgLoading     = "loading"
	MsgPageError   = "error.page"
	MsgPostError   = "error.post"
	MsgUnavailable = "error.unavailable"
	MsgInitError   = "error.init"
	MsgReload      = "reload"
	MsgNoPosts     = "posts.empty"
	MsgAll         = "filter.all"
	MsgPrev        = "pagination.prev"
	MsgNext        = "pagination.next"
	MsgPageInfo    = "pagination.info"
	MsgViews       = "post.views"
	MsgBack        = "post.back"
	MsgMenu        = "menu"
	MsgHome        = "home"
)

var supported = []language.Tag{language.Russian, language.English}

var messages = map[language.Tag]map[string]string{
	language.Russian: {
		MsgLoading:     "Загрузка...",
		MsgPageError:   "Ошибка загрузки страницы",
		MsgPostError:   "Ошибка загрузки статьи: %s",
		MsgUnavailable: "сервис недоступен",
		MsgInitError:   "Ошибка инициализации приложения",
		MsgReload:      "Перезагрузить",
		MsgNoPosts:     "Публикаций не найдено",
		MsgAll:         "Все",
		MsgPrev:        "← Предыдущая",
		MsgNext:        "Следующая →",
		MsgPageInfo:    "Страница %d из %d",
		MsgViews:       "просмотров",
		MsgBack:        "← Назад",
		MsgMenu:        "Меню",
		MsgHome:        "Главная",
	},
	language.English: {
		MsgLoading:     "Loading...",
		MsgPageError:   "Failed to load the page",
		MsgPostError:   "Failed to load the article: %s",
		MsgUnavailable: "service unavailable",
		MsgInitError:   "Failed to initialize the application",
		MsgReload:      "Reload",
		MsgNoPosts:     "No posts found",
		MsgAll:         "All",
		MsgPrev:        "← Previous",
		MsgNext:        "Next →",
		MsgPageInfo:    "Page %d of %d",
		MsgViews:       "views",
		MsgBack:        "← Back",
		MsgMenu:        "Menu",
		MsgHome:        "Home",
	},
}

var dateLayouts = map[language.Tag]string{
	language.Russian: "02.01.2006, 15:04:05",
	language.English: "1/2/2006, 3:04:05 PM",
}

var cat = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.Russian))
	for tag, msgs := range messages {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Localizer translates message keys and formats timestamps for one language.
type Localizer struct {
	tag      language.Tag
	printer  *message.Printer
	location *time.Location
}

// New picks the closest supported language for lang; unknown values fall back to Russian.
func New(lang string, loc *time.Location) *Localizer {
	tag := Match(lang)
	if loc == nil {
		loc = time.Local
	}
	return &Localizer{
		tag:      tag,
		printer:  message.NewPrinter(tag, message.Catalog(cat)),
		location: loc,
	}
}

// Match maps an arbitrary language string onto a supported tag.
func Match(lang string) language.Tag {
	requested, err := language.Parse(lang)
	if err != nil {
		return supported[0]
	}
	_, index, confidence := language.NewMatcher(supported).Match(requested)
	if confidence == language.No {
		return supported[0]
	}
	return supported[index]
}

func (l *Localizer) Language() string {
	return l.tag.String()
}

func (l *Localizer) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// DateTime renders t in the configured zone the way the browser locale would.
func (l *Localizer) DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(l.location).Format(dateLayouts[l.tag])
}
