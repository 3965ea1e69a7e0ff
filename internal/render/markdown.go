package render

import (
	"html/template"

	"github.com/gomarkdown/markdown"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/debemdeboas/mediafront/internal/cache"
	"github.com/debemdeboas/mediafront/internal/model"
	"github.com/debemdeboas/mediafront/internal/util"
)

var markdownCache = cache.NewCache[string, template.HTML]()

// PostBody returns the trusted server-rendered body. Posts served without
// one fall back to rendering their markdown source, the way the API itself
// derives body_html.
func PostBody(post *model.Post) template.HTML {
	if body := post.HTMLBody(); body != "" {
		return template.HTML(body)
	}
	if post.Body == "" {
		return ""
	}
	return RenderMarkdownCached(post.Body)
}

func RenderMarkdownCached(md string) template.HTML {
	key := util.ContentHashString(md)
	if html, ok := markdownCache.Get(key); ok {
		renderLogger.Debug().Str("contentHash", key).Msg("Cache hit for rendered markdown")
		return html
	}

	html := RenderMarkdown([]byte(md))
	markdownCache.Set(key, html)
	return html
}

func RenderMarkdown(md []byte) template.HTML {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions(
		parser.CommonExtensions | parser.AutoHeadingIDs | parser.Footnotes | parser.NoEmptyLineBeforeBlock,
	)
	renderer := md_html.NewRenderer(md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
	})

	return template.HTML(markdown.ToHTML(md, p, renderer))
}
