// Package menu renders the mobile navigation toggle. It is stateless: the
// button carries its current state in the toggle URL.
package menu

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/debemdeboas/mediafront/internal/i18n"
)

type State struct {
	Expanded bool
}

// Toggle flips the state the button reported.
func Toggle(expanded bool) State {
	return State{Expanded: !expanded}
}

// ParseExpanded reads the expanded query value; anything but "true" is collapsed.
func ParseExpanded(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

var menuTemplate = template.Must(template.New("menu").Parse(`<div id="site-menu" class="site-menu">
    <button id="menu-toggle" class="menu-toggle" type="button" aria-controls="site-nav" aria-expanded="{{.Expanded}}" hx-get="/partials/menu/toggle?expanded={{.Expanded}}" hx-target="#site-menu" hx-swap="outerHTML">{{.Label}}</button>
    <nav id="site-nav" class="site-nav{{if .Expanded}} open{{end}}">
        <a href="/" class="nav-link" hx-get="/partials/home" hx-target="#app" hx-sync="#app:replace">{{.Home}}</a>
    </nav>
</div>`))

type view struct {
	Expanded bool
	Label    string
	Home     string
}

func Render(s State, loc *i18n.Localizer) template.HTML {
	var buf bytes.Buffer
	// The template only interpolates escaped strings and a bool, so it cannot fail.
	_ = menuTemplate.Execute(&buf, view{
		Expanded: s.Expanded,
		Label:    loc.T(i18n.MsgMenu),
		Home:     loc.T(i18n.MsgHome),
	})
	return template.HTML(buf.String())
}
