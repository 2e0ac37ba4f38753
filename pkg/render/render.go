// Package render produces the HTML console page from a view state.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/sabio/subsurface-console/pkg/view"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

// DefaultTitle is shown in the app bar and the document title
const DefaultTitle = "Subsurface Data Management Platform"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/app.css
var stylesheetSource []byte

var (
	tmpl       *template.Template
	stylesheet template.CSS
	once       sync.Once
	initErr    error
)

// PageData is everything the page template needs
type PageData struct {
	Title  string
	PageID string
	State  view.State

	// Form targets for the query and refresh actions
	QueryAction   string
	RefreshAction string

	// AutoRefreshSeconds reloads the page while a query is loading.
	// Zero disables it.
	AutoRefreshSeconds int
}

type pageContext struct {
	PageData
	Stylesheet template.CSS
}

func initTemplates() error {
	once.Do(func() {
		m := minify.New()
		m.AddFunc("text/css", css.Minify)

		out, err := m.Bytes("text/css", stylesheetSource)
		if err != nil {
			// An unminified stylesheet still renders
			out = stylesheetSource
		}
		stylesheet = template.CSS(out)

		tmpl, err = template.New("root").ParseFS(templateFS, "templates/*.html")
		if err != nil {
			initErr = fmt.Errorf("failed to parse templates: %w", err)
		}
	})
	return initErr
}

// Stylesheet returns the minified page stylesheet
func Stylesheet() (string, error) {
	if err := initTemplates(); err != nil {
		return "", err
	}
	return string(stylesheet), nil
}

// Page writes the console page for data to w
func Page(w io.Writer, data PageData) error {
	if err := initTemplates(); err != nil {
		return err
	}
	if data.Title == "" {
		data.Title = DefaultTitle
	}

	if err := tmpl.ExecuteTemplate(w, "page", pageContext{PageData: data, Stylesheet: stylesheet}); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}
