// Package handler contains the HTTP handlers that render the client's views.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Or more commonly, we use http.HandlerFunc, a function with the right signature
// that automatically satisfies the Handler interface. Chi's router accepts these directly.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (query params, form fields)
// 2. Call the service layer or the view's state machines
// 3. Render a page, or redirect after a successful POST
//
// Handlers never decide business rules. A failed operation is shown inline on
// the same page it came from (see messageFor in response.go).
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/mentorlink/internal/model"
)

// Page names. Each one is a file in web/templates.
const (
	pageLogin     = "login"
	pageRegister  = "register"
	pageUser      = "user"
	pageReview    = "review"
	pageAdmin     = "admin"
	pageAdminUser = "admin_user"
)

var pageNames = []string{pageLogin, pageRegister, pageUser, pageReview, pageAdmin, pageAdminUser}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

// Renderer holds parsed templates so we don't re-parse them on every request.
//
// TEMPLATE COMPOSITION:
// base.html defines the overall page with a {{template "content" .}}
// placeholder and every page file defines its own "content". Two pages can't
// share one template set (the second "content" would replace the first),
// so each page gets its own set: base.html + <page>.html.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses every page from fsys (normally web.Templates).
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys,
			"templates/base.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// layout is what base.html reads. Every page's data embeds it.
type layout struct {
	Title   string
	Session model.SessionRecord
	// Error is the inline failure message, Notice the inline success message.
	Error  string
	Notice string
}

// render executes page into a buffer first, so a template error still
// produces a clean 500 instead of half a page.
func (rd *Renderer) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
