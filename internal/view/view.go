// Package view renders the server-side HTML pages from embedded
// templates.
package view

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/ShubhamMishra2526/Travease-App/internal/middleware"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer renders HTML pages. Every page receives the logged-in user
// (when any) so the header can reflect the session.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes one page. data is merged with the page title and the
// session user.
func (r *Renderer) Render(c *gin.Context, status int, page, title string, data gin.H) {
	payload := gin.H{"title": title}
	if user, ok := middleware.CurrentUser(c); ok {
		payload["user"] = user
	}
	for k, v := range data {
		payload[k] = v
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := r.tmpl.ExecuteTemplate(c.Writer, page, payload); err != nil {
		_ = c.Error(err)
	}
}

// ErrorPage renders the error page; it satisfies the error middleware's
// page hook.
func (r *Renderer) ErrorPage(c *gin.Context, status int, message string) {
	r.Render(c, status, "error", "Something went wrong!", gin.H{"message": message})
}
