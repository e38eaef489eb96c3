package ui

import (
	"embed"
	"html/template"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"pantrychef/internal/log"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses the page templates.
func Templates() *template.Template {
	funcs := template.FuncMap{
		"join": strings.Join,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))
}

// NewRouter wires the handler into a gin engine.
func NewRouter(h *Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), log.Middleware(logger))
	r.SetHTMLTemplate(Templates())

	r.GET("/healthz", h.Healthz)

	pages := r.Group("/", h.LoadSession)
	pages.GET("/", h.Index)
	pages.POST("/ingredients", h.AddIngredient)
	pages.POST("/ingredients/quick", h.QuickPick)
	pages.POST("/ingredients/remove", h.RemoveIngredient)
	pages.POST("/photo", h.UploadPhoto)
	pages.POST("/preferences", h.SetPreference)
	pages.POST("/servings/increment", h.IncrementServings)
	pages.POST("/servings/decrement", h.DecrementServings)
	pages.POST("/cuisine", h.SetCuisine)
	pages.POST("/search", h.Search)
	pages.POST("/back", h.Back)
	pages.POST("/filters", h.Filters)
	pages.POST("/recipes/:id/select", h.Select)
	pages.POST("/close", h.Close)

	return r
}
