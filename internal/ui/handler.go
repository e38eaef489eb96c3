// Package ui is the server-rendered front end: a session per browser holding
// the search inputs, the page state machine and the fetched recipes.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pantrychef/internal/chefclient"
	"pantrychef/internal/log"
	"pantrychef/internal/pantry"
	"pantrychef/internal/recipe"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "pantrychef_session"

const sessionKey = "session"

// Handler serves the pages and form posts of the front end.
type Handler struct {
	Sessions   *Sessions
	Recipes    Fetcher
	Recognizer Recognizer
	Logger     *slog.Logger

	// Timeout bounds each call to the recipe service. Zero sets no deadline
	// and leaves the transport's own limits in charge.
	Timeout time.Duration

	// Go runs background fetches. It defaults to starting a goroutine.
	Go func(func())
}

// NewHandler creates a new Handler.
func NewHandler(sessions *Sessions, recipes Fetcher, recognizer Recognizer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = log.NullLogger()
	}
	return &Handler{
		Sessions:   sessions,
		Recipes:    recipes,
		Recognizer: recognizer,
		Logger:     logger,
		Go:         func(f func()) { go f() },
	}
}

// LoadSession attaches the caller's session to the request, issuing a new
// cookie when the caller has none or its session expired.
func (h *Handler) LoadSession(c *gin.Context) {
	id, _ := c.Cookie(SessionCookie)
	s, created := h.Sessions.Get(id)
	if created {
		maxAge := 0
		if h.Sessions.ttl > 0 {
			maxAge = int(h.Sessions.ttl / time.Second)
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, s.ID, maxAge, "/", "", false, true)
	}
	c.Request = c.Request.WithContext(log.AppendCtx(c.Request.Context(), slog.String("session_id", s.ID)))
	c.Set(sessionKey, s)
	c.Next()
}

func session(c *gin.Context) *Session {
	return c.MustGet(sessionKey).(*Session)
}

func home(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

// Index renders the current screen. Showing the recipes screen for a query
// that has not been fetched yet starts the fetch.
func (h *Handler) Index(c *gin.Context) {
	s := session(c)
	h.startFetch(c, s)

	v := s.View()
	switch v.Screen {
	case ScreenRecipes:
		c.HTML(http.StatusOK, "recipes.html", v)
	default:
		c.HTML(http.StatusOK, "home.html", v)
	}
}

func (h *Handler) startFetch(c *gin.Context, s *Session) {
	ctx, cancel := h.callContext(context.WithoutCancel(c.Request.Context()))
	job := s.StartFetch(ctx, h.Recipes, h.Logger)
	if job == nil {
		cancel()
		return
	}
	h.Logger.InfoContext(ctx, "fetching recipes")
	h.Go(func() {
		defer cancel()
		job()
	})
}

func (h *Handler) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.Timeout)
}

func (h *Handler) AddIngredient(c *gin.Context) {
	session(c).AddIngredient(c.PostForm("ingredient"))
	home(c)
}

func (h *Handler) QuickPick(c *gin.Context) {
	session(c).AddIngredient(c.PostForm("ingredient"))
	home(c)
}

func (h *Handler) RemoveIngredient(c *gin.Context) {
	session(c).RemoveIngredient(c.PostForm("ingredient"))
	home(c)
}

// SetPreference applies the value posted in "on". Without one the flag is
// toggled.
func (h *Handler) SetPreference(c *gin.Context) {
	name := c.PostForm("preference")
	on, err := strconv.ParseBool(c.PostForm("on"))
	if err != nil {
		session(c).TogglePreference(name)
	} else {
		session(c).SetPreference(name, on)
	}
	home(c)
}

func (h *Handler) IncrementServings(c *gin.Context) {
	session(c).IncrementServings()
	home(c)
}

func (h *Handler) DecrementServings(c *gin.Context) {
	session(c).DecrementServings()
	home(c)
}

func (h *Handler) SetCuisine(c *gin.Context) {
	session(c).SetCuisine(c.PostForm("cuisine"))
	home(c)
}

// UploadPhoto sends the uploaded photo for recognition and merges the
// recognized ingredients into the session.
func (h *Handler) UploadPhoto(c *gin.Context) {
	s := session(c)

	file, err := c.FormFile("photo")
	if err != nil {
		h.Logger.WarnContext(c.Request.Context(), "photo upload without a file", slog.Any("error", err))
		home(c)
		return
	}

	if err := s.BeginRecognition(file.Filename); err != nil {
		home(c)
		return
	}

	names, err := h.recognize(c.Request.Context(), file.Open)
	if err != nil {
		h.Logger.WarnContext(c.Request.Context(), "ingredient recognition failed", slog.Any("error", err))
	} else {
		h.Logger.InfoContext(c.Request.Context(), "ingredients recognized", slog.Int("count", len(names)))
	}
	s.FinishRecognition(names, err)
	home(c)
}

func (h *Handler) recognize(ctx context.Context, open func() (multipart.File, error)) ([]string, error) {
	src, err := open()
	if err != nil {
		return nil, &chefclient.RecognitionError{Message: "Could not read the selected photo.", Err: err}
	}
	defer src.Close()

	dataURL, err := chefclient.EncodeImage(src)
	if err != nil {
		return nil, &chefclient.RecognitionError{Message: uploadMessage(err), Err: err}
	}

	ctx, cancel := h.callContext(ctx)
	defer cancel()
	return h.Recognizer.RecognizeIngredients(ctx, dataURL)
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, chefclient.ErrNotAnImage):
		return "The selected file is not an image."
	case errors.Is(err, chefclient.ErrImageTooLarge):
		return "The selected image is too large."
	}
	return "Could not read the selected photo."
}

// Search freezes the inputs into a query and shows the recipes screen.
func (h *Handler) Search(c *gin.Context) {
	q, err := session(c).Submit()
	if err != nil {
		if !errors.Is(err, pantry.ErrNoIngredients) && !errors.Is(err, ErrNotOnHome) {
			h.Logger.ErrorContext(c.Request.Context(), "search failed", slog.Any("error", err))
		}
		home(c)
		return
	}
	h.Logger.InfoContext(c.Request.Context(), "search submitted",
		slog.Any("ingredients", q.Ingredients),
		slog.Any("dietary", q.Dietary),
		slog.Int("servings", q.Servings),
		slog.String("cuisine", q.Cuisine),
	)
	home(c)
}

func (h *Handler) Back(c *gin.Context) {
	session(c).Back()
	home(c)
}

// Filters replaces the difficulty set and time limit of the recipes screen.
func (h *Handler) Filters(c *gin.Context) {
	maxTime, err := strconv.Atoi(c.PostForm("max_time"))
	if err != nil {
		maxTime = recipe.DefaultMaxCookingTime
	}
	session(c).SetCriteria(c.PostFormArray("difficulty"), maxTime)
	home(c)
}

// Select opens the detail overlay for a recipe of the current batch.
func (h *Handler) Select(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.renderError(c, http.StatusBadRequest, "Invalid recipe id.")
		return
	}

	switch err := session(c).Select(id); {
	case errors.Is(err, ErrUnknownRecipe):
		h.renderError(c, http.StatusNotFound, "Recipe not found.")
		return
	case errors.Is(err, ErrNotOnRecipes):
		home(c)
		return
	case err != nil:
		h.renderError(c, http.StatusInternalServerError, err.Error())
		return
	}
	home(c)
}

func (h *Handler) Close(c *gin.Context) {
	session(c).CloseDetail()
	home(c)
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.Sessions.Len()})
}

func (h *Handler) renderError(c *gin.Context, status int, message string) {
	h.Logger.WarnContext(c.Request.Context(), "request failed",
		slog.Int("status", status), slog.String("message", message))
	c.HTML(status, "error.html", gin.H{
		"Status":     status,
		"StatusText": http.StatusText(status),
		"Message":    message,
	})
}
