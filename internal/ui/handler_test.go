package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrychef/internal/chefclient"
	"pantrychef/internal/log"
	"pantrychef/internal/recipe"
)

// mockRecipeService is a mock of the recipe service client.
type mockRecipeService struct {
	recipes       []recipe.Recipe
	returnError   error
	receivedQuery recipe.Query
	calls         int
	receivedImage string
	ingredients   []string
	recognizeErr  error

	fetchHasDeadline     bool
	fetchDeadline        time.Time
	recognizeHasDeadline bool
}

// GenerateRecipes mocks the GenerateRecipes method.
func (m *mockRecipeService) GenerateRecipes(ctx context.Context, q recipe.Query) ([]recipe.Recipe, error) {
	m.calls++
	m.receivedQuery = q
	m.fetchDeadline, m.fetchHasDeadline = ctx.Deadline()
	if m.returnError != nil {
		return nil, m.returnError
	}
	return m.recipes, nil
}

// RecognizeIngredients mocks the RecognizeIngredients method.
func (m *mockRecipeService) RecognizeIngredients(ctx context.Context, dataURL string) ([]string, error) {
	m.receivedImage = dataURL
	_, m.recognizeHasDeadline = ctx.Deadline()
	if m.recognizeErr != nil {
		return nil, m.recognizeErr
	}
	return m.ingredients, nil
}

// browser replays the session cookie across requests.
type browser struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newBrowser(t *testing.T, svc *mockRecipeService) (*browser, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewSessions(0), svc, svc, log.NullLogger())
	// Run fetches inline so every page load sees the completed fetch.
	h.Go = func(f func()) { f() }
	return &browser{t: t, router: NewRouter(h, log.NullLogger())}, h
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rr := httptest.NewRecorder()
	b.router.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookie {
			b.cookie = c
		}
	}
	return rr
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := b.do(req)
	assert.Equal(b.t, http.StatusSeeOther, rr.Code, "POST %s", path)
	assert.Equal(b.t, "/", rr.Header().Get("Location"))
	return rr
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) session(h *Handler) *Session {
	b.t.Helper()
	require.NotNil(b.t, b.cookie)
	s, created := h.Sessions.Get(b.cookie.Value)
	require.False(b.t, created)
	return s
}

func TestHome_RendersInputs(t *testing.T) {
	b, _ := newBrowser(t, &mockRecipeService{})

	rr := b.get("/")

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, b.cookie)
	assert.Equal(t, SessionCookie, b.cookie.Name)
	body := rr.Body.String()
	assert.Contains(t, body, "No ingredients yet.")
	assert.Contains(t, body, `action="/ingredients/quick"`)
	assert.Contains(t, body, "Find recipes")
}

func TestHome_EditInputs(t *testing.T) {
	b, h := newBrowser(t, &mockRecipeService{})
	b.get("/")

	b.post("/ingredients", url.Values{"ingredient": {"  Chicken "}})
	b.post("/ingredients/quick", url.Values{"ingredient": {"rice"}})
	b.post("/ingredients/quick", url.Values{"ingredient": {"rice"}})
	b.post("/ingredients", url.Values{"ingredient": {"garlic"}})
	b.post("/ingredients/remove", url.Values{"ingredient": {"garlic"}})
	b.post("/preferences", url.Values{"preference": {"vegan"}})
	b.post("/servings/decrement", nil)
	b.post("/servings/decrement", nil)
	b.post("/servings/increment", nil)
	b.post("/cuisine", url.Values{"cuisine": {"mexican"}})

	v := b.session(h).View()
	assert.Equal(t, []string{"chicken", "rice"}, v.Ingredients)
	assert.Equal(t, 2, v.Servings)
	assert.Equal(t, "Mexican", v.Cuisine)
	assert.True(t, v.Preferences[1].On)

	body := b.get("/").Body.String()
	assert.Contains(t, body, "chicken")
	assert.Contains(t, body, `<option value="Mexican" selected>`)
}

func TestHome_PreferenceValueAndQuickPicks(t *testing.T) {
	b, h := newBrowser(t, &mockRecipeService{})
	b.get("/")

	b.post("/preferences", url.Values{"preference": {"vegetarian"}, "on": {"true"}})
	b.post("/preferences", url.Values{"preference": {"vegetarian"}, "on": {"true"}})
	b.post("/ingredients/quick", url.Values{"ingredient": {"eggs"}})

	v := b.session(h).View()
	assert.True(t, v.Preferences[0].On, "posting the same value twice keeps it on")
	for _, p := range v.QuickPicks {
		assert.Equal(t, p.Name == "eggs", p.Added, p.Name)
	}

	body := b.get("/").Body.String()
	assert.Contains(t, body, `<button type="submit" disabled>eggs</button>`)
	assert.Contains(t, body, `<input type="hidden" name="on" value="false">`)

	b.post("/preferences", url.Values{"preference": {"vegetarian"}, "on": {"false"}})
	assert.False(t, b.session(h).View().Preferences[0].On)
}

func TestSearch_FetchesAndFilters(t *testing.T) {
	svc := &mockRecipeService{recipes: []recipe.Recipe{
		{ID: 0, Title: "Fried Rice", Ingredients: []string{"rice"}, CookingTime: 20, Difficulty: recipe.Easy},
		{ID: 1, Title: "Paella", Ingredients: []string{"rice"}, CookingTime: 75, Difficulty: recipe.Hard},
	}}
	b, _ := newBrowser(t, svc)
	b.get("/")

	b.post("/search", nil)
	assert.Equal(t, 0, svc.calls, "no ingredients, no search")

	b.post("/ingredients", url.Values{"ingredient": {"rice"}})
	b.post("/search", nil)

	body := b.get("/").Body.String()
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, []string{"rice"}, svc.receivedQuery.Ingredients)
	assert.Equal(t, []string{}, svc.receivedQuery.Dietary)
	assert.Contains(t, body, "Fried Rice")
	assert.Contains(t, body, "Paella")
	assert.Contains(t, body, "Showing 2 of 2")

	b.get("/")
	assert.Equal(t, 1, svc.calls, "same query is not fetched again")

	b.post("/filters", url.Values{"difficulty": {"Easy"}, "max_time": {"60"}})
	body = b.get("/").Body.String()
	assert.Contains(t, body, "Fried Rice")
	assert.NotContains(t, body, "Paella")
	assert.Contains(t, body, "Showing 1 of 2")
}

func TestServiceCalls_NoDeadlineWithoutTimeout(t *testing.T) {
	svc := &mockRecipeService{
		recipes:     []recipe.Recipe{{ID: 0, Title: "Omelette", Ingredients: []string{"eggs"}, CookingTime: 10, Difficulty: recipe.Easy}},
		ingredients: []string{"eggs"},
	}
	b, h := newBrowser(t, svc)
	require.Zero(t, h.Timeout)
	b.get("/")

	b.do(photoRequest(t, "fridge.png", pngBytes(t)))
	b.post("/search", nil)
	b.get("/")

	require.Equal(t, 1, svc.calls)
	assert.False(t, svc.fetchHasDeadline, "fetch context must not carry a deadline")
	assert.False(t, svc.recognizeHasDeadline, "recognition context must not carry a deadline")
}

func TestServiceCalls_UseConfiguredTimeout(t *testing.T) {
	svc := &mockRecipeService{recipes: []recipe.Recipe{}}
	b, h := newBrowser(t, svc)
	h.Timeout = 3 * time.Minute
	b.get("/")

	b.post("/ingredients", url.Values{"ingredient": {"eggs"}})
	b.post("/search", nil)
	start := time.Now()
	b.get("/")

	require.Equal(t, 1, svc.calls)
	require.True(t, svc.fetchHasDeadline)
	assert.WithinDuration(t, start.Add(3*time.Minute), svc.fetchDeadline, 5*time.Second)
}

func TestSearch_ErrorPanel(t *testing.T) {
	svc := &mockRecipeService{returnError: &chefclient.FetchError{Message: "Failed to generate recipes.", Status: 500}}
	b, _ := newBrowser(t, svc)
	b.get("/")
	b.post("/ingredients", url.Values{"ingredient": {"rice"}})
	b.post("/search", nil)

	body := b.get("/").Body.String()
	assert.Contains(t, body, "Something went wrong")
	assert.Contains(t, body, "Failed to generate recipes.")
}

func TestSearch_LoadingPanelRefreshes(t *testing.T) {
	svc := &mockRecipeService{}
	b, h := newBrowser(t, svc)
	var pending []func()
	h.Go = func(f func()) { pending = append(pending, f) }

	b.get("/")
	b.post("/ingredients", url.Values{"ingredient": {"rice"}})
	b.post("/search", nil)

	body := b.get("/").Body.String()
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.Contains(t, body, "Cooking up some recipes")
	require.Len(t, pending, 1)
}

func TestBack_KeepsIngredients(t *testing.T) {
	svc := &mockRecipeService{recipes: []recipe.Recipe{{ID: 0, Title: "Congee", Ingredients: []string{"rice"}, CookingTime: 60, Difficulty: recipe.Easy}}}
	b, h := newBrowser(t, svc)
	b.get("/")
	b.post("/ingredients", url.Values{"ingredient": {"rice"}})
	b.post("/search", nil)
	b.get("/")

	b.post("/back", nil)

	v := b.session(h).View()
	assert.Equal(t, ScreenHome, v.Screen)
	assert.Equal(t, []string{"rice"}, v.Ingredients)
	assert.Empty(t, v.Recipes)

	b.post("/search", nil)
	b.get("/")
	assert.Equal(t, 2, svc.calls, "a new search after going back fetches again")
}

func TestSelect_OpensAndClosesOverlay(t *testing.T) {
	svc := &mockRecipeService{recipes: []recipe.Recipe{{
		ID: 0, Title: "Risotto", Ingredients: []string{"rice", "stock"}, CookingTime: 40,
		Difficulty: recipe.Medium, Instructions: []string{"Toast the rice", "Add stock slowly"},
	}}}
	b, _ := newBrowser(t, svc)
	b.get("/")
	b.post("/ingredients", url.Values{"ingredient": {"rice"}})
	b.post("/search", nil)
	b.get("/")

	b.post("/recipes/0/select", nil)
	body := b.get("/").Body.String()
	assert.Contains(t, body, `class="overlay"`)
	assert.Contains(t, body, "Add stock slowly")

	b.post("/close", nil)
	assert.NotContains(t, b.get("/").Body.String(), `class="overlay"`)

	rr := b.do(httptest.NewRequest(http.MethodPost, "/recipes/9/select", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Recipe not found.")

	rr = b.do(httptest.NewRequest(http.MethodPost, "/recipes/abc/select", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return img.Bytes()
}

func photoRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/photo", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadPhoto(t *testing.T) {
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	svc := &mockRecipeService{ingredients: []string{"tomatoes", "basil"}}
	b, h := newBrowser(t, svc)
	b.get("/")
	b.post("/ingredients", url.Values{"ingredient": {"basil"}})

	rr := b.do(photoRequest(t, "fridge.png", img.Bytes()))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, strings.HasPrefix(svc.receivedImage, "data:image/png;base64,"))

	v := b.session(h).View()
	assert.Equal(t, []string{"basil", "tomatoes"}, v.Ingredients)
	assert.Empty(t, v.PhotoName)
	assert.Empty(t, v.RecognizeError)
}

func TestUploadPhoto_Errors(t *testing.T) {
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	svc := &mockRecipeService{recognizeErr: &chefclient.RecognitionError{Message: "Failed to process the image.", Status: 500}}
	b, h := newBrowser(t, svc)
	b.get("/")

	b.do(photoRequest(t, "plate.png", img.Bytes()))
	v := b.session(h).View()
	assert.Equal(t, "Failed to process the image.", v.RecognizeError)
	assert.Equal(t, "plate.png", v.PhotoName)
	assert.Contains(t, b.get("/").Body.String(), "Failed to process the image.")

	svc.receivedImage = ""
	b.do(photoRequest(t, "notes.txt", []byte("shopping list: eggs, milk")))
	assert.Empty(t, svc.receivedImage, "non-images are not sent")
	assert.Equal(t, "The selected file is not an image.", b.session(h).View().RecognizeError)
}

func TestHealthz(t *testing.T) {
	b, h := newBrowser(t, &mockRecipeService{})
	b.get("/")

	rr := httptest.NewRecorder()
	b.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, h.Sessions.Len(), body["sessions"])
	assert.Empty(t, rr.Result().Cookies())
}
