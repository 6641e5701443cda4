package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/config"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/db"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/export"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/middleware"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/search"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service/payment"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/storage"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// testServer serves the JSON API against an in-memory database.
type testServer struct {
	t      *testing.T
	server *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{AppEnv: "development", AppURL: "http://localhost:5000", MaxUploadSize: 1 << 20}

	users := repository.NewUserRepository(database)
	goals := repository.NewGoalRepository(database)
	transcriptions := repository.NewTranscriptionRepository(database)
	tracking := repository.NewTrackingRepository(database)
	files := repository.NewFileRepository(database)

	activityService := service.NewActivityService(repository.NewActivityRepository(database), nil)
	subscriptionService := service.NewSubscriptionService(repository.NewSubscriptionRepository(database))
	emailService := service.NewEmailService("", "MindVault <hello@example.com>", cfg.AppURL, "MindVault", true)
	authService := service.NewAuthService(users, subscriptionService, emailService, activityService, "test-secret", time.Hour, false)
	userService := service.NewUserService(users)
	searchService := search.NewService(nil, search.NewSQL(goals, transcriptions))
	goalService := service.NewGoalService(goals, transcriptions, activityService, searchService)
	transcriptionService := service.NewTranscriptionService(transcriptions, goals, activityService, searchService)
	trackingService := service.NewTrackingService(tracking, goals, activityService)
	fileService := service.NewFileService(files, goals, transcriptions, store, activityService)
	exportService := export.NewService(export.Sources{
		Goals:          goals,
		Transcriptions: transcriptions,
		Tracking:       tracking,
		Users:          users,
		Files:          files,
	}, store, activityService, export.Options{AppURL: cfg.AppURL, Timeout: 5 * time.Second})

	auth := NewAuthHandler(authService, userService, nil, nil, cfg)
	goal := NewGoalHandler(goalService, exportService)
	transcription := NewTranscriptionHandler(transcriptionService, exportService, emailService)
	track := NewTrackingHandler(trackingService)
	quote := NewQuoteHandler(service.NewQuoteService(repository.NewQuoteRepository(database), nil))
	file := NewFileHandler(fileService, cfg.MaxUploadSize)
	find := NewSearchHandler(searchService)
	billing := NewBillingHandler(subscriptionService, nil)
	activity := NewActivityHandler(activityService, goalService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", auth.Register)
	mux.HandleFunc("POST /api/login", auth.Login)
	mux.HandleFunc("POST /api/logout", auth.Logout)
	mux.HandleFunc("GET /api/user", middleware.RequireAuth(auth.CurrentUser))
	mux.HandleFunc("GET /api/login/replit", auth.ReplitLogin)
	mux.HandleFunc("POST /api/auth/firebase/login", auth.FirebaseLogin)
	mux.HandleFunc("GET /api/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("GET /api/goals/tree", middleware.RequireAuth(goal.Tree))
	mux.HandleFunc("POST /api/goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /api/goals/{id}", middleware.RequireAuth(goal.Get))
	mux.HandleFunc("PATCH /api/goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("PUT /api/goals/{id}/content", middleware.RequireAuth(goal.UpdateContent))
	mux.HandleFunc("DELETE /api/goals/{id}", middleware.RequireAuth(goal.Delete))
	mux.HandleFunc("GET /api/goals/{id}/export", middleware.RequireAuth(goal.Export))
	mux.HandleFunc("GET /api/transcriptions", middleware.RequireAuth(transcription.List))
	mux.HandleFunc("POST /api/transcriptions", middleware.RequireAuth(transcription.Create))
	mux.HandleFunc("GET /api/transcriptions/export", middleware.RequireAuth(transcription.ExportBulk))
	mux.HandleFunc("GET /api/transcriptions/{id}", middleware.RequireAuth(transcription.Get))
	mux.HandleFunc("GET /api/transcriptions/{id}/export", middleware.RequireAuth(transcription.Export))
	mux.HandleFunc("POST /api/user-activity", middleware.RequireAuth(activity.Create))
	mux.HandleFunc("POST /api/project-tracking", middleware.RequireAuth(track.Record))
	mux.HandleFunc("GET /api/project-tracking/summary", middleware.RequireAuth(track.Summary))
	mux.HandleFunc("GET /api/quotes", quote.List)
	mux.HandleFunc("GET /api/quotes/daily", quote.Daily)
	mux.HandleFunc("GET /api/search", middleware.RequireAuth(find.Search))
	mux.HandleFunc("POST /api/upload", middleware.RequireAuth(file.Upload))
	mux.HandleFunc("GET /uploads/{filename}", file.Serve)
	mux.HandleFunc("GET /api/billing/subscription", middleware.RequireAuth(billing.Subscription))
	mux.HandleFunc("POST /api/billing/checkout", middleware.RequireAuth(billing.CreateCheckout))
	mux.HandleFunc("POST /api/webhooks/paypal", billing.Webhook)
	mux.HandleFunc("/api/{path...}", Fallback(mux, "/api/{path...}"))

	server := httptest.NewServer(middleware.Authenticate(authService, userService)(mux))
	t.Cleanup(server.Close)
	return &testServer{t: t, server: server}
}

// client is a cookie-carrying session against the test server.
type client struct {
	ts     *testServer
	cookie *http.Cookie
}

func (ts *testServer) anonymous() *client {
	return &client{ts: ts}
}

func (ts *testServer) register(username string) *client {
	ts.t.Helper()

	c := &client{ts: ts}
	resp := c.do(http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "lantern-orbit-42",
	})
	require.Equal(ts.t, http.StatusCreated, resp.StatusCode)
	for _, cookie := range resp.Cookies() {
		if cookie.Name == service.AuthCookieName {
			c.cookie = cookie
		}
	}
	require.NotNil(ts.t, c.cookie)
	return c
}

func (c *client) do(method, path string, body any) *http.Response {
	c.ts.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.ts.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.ts.server.URL+path, reader)
	require.NoError(c.ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func (c *client) send(req *http.Request) *http.Response {
	c.ts.t.Helper()

	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	httpClient := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := httpClient.Do(req)
	require.NoError(c.ts.t, err)
	c.ts.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type message struct {
	Message string `json:"message"`
}

type goalJSON struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	ParentID *string         `json:"parentId"`
	Status   string          `json:"status"`
	Content  json.RawMessage `json:"content"`
}

func (c *client) createGoal(title string, parentID *string) goalJSON {
	c.ts.t.Helper()

	resp := c.do(http.MethodPost, "/api/goals", map[string]any{"title": title, "parentId": parentID})
	require.Equal(c.ts.t, http.StatusCreated, resp.StatusCode)
	return decode[goalJSON](c.ts.t, resp)
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.anonymous().do(http.MethodGet, "/api/user", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authenticated", decode[message](t, resp).Message)

	grace := ts.register("grace")

	resp = grace.do(http.MethodGet, "/api/user", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "grace", body["username"])
	assert.NotContains(t, body, "passwordHash")

	t.Run("duplicate username", func(t *testing.T) {
		resp := ts.anonymous().do(http.MethodPost, "/api/register", map[string]string{
			"username": "grace",
			"email":    "other@example.com",
			"password": "lantern-orbit-42",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("login by email", func(t *testing.T) {
		resp := ts.anonymous().do(http.MethodPost, "/api/login", map[string]string{
			"email":    "grace@example.com",
			"password": "lantern-orbit-42",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.anonymous().do(http.MethodPost, "/api/login", map[string]string{
			"username": "grace",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, service.ErrInvalidCredentials.Error(), decode[message](t, resp).Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.server.URL+"/api/login", strings.NewReader("{"))
		require.NoError(t, err)
		resp := ts.anonymous().send(req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("disabled providers", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, ts.anonymous().do(http.MethodGet, "/api/login/replit", nil).StatusCode)
		assert.Equal(t, http.StatusNotFound, ts.anonymous().do(http.MethodPost, "/api/auth/firebase/login", map[string]string{}).StatusCode)
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		resp := grace.do(http.MethodPost, "/api/logout", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var cleared bool
		for _, cookie := range resp.Cookies() {
			if cookie.Name == service.AuthCookieName && cookie.MaxAge < 0 {
				cleared = true
			}
		}
		assert.True(t, cleared)
	})
}

func TestGoalEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.register("ada")
	bob := ts.register("bob")

	parent := ada.createGoal("Write a novel", nil)
	assert.NotEmpty(t, parent.ID)
	assert.Equal(t, "Write a novel", parent.Title)

	child := ada.createGoal("Outline chapters", &parent.ID)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	t.Run("empty title", func(t *testing.T) {
		resp := ada.do(http.MethodPost, "/api/goals", map[string]string{"title": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list top level", func(t *testing.T) {
		resp := ada.do(http.MethodGet, "/api/goals", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[[]goalJSON](t, resp)
		var ids []string
		for _, g := range list {
			ids = append(ids, g.ID)
		}
		assert.Contains(t, ids, parent.ID)
	})

	t.Run("tree nests children", func(t *testing.T) {
		resp := ada.do(http.MethodGet, "/api/goals/tree", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		tree := decode[[]struct {
			ID       string `json:"id"`
			Children []struct {
				ID string `json:"id"`
			} `json:"children"`
		}](t, resp)
		require.Len(t, tree, 1)
		require.Len(t, tree[0].Children, 1)
		assert.Equal(t, child.ID, tree[0].Children[0].ID)
	})

	t.Run("cycle is rejected", func(t *testing.T) {
		resp := ada.do(http.MethodPatch, "/api/goals/"+parent.ID, map[string]any{"parentId": child.ID})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, service.ErrGoalCycle.Error(), decode[message](t, resp).Message)
	})

	t.Run("foreign goal is not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, "/api/goals/"+parent.ID, nil).StatusCode)
		assert.Equal(t, http.StatusNotFound, bob.do(http.MethodDelete, "/api/goals/"+parent.ID, nil).StatusCode)
	})

	t.Run("update content", func(t *testing.T) {
		doc := map[string]any{"type": "doc", "content": []any{}}
		resp := ada.do(http.MethodPut, "/api/goals/"+child.ID+"/content", map[string]any{"content": doc})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[goalJSON](t, resp)
		assert.JSONEq(t, `{"type":"doc","content":[]}`, string(got.Content))
	})

	t.Run("export html", func(t *testing.T) {
		resp := ada.do(http.MethodGet, "/api/goals/"+parent.ID+"/export?format=html", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

		resp = ada.do(http.MethodGet, "/api/goals/"+parent.ID+"/export?format=docx", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, ada.do(http.MethodDelete, "/api/goals/"+child.ID, nil).StatusCode)
		assert.Equal(t, http.StatusNotFound, ada.do(http.MethodGet, "/api/goals/"+child.ID, nil).StatusCode)
	})
}

func TestTranscriptionEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.register("ada")
	bob := ts.register("bob")
	goal := ada.createGoal("Daily journal", nil)

	resp := ada.do(http.MethodPost, "/api/transcriptions", map[string]any{
		"title":  "Morning pages",
		"text":   "Walked along the canal before sunrise.",
		"goalId": goal.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]any](t, resp)
	id := created["id"].(string)

	t.Run("text is required", func(t *testing.T) {
		resp := ada.do(http.MethodPost, "/api/transcriptions", map[string]any{"title": "Empty"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("foreign goal", func(t *testing.T) {
		resp := bob.do(http.MethodPost, "/api/transcriptions", map[string]any{"text": "hi", "goalId": goal.ID})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("list by goal", func(t *testing.T) {
		resp := ada.do(http.MethodGet, "/api/transcriptions?goalId="+goal.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[[]map[string]any](t, resp)
		require.Len(t, list, 1)
		assert.Equal(t, id, list[0]["id"])
	})

	t.Run("negative limit", func(t *testing.T) {
		resp := ada.do(http.MethodGet, "/api/transcriptions?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("foreign read", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, "/api/transcriptions/"+id, nil).StatusCode)
	})

	t.Run("export html contains text", func(t *testing.T) {
		resp := ada.do(http.MethodGet, "/api/transcriptions/"+id+"/export?format=html", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var buf bytes.Buffer
		_, err := buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Walked along the canal before sunrise.")
	})

	t.Run("bulk export", func(t *testing.T) {
		resp := ada.do(http.MethodGet, "/api/transcriptions/export?format=html&goalId="+goal.ID, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = ada.do(http.MethodGet, "/api/transcriptions/export?format=html&from=2999-01-01", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = ada.do(http.MethodGet, "/api/transcriptions/export?from=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("search", func(t *testing.T) {
		resp := ada.do(http.MethodGet, "/api/search?q=canal", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[search.Response](t, resp)
		assert.Equal(t, "sql", got.Backend)
		require.NotEmpty(t, got.Results)
		assert.Equal(t, id, got.Results[0].ID)

		resp = bob.do(http.MethodGet, "/api/search?q=canal", nil)
		assert.Empty(t, decode[search.Response](t, resp).Results)

		resp = ada.do(http.MethodGet, "/api/search?q=canal&type=note", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestClientActivity(t *testing.T) {
	ts := newTestServer(t)
	c := ts.register("ada")

	resp := c.do(http.MethodPost, "/api/user-activity", map[string]any{"activityType": "goal_created"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[message](t, resp).Message, "reserved")

	resp = c.do(http.MethodPost, "/api/user-activity", map[string]any{"activityType": "login"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/user-activity", map[string]any{
		"activityType": "meditation_done",
		"metadata":     map[string]any{"minutes": 10},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "meditation_done", decode[map[string]any](t, resp)["activityType"])
}

func TestTrackingEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.register("ada")
	goal := ada.createGoal("Learn piano", nil)

	for _, seconds := range []int64{600, 900} {
		resp := ada.do(http.MethodPost, "/api/project-tracking", map[string]any{
			"goalId":  goal.ID,
			"seconds": seconds,
			"day":     "2026-03-01",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := ada.do(http.MethodGet, "/api/project-tracking/summary?goalId="+goal.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[[]map[string]any](t, resp)
	require.Len(t, summary, 1)
	assert.EqualValues(t, 1500, summary[0]["totalSeconds"])
	assert.EqualValues(t, 2, summary[0]["totalSessions"])

	resp = ada.do(http.MethodPost, "/api/project-tracking", map[string]any{"goalId": goal.ID, "seconds": -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuoteEndpoints(t *testing.T) {
	ts := newTestServer(t)
	anon := ts.anonymous()

	resp := anon.do(http.MethodGet, "/api/quotes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[[]map[string]any](t, resp))

	first := decode[map[string]any](t, anon.do(http.MethodGet, "/api/quotes/daily", nil))
	second := decode[map[string]any](t, anon.do(http.MethodGet, "/api/quotes/daily", nil))
	assert.Equal(t, first["id"], second["id"])
}

func uploadRequest(t *testing.T, url, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/api/upload", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.register("ada")
	bob := ts.register("bob")

	resp := ada.send(uploadRequest(t, ts.server.URL, "pixel.png", pngPixel))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	uploaded := decode[uploadResponse](t, resp)
	assert.Equal(t, "image/png", uploaded.MimeType)
	assert.False(t, uploaded.Public)
	assert.True(t, strings.HasPrefix(uploaded.URL, "/uploads/"))

	t.Run("owner can read private file", func(t *testing.T) {
		resp := ada.do(http.MethodGet, uploaded.URL, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	})

	t.Run("others cannot", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, uploaded.URL, nil).StatusCode)
		assert.Equal(t, http.StatusNotFound, ts.anonymous().do(http.MethodGet, uploaded.URL, nil).StatusCode)
	})

	t.Run("sniffed type must match", func(t *testing.T) {
		resp := ada.send(uploadRequest(t, ts.server.URL, "notes.png", []byte("#!/bin/sh\necho hi\n")))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("too large", func(t *testing.T) {
		big := append(append([]byte{}, pngPixel...), make([]byte, 3<<19)...)
		resp := ada.send(uploadRequest(t, ts.server.URL, "big.png", big))
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	t.Run("anonymous upload", func(t *testing.T) {
		resp := ts.anonymous().send(uploadRequest(t, ts.server.URL, "pixel.png", pngPixel))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestBillingWithoutProvider(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.register("ada")

	resp := ada.do(http.MethodGet, "/api/billing/subscription", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, false, body["supporter"])

	assert.Equal(t, http.StatusServiceUnavailable, ada.do(http.MethodPost, "/api/billing/checkout", nil).StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable, ts.anonymous().do(http.MethodPost, "/api/webhooks/paypal", map[string]string{}).StatusCode)
}

func TestUnknownAPIPath(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.anonymous().do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", decode[message](t, resp).Message)

	resp = ts.anonymous().do(http.MethodPost, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWrongMethodOnKnownPath(t *testing.T) {
	ts := newTestServer(t)
	c := ts.anonymous()

	resp := c.do(http.MethodPut, "/api/goals", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, POST", resp.Header.Get("Allow"))
	assert.Equal(t, "Method not allowed", decode[message](t, resp).Message)

	resp = c.do(http.MethodPost, "/api/goals/abc", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, PATCH, DELETE", resp.Header.Get("Allow"))

	resp = c.do(http.MethodDelete, "/api/quotes/daily", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET", resp.Header.Get("Allow"))
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&service.InputError{Err: errors.New("bad")}, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", repository.ErrGoalNotFound), http.StatusNotFound},
		{service.ErrFileForbidden, http.StatusNotFound},
		{service.ErrInvalidToken, http.StatusUnauthorized},
		{service.ErrEmailAlreadyExists, http.StatusConflict},
		{validation.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{export.ErrPDFDependencyMissing, http.StatusServiceUnavailable},
		{payment.ErrInvalidSignature, http.StatusBadRequest},
		{payment.ErrNotConfigured, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, errorStatus(tc.err), tc.err.Error())
	}
}
