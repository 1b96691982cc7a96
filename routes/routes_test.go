package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/avollaro/formsmith/app"
	"github.com/avollaro/formsmith/config"
	"github.com/avollaro/formsmith/database"
	"github.com/avollaro/formsmith/httpx"
	"github.com/avollaro/formsmith/model"
	"github.com/avollaro/formsmith/upload"
)

func newTestApp(t *testing.T) app.App {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	cfg := config.Config{
		DBUrl:         "file:routes_" + name + "?mode=memory&cache=shared",
		UploadDir:     t.TempDir(),
		TokenSecret:   "test-token-secret",
		TokenTTL:      time.Minute,
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin123",
		ResetSecret:   "recovery-code",
	}

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	uploads, err := upload.NewStore(cfg.UploadDir)
	require.NoError(t, err)

	return app.New(db, httpx.NewBearerServer(db, cfg), cfg, uploads)
}

// testRouter exposes every handler without the admin token middleware, so
// handler behavior can be exercised directly. Token enforcement itself is
// covered by TestAdminRoutesRequireToken against the real wiring.
func testRouter(a app.App) http.Handler {
	r := chi.NewRouter()

	r.Get("/api/public/forms/{slug}", PublicGetForm(a))
	r.Post("/api/public/forms/{slug}/submit", PublicSubmitForm(a))

	r.Post("/api/forms", CreateForm(a))
	r.Get("/api/forms", ListForms(a))
	r.Get("/api/forms/stats", FormStats(a))
	r.Get("/api/forms/{id}", GetFormById(a))
	r.Put("/api/forms/{id}", UpdateForm(a))
	r.Delete("/api/forms/{id}", DeleteForm(a))
	r.Get("/api/forms/{id}/responses", GetFormResponses(a))
	r.Get("/api/forms/{id}/report", GetFormReport(a))

	r.Post("/api/auth/login", Login(a))
	r.Post("/api/auth/refresh", Refresh(a))
	r.Post("/api/auth/reset-password", ResetPassword(a))

	return r
}

func createForm(t *testing.T, a app.App, form model.Form) *model.Form {
	t.Helper()
	require.NoError(t, a.Forms.Create(context.Background(), &form))
	return &form
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type filePart struct {
	field    string
	filename string
	content  string
}

// submitRequest builds the multipart body the public submit endpoint takes.
func submitRequest(t *testing.T, slug, remoteAddr string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/public/forms/"+slug+"/submit", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	return req
}

func doSubmit(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
