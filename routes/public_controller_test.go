package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avollaro/formsmith/model"
	"github.com/avollaro/formsmith/upload"
)

func TestPublicGetForm(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	createForm(t, a, model.Form{Slug: "draft", IsPublished: false, IsActive: true})
	createForm(t, a, model.Form{Slug: "paused", IsPublished: true, IsActive: false})
	createForm(t, a, model.Form{
		Slug: "live", Title: "Feedback", IsPublished: true, IsActive: true,
		Questions: []model.Question{{ID: "q1", Label: "How was it?", Type: model.TypeRating}},
	})

	w := doJSON(t, h, http.MethodGet, "/api/public/forms/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// unpublished forms stay invisible
	w = doJSON(t, h, http.MethodGet, "/api/public/forms/draft", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/public/forms/paused", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Form is inactive")

	w = doJSON(t, h, http.MethodGet, "/api/public/forms/live", nil)
	require.Equal(t, http.StatusOK, w.Code)
	form := decodeJSON[model.Form](t, w)
	assert.Equal(t, "Feedback", form.Title)
	require.Len(t, form.Questions, 1)
}

func TestSubmitUnknownSlug(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	w := doSubmit(t, h, submitRequest(t, "missing", "", map[string]string{"answers": "{}"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitInactiveEvenWhenUnpublished(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	createForm(t, a, model.Form{Slug: "paused", IsPublished: false, IsActive: false})

	w := doSubmit(t, h, submitRequest(t, "paused", "", map[string]string{"answers": "{}"}))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Form is inactive")
}

func TestSubmitSuccess(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	form := createForm(t, a, model.Form{
		Slug: "feedback", IsPublished: true, IsActive: true,
		Questions: []model.Question{{ID: "q1", Label: "Mood", Type: model.TypeText}},
	})

	w := doSubmit(t, h, submitRequest(t, "feedback", "203.0.113.9:1234", map[string]string{
		"answers": `{"q1":"great","extra":"kept"}`,
	}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "true")

	subs, err := a.Submissions.ListByForm(context.Background(), form.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "great", subs[0].Answers["q1"])
	assert.Equal(t, "kept", subs[0].Answers["extra"])
	assert.Equal(t, "203.0.113.9", subs[0].IPAddress)
	assert.False(t, subs[0].CreatedAt.IsZero())
}

func TestSubmitMalformedAnswers(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	createForm(t, a, model.Form{Slug: "feedback", IsActive: true})

	w := doSubmit(t, h, submitRequest(t, "feedback", "", map[string]string{"answers": "{broken"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAnswersAsPlainFields(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	form := createForm(t, a, model.Form{Slug: "feedback", IsActive: true, CollectEmails: true})

	w := doSubmit(t, h, submitRequest(t, "feedback", "", map[string]string{
		"q1":    "yes",
		"email": "ada@x.com",
		"name":  "Ada",
	}))
	require.Equal(t, http.StatusOK, w.Code)

	subs, err := a.Submissions.ListByForm(context.Background(), form.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "yes", subs[0].Answers["q1"])
	// reserved fields never leak into the answers
	assert.NotContains(t, subs[0].Answers, "email")
	assert.NotContains(t, subs[0].Answers, "name")
	assert.Equal(t, "ada@x.com", subs[0].Email)
	assert.Equal(t, "Ada", subs[0].Name)
}

func TestSubmitDuplicateByIP(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	form := createForm(t, a, model.Form{
		Slug: "once", IsPublished: true, IsActive: true,
		LimitOneResponse: true,
	})

	w := doSubmit(t, h, submitRequest(t, "once", "198.51.100.7:40000", map[string]string{"answers": `{"q1":"a"}`}))
	require.Equal(t, http.StatusOK, w.Code)

	w = doSubmit(t, h, submitRequest(t, "once", "198.51.100.7:40001", map[string]string{"answers": `{"q1":"b"}`}))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already submitted")

	subs, err := a.Submissions.ListByForm(context.Background(), form.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	// another device is accepted
	w = doSubmit(t, h, submitRequest(t, "once", "198.51.100.8:40000", map[string]string{"answers": `{"q1":"c"}`}))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitMissingEmail(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	createForm(t, a, model.Form{Slug: "feedback", IsActive: true, CollectEmails: true})

	w := doSubmit(t, h, submitRequest(t, "feedback", "", map[string]string{"answers": "{}"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email address is required.")
}

func TestSubmitDuplicateByEmail(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	form := createForm(t, a, model.Form{
		Slug: "once", IsActive: true,
		LimitOneResponse: true, CollectEmails: true,
	})

	fields := map[string]string{"answers": `{"q1":"yes"}`, "email": "a@x.com"}
	w := doSubmit(t, h, submitRequest(t, "once", "198.51.100.1:1000", fields))
	require.Equal(t, http.StatusOK, w.Code)

	// same email from another address is still rejected
	w = doSubmit(t, h, submitRequest(t, "once", "198.51.100.2:2000", fields))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "using this email")

	w = doSubmit(t, h, submitRequest(t, "once", "198.51.100.2:2000", map[string]string{
		"answers": `{"q1":"no"}`, "email": "b@x.com",
	}))
	assert.Equal(t, http.StatusOK, w.Code)

	subs, err := a.Submissions.ListByForm(context.Background(), form.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestSubmitIgnoresEmailWhenNotCollected(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	form := createForm(t, a, model.Form{Slug: "anon", IsActive: true})

	w := doSubmit(t, h, submitRequest(t, "anon", "", map[string]string{
		"answers": "{}", "email": "a@x.com",
	}))
	require.Equal(t, http.StatusOK, w.Code)

	subs, err := a.Submissions.ListByForm(context.Background(), form.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Empty(t, subs[0].Email)
}

func TestSubmitRequiredQuestions(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	createForm(t, a, model.Form{
		Slug: "feedback", IsActive: true,
		Questions: []model.Question{
			{ID: "s1", Label: "Intro", Type: model.TypeSection, Required: true},
			{ID: "q1", Label: "Mood", Type: model.TypeText, Required: true},
			{ID: "q2", Label: "Notes", Type: model.TypeTextarea},
		},
	})

	w := doSubmit(t, h, submitRequest(t, "feedback", "", map[string]string{"answers": `{"q2":"optional only"}`}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Mood")

	// empty string does not satisfy a required question
	w = doSubmit(t, h, submitRequest(t, "feedback", "", map[string]string{"answers": `{"q1":""}`}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doSubmit(t, h, submitRequest(t, "feedback", "", map[string]string{"answers": `{"q1":"fine"}`}))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitFileUpload(t *testing.T) {
	a := newTestApp(t)
	h := testRouter(a)

	form := createForm(t, a, model.Form{
		Slug: "docs", IsActive: true,
		Questions: []model.Question{{ID: "q1", Label: "Receipt", Type: model.TypeFile, Required: true}},
	})

	w := doSubmit(t, h,
		submitRequest(t, "docs", "", map[string]string{"answers": "{}"},
			filePart{field: "q1", filename: "receipt.pdf", content: "%PDF-1.4 fake"}))
	require.Equal(t, http.StatusOK, w.Code)

	subs, err := a.Submissions.ListByForm(context.Background(), form.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	path, ok := subs[0].Answers["q1"].(string)
	require.True(t, ok, "file answer should be a stored path, got %v", subs[0].Answers["q1"])
	assert.True(t, strings.HasPrefix(path, upload.PathPrefix))
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	data, err := os.ReadFile(filepath.Join(a.Uploads.Dir, strings.TrimPrefix(path, upload.PathPrefix)))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
}

func TestUploadsServedByNameOnly(t *testing.T) {
	a := newTestApp(t)
	h := Wire(a)

	form := createForm(t, a, model.Form{
		Slug: "docs", IsActive: true,
		Questions: []model.Question{{ID: "q1", Label: "Receipt", Type: model.TypeFile}},
	})
	w := doSubmit(t, h,
		submitRequest(t, "docs", "", map[string]string{"answers": "{}"},
			filePart{field: "q1", filename: "receipt.pdf", content: "%PDF-1.4 fake"}))
	require.Equal(t, http.StatusOK, w.Code)

	subs, err := a.Submissions.ListByForm(context.Background(), form.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	path := subs[0].Answers["q1"].(string)

	// serve through a live server: its ResponseWriter implements
	// io.ReaderFrom, which the Logger middleware's writer requires when
	// the file body is copied
	srv := httptest.NewServer(h)
	defer srv.Close()

	// the stored file is reachable by its exact path
	res, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "%PDF-1.4 fake", string(body))

	// the directory itself never lists its contents
	res, err = http.Get(srv.URL + upload.PathPrefix)
	require.NoError(t, err)
	body, err = io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.NotContains(t, string(body), ".pdf")
}
