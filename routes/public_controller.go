package routes

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/avollaro/formsmith/app"
	"github.com/avollaro/formsmith/httpx"
	"github.com/avollaro/formsmith/log"
	"github.com/avollaro/formsmith/model"
	"github.com/avollaro/formsmith/store"
	"github.com/avollaro/formsmith/upload"
)

// memory threshold for multipart parsing; larger file parts spill to disk
const multipartMaxMemory = 32 << 20

func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		form, err := app.Forms.GetPublishedBySlug(r.Context(), slug)
		switch {
		case errors.Is(err, store.ErrNotFound):
			httpx.LogNotFound(w, "get_form", slug)
			return
		case errors.Is(err, store.ErrInactive):
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "get_form.inactive", "Form is inactive")
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func PublicSubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		// The inactive check applies even to unpublished forms here, so the
		// form is resolved without a published filter.
		form, err := app.Forms.GetBySlug(r.Context(), slug)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "submit.get_form", slug)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}
		if !form.IsActive {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "submit.inactive", "Form is inactive")
			return
		}

		err = r.ParseMultipartForm(multipartMaxMemory)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_multipart")
			return
		}

		answers, err := parseAnswers(r)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_answers", "Malformed answers payload")
			return
		}

		email := r.FormValue("email")
		if form.CollectEmails && email == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.email", "Email address is required.")
			return
		}
		if !form.CollectEmails {
			email = ""
		}

		// store uploaded files and merge their paths into the answers,
		// keyed by the question id used as the upload field name
		for field, files := range r.MultipartForm.File {
			if len(files) == 0 {
				continue
			}
			path, err := app.Uploads.Save(field, files[0])
			if errors.Is(err, upload.ErrTooLarge) {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.file_size", "File for %q exceeds the 25 MiB limit", field)
				return
			}
			if err != nil {
				httpx.LogInternalError(w, "upload.save", err)
				return
			}
			answers[field] = path
		}

		if label, ok := missingRequired(form, answers); !ok {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.required", "Question %q is required", label)
			return
		}

		guard := store.GuardNone
		if form.LimitOneResponse {
			if form.CollectEmails {
				guard = store.GuardByEmail
			} else {
				guard = store.GuardByIP
			}
		}

		sub := model.Submission{
			FormID:    form.ID,
			IPAddress: requestIP(r),
			Name:      r.FormValue("name"),
			Email:     email,
			Answers:   answers,
		}
		err = app.Submissions.Create(r.Context(), &sub, guard)
		switch {
		case errors.Is(err, store.ErrDuplicateByIP):
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "submit.duplicate_ip", "You have already submitted this form.")
			return
		case errors.Is(err, store.ErrDuplicateByEmail):
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "submit.duplicate_email", "You have already shared your feedback using this email.")
			return
		case err != nil:
			httpx.LogInternalError(w, "db.insert_submission", err)
			return
		}

		render.JSON(w, r, map[string]any{"success": true})
	}
}

// parseAnswers reads the answer map from the 'answers' JSON field. Clients
// that post answers as individual form fields are tolerated: everything but
// the reserved fields becomes an answer.
func parseAnswers(r *http.Request) (map[string]any, error) {
	if raw := r.FormValue("answers"); raw != "" {
		answers := map[string]any{}
		err := json.Unmarshal([]byte(raw), &answers)
		if err != nil {
			return nil, err
		}
		return answers, nil
	}

	answers := map[string]any{}
	for key, values := range r.MultipartForm.Value {
		switch key {
		case "answers", "email", "name":
			continue
		}
		if len(values) > 0 {
			answers[key] = values[0]
		}
	}
	return answers, nil
}

// missingRequired checks every required answerable question for a present,
// non-empty answer. It returns the label of the first gap.
func missingRequired(form *model.Form, answers map[string]any) (string, bool) {
	for _, q := range form.Questions {
		if q.IsSection() || !q.Required {
			continue
		}
		if !model.AnswerPresent(answers[q.ID]) {
			return q.Label, false
		}
	}
	return "", true
}

func requestIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
