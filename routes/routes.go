package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/avollaro/formsmith/app"
	"github.com/avollaro/formsmith/routes/middlewares"
	"github.com/avollaro/formsmith/upload"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/uploads", serveUploads(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/public/forms/{slug}", PublicGetForm(app))
	api.Post("/public/forms/{slug}/submit", PublicSubmitForm(app))

	api.Route("/forms", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD form
		r.Post("/", CreateForm(app))
		r.Get("/", ListForms(app))
		r.Get("/stats", FormStats(app))
		r.Get("/{id}", GetFormById(app))
		r.Put("/{id}", UpdateForm(app))
		r.Delete("/{id}", DeleteForm(app))

		r.Get("/{id}/responses", GetFormResponses(app))
		r.Get("/{id}/report", GetFormReport(app))
	})

	api.Post("/auth/login", Login(app))
	api.Post("/auth/refresh", Refresh(app))
	api.Post("/auth/reset-password", ResetPassword(app))

	return api
}

func serveUploads(app app.App) http.Handler {
	files := http.StripPrefix(upload.PathPrefix, http.FileServer(http.Dir(app.Uploads.Dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// no directory listings: uploads are only reachable by exact name
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
