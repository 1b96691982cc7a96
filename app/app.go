package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/avollaro/formsmith/config"
	"github.com/avollaro/formsmith/store"
	"github.com/avollaro/formsmith/upload"
)

// App bundles the shared collaborators every handler needs.
type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Forms       *store.FormStore
	Submissions *store.SubmissionStore
	Uploads     *upload.Store
}

func New(db *sql.DB, bearerServer *oauth.BearerServer, cfg config.Config, uploads *upload.Store) App {
	return App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Forms:        store.NewFormStore(db),
		Submissions:  store.NewSubmissionStore(db),
		Uploads:      uploads,
	}
}
