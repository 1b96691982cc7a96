package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/avollaro/formsmith/app"
	"github.com/avollaro/formsmith/config"
	"github.com/avollaro/formsmith/database"
	"github.com/avollaro/formsmith/httpx"
	"github.com/avollaro/formsmith/log"
	"github.com/avollaro/formsmith/routes"
	"github.com/avollaro/formsmith/upload"
)

func main() {
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	uploads, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		log.Fatal("main.uploads:", err)
	}

	bearerServer := httpx.NewBearerServer(db, cfg)

	app := app.New(db, bearerServer, cfg, uploads)

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
