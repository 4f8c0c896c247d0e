package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/TRSiddique/university-association-sub000/app"
	"github.com/TRSiddique/university-association-sub000/config"
	"github.com/TRSiddique/university-association-sub000/database"
	"github.com/TRSiddique/university-association-sub000/httpx"
	"github.com/TRSiddique/university-association-sub000/log"
	"github.com/TRSiddique/university-association-sub000/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	store := database.NewStore(db)
	if cfg.AdminUser != "" {
		if err := store.EnsureAdmin(context.Background(), cfg.AdminUser, cfg.AdminPassword); err != nil {
			log.Fatal("main.db.admin:", err)
		}
		log.Infof("admin account %q ready", cfg.AdminUser)
	}

	app := app.App{
		Store:        store,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
	}

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
