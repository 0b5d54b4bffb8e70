package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fystack/appprefs/internal/httpapi"
	"github.com/fystack/appprefs/internal/preferences"
	"github.com/fystack/appprefs/pkg/common/logger"
	"github.com/gin-gonic/gin"
)

type ServeCmd struct {
	Addr string `help:"Listen address, overrides http.addr." name:"addr"`
}

func (c *ServeCmd) Run(app *App) error {
	handler, err := app.HTTPHandler()
	if err != nil {
		return err
	}

	cfg := app.cfg.HTTP
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	if cfg.JWTSecret == "" {
		logger.Warn("http.jwt_secret is empty, the API is unauthenticated")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      httpapi.NewRouter(handler, cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-shutdownSignal():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}

func (a *App) HTTPHandler() (*httpapi.Handler, error) {
	store, err := a.KVStore()
	if err != nil {
		return nil, err
	}
	prefs, err := a.Preferences()
	if err != nil {
		return nil, err
	}
	guard, err := a.SchemaGuard()
	if err != nil {
		return nil, err
	}
	settingsStore, err := a.Settings()
	if err != nil {
		return nil, err
	}
	return httpapi.NewHandler(store, prefs, guard, preferences.NewMarkers(settingsStore)), nil
}
