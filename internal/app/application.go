// Package app assembles the components into a runnable service.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"rollcall/internal/api"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/dispatch"
	"rollcall/internal/session"
	"rollcall/internal/store"
	"rollcall/internal/websocket"
)

// Application coordinates all system components.
// Construction follows dependency order:
// Store → Auth → Coordinator → Registry → Dispatcher → WebSocket → API → HTTP
type Application struct {
	config      *config.Config
	store       *store.Store
	coordinator *session.Coordinator
	registry    *websocket.Registry
	httpServer  *http.Server
}

// NewApplication builds the wired application from validated configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret)
	authService := auth.NewService(st, tokens)

	coordinator := session.NewCoordinator(st, st)

	registry := websocket.NewRegistry()
	dispatcher := dispatch.NewDispatcher(coordinator, registry)
	wsHandler := websocket.NewHandler(registry, tokens, dispatcher, cfg.WebSocket)

	apiServer := api.NewServer(authService, st, st, st, coordinator, st)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:      cfg,
		store:       st,
		coordinator: coordinator,
		registry:    registry,
		httpServer:  httpServer,
	}, nil
}

// Start begins serving and verifies the listener came up before returning.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting rollcall on %s", app.httpServer.Addr)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("rollcall started (%d websocket connections registered)", app.registry.Count())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts down in reverse dependency order: HTTP → websockets → store.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down rollcall")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	app.registry.CloseAll()

	if err := app.store.Close(); err != nil {
		log.Printf("Store shutdown error: %v", err)
	}

	log.Printf("rollcall shutdown complete")
	return nil
}

// Addr returns the listen address for external callers.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}
