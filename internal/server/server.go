// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/entitytree/internal/access"
	"github.com/matthewbaird/entitytree/internal/config"
	"github.com/matthewbaird/entitytree/internal/form"
	"github.com/matthewbaird/entitytree/internal/handler"
	"github.com/matthewbaird/entitytree/internal/metrics"
	"github.com/matthewbaird/entitytree/internal/storage"
	"github.com/matthewbaird/entitytree/internal/tree"
	"github.com/matthewbaird/entitytree/internal/wire"
)

// Config holds server configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	BasePath        string
	Registry        *tree.Registry
	Directory       *access.Directory
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	Tree            handler.TreeConfig
}

// NewRouter registers every route and wraps them with the middleware chain.
func NewRouter(cfg Config) http.Handler {
	base := strings.TrimRight(cfg.BasePath, "/")

	r := chi.NewRouter()
	r.Use(handler.Stack(cfg.Logger, cfg.Metrics)...)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	// --- Entity reference tree ---
	th := handler.NewTreeHandler(cfg.Registry, form.NewBuilder(base), cfg.Metrics, cfg.Logger, cfg.Tree)
	r.Group(func(r chi.Router) {
		r.Use(access.Middleware(cfg.Directory))
		r.Get(base+"/tree-json/{entity_type}/{bundles}", th.TreeJSON)
		r.Get(base+"/tree-search-form/{field_edit_id}/{bundle}/{entity_type}", th.OpenSearchForm)
		r.Method(http.MethodGet, base+"/ws", wire.NewHandler(cfg.Registry, cfg.Logger, cfg.Tree.ForbidOnDenied))
	})

	return r
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	cfg.Logger.Info("starting server",
		"addr", addr,
		"base_path", cfg.BasePath,
		"builders", cfg.Registry.EntityTypes(),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		cfg.Logger.Info("shutting down server")
		shutdownErr <- srv.Shutdown(sctx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}

// NewRegistry builds the tree builder registry from configuration. The
// fallback builder serves every entity type without its own entry.
func NewRegistry(store storage.Store, builders map[string]config.BuilderConfig) *tree.Registry {
	reg := tree.NewRegistry(tree.NewEntityBuilder(store))
	for entityType, bc := range builders {
		var opts []tree.EntityBuilderOption
		if bc.Permission != "" {
			opts = append(opts, tree.WithPermission(bc.Permission))
		}
		reg.Register(entityType, tree.NewEntityBuilder(store, opts...))
	}
	return reg
}

// NewDirectory builds the account directory from configuration. Every
// account authenticates with its own bearer token.
func NewDirectory(cfg config.AccessConfig) (*access.Directory, error) {
	dir := access.NewDirectory(cfg.AnonymousPermissions)
	for name, ac := range cfg.Accounts {
		err := dir.Add(&access.Account{
			AccountName: name,
			Permissions: ac.Permissions,
			Admin:       ac.Admin,
		}, ac.Token)
		if err != nil {
			return nil, err
		}
	}
	return dir, nil
}
