package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres/collection"
	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres/file"
	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres/item"
	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres/tag"
	"github.com/heartmarshall/stashkeep-backend/internal/config"
	"github.com/heartmarshall/stashkeep-backend/internal/service/collections"
	"github.com/heartmarshall/stashkeep-backend/internal/service/library"
	"github.com/heartmarshall/stashkeep-backend/internal/storage"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// App is the composition root: configured services plus the resources they
// own. Transport layers consume the services; App itself only serves the
// stored blobs and a health endpoint.
type App struct {
	Log         *slog.Logger
	Pool        *pgxpool.Pool
	Blobs       *storage.Disk
	Library     *library.Service
	Collections *collections.Service

	cfg config.Config
}

// New loads configuration and wires every layer together.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Log)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	blobs, err := storage.NewDisk(cfg.Storage)
	if err != nil {
		pool.Close()
		return nil, err
	}

	txManager := postgres.NewTxManager(pool)
	itemRepo := item.New(pool)
	fileRepo := file.New(pool)
	tagRepo := tag.New(pool)
	collectionRepo := collection.New(pool)

	return &App{
		Log:   logger,
		Pool:  pool,
		Blobs: blobs,
		Library: library.NewService(
			logger, itemRepo, fileRepo, tagRepo, txManager, blobs, cfg.Library,
		),
		Collections: collections.NewService(
			logger, collectionRepo, itemRepo, fileRepo, tagRepo, blobs,
		),
		cfg: *cfg,
	}, nil
}

// Close releases the resources held by the App.
func (a *App) Close() {
	a.Pool.Close()
}

// Run builds the application and serves it until the context is canceled.
func Run(ctx context.Context) error {
	app, err := New(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Log.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("address", app.cfg.Server.Address),
		slog.String("log_level", app.cfg.Log.Level),
	)

	mux := http.NewServeMux()
	mux.Handle("/files/", http.StripPrefix("/files/", http.FileServer(http.Dir(app.cfg.Storage.Root))))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := app.Pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:    app.cfg.Server.Address,
		Handler: withRequestID(app.Log, mux),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	app.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

// withRequestID tags each request with a generated id, carried through the
// context for any downstream logging, and emits an access log line.
func withRequestID(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(ctxutil.WithRequestID(r.Context(), uuid.New().String()))

		next.ServeHTTP(w, r)

		log.Debug("request served",
			slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	})
}
