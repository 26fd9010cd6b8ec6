package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/SeanoChang/learning-blogs/internal/api"
	"github.com/SeanoChang/learning-blogs/internal/blog"
	"github.com/SeanoChang/learning-blogs/internal/cache"
	"github.com/SeanoChang/learning-blogs/internal/config"
	"github.com/SeanoChang/learning-blogs/internal/render"
	"github.com/SeanoChang/learning-blogs/internal/store"
	"github.com/SeanoChang/learning-blogs/internal/supabase"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.SiteConfigPath != "" {
		site, err := config.LoadSiteFile(cfg.SiteConfigPath, cfg.Site)
		if err != nil {
			log.Error("failed to load site file", "path", cfg.SiteConfigPath, "error", err)
			os.Exit(1)
		}
		cfg.Site = site
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats := render.NewStats(time.Hour)
	renderer := render.New(render.Options{
		MaxDepth: cfg.TOCMaxDepth,
		Style:    cfg.HighlightStyle,
		Stats:    stats,
	})

	st, closer, err := openStore(ctx, cfg, renderer, log)
	if err != nil {
		log.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}

	c := cache.New(cfg.CacheTTL)
	c.Start(ctx, cache.DefaultJanitorInterval)

	svc := blog.New(st, renderer, c, log, blog.Options{ListCacheTTL: cfg.ListCacheTTL})
	srv := api.NewServer(svc, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		c.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		closer.Close()
	}()

	log.Info("starting learning-blogs", "port", cfg.Port, "backend", cfg.StoreBackend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore builds the configured backend. Metadata backends read post
// bodies from PostsDir.
func openStore(ctx context.Context, cfg config.Config, r *render.Renderer, log *slog.Logger) (store.Store, io.Closer, error) {
	files := store.NewFileStore(os.DirFS(cfg.PostsDir), log, store.WithSummarizer(r.Summarize))
	noop := closerFunc(func() error { return nil })

	switch cfg.StoreBackend {
	case config.BackendFile:
		return files, noop, nil

	case config.BackendSQLite:
		db, err := store.OpenSQLite(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		st := store.NewSQLStore(db, files)
		if err := st.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return st, db, nil

	case config.BackendSupabase:
		client := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey(false))
		return store.NewSupabaseStore(client, files), closerFunc(func() error {
			client.Close()
			return nil
		}), nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
