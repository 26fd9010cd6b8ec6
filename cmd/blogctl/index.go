package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/SeanoChang/learning-blogs/internal/config"
	"github.com/SeanoChang/learning-blogs/internal/indexer"
	"github.com/SeanoChang/learning-blogs/internal/render"
	"github.com/SeanoChang/learning-blogs/internal/store"
	"github.com/SeanoChang/learning-blogs/internal/supabase"
)

// ErrInvalidPosts is returned when some files failed validation.
var ErrInvalidPosts = errors.New("some posts failed validation")

func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", errUsage, err)
}

// runIndex validates every post and upserts the valid ones. The summary is
// printed as JSON on stdout.
func runIndex(ctx context.Context, args []string, cfg config.Config, stdout, stderr io.Writer) error {
	flags, err := parseIndexFlags(args, cfg, stderr)
	if err != nil {
		return usageError(err)
	}
	log := newLogger(stderr, flags.common.verbose)

	var sink store.Writer
	if !flags.dryRun {
		w, closeSink, err := openSink(ctx, flags, cfg)
		if err != nil {
			log.Error("failed to open store", "backend", flags.backend, "error", err)
			return err
		}
		defer closeSink()
		sink = w
	}

	r := render.New(render.Options{MaxDepth: cfg.TOCMaxDepth})
	ix := indexer.New(os.DirFS(flags.common.postsDir), sink, log,
		indexer.WithWorkers(flags.workers),
		indexer.WithSummarizer(r.Summarize),
		indexer.WithDryRun(flags.dryRun),
	)

	sum, runErr := ix.Run(ctx)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return err
	}

	if runErr != nil {
		log.Error("indexing failed", "error", runErr)
		return runErr
	}
	if !sum.OK() {
		return fmt.Errorf("%w: %d of %d", ErrInvalidPosts, sum.Failed, sum.Total)
	}
	return nil
}

// openSink opens the metadata store named by --backend.
func openSink(ctx context.Context, flags *indexFlags, cfg config.Config) (store.Writer, func(), error) {
	switch flags.backend {
	case config.BackendSQLite:
		db, err := store.OpenSQLite(flags.dsn)
		if err != nil {
			return nil, nil, err
		}
		st := store.NewSQLStore(db, nil)
		if err := st.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return st, func() { db.Close() }, nil

	case config.BackendSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseServiceRoleKey == "" {
			return nil, nil, fmt.Errorf("%w: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required", errUsage)
		}
		client := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey(true))
		return store.NewSupabaseStore(client, nil), client.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: index needs --backend sqlite or supabase, got %q", errUsage, flags.backend)
}
