package main

import (
	"io"

	flag "github.com/spf13/pflag"

	"github.com/SeanoChang/learning-blogs/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	postsDir string
	siteFile string
	verbose  bool
}

// indexFlags holds flags for the index command.
type indexFlags struct {
	common  commonFlags
	backend string
	dsn     string
	workers int
	dryRun  bool
}

// feedsFlags holds flags for the feeds command.
type feedsFlags struct {
	common commonFlags
	out    string
}

// addCommonFlags adds common flags to a FlagSet, defaulting to cfg.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags, cfg config.Config) {
	fs.StringVarP(&f.postsDir, "posts-dir", "d", cfg.PostsDir, "directory of markdown posts")
	fs.StringVar(&f.siteFile, "site", cfg.SiteConfigPath, "YAML file overriding site metadata")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log each post")
}

func parseIndexFlags(args []string, cfg config.Config, stderr io.Writer) (*indexFlags, error) {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &indexFlags{}

	addCommonFlags(fs, &f.common, cfg)
	fs.StringVarP(&f.backend, "backend", "b", cfg.StoreBackend, "metadata store: sqlite, supabase")
	fs.StringVar(&f.dsn, "dsn", cfg.SQLiteDSN, "sqlite data source name")
	fs.IntVarP(&f.workers, "workers", "w", cfg.IndexWorkers, "parallel parsers")
	fs.BoolVarP(&f.dryRun, "dry-run", "n", false, "validate without writing")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func parseFeedsFlags(args []string, cfg config.Config, stderr io.Writer) (*feedsFlags, error) {
	fs := flag.NewFlagSet("feeds", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &feedsFlags{}

	addCommonFlags(fs, &f.common, cfg)
	fs.StringVarP(&f.out, "out", "o", "public", "output directory")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
