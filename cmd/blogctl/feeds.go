package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/SeanoChang/learning-blogs/internal/blog"
	"github.com/SeanoChang/learning-blogs/internal/config"
	"github.com/SeanoChang/learning-blogs/internal/feed"
	"github.com/SeanoChang/learning-blogs/internal/render"
	"github.com/SeanoChang/learning-blogs/internal/store"
)

// File permission constants.
const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// runFeeds renders the static feeds from the posts directory into --out.
func runFeeds(ctx context.Context, args []string, cfg config.Config, stdout, stderr io.Writer) error {
	flags, err := parseFeedsFlags(args, cfg, stderr)
	if err != nil {
		return usageError(err)
	}
	log := newLogger(stderr, flags.common.verbose)

	site := cfg.Site
	if flags.common.siteFile != "" {
		if site, err = config.LoadSiteFile(flags.common.siteFile, site); err != nil {
			return err
		}
	}

	r := render.New(render.Options{MaxDepth: cfg.TOCMaxDepth})
	files := store.NewFileStore(os.DirFS(flags.common.postsDir), log, store.WithSummarizer(r.Summarize))
	svc := blog.New(files, r, nil, log, blog.Options{})

	posts, err := svc.All(ctx)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	projects, err := svc.Projects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	tags, err := svc.TagNames(ctx)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}

	now := time.Now()
	outputs := []struct {
		name  string
		build func() ([]byte, error)
	}{
		{"feed.xml", func() ([]byte, error) { return feed.RSS(site, posts, now) }},
		{"posts.json", func() ([]byte, error) { return feed.JSON(site, posts, now) }},
		{"sitemap.xml", func() ([]byte, error) { return feed.Sitemap(feed.SiteEntries(site, posts, projects, tags, now)) }},
		{"robots.txt", func() ([]byte, error) { return feed.Robots(site), nil }},
	}

	if err := os.MkdirAll(flags.out, dirPermissions); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, o := range outputs {
		data, err := o.build()
		if err != nil {
			return fmt.Errorf("build %s: %w", o.name, err)
		}
		path := filepath.Join(flags.out, o.name)
		if err := os.WriteFile(path, data, filePermissions); err != nil {
			return fmt.Errorf("write %s: %w", o.name, err)
		}
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	log.Info("feeds generated", "posts", len(posts), "out", flags.out)
	return nil
}
