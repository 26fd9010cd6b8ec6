// Command blogctl indexes post metadata into a database and writes the
// static feeds.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"
	flag "github.com/spf13/pflag"

	"github.com/SeanoChang/learning-blogs/internal/config"
)

// Exit codes.
const (
	ExitSuccess = 0 // everything indexed or written
	ExitFailure = 1 // invalid posts or a store error
	ExitUsage   = 2 // unknown command or bad flags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return ExitUsage
	}

	cfg := config.Load()
	var err error
	switch args[0] {
	case "index":
		err = runIndex(ctx, args[1:], cfg, stdout, stderr)
	case "feeds":
		err = runFeeds(ctx, args[1:], cfg, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return ExitUsage
	}
	return exitCodeFor(err)
}

// exitCodeFor maps a command error onto an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, flag.ErrHelp):
		return ExitSuccess
	case errors.Is(err, errUsage):
		return ExitUsage
	}
	return ExitFailure
}

var errUsage = errors.New("usage error")

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: blogctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  index   validate posts and upsert their metadata")
	fmt.Fprintln(w, "  feeds   write feed.xml, posts.json and sitemap.xml")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'blogctl <command> --help' for command flags.")
}
