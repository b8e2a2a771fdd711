// Command recipectl inspects and invalidates the query cache of a running
// recipe backend.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/onnwee/resep-nusantara/backend/internal/adminclient"
	"github.com/onnwee/resep-nusantara/backend/internal/api/handlers"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "recipectl",
		Usage: "Inspect and invalidate the recipe backend caches",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "backend base URL",
				Value:   "http://localhost:8000",
				Sources: cli.EnvVars("RECIPECTL_SERVER"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "admin bearer token",
				Sources: cli.EnvVars("ADMIN_API_TOKEN"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per-request timeout",
				Value: 10 * time.Second,
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "attempts per request",
				Value: 3,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "show query and fallback cache statistics",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					st, err := clientFor(cmd).Stats(ctx)
					if err != nil {
						return err
					}
					printStats(out, st)
					return nil
				},
			},
			{
				Name:  "invalidate",
				Usage: "remove query cache entries (exactly one target)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Usage: "remove one key"},
					&cli.StringFlag{Name: "prefix", Usage: "remove keys with this prefix"},
					&cli.StringFlag{Name: "category", Usage: "remove a category: list, item or other"},
					&cli.BoolFlag{Name: "lists", Usage: "remove every list result"},
					&cli.BoolFlag{Name: "all", Usage: "remove everything"},
					&cli.BoolFlag{Name: "fallback", Usage: "also clear the network fallback cache"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					req := handlers.InvalidateRequest{
						Key:      cmd.String("key"),
						Prefix:   cmd.String("prefix"),
						Category: cmd.String("category"),
						Lists:    cmd.Bool("lists"),
						All:      cmd.Bool("all"),
						Fallback: cmd.Bool("fallback"),
					}
					resp, err := clientFor(cmd).Invalidate(ctx, req)
					if err != nil {
						return err
					}
					printInvalidation(out, resp)
					return nil
				},
			},
		},
	}
}

func clientFor(cmd *cli.Command) *adminclient.Client {
	return adminclient.New(cmd.String("server"), cmd.String("token"), cmd.Duration("timeout"), int(cmd.Int("retries")))
}

func printStats(w io.Writer, st handlers.CacheStatsResponse) {
	q := st.Query
	total := q.Hits + q.Misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(q.Hits) / float64(total) * 100
	}
	fmt.Fprintf(w, "query cache\n")
	fmt.Fprintf(w, "  entries        %s\n", humanize.Comma(int64(q.Entries)))
	fmt.Fprintf(w, "  hits           %s (%.1f%%)\n", humanize.Comma(int64(q.Hits)), ratio)
	fmt.Fprintf(w, "  misses         %s\n", humanize.Comma(int64(q.Misses)))
	fmt.Fprintf(w, "  sets           %s\n", humanize.Comma(int64(q.Sets)))
	fmt.Fprintf(w, "  expirations    %s\n", humanize.Comma(int64(q.Expirations)))
	fmt.Fprintf(w, "  evictions      %s\n", humanize.Comma(int64(q.Evictions)))
	fmt.Fprintf(w, "  invalidations  %s\n", humanize.Comma(int64(q.Invalidations)))
	if f := st.Fallback; f != nil {
		fmt.Fprintf(w, "fallback cache\n")
		fmt.Fprintf(w, "  items          %s\n", humanize.Comma(f.Items))
		fmt.Fprintf(w, "  size           %s\n", humanize.Bytes(uint64(max(f.Size, 0))))
	}
}

func printInvalidation(w io.Writer, r handlers.InvalidateResponse) {
	target := r.Target
	if target == "" {
		target = "*"
	}
	fmt.Fprintf(w, "removed %s %s (%s %s)\n",
		humanize.Comma(int64(r.Removed)), plural(r.Removed, "entry", "entries"), r.Kind, target)
	if r.FallbackCleared {
		fmt.Fprintln(w, "fallback cache cleared")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
