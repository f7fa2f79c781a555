package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
	"github.com/Tomjg14/research-newsfeed/internal/render"
	"github.com/Tomjg14/research-newsfeed/internal/server"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr    string
		maxN    int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the digest over HTTP",
		Long: `Serve the digest over HTTP. Every request fetches afresh.

Routes: / (HTML), /digest.txt, /digest.md, /api/items, /healthz.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			log := a.logger()
			fetch := func(ctx context.Context) aggregate.BucketMap {
				return a.aggregate(ctx, log, nil, cfg.Filters())
			}
			srv := server.New(fetch, server.Options{
				Title:          render.DefaultTitle,
				MaxPerSource:   maxPerSource(cmd, cfg, maxN),
				RequestTimeout: timeout,
				Logger:         log,
			})
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&maxN, "max-per-source", 0, "cap items per source (default email.max_per_source; 0 = unlimited)")
	cmd.Flags().DurationVar(&timeout, "request-timeout", 2*time.Minute, "per-request fetch timeout")
	return cmd
}
