package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
	"github.com/Tomjg14/research-newsfeed/internal/render"
	"github.com/Tomjg14/research-newsfeed/internal/tui"
)

func dashboardCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Browse the feed in a terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDashboard(cmd, name)
		},
	}
	cmd.Flags().StringVar(&name, "source", "", "initial source tab by display name (default ui.default_source)")
	return cmd
}

func (a *app) runDashboard(cmd *cobra.Command, tab string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	if tab == "" {
		tab = cfg.UI.DefaultSource
	}

	// log lines on stderr would tear the alt screen
	quiet := zap.NewNop()
	fetch := func(ctx context.Context) aggregate.BucketMap {
		return a.aggregate(ctx, quiet, nil, cfg.Filters())
	}

	return tui.Run(tui.RunOpts{
		Title:       render.DefaultTitle,
		Fetch:       fetch,
		Source:      tab,
		HideSummary: !cfg.UI.ShowAbstract(),
	})
}
