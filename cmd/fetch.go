package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/item"
)

const emptyHints = `No items returned. Consider:
  • Increasing --lookback-days
  • Loosening include keywords (or set source-level include_keywords: [])
  • Verifying venue names for OpenReview
  • Checking network/UA throttling (set a specific User-Agent for Reddit)
`

type fetchOpts struct {
	sources      []string
	show         int
	lookbackDays int
	include      string
	exclude      string
}

func fetchCmd(a *app) *cobra.Command {
	o := &fetchOpts{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch every source and print per-source counts",
		Long: `Run each enabled source once and report how many items it returned.

Exits with status 2 when no source returned anything.`,
		Example: `  newsfeed fetch --show 3
  newsfeed fetch --source reddit,openreview --show 5
  newsfeed fetch --include "ai, llm, security" --exclude "hiring, weekly"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFetch(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&o.sources, "source", nil, "restrict to these source keys ("+strings.Join(config.SourceKeys, ", ")+")")
	f.IntVar(&o.show, "show", 0, "show the first N items per source (0 = counts only)")
	f.IntVar(&o.lookbackDays, "lookback-days", 0, "override the global lookback_days")
	f.StringVar(&o.include, "include", "", "comma separated include keywords (override)")
	f.StringVar(&o.exclude, "exclude", "", "comma separated exclude keywords (override)")
	return cmd
}

func (a *app) runFetch(cmd *cobra.Command, o *fetchOpts) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	if err := checkSourceKeys(o.sources); err != nil {
		return err
	}

	filters := cfg.Filters()
	if cmd.Flags().Changed("lookback-days") {
		if o.lookbackDays < 0 {
			return fmt.Errorf("--lookback-days cannot be negative")
		}
		filters = filters.WithLookbackDays(o.lookbackDays)
	}
	if cmd.Flags().Changed("include") {
		filters.IncludeKeywords = csvList(o.include)
	}
	if cmd.Flags().Changed("exclude") {
		filters.ExcludeKeywords = csvList(o.exclude)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n=== Fetch @ %s ===\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Global filters: lookback_days=%d, include=%s, exclude=%s\n\n",
		filters.LookbackDays, listOrNone(filters.IncludeKeywords), listOrNone(filters.ExcludeKeywords))

	log := a.logger()
	reg := newRegistry(cfg, log)

	wanted := o.sources
	if len(wanted) == 0 {
		wanted = reg.Keys()
	}
	var run []string
	for _, key := range wanted {
		ad, ok := reg.Lookup(key)
		if !ok {
			continue
		}
		if !cfg.Source(key).IsEnabled() {
			fmt.Fprintf(out, "[%s] SKIPPED (disabled in config)\n", ad.Name())
			continue
		}
		run = append(run, key)
	}
	if len(run) == 0 {
		fmt.Fprint(out, emptyHints)
		return &exitError{code: 2}
	}

	buckets := a.aggregate(cmd.Context(), log, run, filters)

	total := 0
	buckets.Each(func(name string, items []item.Item) {
		total += len(items)
		fmt.Fprintf(out, "[%s] %d item(s)\n", name, len(items))
		printItems(out, items, o.show)
		fmt.Fprintln(out)
	})

	if total == 0 {
		fmt.Fprint(out, emptyHints)
		return &exitError{code: 2}
	}
	return nil
}

func printItems(out io.Writer, items []item.Item, n int) {
	n = max(0, n)
	for i, it := range items[:min(n, len(items))] {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, strings.TrimSpace(it.Title))

		var when string
		if it.Dated() {
			when = it.Published.Format("2006-01-02 15:04")
		}
		authors := item.FormatAuthors(it.Authors)
		if when != "" || authors != "" {
			fmt.Fprintf(out, "      %s  %s\n", when, authors)
		}
		if link := it.DocumentLink(); link != "" {
			fmt.Fprintf(out, "      %s\n", link)
		}
		if it.Summary != "" {
			fmt.Fprintf(out, "      %s\n", item.Truncate(item.Flatten(it.Summary), 200))
		}
	}
	if n > 0 && len(items) > n {
		fmt.Fprintf(out, "  … (%d more)\n", len(items)-n)
	}
}

func checkSourceKeys(keys []string) error {
	for _, k := range keys {
		if !slices.Contains(config.SourceKeys, k) {
			return fmt.Errorf("unknown source %q (want one of %s)", k, strings.Join(config.SourceKeys, ", "))
		}
	}
	return nil
}

func csvList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func listOrNone(l []string) string {
	if len(l) == 0 {
		return "(none)"
	}
	return "[" + strings.Join(l, ", ") + "]"
}
