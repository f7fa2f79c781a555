package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/delivery"
	"github.com/Tomjg14/research-newsfeed/internal/item"
	"github.com/Tomjg14/research-newsfeed/internal/render"
	"github.com/Tomjg14/research-newsfeed/internal/source"
)

const defaultUserHours = 24

type digestOpts struct {
	format       string
	maxPerSource int
	out          string
	since        string
	sources      []string
}

func digestCmd(a *app) *cobra.Command {
	o := &digestOpts{}
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Render the digest to stdout or a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDigest(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.format, "format", "html", "output format: html, text or markdown")
	f.IntVar(&o.maxPerSource, "max-per-source", 0, "cap items per source (default email.max_per_source; 0 = unlimited)")
	f.StringVarP(&o.out, "out", "o", "", "write to this file instead of stdout")
	f.StringVar(&o.since, "since", "", "only keep items from the last duration (e.g. 7d, 24h)")
	f.StringSliceVar(&o.sources, "source", nil, "restrict to these source keys")
	return cmd
}

func (a *app) runDigest(cmd *cobra.Command, o *digestOpts) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	if err := checkSourceKeys(o.sources); err != nil {
		return err
	}
	var cutoff time.Time
	if o.since != "" {
		d, err := parseSince(o.since)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		cutoff = time.Now().Add(-d)
	}

	opts := render.Options{
		Title:        render.DefaultTitle,
		MaxPerSource: maxPerSource(cmd, cfg, o.maxPerSource),
	}

	buckets := a.aggregate(cmd.Context(), a.logger(), nilIfEmpty(o.sources), cfg.Filters())
	if !cutoff.IsZero() {
		buckets = aggregate.FilterSince(buckets, cutoff)
	}

	var doc string
	switch o.format {
	case "html":
		doc, err = render.HTML(buckets, opts)
		if err != nil {
			return fmt.Errorf("rendering html: %w", err)
		}
	case "text", "txt":
		doc = render.Plaintext(buckets, opts)
	case "markdown", "md":
		doc = render.Markdown(aggregate.Combined(buckets), opts)
	default:
		return fmt.Errorf("unknown format %q (want html, text or markdown)", o.format)
	}

	if o.out == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
		return err
	}
	if err := os.WriteFile(o.out, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing digest: %w", err)
	}
	a.logger().Info("digest written",
		zap.String("path", o.out),
		zap.String("format", o.format),
		zap.Int("items", buckets.Total()))
	return nil
}

type sendOpts struct {
	to           string
	maxPerSource int
	users        bool
}

func sendCmd(a *app) *cobra.Command {
	o := &sendOpts{}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build the digest and email it",
		Long: `Build the digest and deliver it through Resend (RESEND_API_KEY) or SMTP (SMTP_HOST).

With --users every stored subscriber gets a digest narrowed to their own
sources (all when none are set) and lookback hours (24 when unset).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.users {
				return a.runSendUsers(cmd, o)
			}
			return a.runSend(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.to, "to", "", "comma separated recipients (default $TO_EMAIL)")
	f.IntVar(&o.maxPerSource, "max-per-source", 0, "cap items per source (default email.max_per_source; 0 = unlimited)")
	f.BoolVar(&o.users, "users", false, "send one digest per stored subscriber")
	return cmd
}

func (a *app) runSend(cmd *cobra.Command, o *sendOpts) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	to := delivery.Recipients(o.to)
	if len(to) == 0 {
		to = delivery.Recipients(os.Getenv("TO_EMAIL"))
	}
	if len(to) == 0 {
		return errors.New("no recipients: pass --to or set TO_EMAIL")
	}
	mailer, err := newMailer()
	if err != nil {
		return err
	}

	now := time.Now()
	buckets := a.aggregate(cmd.Context(), a.logger(), nil, cfg.Filters())
	opts := render.Options{
		Title:        fmt.Sprintf("%s — %s", render.DefaultTitle, now.Format("2006-01-02")),
		MaxPerSource: maxPerSource(cmd, cfg, o.maxPerSource),
		Now:          now,
	}
	if err := deliver(cmd.Context(), mailer, to, buckets, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent to %d recipient(s) with %d items\n", len(to), buckets.Total())
	return nil
}

func (a *app) runSendUsers(cmd *cobra.Command, o *sendOpts) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	db, err := openStore(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	users, err := db.ListUsers()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "No users yet. Nothing to send.")
		return nil
	}
	mailer, err := newMailer()
	if err != nil {
		return err
	}

	log := a.logger()
	reg := newRegistry(cfg, log)
	now := time.Now()
	all := aggregate.Limit(a.aggregate(cmd.Context(), log, nil, cfg.Filters()), cfg.SendLimitPerSource)
	maxN := maxPerSource(cmd, cfg, o.maxPerSource)

	var errs []error
	for _, u := range users {
		keys, err := db.GetUserSources(u.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		hours, ok, err := db.GetUserHoursDefault(u.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			hours = defaultUserHours
		}

		buckets := aggregate.FilterSince(pickSources(all, reg, keys), now.Add(-time.Duration(hours)*time.Hour))
		opts := render.Options{
			Title:        fmt.Sprintf("%s — last %dh", render.DefaultTitle, hours),
			MaxPerSource: maxN,
			Now:          now,
		}
		if err := deliver(cmd.Context(), mailer, []string{u.Email}, buckets, opts); err != nil {
			log.Warn("delivery failed", zap.String("email", u.Email), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "Sent to %s with %d items\n", u.Email, buckets.Total())
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	return db.SetLastRun(now)
}

// deliver renders buckets and sends them; the subject is the digest title.
func deliver(ctx context.Context, m delivery.Mailer, to []string, b aggregate.BucketMap, opts render.Options) error {
	html, err := render.HTML(b, opts)
	if err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}
	return m.Send(ctx, delivery.Message{
		To:      to,
		Subject: opts.Title,
		HTML:    html,
		Text:    render.Plaintext(b, opts),
	})
}

// pickSources narrows b to the buckets of the given config keys, in bucket
// order; no keys keeps everything.
func pickSources(b aggregate.BucketMap, reg *source.Registry, keys []string) aggregate.BucketMap {
	if len(keys) == 0 {
		return b
	}
	wanted := map[string]bool{}
	for _, k := range keys {
		if ad, ok := reg.Lookup(k); ok {
			wanted[ad.Name()] = true
		}
	}
	out := aggregate.NewBucketMap()
	b.Each(func(name string, items []item.Item) {
		if wanted[name] {
			out.Add(name, items)
		}
	})
	return out
}

func maxPerSource(cmd *cobra.Command, cfg *config.Config, flag int) int {
	if cmd.Flags().Changed("max-per-source") {
		return flag
	}
	return int(cfg.Email.MaxPerSource)
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
