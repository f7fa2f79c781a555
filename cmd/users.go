package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/store"
)

func usersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage digest subscribers",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <email>",
			Short: "Add a subscriber",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, db *store.Store, args []string) error {
				u, err := db.UpsertUser(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (id %d)\n", u.Email, u.ID)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "sources <email> [source...]",
			Short: "Set a subscriber's sources (none = all)",
			Args:  cobra.MinimumNArgs(1),
			RunE: withStore(func(cmd *cobra.Command, db *store.Store, args []string) error {
				keys := args[1:]
				if err := checkSourceKeys(keys); err != nil {
					return err
				}
				u, err := db.UpsertUser(args[0])
				if err != nil {
					return err
				}
				if err := db.SetUserSources(u.ID, keys); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: sources %s\n", u.Email, sourcesLabel(keys))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "hours <email> <hours>",
			Short: "Set a subscriber's lookback window in hours",
			Args:  cobra.ExactArgs(2),
			RunE: withStore(func(cmd *cobra.Command, db *store.Store, args []string) error {
				hours, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid hours %q: %w", args[1], err)
				}
				u, err := db.UpsertUser(args[0])
				if err != nil {
					return err
				}
				if err := db.SetUserHoursDefault(u.ID, hours); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: last %dh\n", u.Email, hours)
				return nil
			}),
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List subscribers",
			Args:    cobra.NoArgs,
			RunE: withStore(func(cmd *cobra.Command, db *store.Store, args []string) error {
				return listUsers(cmd, db)
			}),
		},
		&cobra.Command{
			Use:     "remove <email>",
			Aliases: []string{"rm"},
			Short:   "Remove a subscriber",
			Args:    cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, db *store.Store, args []string) error {
				if err := db.RemoveUser(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			}),
		},
	)
	return cmd
}

func withStore(fn func(cmd *cobra.Command, db *store.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		db, err := openStore(config.DBPath())
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer db.Close()
		return fn(cmd, db, args)
	}
}

func listUsers(cmd *cobra.Command, db *store.Store) error {
	users, err := db.ListUsers()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "No users.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tSOURCES\tHOURS\tADDED")
	for _, u := range users {
		keys, err := db.GetUserSources(u.ID)
		if err != nil {
			return err
		}
		hours, ok, err := db.GetUserHoursDefault(u.ID)
		if err != nil {
			return err
		}
		h := strconv.Itoa(defaultUserHours) + " (default)"
		if ok {
			h = strconv.Itoa(hours)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Email, sourcesLabel(keys), h, humanize.Time(u.CreatedAt))
	}
	return w.Flush()
}

func sourcesLabel(keys []string) string {
	if len(keys) == 0 {
		return "all"
	}
	return strings.Join(keys, ",")
}
