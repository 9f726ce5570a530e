package cli

import (
	"fmt"
	"text/tabwriter"

	"TeamPulse/internal/model"
	"TeamPulse/internal/repository/rdb"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:          "stats",
		Short:        "Print dashboard counters and the karma leaderboard",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}
			ctx := cmd.Context()

			d, err := a.engine.Search.Dashboard(ctx)
			if err != nil {
				return err
			}
			outbox := &rdb.OutboxRepository{DB: a.db}
			pending, err := outbox.CountByStatus(ctx, model.OutboxPending)
			if err != nil {
				return err
			}
			failed, err := outbox.CountByStatus(ctx, model.OutboxFailed)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "users\t%s\t(%s active in 7d)\n", humanize.Comma(d.TotalUsers), humanize.Comma(d.ActiveUsers))
			fmt.Fprintf(w, "ideas\t%s\t(%s open)\n", humanize.Comma(d.TotalIdeas), humanize.Comma(d.OpenIdeas))
			fmt.Fprintf(w, "tasks\t%s\t(%s done, %s overdue, %.1f%% complete)\n",
				humanize.Comma(d.TotalTasks), humanize.Comma(d.CompletedTasks), humanize.Comma(d.OverdueTasks),
				d.CompletionRate*100)
			fmt.Fprintf(w, "outbox\t%s pending\t(%s failed)\n", humanize.Comma(pending), humanize.Comma(failed))
			if err := w.Flush(); err != nil {
				return err
			}

			if top <= 0 {
				return nil
			}
			users, err := a.engine.Users.Leaderboard(ctx, top)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nleaderboard")
			w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s karma\tseen %s\n",
					humanize.Ordinal(i+1), u.Username, humanize.Comma(u.Karma), humanize.Time(u.LastActive))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "leaderboard size, 0 to skip")
	return cmd
}
