package cli

import (
	"fmt"

	"TeamPulse/internal/scheduler"

	"github.com/spf13/cobra"
)

// NewSweepCommand 手动执行一次逾期扫描，--remind 时同时发站会提醒
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	var remind bool
	cmd := &cobra.Command{
		Use:          "sweep",
		Short:        "Mark tasks past their deadline as Overdue",
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

			out := cmd.OutOrStdout()
			tasks, err := a.engine.Tasks.SweepOverdue(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tasks {
				deadline := ""
				if t.Deadline != nil {
					deadline = *t.Deadline
				}
				fmt.Fprintf(out, "#%d %s (deadline %s)\n", t.ID, t.Title, deadline)
			}
			fmt.Fprintf(out, "%d task(s) marked overdue\n", len(tasks))

			if !remind {
				return nil
			}
			sched, err := scheduler.New(a.cfg.Schedule, a.cfg.Location(), a.engine.Tasks, a.engine.Standups, a.engine.Notifications)
			if err != nil {
				return err
			}
			if err := sched.RunReminder(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "standup reminders queued")
			return nil
		},
	}
	cmd.Flags().BoolVar(&remind, "remind", false, "also queue standup reminders for users who have not submitted")
	return cmd
}
