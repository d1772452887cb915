package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bet-tracker-bot/internal/handler"
	"bet-tracker-bot/internal/pkg/db"
	"bet-tracker-bot/internal/repository"
	"bet-tracker-bot/internal/service"
	"bet-tracker-bot/internal/stats"
)

var reportCmd = &cobra.Command{
	Use:   "report <user|all> [period]",
	Short: "Print stats to stdout",
	Long: `Print stats for one user or for everyone. Without a period every
window is shown; with one, only that window.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var periods []stats.Period
		if len(args) == 2 {
			p, err := stats.ParsePeriod(args[1])
			if err != nil {
				return err
			}
			periods = []stats.Period{p}
		} else {
			periods = stats.AllPeriods()
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		dbPool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		defer dbPool.Close()

		svc := service.NewStatsService(repository.NewPickRepository(dbPool.Pool), nil)
		return writeReport(ctx, cmd.OutOrStdout(), svc, args[0], periods)
	},
}

// writeReport prints one row per user and period, followed by a group
// row per period when target is "all".
func writeReport(ctx context.Context, out io.Writer, svc *service.StatsService, target string, periods []stats.Period) error {
	users := []string{target}
	all := strings.EqualFold(target, "all")
	if all {
		breakdowns, _, err := svc.ComputeBreakdown(ctx)
		if err != nil {
			return err
		}
		users = users[:0]
		for _, b := range breakdowns {
			users = append(users, b.User)
		}
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "USER\tPERIOD\tPICKS\tW-L\tSTAKE\tPROFIT\tROI%\tHIT%\t")

	row := func(user string, p stats.Period, s stats.Summary) {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d-%d\t%.2f\t%s\t%+.2f\t%.2f\t\n",
			user, p, s.Count, s.Wins, s.Losses, s.TotalStake, handler.Money(s.Profit), s.ReturnOnStake, s.HitRate)
	}

	for _, user := range users {
		for _, p := range periods {
			summary, err := svc.ComputeSummary(ctx, user, p)
			if err != nil {
				return err
			}
			row(user, p, summary)
		}
	}

	if all {
		for _, p := range periods {
			group, err := svc.ComputeGroupSummary(ctx, p)
			if err != nil {
				return err
			}
			row("(group)", p, group)
		}
	}

	return tw.Flush()
}
