package commands

// Balance and earnings commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"traffmon/internal/clients_api/traffmonetizer"
)

var (
	graphPeriod    string
	earningsFrom   string
	earningsTo     string
	earningsLimit  int
	earningsOffset int
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the current balance",
	RunE: runQuery(func(ctx context.Context, c *traffmonetizer.Client) (*traffmonetizer.Result, error) {
		return c.GetBalance(ctx)
	}),
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show earnings graph data",
	RunE: runQuery(func(ctx context.Context, c *traffmonetizer.Client) (*traffmonetizer.Result, error) {
		return c.GetGraphStat(ctx, graphPeriod)
	}),
}

var earningsCmd = &cobra.Command{
	Use:   "earnings",
	Short: "Show earnings per device",
	Long: `Show a page of per-device earnings between --from and --to (YYYY-MM-DD).
Defaults to the last 30 days, first 25 devices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := earningsRange(time.Now())
		if err != nil {
			return err
		}
		return runQuery(func(ctx context.Context, c *traffmonetizer.Client) (*traffmonetizer.Result, error) {
			return c.GetEarningsByDevices(ctx, start, end, earningsLimit, earningsOffset)
		})(cmd, args)
	},
}

func init() {
	graphCmd.Flags().StringVar(&graphPeriod, "period", traffmonetizer.DefaultGraphPeriod, "Graph period (day, week, month, ...)")

	earningsCmd.Flags().StringVar(&earningsFrom, "from", "", "Start date, YYYY-MM-DD (default 30 days ago)")
	earningsCmd.Flags().StringVar(&earningsTo, "to", "", "End date, YYYY-MM-DD (default today)")
	earningsCmd.Flags().IntVar(&earningsLimit, "limit", traffmonetizer.DefaultLimitCount, "Devices per page")
	earningsCmd.Flags().IntVar(&earningsOffset, "offset", traffmonetizer.DefaultLimitStart, "Devices to skip")
}

// earningsRange converts --from/--to into the dashboard's date format.
func earningsRange(now time.Time) (string, string, error) {
	end := now
	if earningsTo != "" {
		t, err := time.Parse(time.DateOnly, earningsTo)
		if err != nil {
			return "", "", fmt.Errorf("invalid --to date: %w", err)
		}
		end = t
	}

	start := end.AddDate(0, 0, -30)
	if earningsFrom != "" {
		t, err := time.Parse(time.DateOnly, earningsFrom)
		if err != nil {
			return "", "", fmt.Errorf("invalid --from date: %w", err)
		}
		start = t
	}

	if start.After(end) {
		return "", "", fmt.Errorf("--from is after --to")
	}
	if earningsLimit <= 0 || earningsOffset < 0 {
		return "", "", fmt.Errorf("--limit must be positive and --offset not negative")
	}
	return traffmonetizer.FormatDashboardDate(start), traffmonetizer.FormatDashboardDate(end), nil
}
