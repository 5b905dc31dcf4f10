package commands

// Payout commands

import (
	"context"

	"github.com/spf13/cobra"

	"traffmon/internal/clients_api/traffmonetizer"
)

var payoutsPage int

var payoutSettingsCmd = &cobra.Command{
	Use:   "payout-settings",
	Short: "Show payout settings",
	RunE: runQuery(func(ctx context.Context, c *traffmonetizer.Client) (*traffmonetizer.Result, error) {
		return c.GetPayoutSettings(ctx)
	}),
}

var payoutsCmd = &cobra.Command{
	Use:   "payouts",
	Short: "Show payout history",
	Long:  `Show payout history. The dashboard returns the full history; --page is currently not sent.`,
	RunE: runQuery(func(ctx context.Context, c *traffmonetizer.Client) (*traffmonetizer.Result, error) {
		return c.GetPayoutHistory(ctx, payoutsPage)
	}),
}

func init() {
	payoutsCmd.Flags().IntVar(&payoutsPage, "page", 1, "Page number (not sent to the API yet)")
}
