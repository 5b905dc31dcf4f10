package commands

// Referral program commands

import (
	"context"

	"github.com/spf13/cobra"

	"traffmon/internal/clients_api/traffmonetizer"
)

var referralsCmd = &cobra.Command{
	Use:   "referrals",
	Short: "List invited users",
	RunE: runQuery(func(ctx context.Context, c *traffmonetizer.Client) (*traffmonetizer.Result, error) {
		return c.GetInvitedUsers(ctx)
	}),
}

var referrerEarningsCmd = &cobra.Command{
	Use:   "referrer-earnings",
	Short: "Show earnings from referrals",
	RunE: runQuery(func(ctx context.Context, c *traffmonetizer.Client) (*traffmonetizer.Result, error) {
		return c.GetReferrerEarnings(ctx)
	}),
}
