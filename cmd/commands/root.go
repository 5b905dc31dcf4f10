package commands

// Root command for the CLI
// Loads configuration and logging once, before any subcommand runs
// Shared helpers to build an API client and print responses

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"traffmon/internal/clients_api/traffmonetizer"
	"traffmon/internal/features/jsonview"
	"traffmon/internal/infra/config"
	storage "traffmon/internal/infra/fs"
	"traffmon/internal/infra/log"
)

var (
	cfg      *config.Config
	jqQuery  string
	rawOut   bool
	noLogger bool
)

var rootCmd = &cobra.Command{
	Use:   "traffmon",
	Short: "TraffMonetizer dashboard client",
	Long: `traffmon talks to the TraffMonetizer dashboard API: log in once, then query balance,
earnings, payouts and referrals. Responses are printed as JSON and can be filtered with --jq.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return execute(ctx)
}

// execute runs the command tree and flushes the logs whether or not the command failed.
func execute(ctx context.Context) error {
	defer log.Close()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().StringVar(&jqQuery, "jq", "", "jq filter applied to the JSON response")
	rootCmd.PersistentFlags().BoolVar(&rawOut, "raw", false, "Print the response body as received")
	rootCmd.PersistentFlags().BoolVar(&noLogger, "no-log-file", false, "Do not write logs/app.log")

	rootCmd.AddCommand(loginCmd, logoutCmd, tokenCmd)
	rootCmd.AddCommand(balanceCmd, graphCmd, earningsCmd)
	rootCmd.AddCommand(payoutSettingsCmd, payoutsCmd)
	rootCmd.AddCommand(referralsCmd, referrerEarningsCmd)
	rootCmd.AddCommand(reportCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := log.Config{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    true,
	}
	if noLogger {
		logCfg.FilePath = ""
	}
	if err := log.Setup(logCfg); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	return nil
}

// newClient builds a client from the loaded config, with proxy applied.
func newClient() (*traffmonetizer.Client, error) {
	tm := cfg.TraffMonetizer
	client := traffmonetizer.NewClient(tm.ClientOptions()...)

	if tm.Proxy != "" {
		if err := client.SetProxy(tm.Proxy, traffmonetizer.ProxyScheme(tm.ProxyScheme)); err != nil {
			return nil, fmt.Errorf("failed to set proxy: %w", err)
		}
		cfgProxy, _ := client.Proxy()
		log.LogInfo("Using proxy", zap.String("proxy", cfgProxy.String()))
	}
	return client, nil
}

// newSessionClient is newClient plus a session token: --token/TRAFF_TOKEN first, then the saved session.
func newSessionClient() (*traffmonetizer.Client, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	if token := cfg.TraffMonetizer.Token; token != "" {
		client.SetToken(token)
		return client, nil
	}

	tf, err := storage.LoadToken(cfg.App.DataDir)
	if errors.Is(err, storage.ErrNoToken) {
		return nil, fmt.Errorf("not logged in, run 'traffmon login' first: %w", traffmonetizer.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, err
	}
	client.SetToken(tf.AccessToken)
	return client, nil
}

// printResult writes the response and turns a rejected request into an error.
func printResult(cmd *cobra.Command, res *traffmonetizer.Result) error {
	if err := jsonview.Render(cmd.OutOrStdout(), res, jsonview.Options{Query: jqQuery, Raw: rawOut}); err != nil {
		return err
	}
	if !res.Succeeded {
		return fmt.Errorf("API returned status %d", res.StatusCode())
	}
	return nil
}

// runQuery is the body of every read-only command.
func runQuery(call func(context.Context, *traffmonetizer.Client) (*traffmonetizer.Result, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client, err := newSessionClient()
		if err != nil {
			return err
		}

		res, err := call(cmd.Context(), client)
		if err != nil {
			log.LogError("Request failed", zap.String("command", cmd.Name()), zap.Error(err))
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		return printResult(cmd, res)
	}
}
