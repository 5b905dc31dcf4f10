package commands

// Session commands: login, logout, token
// The token returned by login is saved to <data_dir>/token.json and reused by every other command

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"traffmon/internal/clients_api/traffmonetizer"
	storage "traffmon/internal/infra/fs"
	"traffmon/internal/infra/log"
)

var (
	loginEmail    string
	loginPassword string
	loginCaptcha  string
	showToken     bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the session token",
	Long: `Log in with email and password (flags, TRAFF_EMAIL/TRAFF_PASSWORD or config.yaml).
Pass --captcha when the dashboard asks for a reCAPTCHA response.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session token",
	RunE:  runLogout,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the saved session",
	RunE:  runToken,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (env: TRAFF_EMAIL)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (env: TRAFF_PASSWORD)")
	loginCmd.Flags().StringVar(&loginCaptcha, "captcha", "", "g-recaptcha-response value (env: TRAFF_CAPTCHA)")
	tokenCmd.Flags().BoolVar(&showToken, "show", false, "Print the token itself")
}

func runLogin(cmd *cobra.Command, args []string) error {
	tm := cfg.TraffMonetizer
	email := firstNonEmpty(loginEmail, tm.Email)
	password := firstNonEmpty(loginPassword, tm.Password)
	captcha := firstNonEmpty(loginCaptcha, tm.Captcha)
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required (--email/--password or TRAFF_EMAIL/TRAFF_PASSWORD)")
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	log.LogInfo("Logging in...", zap.String("email", email))

	ok, err := client.CompleteLogin(cmd.Context(), email, password, captcha)
	if err != nil {
		log.LogError("Login failed", zap.Error(err))
		return fmt.Errorf("failed to log in: %w", err)
	}
	if !ok {
		return fmt.Errorf("login rejected: check email, password and captcha")
	}

	tf := storage.TokenFile{AccessToken: client.Token(), Email: email}
	if exp, err := traffmonetizer.TokenExpiry(tf.AccessToken); err == nil {
		tf.ExpiresAt = exp.Unix()
	} else {
		log.LogDebug("Token expiry unknown", zap.Error(err))
	}

	filename, err := storage.SaveToken(cfg.App.DataDir, tf)
	if err != nil {
		return err
	}

	log.LogSuccess("Session saved", zap.String("file", filename))
	if tf.ExpiresAt > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s, token expires %s\n", email, time.Unix(tf.ExpiresAt, 0).Format(time.RFC3339))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := storage.DeleteToken(cfg.App.DataDir); err != nil {
		return err
	}
	log.LogSuccess("Logged out")
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	tf, err := storage.LoadToken(cfg.App.DataDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "file:     %s\n", storage.TokenPath(cfg.App.DataDir))
	if tf.Email != "" {
		fmt.Fprintf(out, "email:    %s\n", tf.Email)
	}
	fmt.Fprintf(out, "saved:    %s\n", time.Unix(tf.SavedAt, 0).Format(time.RFC3339))
	if tf.ExpiresAt > 0 {
		state := "valid"
		if tf.Expired(time.Now()) {
			state = "expired, run 'traffmon login'"
		}
		fmt.Fprintf(out, "expires:  %s (%s)\n", time.Unix(tf.ExpiresAt, 0).Format(time.RFC3339), state)
	}
	if showToken {
		fmt.Fprintf(out, "token:    %s\n", tf.AccessToken)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
