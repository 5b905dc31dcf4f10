package commands

// Report command: balance + referral earnings as text, printed or sent to Telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"traffmon/internal/features/report"
	"traffmon/internal/infra/log"
)

var reportTelegram bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print an earnings summary, or send it to Telegram",
	Long: `Collect balance and referral earnings into a short text report.
With --telegram the report goes to telegram.chat_id using telegram.bot_token
(env: TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID).`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportTelegram, "telegram", false, "Send the report to Telegram instead of stdout")
}

func runReport(cmd *cobra.Command, args []string) error {
	client, err := newSessionClient()
	if err != nil {
		return err
	}

	startTime := time.Now()
	summary, err := report.Collect(cmd.Context(), client, startTime)
	if err != nil {
		log.LogError("Failed to collect report", zap.Error(err))
		return err
	}
	log.LogInfo("Report collected", zap.Int64("duration_ms", time.Since(startTime).Milliseconds()))

	text := summary.Text()
	if !reportTelegram {
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}

	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is not configured (env: TELEGRAM_BOT_TOKEN)")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.LogError("Failed to create Telegram bot", zap.Error(err))
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return report.SendTelegram(bot, cfg.Telegram.ChatID, text)
}
