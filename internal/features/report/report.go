package report

// Earnings summary for the logged in account
// Collects balance and referral earnings, renders plain text, optionally delivers it to Telegram

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"traffmon/internal/clients_api/traffmonetizer"
	"traffmon/internal/infra/log"
)

// Dashboard is the part of the API client a report needs.
type Dashboard interface {
	GetBalance(ctx context.Context) (*traffmonetizer.Result, error)
	GetReferrerEarnings(ctx context.Context) (*traffmonetizer.Result, error)
}

// Sender delivers Telegram messages; *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Section is one titled block of the report.
type Section struct {
	Title string
	Lines []string
	Err   string // set when the endpoint failed, Lines is then empty
}

// Summary is a rendered-ready report.
type Summary struct {
	GeneratedAt time.Time
	Sections    []Section
}

// Collect queries the dashboard. Endpoint failures become section errors;
// only local errors (e.g. not logged in) and transport failures are returned.
func Collect(ctx context.Context, d Dashboard, now time.Time) (*Summary, error) {
	s := &Summary{GeneratedAt: now}

	steps := []struct {
		title string
		call  func(context.Context) (*traffmonetizer.Result, error)
	}{
		{"Balance", d.GetBalance},
		{"Referral earnings", d.GetReferrerEarnings},
	}

	for _, step := range steps {
		res, err := step.call(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", strings.ToLower(step.title), err)
		}
		s.Sections = append(s.Sections, section(step.title, res))
	}
	return s, nil
}

func section(title string, res *traffmonetizer.Result) Section {
	sec := Section{Title: title}
	if !res.Succeeded {
		sec.Err = fmt.Sprintf("request failed with status %d", res.StatusCode())
		return sec
	}
	if res.Body == nil {
		sec.Err = "response is not JSON"
		return sec
	}

	// the dashboard wraps payloads in {"data": ...}
	payload := res.Body
	if v, ok := res.Lookup("$.data"); ok {
		payload = v
	}
	flatten("", payload, &sec.Lines)
	if len(sec.Lines) == 0 {
		sec.Lines = []string{"(empty)"}
	}
	return sec
}

// flatten renders nested JSON as "a.b[0].c: value" lines with sorted keys.
func flatten(prefix string, v any, out *[]string) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, t[k], out)
		}
	case []any:
		if len(t) == 0 && prefix != "" {
			*out = append(*out, prefix+": []")
		}
		for i, item := range t {
			flatten(fmt.Sprintf("%s[%d]", prefix, i), item, out)
		}
	default:
		if prefix == "" {
			prefix = "value"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", prefix, scalar(t)))
	}
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Text renders the summary.
func (s *Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TraffMonetizer report %s\n", s.GeneratedAt.Format("2006-01-02 15:04 MST"))
	for _, sec := range s.Sections {
		fmt.Fprintf(&b, "\n%s\n", sec.Title)
		if sec.Err != "" {
			fmt.Fprintf(&b, "  error: %s\n", sec.Err)
			continue
		}
		for _, line := range sec.Lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	return b.String()
}

// maxMessageLen is Telegram's limit for a text message.
const maxMessageLen = 4096

// SendTelegram delivers text to chatID, truncating to Telegram's size limit.
func SendTelegram(bot Sender, chatID int64, text string) error {
	if bot == nil {
		return fmt.Errorf("telegram bot is not configured")
	}
	if chatID == 0 {
		return fmt.Errorf("telegram chat id is not configured")
	}

	if r := []rune(text); len(r) > maxMessageLen {
		text = string(r[:maxMessageLen-1]) + "…"
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := bot.Send(msg); err != nil {
		log.LogError("Failed to send report", zap.Int64("chatID", chatID), zap.Error(err))
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	log.LogSuccess("Report sent to Telegram", zap.Int64("chatID", chatID))
	return nil
}
