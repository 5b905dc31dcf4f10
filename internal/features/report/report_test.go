package report

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffmon/internal/clients_api/traffmonetizer"
)

var reportTime = time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC)

func newDashboard(t *testing.T, handler http.HandlerFunc) *traffmonetizer.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := traffmonetizer.NewClient(traffmonetizer.WithBaseURL(srv.URL))
	c.SetToken("tkn")
	return c
}

func TestCollect(t *testing.T) {
	c := newDashboard(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/app_user/get_balance":
			io.WriteString(w, `{"data":{"balance":1.25,"currency":"USD"}}`)
		case "/api/affiliate/get_referrer_earnings":
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	s, err := Collect(context.Background(), c, reportTime)
	require.NoError(t, err)
	require.Len(t, s.Sections, 2)

	assert.Equal(t, "Balance", s.Sections[0].Title)
	assert.Equal(t, []string{"balance: 1.25", "currency: USD"}, s.Sections[0].Lines)
	assert.Equal(t, "request failed with status 500", s.Sections[1].Err)

	text := s.Text()
	assert.True(t, strings.HasPrefix(text, "TraffMonetizer report 2024-05-01 09:30 UTC"))
	assert.Contains(t, text, "  balance: 1.25\n")
	assert.Contains(t, text, "  error: request failed with status 500\n")
}

func TestCollect_NotLoggedIn(t *testing.T) {
	c := traffmonetizer.NewClient(traffmonetizer.WithBaseURL("http://127.0.0.1:1"))

	_, err := Collect(context.Background(), c, reportTime)
	assert.ErrorIs(t, err, traffmonetizer.ErrNotAuthenticated)
}

func TestFlatten(t *testing.T) {
	var lines []string
	flatten("", map[string]any{
		"b": []any{map[string]any{"id": float64(7)}},
		"a": nil,
		"c": []any{},
	}, &lines)

	assert.Equal(t, []string{"a: null", "b[0].id: 7", "c: []"}, lines)
}

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestSendTelegram(t *testing.T) {
	bot := &fakeSender{}
	require.NoError(t, SendTelegram(bot, 42, "hello"))
	require.Len(t, bot.sent, 1)

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "hello", msg.Text)
}

func TestSendTelegram_Truncates(t *testing.T) {
	bot := &fakeSender{}
	require.NoError(t, SendTelegram(bot, 42, strings.Repeat("x", 5000)))

	msg := bot.sent[0].(tgbotapi.MessageConfig)
	assert.Len(t, []rune(msg.Text), maxMessageLen)
}

func TestSendTelegram_Errors(t *testing.T) {
	assert.Error(t, SendTelegram(nil, 42, "x"))
	assert.Error(t, SendTelegram(&fakeSender{}, 0, "x"))
	assert.Error(t, SendTelegram(&fakeSender{err: errors.New("boom")}, 42, "x"))
}
