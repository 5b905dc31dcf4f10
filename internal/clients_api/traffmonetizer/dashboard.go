package traffmonetizer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"traffmon/internal/infra/log"

	"go.uber.org/zap"
)

const (
	DefaultGraphPeriod = "month"
	DefaultLimitCount  = 25
	DefaultLimitStart  = 0

	// DashboardDateLayout is the date format the earnings endpoints expect, e.g. "Tue Jan 31 2023".
	DashboardDateLayout = "Mon Jan 02 2006"

	tokenPath = "$.data.token"
)

// FormatDashboardDate renders t in DashboardDateLayout.
func FormatDashboardDate(t time.Time) string {
	return t.Format(DashboardDateLayout)
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email           string `json:"email"`
	CaptchaResponse string `json:"g-recaptcha-response"`
	Password        string `json:"password"`
}

// EarningsByDevicesRequest is the body of POST /stat/get_earning_by_devices
type EarningsByDevicesRequest struct {
	StartDate  string `json:"startDate"`
	LimitCount int    `json:"limitCount"`
	LimitStart int    `json:"limitStart"`
	EndDate    string `json:"endDate"`
}

// Login posts the credentials. It does not touch the session; see CompleteLogin.
// captchaResponse may be empty.
func (c *Client) Login(ctx context.Context, email, password, captchaResponse string) (*Result, error) {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body: LoginRequest{
			Email:           email,
			CaptchaResponse: captchaResponse,
			Password:        password,
		},
	})
}

// CompleteLogin logs in and stores the returned token.
// It returns false (and no error) when the server rejects the login, and
// ErrMalformedResponse when a successful response carries no data.token.
func (c *Client) CompleteLogin(ctx context.Context, email, password, captchaResponse string) (bool, error) {
	startTime := time.Now()

	res, err := c.Login(ctx, email, password, captchaResponse)
	if err != nil {
		return false, err
	}
	if !res.Succeeded {
		log.LogWarn("Login rejected", zap.Int("status_code", res.StatusCode()))
		return false, nil
	}

	v, ok := res.Lookup(tokenPath)
	if !ok {
		return false, fmt.Errorf("%w: login response has no %s", ErrMalformedResponse, tokenPath)
	}
	token, ok := v.(string)
	if !ok || token == "" {
		return false, fmt.Errorf("%w: %s is not a non-empty string", ErrMalformedResponse, tokenPath)
	}

	c.SetToken(token)
	log.LogSuccess("Logged in", zap.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	return true, nil
}

// GetPayoutSettings returns the payout configuration of the logged in user.
func (c *Client) GetPayoutSettings(ctx context.Context) (*Result, error) {
	return c.do(ctx, request{method: http.MethodGet, path: "/user/payout_settings/get", auth: true})
}

// GetGraphStat returns earnings graph data for period ("month" when empty).
func (c *Client) GetGraphStat(ctx context.Context, period string) (*Result, error) {
	if period == "" {
		period = DefaultGraphPeriod
	}
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   "/stat/get_earning_by_devices",
		query:  url.Values{"period": {period}},
		auth:   true,
	})
}

// GetEarningsByDevices returns a page of per-device earnings between two dates.
// Dates use DashboardDateLayout; see FormatDashboardDate.
func (c *Client) GetEarningsByDevices(ctx context.Context, startDate, endDate string, limitCount, limitStart int) (*Result, error) {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/stat/get_earning_by_devices",
		body: EarningsByDevicesRequest{
			StartDate:  startDate,
			LimitCount: limitCount,
			LimitStart: limitStart,
			EndDate:    endDate,
		},
		auth: true,
	})
}

// GetBalance returns the current balance.
func (c *Client) GetBalance(ctx context.Context) (*Result, error) {
	return c.do(ctx, request{method: http.MethodGet, path: "/app_user/get_balance", auth: true})
}

// GetPayoutHistory returns past payouts.
//
// page is accepted but not sent: the dashboard has never been observed taking a page
// parameter on this endpoint and the wire format is kept as the web app uses it.
func (c *Client) GetPayoutHistory(ctx context.Context, page int) (*Result, error) {
	if page > 1 {
		log.LogDebug("Payout history page is not sent to the API", zap.Int("page", page))
	}
	return c.do(ctx, request{method: http.MethodGet, path: "/payments/get_by_user", auth: true})
}

// GetInvitedUsers returns the referral list.
func (c *Client) GetInvitedUsers(ctx context.Context) (*Result, error) {
	return c.do(ctx, request{method: http.MethodGet, path: "/affiliate/get_invited_users", auth: true})
}

// GetReferrerEarnings returns earnings from referrals.
func (c *Client) GetReferrerEarnings(ctx context.Context) (*Result, error) {
	return c.do(ctx, request{method: http.MethodGet, path: "/affiliate/get_referrer_earnings", auth: true})
}
