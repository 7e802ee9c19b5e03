// Package hub talks to the shared Regenmon HUB: registration, stat sync,
// the public leaderboard and the social endpoints (feed, gift, messages).
package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL   = "https://regenmon-final.vercel.app/api"
	DefaultTimeout   = 15 * time.Second
	DefaultRetryWait = 2 * time.Second

	// MaxMessageLength caps outgoing wall messages, in runes.
	MaxMessageLength = 140

	// FeedCost is what the HUB charges the sender to feed another Regenmon.
	FeedCost = 10

	DefaultLeaderboardLimit = 10
	DefaultMessagesLimit    = 20
	DefaultActivityLimit    = 10

	// RestingMessage is what players see for ErrResting.
	RestingMessage = "El HUB esta descansando, intenta despues"
)

var (
	// ErrResting is returned for every failed HUB call once the retry is spent.
	ErrResting = errors.New("hub: resting")

	ErrEmptyMessage  = errors.New("hub: empty message")
	ErrInvalidAmount = errors.New("hub: gift amount must be positive")
	ErrMissingID     = errors.New("hub: missing regenmon id")
)

// Options configures a Client. Zero values take the package defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RetryWait time.Duration
	Logger    *slog.Logger
}

// Client is a thin JSON client for the HUB API. Each request is retried
// once after RetryWait on a transport error or a non-2xx status.
type Client struct {
	http *resty.Client
	log  *slog.Logger
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = DefaultRetryWait
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.IsError()
		})

	return &Client{http: c, log: log}
}

// Register enrolls a Regenmon. An already registered Regenmon comes back
// with AlreadyRegistered set and its existing id.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, "POST", "/register", req, &out); err != nil {
		return RegisterResponse{}, err
	}
	if out.Data.ID == "" {
		c.log.Warn("hub: register returned no id")
		return RegisterResponse{}, ErrResting
	}
	return out, nil
}

// Sync pushes current stats and training points.
func (c *Client) Sync(ctx context.Context, req SyncRequest) (SyncResult, error) {
	if req.RegenmonID == "" {
		return SyncResult{}, ErrMissingID
	}
	if req.TrainingHistory == nil {
		req.TrainingHistory = []TrainingRecord{}
	}
	var out syncResponse
	if err := c.do(ctx, "POST", "/sync", req, &out); err != nil {
		return SyncResult{}, err
	}
	return out.Data, nil
}

func (c *Client) Leaderboard(ctx context.Context, page, limit int) (Leaderboard, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLeaderboardLimit
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out Leaderboard
	if err := c.do(ctx, "GET", "/leaderboard?"+q.Encode(), nil, &out); err != nil {
		return Leaderboard{}, err
	}
	return out, nil
}

func (c *Client) Profile(ctx context.Context, id string) (Profile, error) {
	if id == "" {
		return Profile{}, ErrMissingID
	}
	var out profileResponse
	if err := c.do(ctx, "GET", regenmonPath(id, ""), nil, &out); err != nil {
		return Profile{}, err
	}
	return out.Data, nil
}

// Feed spends FeedCost of the sender's HUB balance on the target.
func (c *Client) Feed(ctx context.Context, targetID, fromID string) (FeedResult, error) {
	if targetID == "" || fromID == "" {
		return FeedResult{}, ErrMissingID
	}
	body := map[string]string{"fromRegenmonId": fromID}
	var out feedResponse
	if err := c.do(ctx, "POST", regenmonPath(targetID, "feed"), body, &out); err != nil {
		return FeedResult{}, err
	}
	return out.Data, nil
}

func (c *Client) Gift(ctx context.Context, targetID, fromID string, amount int) (GiftResult, error) {
	if targetID == "" || fromID == "" {
		return GiftResult{}, ErrMissingID
	}
	if amount <= 0 {
		return GiftResult{}, ErrInvalidAmount
	}
	body := map[string]any{"fromRegenmonId": fromID, "amount": amount}
	var out giftResponse
	if err := c.do(ctx, "POST", regenmonPath(targetID, "gift"), body, &out); err != nil {
		return GiftResult{}, err
	}
	return out.Data, nil
}

func (c *Client) Messages(ctx context.Context, targetID string, limit int) ([]Message, error) {
	if targetID == "" {
		return nil, ErrMissingID
	}
	if limit < 1 {
		limit = DefaultMessagesLimit
	}
	var out messagesResponse
	path := regenmonPath(targetID, "messages") + "?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data.Messages, nil
}

// SendMessage posts to the target's wall. The message is trimmed and
// truncated to MaxMessageLength runes.
func (c *Client) SendMessage(ctx context.Context, targetID, fromID, fromName, message string) error {
	if targetID == "" || fromID == "" {
		return ErrMissingID
	}
	message = TrimMessage(message)
	if message == "" {
		return ErrEmptyMessage
	}
	body := sendMessageRequest{FromRegenmonID: fromID, FromName: fromName, Message: message}
	return c.do(ctx, "POST", regenmonPath(targetID, "messages"), body, nil)
}

func (c *Client) Activity(ctx context.Context, id string, limit int) ([]Activity, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	if limit < 1 {
		limit = DefaultActivityLimit
	}
	var out activityResponse
	path := regenmonPath(id, "activity") + "?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data.Activity, nil
}

// TrimMessage trims whitespace and caps the text at MaxMessageLength runes.
func TrimMessage(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > MaxMessageLength {
		s = strings.TrimSpace(string(r[:MaxMessageLength]))
	}
	return s
}

// do sends one request. Any failure that survives the retry is logged and
// reported as ErrResting.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Warn("hub: request failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("%w: %v", ErrResting, err)
	}
	if resp.IsError() {
		c.log.Warn("hub: request failed", "method", method, "path", path, "status", resp.StatusCode(), "body", truncate(resp.String(), 200))
		return fmt.Errorf("%w: status %d", ErrResting, resp.StatusCode())
	}
	return nil
}

func regenmonPath(id, action string) string {
	p := "/regenmon/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// SpriteURL returns the twemoji PNG for an emoji, used as the HUB sprite.
func SpriteURL(emoji string) string {
	parts := make([]string, 0, 2)
	for _, r := range emoji {
		parts = append(parts, strconv.FormatInt(int64(r), 16))
	}
	return "https://cdn.jsdelivr.net/gh/twitter/twemoji@latest/assets/72x72/" + strings.Join(parts, "-") + ".png"
}
