// Package runner is the terminal companion for an in-flight work session:
// a live countdown, escalation notices, and the checkout flow.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Session is the wire shape of a work session as the server returns it.
type Session struct {
	ID                 string     `json:"id"`
	TaskID             string     `json:"task_id"`
	StartedAt          time.Time  `json:"started_at"`
	PlannedCheckoutAt  time.Time  `json:"planned_checkout_at"`
	PlannedOutcome     string     `json:"planned_outcome"`
	PausedAt           *time.Time `json:"paused_at"`
	TotalPausedSeconds int        `json:"total_paused_seconds"`
	EndedAt            *time.Time `json:"ended_at"`
	SnoozeCount        int        `json:"snooze_count"`
}

func (s *Session) Paused() bool { return s.PausedAt != nil }

// CheckoutInput is what the checkout form collects.
type CheckoutInput struct {
	Decision       string
	ContinueReason string
	KeepNote       string
	ProblemNote    string
	TryNote        string
	RemainingHours *float64
}

// CheckoutOutcome is the digest of a completed checkout.
type CheckoutOutcome struct {
	ActualMinutes     int
	NewEstimate       *float64
	SuggestionID      string
	SuggestionChanges int
}

// Notification is one escalation notice from the server.
type Notification struct {
	Level string `json:"level"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// API is the slice of the server the runner needs.
type API interface {
	Current(ctx context.Context) (*Session, error)
	Pause(ctx context.Context) (*Session, error)
	Resume(ctx context.Context, extendCheckout bool) (*Session, error)
	Snooze(ctx context.Context, minutes int) (*Session, error)
	Checkout(ctx context.Context, in CheckoutInput) (*CheckoutOutcome, error)
}

// Client talks to the horae server over HTTP.
type Client struct {
	baseURL string
	user    string
	http    *http.Client
}

func NewClient(baseURL, user string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		user:    user,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Current(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.call(ctx, http.MethodGet, "/api/sessions/current", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Pause(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.call(ctx, http.MethodPost, "/api/sessions/pause", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Resume(ctx context.Context, extendCheckout bool) (*Session, error) {
	var s Session
	body := map[string]any{"extend_checkout": extendCheckout}
	if err := c.call(ctx, http.MethodPost, "/api/sessions/resume", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Snooze(ctx context.Context, minutes int) (*Session, error) {
	var s Session
	body := map[string]any{"snooze_minutes": minutes}
	if err := c.call(ctx, http.MethodPost, "/api/sessions/snooze", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutOutcome, error) {
	body := map[string]any{
		"checkout_type":   "MANUAL",
		"decision":        in.Decision,
		"continue_reason": in.ContinueReason,
		"keep_note":       in.KeepNote,
		"problem_note":    in.ProblemNote,
		"try_note":        in.TryNote,
	}
	if in.RemainingHours != nil {
		body["remaining_estimate_hours"] = *in.RemainingHours
	}
	var resp struct {
		ActualMinutes int      `json:"actual_minutes"`
		NewEstimate   *float64 `json:"new_estimate_hours"`
		Suggestion    *struct {
			ID   string `json:"id"`
			Diff struct {
				TotalChanges int `json:"total_changes"`
			} `json:"diff"`
		} `json:"reschedule_suggestion"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/sessions/checkout", body, &resp); err != nil {
		return nil, err
	}
	out := &CheckoutOutcome{
		ActualMinutes: resp.ActualMinutes,
		NewEstimate:   resp.NewEstimate,
	}
	if resp.Suggestion != nil {
		out.SuggestionID = resp.Suggestion.ID
		out.SuggestionChanges = resp.Suggestion.Diff.TotalChanges
	}
	return out, nil
}

// Listen opens the notification websocket and streams notices until the
// context ends or the connection drops.
func (c *Client) Listen(ctx context.Context) (<-chan Notification, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/notifications/ws"

	header := http.Header{}
	header.Set("X-Horae-User", c.user)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("dialing notification socket: %w", err)
	}

	ch := make(chan Notification)
	go func() {
		defer close(ch)
		defer conn.Close()
		for {
			var n Notification
			if err := conn.ReadJSON(&n); err != nil {
				return
			}
			select {
			case ch <- n:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return ch, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Horae-User", c.user)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s", apiErr.Message)
		}
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
