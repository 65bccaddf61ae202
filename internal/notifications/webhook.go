package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kjannette/goldprice-backend/internal/httputil"
)

const defaultSenderName = "GoldPriceTracker"

// Failure kinds reported by the collector.
const (
	KindNetwork     = "network"
	KindBadResponse = "bad_response"
	KindStore       = "store"
	KindPanic       = "panic"
	KindUnknown     = "unknown"
)

// Failure describes one failed gold price collection.
type Failure struct {
	Kind     string
	Upstream string
	Err      error
	At       time.Time
}

func (f Failure) upstreamHost() string {
	if u, err := url.Parse(f.Upstream); err == nil && u.Host != "" {
		return u.Host
	}
	return f.Upstream
}

func (f Failure) summary() string {
	return fmt.Sprintf("Gold price fetch failed (%s) from %s: %v", f.Kind, f.upstreamHost(), f.Err)
}

// Sender posts fetch failure alerts to a Slack or Discord incoming webhook.
// Repeats of the same failure kind inside the cooldown are only logged, so
// an outage spanning many hourly runs alerts once. With no URL configured it
// only logs.
type Sender struct {
	webhookURL string
	name       string
	cooldown   time.Duration
	httpClient *http.Client
	retry      httputil.RetryConfig

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewSender(webhookURL, name string, cooldown time.Duration) *Sender {
	if name == "" {
		name = defaultSenderName
	}
	return &Sender{
		webhookURL: webhookURL,
		name:       name,
		cooldown:   cooldown,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
			Label:       "CHAT",
		},
		lastSent: make(map[string]time.Time),
	}
}

func (s *Sender) Enabled() bool {
	return s != nil && s.webhookURL != ""
}

// NotifyFailure logs f and posts it unless the same kind was posted within
// the cooldown. It reports whether a post was attempted.
func (s *Sender) NotifyFailure(ctx context.Context, f Failure) bool {
	if f.At.IsZero() {
		f.At = time.Now()
	}
	if f.Kind == "" {
		f.Kind = KindUnknown
	}
	fmt.Printf("[%s] [%s] %s\n", f.At.UTC().Format(time.RFC3339), s.name, f.summary())

	if !s.Enabled() || !s.claim(f.Kind, f.At) {
		return false
	}

	body, err := json.Marshal(s.payload(f))
	if err != nil {
		fmt.Printf("[CHAT ERROR] marshal: %v\n", err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		fmt.Printf("[CHAT ERROR] Failed to deliver %s alert: %v\n", f.Kind, err)
		return true
	}
	resp.Body.Close()
	return true
}

// claim records at as the last alert time for kind, or returns false while
// the previous alert of that kind is still inside the cooldown.
func (s *Sender) claim(kind string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastSent[kind]; ok && s.cooldown > 0 && at.Sub(last) < s.cooldown {
		return false
	}
	s.lastSent[kind] = at
	return true
}

// --- payloads ---

type slackPayload struct {
	Username    string            `json:"username"`
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Fields []slackField `json:"fields"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type discordPayload struct {
	Username string         `json:"username"`
	Content  string         `json:"content"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp"`
	Fields      []discordField `json:"fields"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (s *Sender) payload(f Failure) any {
	errText := fmt.Sprint(f.Err)
	if strings.Contains(s.webhookURL, "discord") {
		return discordPayload{
			Username: s.name,
			Content:  f.summary(),
			Embeds: []discordEmbed{{
				Title:       "Gold price fetch failed",
				Description: errText,
				Color:       0xE74C3C,
				Timestamp:   f.At.UTC().Format(time.RFC3339),
				Fields: []discordField{
					{Name: "Kind", Value: f.Kind, Inline: true},
					{Name: "Upstream", Value: f.upstreamHost(), Inline: true},
				},
			}},
		}
	}
	return slackPayload{
		Username: s.name,
		Text:     fmt.Sprintf("`%s`", f.summary()),
		Attachments: []slackAttachment{{
			Color: "danger",
			Fields: []slackField{
				{Title: "Kind", Value: f.Kind, Short: true},
				{Title: "Upstream", Value: f.upstreamHost(), Short: true},
				{Title: "Error", Value: errText},
			},
			Ts: f.At.Unix(),
		}},
	}
}
