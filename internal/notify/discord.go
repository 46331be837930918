// internal/notify/discord.go
//
// Outbound admin-action notifications.
//
// Context
// -------
// Every admin mutation is echoed to a Discord channel through an incoming
// webhook.  The payload is a single embed:
//
//   title   "Admin Action: <action>"
//   body    the human-readable details line
//   fields  Category, Timestamp (America/New_York), and Client
//   footer  "RENNSZ Admin Panel"
//
// Delivery is best effort.  Callers log the returned error and carry on;
// the activity-log row is the durable record.
//
// Notes
// -----
//   • An empty webhook URL yields a Nop notifier.
//   • Non-2xx replies count as failures and bump WebhookErrorsTotal.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yanizio/streamsite/internal/metrics"
)

// Event is one admin action worth announcing.
type Event struct {
	Action   string
	Details  string
	Category string
	Client   string
	At       time.Time
}

// Notifier delivers events to an external channel.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }

/*──────────────────────────── Discord ──────────────────────────────────────*/

const (
	embedColor  = 0xD4AF37
	footerText  = "RENNSZ Admin Panel"
	displayZone = "America/New_York"
	stampLayout = "Jan 2, 2006, 3:04:05 PM"
	sendTimeout = 10 * time.Second
)

// Discord posts embeds to an incoming webhook.
type Discord struct {
	url    string
	client *http.Client
	loc    *time.Location
}

// New returns a Discord notifier, or Nop when webhookURL is empty.
func New(webhookURL string) Notifier {
	if webhookURL == "" {
		return Nop{}
	}
	return NewDiscord(webhookURL, &http.Client{Timeout: sendTimeout})
}

// NewDiscord builds a notifier with an explicit HTTP client.
func NewDiscord(webhookURL string, client *http.Client) *Discord {
	loc, err := time.LoadLocation(displayZone)
	if err != nil {
		loc = time.UTC
	}
	return &Discord{url: webhookURL, client: client, loc: loc}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Footer      struct {
		Text string `json:"text"`
	} `json:"footer"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// payload renders ev as the webhook body.
func (d *Discord) payload(ev Event) webhookPayload {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	e := embed{
		Title:       "Admin Action: " + ev.Action,
		Description: ev.Details,
		Color:       embedColor,
		Fields: []embedField{
			{Name: "Category", Value: ev.Category, Inline: true},
			{Name: "Timestamp", Value: at.In(d.loc).Format(stampLayout), Inline: true},
		},
	}
	if ev.Client != "" {
		e.Fields = append(e.Fields, embedField{Name: "Client", Value: ev.Client})
	}
	e.Footer.Text = footerText
	return webhookPayload{Embeds: []embed{e}}
}

// Notify implements Notifier.
func (d *Discord) Notify(ctx context.Context, ev Event) error {
	err := d.send(ctx, ev)
	if err != nil {
		metrics.WebhookErrorsTotal.Inc()
	}
	return err
}

func (d *Discord) send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(d.payload(ev))
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: webhook status %d", resp.StatusCode)
	}
	return nil
}
