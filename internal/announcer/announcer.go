// Package announcer posts a one-line summary of each poll cycle to an
// operator webhook.
package announcer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"aaronromeo.com/triager/internal/pipeline"
)

const webhookAnnouncePath = "/announcements"

type Option func(*Announcer)

func WithWebhookURL(webhookURL string) Option {
	return func(a *Announcer) {
		a.baseURL = strings.TrimRight(strings.TrimSpace(webhookURL), "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(a *Announcer) {
		a.client = client
	}
}

// Announcer is a no-op without a webhook URL.
type Announcer struct {
	baseURL string
	client  *http.Client
}

func New(opts ...Option) *Announcer {
	a := &Announcer{client: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Announcer) Enabled() bool {
	return a.baseURL != ""
}

// Message renders the announcement text for a report.
func Message(r pipeline.Report) string {
	if r.Error != "" {
		return fmt.Sprintf("cycle %s failed: %s", r.RunID, r.Error)
	}
	msg := fmt.Sprintf("cycle %s: %d processed, %d skipped, %d failed", r.RunID, r.Processed, r.Skipped, r.Failed)
	if r.DryRun {
		msg += " (dry run)"
	}
	if len(r.ByCategory) == 0 {
		return msg
	}
	names := make([]string, 0, len(r.ByCategory))
	for name := range r.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, r.ByCategory[name]))
	}
	return msg + " [" + strings.Join(parts, " ") + "]"
}

// Announce posts the report summary. Quiet cycles (no candidates, no error)
// are not announced.
func (a *Announcer) Announce(ctx context.Context, r pipeline.Report) error {
	if !a.Enabled() || (r.Candidates == 0 && r.Error == "") {
		return nil
	}
	payload, err := json.Marshal(map[string]string{"message": Message(r)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+webhookAnnouncePath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post announcement")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reporting webhook returned status %s", resp.Status)
	}
	return nil
}
