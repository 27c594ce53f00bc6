// Package notify sends update lifecycle notifications to operators.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bedrockmgr/internal/config"
	"bedrockmgr/internal/ui"
)

// Notifier reports update workflow events. Implementations are best-effort:
// delivery failure never fails the workflow.
type Notifier interface {
	UpdateStarted(ctx context.Context, installed, latest string)
	UpdateSucceeded(ctx context.Context, version string)
	UpdateFailed(ctx context.Context, phase string, err error)
	NoUpdateNeeded(ctx context.Context, version string)
}

// Nop is a Notifier that does nothing.
type Nop struct{}

func (Nop) UpdateStarted(context.Context, string, string) {}
func (Nop) UpdateSucceeded(context.Context, string)       {}
func (Nop) UpdateFailed(context.Context, string, error)   {}
func (Nop) NoUpdateNeeded(context.Context, string)        {}

// Telegram delivers notifications via the Telegram bot API. Each event can
// be toggled independently in the config.
type Telegram struct {
	cfg    config.NotifyConfig
	client *http.Client
	out    *ui.UI

	// baseURL is overridable for tests.
	baseURL string
}

// New builds a Notifier from the notification config. Returns Nop when
// notifications are disabled or not fully configured.
func New(cfg config.NotifyConfig, output *ui.UI) Notifier {
	if !cfg.Enabled || cfg.BotToken == "" || cfg.ChatID == "" {
		return Nop{}
	}
	return &Telegram{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		out:     output,
		baseURL: "https://api.telegram.org",
	}
}

func (t *Telegram) UpdateStarted(ctx context.Context, installed, latest string) {
	if !t.cfg.OnUpdateStart {
		return
	}
	t.send(ctx, fmt.Sprintf("🔄 Bedrock server update started: %s → %s", installed, latest))
}

func (t *Telegram) UpdateSucceeded(ctx context.Context, version string) {
	if !t.cfg.OnSuccess {
		return
	}
	t.send(ctx, fmt.Sprintf("✅ Bedrock server updated to %s", version))
}

func (t *Telegram) UpdateFailed(ctx context.Context, phase string, err error) {
	if !t.cfg.OnFailure {
		return
	}
	t.send(ctx, fmt.Sprintf("❌ Bedrock server update failed during %s: %v", phase, err))
}

func (t *Telegram) NoUpdateNeeded(ctx context.Context, version string) {
	if !t.cfg.OnNoUpdate {
		return
	}
	t.send(ctx, fmt.Sprintf("ℹ️ Bedrock server already up to date (%s)", version))
}

// send posts one message. Failures are logged and swallowed.
func (t *Telegram) send(ctx context.Context, text string) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.cfg.BotToken)
	form := url.Values{
		"chat_id": {t.cfg.ChatID},
		"text":    {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		t.out.Warn("notification not sent: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		t.out.Warn("notification not sent: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.out.Warn("notification rejected: telegram returned %s", resp.Status)
	}
}
