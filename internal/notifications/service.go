package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mangashelf/internal/config"
	"mangashelf/internal/textutil"
)

const userAgent = "mangashelf/0.1"

// previewRunes bounds the text quoted in run notifications.
const previewRunes = 120

// Service defines the notification surface used by the CLI and workflow.
type Service interface {
	NotifyItemAdded(ctx context.Context, title string, pages int) error
	NotifyUnitAppended(ctx context.Context, itemTitle string, sequence, pages int) error
	NotifyRunCompleted(ctx context.Context, run Run) error
	NotifyRunFailed(ctx context.Context, run Run) error
	TestNotification(ctx context.Context) error
}

// Run summarizes one recognition-translation run for a notification.
type Run struct {
	ImageRef       string
	SourceLanguage string
	TargetLanguage string
	TranslatedText string
	FailureKind    string
	FailureMessage string
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers notifications.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyItemAdded(ctx context.Context, title string, pages int) error {
	title = strings.TrimSpace(title)
	return n.send(ctx, payload{
		title:   "mangashelf - Item Added",
		message: fmt.Sprintf("📚 Added: %s (%s)", title, pluralPages(pages)),
		tags:    []string{"mangashelf", "library", "added"},
	})
}

func (n *ntfyService) NotifyUnitAppended(ctx context.Context, itemTitle string, sequence, pages int) error {
	itemTitle = strings.TrimSpace(itemTitle)
	return n.send(ctx, payload{
		title:   "mangashelf - Unit Added",
		message: fmt.Sprintf("📖 %s: unit #%d (%s)", itemTitle, sequence, pluralPages(pages)),
		tags:    []string{"mangashelf", "library", "unit"},
	})
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, run Run) error {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s → %s", orUnknown(run.SourceLanguage), orUnknown(run.TargetLanguage))
	if text := textutil.Truncate(strings.TrimSpace(run.TranslatedText), previewRunes); text != "" {
		b.WriteString("\n")
		b.WriteString(text)
	}
	return n.send(ctx, payload{
		title:    "mangashelf - Translated",
		message:  b.String(),
		tags:     []string{"mangashelf", "translate", "completed"},
		priority: "low",
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, run Run) error {
	var b strings.Builder
	b.WriteString("❌ Translation failed")
	if run.ImageRef != "" {
		fmt.Fprintf(&b, " for %s", run.ImageRef)
	}
	if msg := strings.TrimSpace(run.FailureMessage); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	tags := []string{"mangashelf", "error"}
	if run.FailureKind != "" {
		tags = append(tags, run.FailureKind)
	}
	return n.send(ctx, payload{
		title:    "mangashelf - Error",
		message:  b.String(),
		tags:     tags,
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "mangashelf - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"mangashelf", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func pluralPages(n int) string {
	if n == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", n)
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

type noopService struct{}

func (noopService) NotifyItemAdded(context.Context, string, int) error         { return nil }
func (noopService) NotifyUnitAppended(context.Context, string, int, int) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, Run) error              { return nil }
func (noopService) NotifyRunFailed(context.Context, Run) error                 { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
