package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nfodate/internal/config"
)

const userAgent = "nfodate/1"

// RunReport is the subset of a run summary included in notifications.
type RunReport struct {
	Mode      string
	Root      string
	Processed int
	Failed    int
	Changed   int
	Cancelled bool
	Duration  time.Duration
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyRunCompleted(ctx context.Context, report RunReport) error
	NotifyRunFailed(ctx context.Context, mode string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
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

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, report RunReport) error {
	return n.send(ctx, runCompletedPayload(report))
}

func runCompletedPayload(report RunReport) payload {
	mode := strings.TrimSpace(report.Mode)
	if mode == "" {
		mode = "apply"
	}
	duration := report.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	data := payload{
		tags: []string{"nfodate", mode, "completed"},
	}
	var b strings.Builder
	switch {
	case report.Cancelled:
		data.title = "nfodate - Run Cancelled"
		data.tags[2] = "cancelled"
		fmt.Fprintf(&b, "%s cancelled after %d files in %s", mode, report.Processed, duration)
	case report.Failed > 0:
		data.title = "nfodate - Run Complete (with errors)"
		data.priority = "high"
		fmt.Fprintf(&b, "%s complete: %d succeeded, %d failed in %s",
			mode, report.Processed-report.Failed, report.Failed, duration)
	default:
		data.title = "nfodate - Run Complete"
		fmt.Fprintf(&b, "%s complete: %d files processed in %s", mode, report.Processed, duration)
	}
	if mode == "apply" && report.Changed > 0 {
		fmt.Fprintf(&b, "\nChanged: %d", report.Changed)
	}
	if root := strings.TrimSpace(report.Root); root != "" {
		fmt.Fprintf(&b, "\nLibrary: %s", root)
	}
	data.message = b.String()
	return data
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, mode string, err error) error {
	var builder strings.Builder
	builder.WriteString("Run failed")
	if mode = strings.TrimSpace(mode); mode != "" {
		builder.WriteString(" (")
		builder.WriteString(mode)
		builder.WriteString(")")
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "nfodate - Error",
		message:  builder.String(),
		tags:     []string{"nfodate", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "nfodate - Test",
		message:  "Notification system test",
		tags:     []string{"nfodate", "test"},
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

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunReport) error  { return nil }
func (noopService) NotifyRunFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
