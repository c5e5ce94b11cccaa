package emby

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nfodate/internal/config"
	"nfodate/internal/services"
)

// Service refreshes the media server library.
type Service interface {
	Refresh(ctx context.Context) error
	Enabled() bool
}

// HTTPDoer describes the HTTP client used by the Emby service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type noopService struct{}

func (noopService) Refresh(context.Context) error { return nil }

func (noopService) Enabled() bool { return false }

type httpService struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewConfiguredService returns an Emby service built from cfg.
func NewConfiguredService(cfg *config.Config) Service {
	if cfg == nil || !cfg.Emby.Enabled {
		return noopService{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Emby.URL), "/")
	apiKey := strings.TrimSpace(cfg.Emby.APIKey)
	if baseURL == "" || apiKey == "" {
		return noopService{}
	}
	return &httpService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewHTTPService constructs an HTTP-backed Emby service.
func NewHTTPService(baseURL, apiKey string, client HTTPDoer) Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpService{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

func (s *httpService) Enabled() bool { return true }

func (s *httpService) Refresh(ctx context.Context) error {
	if s == nil || s.client == nil || s.baseURL == "" || s.apiKey == "" {
		return nil
	}
	refreshURL := fmt.Sprintf("%s/Library/Refresh", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, refreshURL, nil)
	if err != nil {
		return services.Wrap(services.ErrIOFailure, "emby", "refresh", "build request", err)
	}
	req.Header.Set("X-Emby-Token", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrIOFailure, "emby", "refresh", "request library refresh", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrIOFailure, "emby", "refresh", fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	}
	return nil
}
