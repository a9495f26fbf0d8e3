// Package revalidate tells the web frontend to drop cached pages after
// organization data changes.
package revalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/config"
)

type Hook interface {
	// Revalidate signals that path is stale. It never blocks the caller and never fails.
	Revalidate(ctx context.Context, path string)
}

// OrganizationSettingsPath is the page invalidated after invitation and membership changes.
func OrganizationSettingsPath(orgID string) string {
	return fmt.Sprintf("/organizations/%s/settings", orgID)
}

type Noop struct{}

func (Noop) Revalidate(context.Context, string) {}

// HTTPHook posts {"path": ...} to the configured endpoint in the background.
type HTTPHook struct {
	url     string
	secret  string
	timeout time.Duration
	client  *http.Client
	logger  zerolog.Logger
}

// New returns an HTTPHook, or Noop when no URL is configured.
func New(cfg config.RevalidateConfig, logger zerolog.Logger) Hook {
	if strings.TrimSpace(cfg.URL) == "" {
		return Noop{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPHook{
		url:     cfg.URL,
		secret:  cfg.Secret,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "revalidate").Logger(),
	}
}

func (h *HTTPHook) Revalidate(ctx context.Context, path string) {
	// The request outlives the caller's context on purpose.
	go h.post(context.WithoutCancel(ctx), path)
}

func (h *HTTPHook) post(ctx context.Context, path string) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"path": path})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode revalidation payload")
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build revalidation request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if h.secret != "" {
		req.Header.Set("X-Revalidate-Secret", h.secret)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn().Err(err).Str("path", path).Msg("revalidation request failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		h.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("revalidation rejected")
		return
	}
	h.logger.Debug().Str("path", path).Msg("revalidated")
}
