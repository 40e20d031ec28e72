// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

// DefaultUserAgent is sent with every collector request.
const DefaultUserAgent = "telemetry-relay/1.0"

// StatusError is a collector reply other than 200 OK.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP status %d: %s", e.Code, e.Body)
}

// HTTPCollector POSTs artifacts as JSON to the fleet collector.
type HTTPCollector struct {
	client      *http.Client
	positionURL string
	missionURL  string
	userAgent   string
}

// NewHTTPCollector returns a collector client. An empty URL disables that
// artifact kind.
func NewHTTPCollector(positionURL, missionURL, userAgent string, timeout time.Duration) *HTTPCollector {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPCollector{
		client:      &http.Client{Timeout: timeout},
		positionURL: positionURL,
		missionURL:  missionURL,
		userAgent:   userAgent,
	}
}

func (c *HTTPCollector) PublishPosition(ctx context.Context, p telemetry.PositionArtifact) error {
	if c.positionURL == "" {
		return nil
	}
	return c.post(ctx, c.positionURL, p)
}

func (c *HTTPCollector) PublishMission(ctx context.Context, m telemetry.MissionArtifact) error {
	if c.missionURL == "" {
		return nil
	}
	return c.post(ctx, c.missionURL, m)
}

func (c *HTTPCollector) post(ctx context.Context, url string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize artifact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// only 200 counts as accepted by the collector
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
