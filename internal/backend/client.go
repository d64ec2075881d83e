// Package backend talks to Ollama-compatible inference hosts: a lightweight
// liveness/tags call, model listing, and non-streaming completion. The
// resolver races probes across tiers to pick one usable host per run.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/softwarewrighter/guardian/internal/config"
	"github.com/softwarewrighter/guardian/internal/logger"
	guardianerrors "github.com/softwarewrighter/guardian/pkg/errors"
)

// ModelInfo describes one model available on a host.
type ModelInfo struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Digest     string `json:"digest,omitempty"`
}

type tagsResponse struct {
	Models []ModelInfo `json:"models"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateResponse is the reply to a non-streaming completion call.
type GenerateResponse struct {
	Response      string `json:"response"`
	Done          bool   `json:"done"`
	TotalDuration int64  `json:"total_duration,omitempty"`
	EvalCount     int64  `json:"eval_count,omitempty"`
}

// Client is a shared HTTP client for all backend traffic. Deadlines come
// from the per-call context, not from the transport.
type Client struct {
	http *http.Client
	log  *logger.Logger
}

// NewClient creates a backend client.
func NewClient(log *logger.Logger) *Client {
	return &Client{
		http: &http.Client{},
		log:  log.WithComponent("backend"),
	}
}

func apiURL(b config.Backend, path string) string {
	return strings.TrimRight(b.URL, "/") + path
}

// ListModels fetches the models available on a host.
func (c *Client) ListModels(ctx context.Context, b config.Backend) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL(b, "/api/tags"), nil)
	if err != nil {
		return nil, guardianerrors.NewTransportError(b.Name, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, guardianerrors.NewTransportError(b.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, guardianerrors.NewTransportError(b.Name,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, guardianerrors.NewTransportError(b.Name,
			fmt.Errorf("decode tags response: %w", err))
	}

	c.log.WithFields(map[string]any{
		"backend": b.Name,
		"models":  len(tags.Models),
	}).Debug("listed models")

	return tags.Models, nil
}

// Generate sends one non-streaming completion request.
func (c *Client) Generate(ctx context.Context, b config.Backend, model, prompt string) (*GenerateResponse, error) {
	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return nil, guardianerrors.NewTransportError(b.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL(b, "/api/generate"), bytes.NewReader(body))
	if err != nil {
		return nil, guardianerrors.NewTransportError(b.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, guardianerrors.NewTransportError(b.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, guardianerrors.NewTransportError(b.Name,
			fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(detail))))
	}

	var gen GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, guardianerrors.NewTransportError(b.Name,
			fmt.Errorf("decode generate response: %w", err))
	}

	c.log.WithFields(map[string]any{
		"backend":     b.Name,
		"model":       model,
		"duration_ms": time.Since(start).Milliseconds(),
		"eval_count":  gen.EvalCount,
	}).Debug("generate complete")

	return &gen, nil
}
