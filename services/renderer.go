package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// RenderRequest describes one headless-rendering job. Exactly one of URL or
// HTML must be set.
type RenderRequest struct {
	Kind    string                 `json:"type"`
	URL     string                 `json:"url,omitempty"`
	HTML    string                 `json:"html,omitempty"`
	Prompt  string                 `json:"prompt,omitempty"`
	Schema  json.RawMessage        `json:"schema,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// RenderKinds lists what the rendering service can produce.
var RenderKinds = []string{"markdown", "pdf", "screenshot", "json", "links"}

// Renderer submits a URL or HTML payload to a headless-browser rendering
// service and returns its structured result.
type Renderer interface {
	Render(ctx context.Context, req *RenderRequest) (json.RawMessage, error)
}

// BrowserRenderer calls a hosted browser-rendering HTTP API
type BrowserRenderer struct {
	apiURL     string
	apiToken   string
	httpClient *http.Client
}

func NewBrowserRenderer() *BrowserRenderer {
	return &BrowserRenderer{
		apiURL:   strings.TrimRight(os.Getenv("RENDER_API_URL"), "/"),
		apiToken: os.Getenv("RENDER_API_TOKEN"),
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

func (r *BrowserRenderer) Render(ctx context.Context, req *RenderRequest) (json.RawMessage, error) {
	if r.apiURL == "" {
		return nil, fmt.Errorf("RENDER_API_URL not configured")
	}

	kind := req.Kind
	if kind == "" {
		kind = "markdown"
	}

	payload := map[string]interface{}{}
	if req.URL != "" {
		payload["url"] = req.URL
	}
	if req.HTML != "" {
		payload["html"] = req.HTML
	}
	if req.Prompt != "" {
		payload["prompt"] = req.Prompt
	}
	if len(req.Schema) > 0 {
		payload["response_format"] = map[string]interface{}{
			"type":   "json_schema",
			"schema": req.Schema,
		}
	}
	for k, v := range req.Options {
		payload[k] = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", r.apiURL+"/"+kind, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiToken)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("render request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render service returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Success bool            `json:"success"`
		Result  json.RawMessage `json:"result"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Some render kinds return the artifact directly rather than an
		// envelope; pass it through as a JSON string.
		wrapped, _ := json.Marshal(string(body))
		return wrapped, nil
	}
	if !parsed.Success && len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("render failed: %s", parsed.Errors[0].Message)
	}
	return parsed.Result, nil
}
