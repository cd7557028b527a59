package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DirectUpload is a one-time upload slot issued by the video host.
type DirectUpload struct {
	UploadURL string `json:"uploadURL"`
	UID       string `json:"uid"`
}

// VideoHost manages videos held by the hosting service. Videos stored there
// carry a "stream:<uid>" storage key instead of a content-store key.
type VideoHost interface {
	CreateDirectUpload(ctx context.Context, name string, maxDurationSeconds int) (*DirectUpload, error)
	Download(ctx context.Context, uid string) ([]byte, error)
}

// StreamVideoHost talks to a Cloudflare Stream style API
type StreamVideoHost struct {
	accountURL string
	apiToken   string
	httpClient *http.Client
}

func NewStreamVideoHost() *StreamVideoHost {
	return &StreamVideoHost{
		accountURL: strings.TrimRight(os.Getenv("STREAM_API_URL"), "/"),
		apiToken:   os.Getenv("STREAM_API_TOKEN"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// CreateDirectUpload asks the host for a direct-upload URL the browser can
// post the file to, bypassing this backend for the heavy bytes.
func (h *StreamVideoHost) CreateDirectUpload(ctx context.Context, name string, maxDurationSeconds int) (*DirectUpload, error) {
	if h.accountURL == "" {
		return nil, fmt.Errorf("STREAM_API_URL not configured")
	}
	if maxDurationSeconds <= 0 {
		maxDurationSeconds = 3600
	}

	payload := fmt.Sprintf(`{"maxDurationSeconds": %d, "meta": {"name": %q}}`, maxDurationSeconds, name)
	req, err := http.NewRequestWithContext(ctx, "POST", h.accountURL+"/stream/direct_upload", strings.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiToken)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("direct upload request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video host returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Result DirectUpload `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse direct upload response: %v", err)
	}
	if parsed.Result.UID == "" {
		return nil, fmt.Errorf("video host returned no upload UID")
	}
	return &parsed.Result, nil
}

// Download resolves the hosted video's download URL and fetches the bytes
func (h *StreamVideoHost) Download(ctx context.Context, uid string) ([]byte, error) {
	if h.accountURL == "" {
		return nil, fmt.Errorf("STREAM_API_URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/stream/%s/downloads", h.accountURL, uid), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.apiToken)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download lookup failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video host returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Result struct {
			Default struct {
				URL string `json:"url"`
			} `json:"default"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse downloads response: %v", err)
	}
	if parsed.Result.Default.URL == "" {
		return nil, fmt.Errorf("no download URL for video %s", uid)
	}

	dlReq, err := http.NewRequestWithContext(ctx, "GET", parsed.Result.Default.URL, nil)
	if err != nil {
		return nil, err
	}
	dlResp, err := h.httpClient.Do(dlReq)
	if err != nil {
		return nil, fmt.Errorf("download failed: %v", err)
	}
	defer dlResp.Body.Close()

	if dlResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned %d", dlResp.StatusCode)
	}
	return io.ReadAll(dlResp.Body)
}
