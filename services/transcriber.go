package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// TranscriptionResult is what a speech-to-text backend returns for one clip
type TranscriptionResult struct {
	Text       string
	Language   string
	Confidence float64
	Model      string
}

// Transcriber submits raw audio bytes to a speech-to-text model. Transient
// and permanent failures are treated the same by callers: the stage fails
// and a retry means re-invoking the stage.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (*TranscriptionResult, error)
}

// WhisperTranscriber calls a Whisper-compatible HTTP transcription endpoint
type WhisperTranscriber struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewWhisperTranscriber() *WhisperTranscriber {
	apiURL := os.Getenv("TRANSCRIBE_URL")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1/audio/transcriptions"
	}
	model := os.Getenv("TRANSCRIBE_MODEL")
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperTranscriber{
		apiURL: apiURL,
		apiKey: os.Getenv("TRANSCRIBE_API_KEY"),
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Transcribe uploads the audio as multipart form data and decodes the
// verbose JSON response.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte) (*TranscriptionResult, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	part, err := w.CreateFormFile("file", "audio.mp4")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	w.WriteField("model", t.model)
	w.WriteField("response_format", "verbose_json")
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.apiURL, &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Segments []struct {
			AvgLogprob float64 `json:"avg_logprob"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse transcription response: %v", err)
	}
	if parsed.Text == "" {
		return nil, fmt.Errorf("transcription service returned empty text")
	}

	// Whisper reports per-segment log probabilities rather than a single
	// confidence; average them into a rough 0-1 value.
	confidence := 0.9
	if len(parsed.Segments) > 0 {
		var sum float64
		for _, s := range parsed.Segments {
			sum += s.AvgLogprob
		}
		avg := sum / float64(len(parsed.Segments))
		confidence = clamp01(1 + avg)
	}

	return &TranscriptionResult{
		Text:       parsed.Text,
		Language:   parsed.Language,
		Confidence: confidence,
		Model:      t.model,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
