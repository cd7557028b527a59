package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultVoice is used when a Speak request doesn't name one.
const DefaultVoice = "alloy"

// SpeechSynthesizer turns one text chunk into audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// HTTPSynthesizer calls an OpenAI-compatible text-to-speech endpoint and
// returns MP3 bytes.
type HTTPSynthesizer struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewHTTPSynthesizer() *HTTPSynthesizer {
	apiURL := os.Getenv("TTS_URL")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1/audio/speech"
	}
	model := os.Getenv("TTS_MODEL")
	if model == "" {
		model = "tts-1"
	}
	return &HTTPSynthesizer{
		apiURL: apiURL,
		apiKey: os.Getenv("TTS_API_KEY"),
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = DefaultVoice
	}
	requestBody := map[string]interface{}{
		"model":           s.model,
		"input":           text,
		"voice":           voice,
		"response_format": "mp3",
	}
	data, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts service returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
