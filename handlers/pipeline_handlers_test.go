package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"video-research-backend/database"
	"video-research-backend/models"
	"video-research-backend/services"
	"video-research-backend/state"
)

// stubStore serves just enough of the relational layer for handler tests:
// a single seeded video plus its transcript, everything else not found.
type stubStore struct {
	video      *models.Video
	transcript *models.Transcript
}

func (s *stubStore) SaveVideo(v *models.Video) error {
	v.ID = 1
	s.video = v
	return nil
}

func (s *stubStore) GetVideoByID(id int64) (*models.Video, error) {
	if s.video != nil && s.video.ID == id {
		return s.video, nil
	}
	return nil, fmt.Errorf("video %d: %w", id, database.ErrNotFound)
}

func (s *stubStore) UpdateVideoStatus(id int64, status models.TranscriptionStatus) error {
	if s.video != nil && s.video.ID == id {
		s.video.Status = status
		return nil
	}
	return fmt.Errorf("video %d: %w", id, database.ErrNotFound)
}

func (s *stubStore) UpdateVideoScores(id int64, overall float64, scores map[models.AnalysisKind]float64) error {
	return nil
}

func (s *stubStore) SaveTranscript(t *models.Transcript) error {
	t.ID = 1
	s.transcript = t
	return nil
}

func (s *stubStore) GetLatestTranscript(videoID int64) (*models.Transcript, error) {
	if s.transcript != nil && s.transcript.VideoID == videoID {
		return s.transcript, nil
	}
	return nil, fmt.Errorf("transcript for video %d: %w", videoID, database.ErrNotFound)
}

func (s *stubStore) SaveAnalysis(a *models.AIAnalysis) error { return nil }

func (s *stubStore) SaveRender(r *models.BrowserRender) error { r.ID = 1; return nil }
func (s *stubStore) SaveTTSConversion(c *models.TTSConversion) error { c.ID = 1; return nil }

func (s *stubStore) UpdateTTSConversion(id int64, status string, chunkCount int, audioKeys []string, totalDuration float64) error {
	return nil
}

func (s *stubStore) SearchVideos(query string, minRating float64, category string, limit int) ([]*models.Video, error) {
	return nil, nil
}

func (s *stubStore) LogSearchQuery(l *models.SearchQueryLog) error { return nil }

func (s *stubStore) GetPipelineStats() (*models.PipelineStats, error) {
	return &models.PipelineStats{ByStatus: map[string]int{}}, nil
}

type stubContent struct{}

func (stubContent) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	return nil
}
func (stubContent) Get(ctx context.Context, key string) ([]byte, error) { return []byte("media"), nil }
func (stubContent) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "", nil
}

type stubTranscriber struct{ text string }

func (s stubTranscriber) Transcribe(ctx context.Context, audio []byte) (*services.TranscriptionResult, error) {
	return &services.TranscriptionResult{Text: s.text, Language: "en", Confidence: 0.9, Model: "stub"}, nil
}

type stubScorer struct{}

func (stubScorer) Complete(ctx context.Context, prompt string) (string, error) {
	return `{"score": 7.0, "confidence": 0.8}`, nil
}
func (stubScorer) ModelName() string { return "stub" }

type stubSynth struct{}

func (stubSynth) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	return []byte("mp3"), nil
}

type stubHost struct{}

func (stubHost) CreateDirectUpload(ctx context.Context, name string, maxDurationSeconds int) (*services.DirectUpload, error) {
	return &services.DirectUpload{UploadURL: "https://upload.example.test", UID: "uid-1"}, nil
}
func (stubHost) Download(ctx context.Context, uid string) ([]byte, error) { return []byte("x"), nil }

type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, req *services.RenderRequest) (json.RawMessage, error) {
	return json.RawMessage(`"ok"`), nil
}

func newTestHandler(store *stubStore) *PipelineHandler {
	p := services.NewPipeline(store, stubContent{}, stubTranscriber{text: "Hello world"},
		stubScorer{}, stubSynth{}, stubHost{}, stubRenderer{}, state.NewEventHub())
	return NewPipelineHandler(p, nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return body
}

func TestTranscribeHandler_MissingVideoID(t *testing.T) {
	h := newTestHandler(&stubStore{})

	rec := postJSON(t, h.TranscribeHandler(), `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if _, ok := decodeBody(t, rec)["error"]; !ok {
		t.Error("error body missing")
	}
}

func TestTranscribeHandler_UnknownVideoIs404(t *testing.T) {
	h := newTestHandler(&stubStore{})

	rec := postJSON(t, h.TranscribeHandler(), `{"videoId": 42}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTranscribeHandler_Success(t *testing.T) {
	store := &stubStore{video: &models.Video{ID: 1, Title: "Talk", StorageKey: "uploads/k", Status: models.StatusPending}}
	h := newTestHandler(store)

	rec := postJSON(t, h.TranscribeHandler(), `{"videoId": 1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if got := body["wordCount"].(float64); got != 2 {
		t.Errorf("wordCount = %v, want 2", got)
	}
	if body["transcript"] != "Hello world" {
		t.Errorf("transcript = %v", body["transcript"])
	}
}

func TestAnalyzeHandler_NoTranscriptIs404(t *testing.T) {
	store := &stubStore{video: &models.Video{ID: 1, Title: "Talk", StorageKey: "uploads/k"}}
	h := newTestHandler(store)

	rec := postJSON(t, h.AnalyzeHandler(), `{"videoId": 1}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadHandler_EmptyJSONBodyIs400(t *testing.T) {
	h := newTestHandler(&stubStore{})

	rec := postJSON(t, h.UploadHandler(), `{"title": "no payload"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadHandler_ExtractedContent(t *testing.T) {
	h := newTestHandler(&stubStore{})

	rec := postJSON(t, h.UploadHandler(),
		`{"title": "Article", "url": "https://youtube.com/watch?v=1", "content_type": "text/html", "extracted_content": "Body text"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	video := body["video"].(map[string]interface{})
	if video["status"] != "pending" {
		t.Errorf("status = %v, want pending", video["status"])
	}
	if video["sourceType"] != "youtube" {
		t.Errorf("sourceType = %v, want youtube", video["sourceType"])
	}
	if meta, _ := video["metadata"].(string); !strings.Contains(meta, "text/html") {
		t.Errorf("metadata = %v, want content type recorded", video["metadata"])
	}
}

func TestSearchHandler_InvalidMinRating(t *testing.T) {
	h := newTestHandler(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/search?min_rating=lots", nil)
	rec := httptest.NewRecorder()
	h.SearchHandler()(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchHandler_Defaults(t *testing.T) {
	h := newTestHandler(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/search?q=quantum", nil)
	rec := httptest.NewRecorder()
	h.SearchHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeBody(t, rec)["total"].(float64); got != 0 {
		t.Errorf("total = %v, want 0", got)
	}
}

func TestUploadHandler_MultipartFile(t *testing.T) {
	h := newTestHandler(&stubStore{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "Raw upload")
	part, err := mw.CreateFormFile("file", "talk.mp4")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write([]byte("media-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.UploadHandler()(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}
