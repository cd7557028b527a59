package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"video-research-backend/database"
	"video-research-backend/logger"
	"video-research-backend/models"
	"video-research-backend/state"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store is the slice of the relational layer the pipeline needs. *database.DB
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	SaveVideo(video *models.Video) error
	GetVideoByID(id int64) (*models.Video, error)
	UpdateVideoStatus(id int64, status models.TranscriptionStatus) error
	UpdateVideoScores(id int64, overall float64, scores map[models.AnalysisKind]float64) error
	SaveTranscript(t *models.Transcript) error
	GetLatestTranscript(videoID int64) (*models.Transcript, error)
	SaveAnalysis(a *models.AIAnalysis) error
	SaveTTSConversion(c *models.TTSConversion) error
	SaveRender(r *models.BrowserRender) error
	UpdateTTSConversion(id int64, status string, chunkCount int, audioKeys []string, totalDuration float64) error
	SearchVideos(query string, minRating float64, category string, limit int) ([]*models.Video, error)
	LogSearchQuery(l *models.SearchQueryLog) error
	GetPipelineStats() (*models.PipelineStats, error)
}

// Pipeline owns the per-video status state machine and sequences adapter
// calls for every stage. All dependencies are injected; there is no shared
// mutable state beyond the database, so each request runs independently.
type Pipeline struct {
	store       Store
	content     ContentStore
	transcriber Transcriber
	scorer      Scorer
	synth       SpeechSynthesizer
	host        VideoHost
	renderer    Renderer
	events      *state.EventHub
	log         *logrus.Entry
}

func NewPipeline(store Store, content ContentStore, transcriber Transcriber, scorer Scorer,
	synth SpeechSynthesizer, host VideoHost, renderer Renderer, events *state.EventHub) *Pipeline {
	return &Pipeline{
		store:       store,
		content:     content,
		transcriber: transcriber,
		scorer:      scorer,
		synth:       synth,
		host:        host,
		renderer:    renderer,
		events:      events,
		log:         logger.New().WithField("component", "pipeline"),
	}
}

func (p *Pipeline) publish(videoID int64, stage, status, detail string) {
	if p.events != nil {
		p.events.Publish(state.PipelineEvent{VideoID: videoID, Stage: stage, Status: status, Detail: detail})
	}
}

/* ---------- ingest ---------- */

// IngestUpload stores the raw file in the content store and creates the
// video record in pending state.
func (p *Pipeline) IngestUpload(ctx context.Context, title string, sourceType models.SourceType, data []byte, contentType string) (*models.Video, error) {
	if sourceType == "" {
		sourceType = models.SourceUpload
	}
	key := fmt.Sprintf("uploads/%s", uuid.New().String())

	if err := p.content.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	video := &models.Video{
		Title:      title,
		SourceType: sourceType,
		StorageKey: key,
		Status:     models.StatusPending,
	}
	if err := p.store.SaveVideo(video); err != nil {
		return nil, fmt.Errorf("failed to save video: %w", err)
	}

	p.log.WithFields(logrus.Fields{"video_id": video.ID, "key": key}).Info("ingested upload")
	p.publish(video.ID, "ingest", "pending", "")
	return video, nil
}

// IngestExtracted creates a video whose text was supplied at ingest time.
// The transcript row is written immediately, but the video stays pending
// like every other ingest; Transcribe promotes it by reusing the stored
// transcript instead of resolving media bytes.
func (p *Pipeline) IngestExtracted(ctx context.Context, title, sourceURL string, sourceType models.SourceType, contentType, extracted string) (*models.Video, error) {
	if sourceType == "" {
		sourceType = sourceTypeFromURL(sourceURL)
	}
	video := &models.Video{
		Title:      title,
		URL:        sourceURL,
		SourceType: sourceType,
		StorageKey: models.LocatorExtracted,
		Status:     models.StatusPending,
	}
	if contentType != "" {
		meta, _ := json.Marshal(map[string]string{"content_type": contentType})
		video.Metadata = string(meta)
	}
	if err := p.store.SaveVideo(video); err != nil {
		return nil, fmt.Errorf("failed to save video: %w", err)
	}

	transcript := &models.Transcript{
		VideoID:    video.ID,
		FullText:   extracted,
		Confidence: 1.0,
		WordCount:  len(strings.Fields(extracted)),
		ModelUsed:  "content-extraction",
	}
	if err := p.store.SaveTranscript(transcript); err != nil {
		return nil, fmt.Errorf("failed to save extracted transcript: %w", err)
	}

	p.log.WithField("video_id", video.ID).Info("ingested extracted content")
	p.publish(video.ID, "ingest", "pending", "extracted content")
	return video, nil
}

// IngestStream registers a video already uploaded to the video host.
func (p *Pipeline) IngestStream(ctx context.Context, title, videoUID string) (*models.Video, error) {
	video := &models.Video{
		Title:      title,
		SourceType: models.SourceUpload,
		StorageKey: models.StreamLocatorPrefix + videoUID,
		Status:     models.StatusPending,
	}
	if err := p.store.SaveVideo(video); err != nil {
		return nil, fmt.Errorf("failed to save video: %w", err)
	}

	p.log.WithFields(logrus.Fields{"video_id": video.ID, "uid": videoUID}).Info("ingested hosted video")
	p.publish(video.ID, "ingest", "pending", "")
	return video, nil
}

// InitiateUpload asks the video host for a direct-upload slot
func (p *Pipeline) InitiateUpload(ctx context.Context, name string) (*DirectUpload, error) {
	return p.host.CreateDirectUpload(ctx, name, 3600)
}

/* ---------- transcribe ---------- */

// Transcribe runs the speech-to-text stage. It moves the video to
// processing, resolves bytes through the adapter the storage key names,
// and finishes in completed or failed. Retrying a failed video means
// calling Transcribe again; the status is never reset to pending.
func (p *Pipeline) Transcribe(ctx context.Context, videoID int64) (*models.Transcript, error) {
	video, err := p.store.GetVideoByID(videoID)
	if err != nil {
		return nil, err
	}

	if err := p.store.UpdateVideoStatus(videoID, models.StatusProcessing); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	p.publish(videoID, "transcribe", "processing", "")

	// Pre-extracted content carries no media; reuse the stored transcript.
	if video.IsExtracted() {
		transcript, err := p.store.GetLatestTranscript(videoID)
		if err != nil {
			return nil, p.failTranscribe(videoID, fmt.Errorf("extracted video has no transcript: %w", err))
		}
		if err := p.store.UpdateVideoStatus(videoID, models.StatusCompleted); err != nil {
			return nil, fmt.Errorf("failed to update status: %w", err)
		}
		p.publish(videoID, "transcribe", "completed", "reused extracted transcript")
		return transcript, nil
	}

	audio, err := p.resolveBytes(ctx, video)
	if err != nil {
		return nil, p.failTranscribe(videoID, err)
	}

	start := time.Now()
	result, err := p.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, p.failTranscribe(videoID, fmt.Errorf("transcription failed: %w", err))
	}

	transcript := &models.Transcript{
		VideoID:          videoID,
		FullText:         result.Text,
		Language:         result.Language,
		Confidence:       result.Confidence,
		WordCount:        len(strings.Fields(result.Text)),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		ModelUsed:        result.Model,
	}
	if err := p.store.SaveTranscript(transcript); err != nil {
		return nil, p.failTranscribe(videoID, fmt.Errorf("failed to save transcript: %w", err))
	}
	if err := p.store.UpdateVideoStatus(videoID, models.StatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"video_id":   videoID,
		"words":      transcript.WordCount,
		"latency_ms": transcript.ProcessingTimeMs,
	}).Info("transcription completed")
	p.publish(videoID, "transcribe", "completed", "")
	return transcript, nil
}

// resolveBytes fetches the media through the adapter the storage key names.
func (p *Pipeline) resolveBytes(ctx context.Context, video *models.Video) ([]byte, error) {
	if uid := video.StreamUID(); uid != "" {
		data, err := p.host.Download(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch hosted video %s: %w", uid, err)
		}
		return data, nil
	}
	data, err := p.content.Get(ctx, video.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stored media: %w", err)
	}
	return data, nil
}

func (p *Pipeline) failTranscribe(videoID int64, cause error) error {
	if err := p.store.UpdateVideoStatus(videoID, models.StatusFailed); err != nil {
		p.log.WithError(err).Warn("could not mark video failed")
	}
	p.publish(videoID, "transcribe", "failed", cause.Error())
	return cause
}

/* ---------- analyze ---------- */

// AnalysisOutcome reports one Analyze batch. Failed maps kinds that errored
// to their message; the batch is best effort, so surviving kinds persist
// even when others fail.
type AnalysisOutcome struct {
	Results      map[models.AnalysisKind]*models.AIAnalysis `json:"results"`
	Scores       map[models.AnalysisKind]float64            `json:"scores"`
	AverageScore float64                                    `json:"averageScore"`
	Failed       map[models.AnalysisKind]string             `json:"failed,omitempty"`
}

// Analyze scores the video's transcript along the requested kinds and
// projects the batch mean onto the video row. Requires a transcript.
func (p *Pipeline) Analyze(ctx context.Context, videoID int64, kinds []models.AnalysisKind) (*AnalysisOutcome, error) {
	video, err := p.store.GetVideoByID(videoID)
	if err != nil {
		return nil, err
	}
	transcript, err := p.store.GetLatestTranscript(videoID)
	if err != nil {
		return nil, err
	}
	if len(kinds) == 0 {
		kinds = models.DefaultAnalysisKinds()
	}

	outcome := &AnalysisOutcome{
		Results: make(map[models.AnalysisKind]*models.AIAnalysis),
		Scores:  make(map[models.AnalysisKind]float64),
		Failed:  make(map[models.AnalysisKind]string),
	}

	for _, kind := range kinds {
		prompt := BuildAnalysisPrompt(kind, video.Title, transcript.FullText)

		start := time.Now()
		response, err := p.scorer.Complete(ctx, prompt)
		if err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{"video_id": videoID, "kind": kind}).Warn("analysis kind failed")
			outcome.Failed[kind] = err.Error()
			continue
		}

		doc := ParseScoreResponse(response)
		analysis := &models.AIAnalysis{
			VideoID:          videoID,
			AnalysisType:     kind,
			Result:           doc.Document,
			Confidence:       doc.Confidence,
			ModelUsed:        p.scorer.ModelName(),
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		}
		if err := p.store.SaveAnalysis(analysis); err != nil {
			outcome.Failed[kind] = err.Error()
			continue
		}
		outcome.Results[kind] = analysis
		outcome.Scores[kind] = doc.Score
	}

	if len(outcome.Scores) == 0 {
		p.publish(videoID, "analyze", "failed", "all analysis kinds failed")
		return nil, fmt.Errorf("analysis failed for all requested kinds")
	}

	var sum float64
	for _, score := range outcome.Scores {
		sum += score
	}
	outcome.AverageScore = sum / float64(len(outcome.Scores))

	if err := p.store.UpdateVideoScores(videoID, outcome.AverageScore, outcome.Scores); err != nil {
		return nil, fmt.Errorf("failed to update scores: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"video_id": videoID,
		"kinds":    len(outcome.Scores),
		"average":  outcome.AverageScore,
	}).Info("analysis completed")
	p.publish(videoID, "analyze", "completed", fmt.Sprintf("average %.1f", outcome.AverageScore))
	return outcome, nil
}

/* ---------- speak ---------- */

// AudioChunk is one generated audio segment
type AudioChunk struct {
	ChunkIndex int    `json:"chunkIndex"`
	Filename   string `json:"filename"`
	Text       string `json:"text"`
}

// SpeakResult reports one TTS run
type SpeakResult struct {
	ConversionID int64        `json:"conversionId"`
	Voice        string       `json:"voice"`
	TotalChunks  int          `json:"totalChunks"`
	AudioChunks  []AudioChunk `json:"audioChunks"`
}

// Speak converts the transcript to speech, one sequential adapter round
// trip per chunk, writing each chunk's audio to the content store. The run
// is recorded as a TTS conversion row with its own status.
func (p *Pipeline) Speak(ctx context.Context, videoID int64, voice string, chunkSize int) (*SpeakResult, error) {
	if _, err := p.store.GetVideoByID(videoID); err != nil {
		return nil, err
	}
	transcript, err := p.store.GetLatestTranscript(videoID)
	if err != nil {
		return nil, err
	}
	if voice == "" {
		voice = DefaultVoice
	}

	chunks := SplitIntoChunks(transcript.FullText, chunkSize)

	conversion := &models.TTSConversion{
		VideoID:      videoID,
		TranscriptID: transcript.ID,
		Voice:        voice,
		Status:       "processing",
	}
	if err := p.store.SaveTTSConversion(conversion); err != nil {
		return nil, fmt.Errorf("failed to record conversion: %w", err)
	}

	result := &SpeakResult{
		ConversionID: conversion.ID,
		Voice:        voice,
		TotalChunks:  len(chunks),
	}
	var keys []string
	var totalWords int

	for i, chunk := range chunks {
		audio, err := p.synth.Synthesize(ctx, chunk, voice)
		if err != nil {
			p.failSpeak(conversion.ID, videoID, keys)
			return nil, fmt.Errorf("tts failed on chunk %d: %w", i, err)
		}

		key := fmt.Sprintf("audio/video_%d/%s_chunk_%03d.mp3", videoID, voice, i)
		if err := p.content.Put(ctx, key, bytes.NewReader(audio), "audio/mpeg"); err != nil {
			p.failSpeak(conversion.ID, videoID, keys)
			return nil, fmt.Errorf("failed to store chunk %d: %w", i, err)
		}

		keys = append(keys, key)
		totalWords += len(strings.Fields(chunk))
		result.AudioChunks = append(result.AudioChunks, AudioChunk{
			ChunkIndex: i,
			Filename:   key,
			Text:       chunk,
		})
	}

	// Rough spoken duration at a 150 words-per-minute reading rate.
	estimatedDuration := float64(totalWords) * 60.0 / 150.0
	if err := p.store.UpdateTTSConversion(conversion.ID, "completed", len(keys), keys, estimatedDuration); err != nil {
		return nil, fmt.Errorf("failed to finalize conversion: %w", err)
	}

	p.log.WithFields(logrus.Fields{"video_id": videoID, "chunks": len(keys), "voice": voice}).Info("tts completed")
	p.publish(videoID, "tts", "completed", fmt.Sprintf("%d chunks", len(keys)))
	return result, nil
}

func (p *Pipeline) failSpeak(conversionID, videoID int64, keys []string) {
	if err := p.store.UpdateTTSConversion(conversionID, "failed", len(keys), keys, 0); err != nil {
		p.log.WithError(err).Warn("could not mark conversion failed")
	}
	p.publish(videoID, "tts", "failed", "")
}

/* ---------- search / status / render ---------- */

// Search is a pure read over completed videos; the query is logged for
// analytics on a best-effort basis.
func (p *Pipeline) Search(ctx context.Context, query string, minRating float64, category string, limit int) ([]*models.Video, error) {
	start := time.Now()
	videos, err := p.store.SearchVideos(query, minRating, category, limit)
	if err != nil {
		return nil, err
	}

	filters, _ := json.Marshal(map[string]interface{}{
		"min_rating": minRating,
		"category":   category,
		"limit":      limit,
	})
	logErr := p.store.LogSearchQuery(&models.SearchQueryLog{
		Query:       query,
		Filters:     string(filters),
		ResultCount: len(videos),
		LatencyMs:   time.Since(start).Milliseconds(),
	})
	if logErr != nil {
		p.log.WithError(logErr).Warn("could not log search query")
	}

	return videos, nil
}

// Stats returns the aggregate pipeline view
func (p *Pipeline) Stats(ctx context.Context) (*models.PipelineStats, error) {
	return p.store.GetPipelineStats()
}

// Render forwards a rendering job to the headless-browser service. The
// result is recorded for later retrieval on a best-effort basis.
func (p *Pipeline) Render(ctx context.Context, req *RenderRequest) (json.RawMessage, error) {
	start := time.Now()
	result, err := p.renderer.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	saveErr := p.store.SaveRender(&models.BrowserRender{
		Kind:             req.Kind,
		SourceURL:        req.URL,
		Result:           string(result),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
	if saveErr != nil {
		p.log.WithError(saveErr).Warn("could not record render result")
	}

	return result, nil
}

// NotFound reports whether err means a referenced row is missing
func NotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

func sourceTypeFromURL(sourceURL string) models.SourceType {
	switch {
	case strings.Contains(sourceURL, "youtube.com"), strings.Contains(sourceURL, "youtu.be"):
		return models.SourceYouTube
	case strings.Contains(sourceURL, "tiktok.com"):
		return models.SourceTikTok
	case sourceURL == "":
		return models.SourceResearch
	default:
		return models.SourceResearch
	}
}
