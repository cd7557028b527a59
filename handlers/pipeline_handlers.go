package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"video-research-backend/database"
	"video-research-backend/logger"
	"video-research-backend/models"
	"video-research-backend/services"

	"github.com/sirupsen/logrus"
)

// UploadRequest is the JSON body accepted by POST /upload. Which ingest
// path runs depends on the fields present: VideoUID finalizes a hosted
// upload, ExtractedContent ingests pre-supplied text.
type UploadRequest struct {
	URL              string `json:"url,omitempty"`
	Title            string `json:"title,omitempty"`
	SourceType       string `json:"source_type,omitempty"`
	ContentType      string `json:"content_type,omitempty"`
	ExtractedContent string `json:"extracted_content,omitempty"`
	VideoUID         string `json:"videoUID,omitempty"`
}

// TranscribeRequest is the body for POST /transcribe
type TranscribeRequest struct {
	VideoID int64 `json:"videoId"`
}

// AnalyzeRequest is the body for POST /analyze
type AnalyzeRequest struct {
	VideoID       int64    `json:"videoId"`
	AnalysisTypes []string `json:"analysisTypes,omitempty"`
}

// TTSRequest is the body for POST /tts
type TTSRequest struct {
	VideoID   int64  `json:"videoId"`
	Voice     string `json:"voice,omitempty"`
	ChunkSize int    `json:"chunkSize,omitempty"`
}

// InitiateUploadRequest is the body for POST /initiate-upload
type InitiateUploadRequest struct {
	Name string `json:"name"`
}

// PipelineHandler contains dependencies for the pipeline endpoints
type PipelineHandler struct {
	pipeline *services.Pipeline
	db       *database.DB
	log      *logrus.Entry
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(pipeline *services.Pipeline, db *database.DB) *PipelineHandler {
	return &PipelineHandler{
		pipeline: pipeline,
		db:       db,
		log:      logger.New().WithField("component", "handlers"),
	}
}

// UploadHandler routes POST /upload to the right ingest path based on the
// payload shape: multipart bodies carry a raw file, JSON bodies carry
// either extracted content or a hosted-video UID.
func (h *PipelineHandler) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			h.handleFileUpload(w, r)
			return
		}

		var req UploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		switch {
		case req.VideoUID != "":
			title := req.Title
			if title == "" {
				title = "Hosted video " + req.VideoUID
			}
			video, err := h.pipeline.IngestStream(r.Context(), title, req.VideoUID)
			if err != nil {
				h.log.WithError(err).Error("stream ingest failed")
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondJSON(w, http.StatusCreated, map[string]interface{}{"video": video})

		case req.ExtractedContent != "":
			if req.Title == "" {
				respondError(w, http.StatusBadRequest, "Title is required")
				return
			}
			video, err := h.pipeline.IngestExtracted(r.Context(), req.Title, req.URL,
				models.SourceType(req.SourceType), req.ContentType, req.ExtractedContent)
			if err != nil {
				h.log.WithError(err).Error("extracted ingest failed")
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondJSON(w, http.StatusCreated, map[string]interface{}{"video": video})

		default:
			respondError(w, http.StatusBadRequest, "Provide a file, extracted_content or videoUID")
		}
	}
}

func (h *PipelineHandler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	// 100MB in-memory cap; larger parts spill to disk
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	video, err := h.pipeline.IngestUpload(r.Context(), title,
		models.SourceType(r.FormValue("source_type")), data, contentType)
	if err != nil {
		h.log.WithError(err).Error("file ingest failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"video": video})
}

// InitiateUploadHandler handles POST /initiate-upload
func (h *PipelineHandler) InitiateUploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InitiateUploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "Name is required")
			return
		}

		upload, err := h.pipeline.InitiateUpload(r.Context(), req.Name)
		if err != nil {
			h.log.WithError(err).Error("direct upload failed")
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"uploadURL": upload.UploadURL,
			"videoUID":  upload.UID,
		})
	}
}

// TranscribeHandler handles POST /transcribe
func (h *PipelineHandler) TranscribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TranscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.VideoID == 0 {
			respondError(w, http.StatusBadRequest, "videoId is required")
			return
		}

		transcript, err := h.pipeline.Transcribe(r.Context(), req.VideoID)
		if err != nil {
			h.respondPipelineError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"transcriptId":     transcript.ID,
			"transcript":       transcript.FullText,
			"processingTimeMs": transcript.ProcessingTimeMs,
			"wordCount":        transcript.WordCount,
		})
	}
}

// AnalyzeHandler handles POST /analyze
func (h *PipelineHandler) AnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.VideoID == 0 {
			respondError(w, http.StatusBadRequest, "videoId is required")
			return
		}

		var kinds []models.AnalysisKind
		for _, t := range req.AnalysisTypes {
			kinds = append(kinds, models.AnalysisKind(t))
		}

		outcome, err := h.pipeline.Analyze(r.Context(), req.VideoID, kinds)
		if err != nil {
			h.respondPipelineError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"analysis":     outcome,
			"averageScore": outcome.AverageScore,
		})
	}
}

// TTSHandler handles POST /tts
func (h *PipelineHandler) TTSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TTSRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.VideoID == 0 {
			respondError(w, http.StatusBadRequest, "videoId is required")
			return
		}

		result, err := h.pipeline.Speak(r.Context(), req.VideoID, req.Voice, req.ChunkSize)
		if err != nil {
			h.respondPipelineError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"totalChunks": result.TotalChunks,
			"audioChunks": result.AudioChunks,
		})
	}
}

// RenderHandler handles POST /render
func (h *PipelineHandler) RenderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.RenderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.URL == "" && req.HTML == "" {
			respondError(w, http.StatusBadRequest, "url or html is required")
			return
		}
		if req.Kind == "" {
			req.Kind = "markdown"
		}

		result, err := h.pipeline.Render(r.Context(), &req)
		if err != nil {
			h.log.WithError(err).Error("render failed")
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"type":   req.Kind,
			"result": result,
		})
	}
}

// SearchHandler handles GET /search
func (h *PipelineHandler) SearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		category := r.URL.Query().Get("category")

		minRating := 0.0
		if s := r.URL.Query().Get("min_rating"); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid min_rating")
				return
			}
			minRating = v
		}

		limit := 50
		if s := r.URL.Query().Get("limit"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v < 1 {
				respondError(w, http.StatusBadRequest, "Invalid limit")
				return
			}
			limit = v
		}

		videos, err := h.pipeline.Search(r.Context(), q, minRating, category, limit)
		if err != nil {
			h.log.WithError(err).Error("search failed")
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"results": videos,
			"total":   len(videos),
		})
	}
}

// StatusHandler handles GET /status
func (h *PipelineHandler) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.pipeline.Stats(r.Context())
		if err != nil {
			h.log.WithError(err).Error("stats failed")
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"stats": stats,
			"features": []string{
				"upload", "transcribe", "analyze", "tts", "render", "search",
			},
		})
	}
}

// CategoriesHandler handles GET /categories
func (h *PipelineHandler) CategoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := h.db.ListCategories()
		if err != nil {
			h.log.WithError(err).Error("categories failed")
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
	}
}

// AssignCategoryRequest is the body for POST /categories/assign
type AssignCategoryRequest struct {
	VideoID        int64   `json:"videoId"`
	CategoryID     int64   `json:"categoryId"`
	RelevanceScore float64 `json:"relevanceScore,omitempty"`
}

// AssignCategoryHandler handles POST /categories/assign
func (h *PipelineHandler) AssignCategoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.VideoID == 0 || req.CategoryID == 0 {
			respondError(w, http.StatusBadRequest, "videoId and categoryId are required")
			return
		}

		err := h.db.AssignCategory(&models.VideoCategory{
			VideoID:        req.VideoID,
			CategoryID:     req.CategoryID,
			RelevanceScore: req.RelevanceScore,
		})
		if err != nil {
			h.log.WithError(err).Error("category assignment failed")
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"assigned": true})
	}
}

// ExportHandler handles GET /export, streaming an xlsx library report
func (h *PipelineHandler) ExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := h.db.AllVideos()
		if err != nil {
			h.log.WithError(err).Error("export query failed")
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		filename := fmt.Sprintf("library_%s.xlsx", time.Now().Format("20060102"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)

		if err := services.WriteLibraryReport(videos, w); err != nil {
			h.log.WithError(err).Error("export write failed")
		}
	}
}

func (h *PipelineHandler) respondPipelineError(w http.ResponseWriter, err error) {
	if services.NotFound(err) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.log.WithError(err).Error("pipeline stage failed")
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
