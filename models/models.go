package models

import (
	"time"
)

// AnalysisKind is one scored dimension of a video
type AnalysisKind string

const (
	AnalysisQuality   AnalysisKind = "quality"
	AnalysisRelevance AnalysisKind = "relevance"
	AnalysisFactual   AnalysisKind = "factual"
)

// DefaultAnalysisKinds is the batch run when a caller doesn't pick kinds.
func DefaultAnalysisKinds() []AnalysisKind {
	return []AnalysisKind{AnalysisQuality, AnalysisRelevance, AnalysisFactual}
}

// Transcript is the text derived from a video, via speech-to-text or
// direct extraction. Re-running transcription appends a new row.
type Transcript struct {
	ID               int64     `json:"id"`
	VideoID          int64     `json:"videoId"`
	FullText         string    `json:"fullText"`
	Language         string    `json:"language,omitempty"`
	Confidence       float64   `json:"confidence"`
	WordCount        int       `json:"wordCount"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	ModelUsed        string    `json:"modelUsed"`
	CreatedAt        time.Time `json:"createdAt"`
}

// AIAnalysis is one (video, kind, run) scoring result. Result holds the
// structured document returned by the scoring model, as raw JSON.
type AIAnalysis struct {
	ID               int64        `json:"id"`
	VideoID          int64        `json:"videoId"`
	AnalysisType     AnalysisKind `json:"analysisType"`
	Result           string       `json:"result"`
	Confidence       float64      `json:"confidence"`
	ModelUsed        string       `json:"modelUsed"`
	ProcessingTimeMs int64        `json:"processingTimeMs"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// TTSConversion records one Speak run: voice, chunk count and the
// content-store keys of the generated audio. Its status is independent of
// the video's transcription status.
type TTSConversion struct {
	ID            int64     `json:"id"`
	VideoID       int64     `json:"videoId"`
	TranscriptID  int64     `json:"transcriptId"`
	Voice         string    `json:"voice"`
	ChunkCount    int       `json:"chunkCount"`
	TotalDuration float64   `json:"totalDuration"`
	AudioKeys     []string  `json:"audioKeys"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// BrowserRender records one headless-rendering job and its result.
type BrowserRender struct {
	ID               int64     `json:"id"`
	Kind             string    `json:"kind"`
	SourceURL        string    `json:"sourceUrl,omitempty"`
	Result           string    `json:"result"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ResearchCategory is a seedable taxonomy entry. Keywords support future
// auto-classification; only storage is implemented here.
type ResearchCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parentId,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
}

// VideoCategory links a video to a category with a relevance score.
type VideoCategory struct {
	VideoID        int64   `json:"videoId"`
	CategoryID     int64   `json:"categoryId"`
	RelevanceScore float64 `json:"relevanceScore"`
	AutoAssigned   bool    `json:"autoAssigned"`
}

// SearchQueryLog is an append-only analytics record of one search.
type SearchQueryLog struct {
	Query       string `json:"query"`
	Filters     string `json:"filters,omitempty"`
	ResultCount int    `json:"resultCount"`
	LatencyMs   int64  `json:"latencyMs"`
}

// PipelineStats is the aggregate view served by GET /status.
type PipelineStats struct {
	TotalVideos    int            `json:"totalVideos"`
	ByStatus       map[string]int `json:"byStatus"`
	AverageRating  float64        `json:"averageRating"`
	HighlyRelevant int            `json:"highlyRelevant"`
}

// DefaultCategories returns the seed taxonomy created on first run
func DefaultCategories() []*ResearchCategory {
	return []*ResearchCategory{
		{
			Name:        "Machine Learning",
			Description: "Model architectures, training and evaluation",
			Keywords:    "neural network,training,model,dataset,inference",
		},
		{
			Name:        "Quantum Computing",
			Description: "Quantum hardware, algorithms and error correction",
			Keywords:    "qubit,superposition,entanglement,quantum gate",
		},
		{
			Name:        "Biotechnology",
			Description: "Genomics, synthetic biology and drug discovery",
			Keywords:    "gene,protein,crispr,sequencing,clinical",
		},
		{
			Name:        "Climate Science",
			Description: "Climate modelling, energy and sustainability",
			Keywords:    "carbon,emission,renewable,warming,climate",
		},
		{
			Name:        "Interviews & Talks",
			Description: "Long-form interviews, lectures and conference talks",
			Keywords:    "interview,lecture,keynote,panel,talk",
		},
	}
}
