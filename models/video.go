package models

import (
	"time"
)

// TranscriptionStatus represents where a video sits in the pipeline
type TranscriptionStatus string

const (
	StatusPending    TranscriptionStatus = "pending"
	StatusProcessing TranscriptionStatus = "processing"
	StatusCompleted  TranscriptionStatus = "completed"
	StatusFailed     TranscriptionStatus = "failed"
)

// SourceType describes where a video came from
type SourceType string

const (
	SourceUpload   SourceType = "upload"
	SourceYouTube  SourceType = "youtube"
	SourceTikTok   SourceType = "tiktok"
	SourceResearch SourceType = "research"
)

// LocatorExtracted marks videos whose transcript was supplied directly,
// with no stored media to resolve.
const LocatorExtracted = "extracted"

// StreamLocatorPrefix marks host-managed videos; the suffix is the host UID.
const StreamLocatorPrefix = "stream:"

// Video is a unit of ingested content tracked through the pipeline.
// StorageKey decides how Transcribe resolves bytes: "stream:<uid>" goes
// through the video host, "extracted" needs no bytes, anything else is a
// content-store object key.
type Video struct {
	ID                     int64               `json:"id"`
	Title                  string              `json:"title"`
	URL                    string              `json:"url,omitempty"`
	SourceType             SourceType          `json:"sourceType"`
	StorageKey             string              `json:"storageKey"`
	Status                 TranscriptionStatus `json:"status"`
	AIRatingScore          *float64            `json:"aiRatingScore,omitempty"`
	ContentQualityScore    *float64            `json:"contentQualityScore,omitempty"`
	ResearchRelevanceScore *float64            `json:"researchRelevanceScore,omitempty"`
	FactualAccuracyScore   *float64            `json:"factualAccuracyScore,omitempty"`
	Tags                   string              `json:"tags,omitempty"`
	Metadata               string              `json:"metadata,omitempty"`
	CreatedAt              time.Time           `json:"createdAt"`
	UpdatedAt              time.Time           `json:"updatedAt"`
}

// StreamUID returns the video host UID when the storage key is a stream
// locator, or "" otherwise.
func (v *Video) StreamUID() string {
	if len(v.StorageKey) > len(StreamLocatorPrefix) && v.StorageKey[:len(StreamLocatorPrefix)] == StreamLocatorPrefix {
		return v.StorageKey[len(StreamLocatorPrefix):]
	}
	return ""
}

// IsExtracted reports whether the transcript was supplied at ingest time.
func (v *Video) IsExtracted() bool {
	return v.StorageKey == LocatorExtracted
}
