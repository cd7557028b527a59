package services

import (
	"fmt"

	"video-research-backend/models"
)

// BuildAnalysisPrompt returns the kind-specific scoring prompt embedding the
// video title and transcript text. Every prompt asks for the same JSON shape
// so the parser can treat responses uniformly.
func BuildAnalysisPrompt(kind models.AnalysisKind, title, transcript string) string {
	switch kind {
	case models.AnalysisRelevance:
		return fmt.Sprintf(`Rate how relevant this video is for a research library.

TITLE: %s

TRANSCRIPT:
%s

Respond in JSON format:
{
  "score": 7.5,
  "summary": "One-sentence justification",
  "topics": ["topic 1", "topic 2"],
  "confidence": 0.8
}

Score from 0 (no research value) to 10 (essential primary material).`, title, transcript)

	case models.AnalysisFactual:
		return fmt.Sprintf(`Assess the factual accuracy of the claims made in this video.

TITLE: %s

TRANSCRIPT:
%s

Respond in JSON format:
{
  "score": 7.5,
  "summary": "One-sentence assessment",
  "questionable_claims": ["claim 1"],
  "confidence": 0.8
}

Score from 0 (mostly false or unverifiable) to 10 (well-supported throughout).`, title, transcript)

	default: // quality
		return fmt.Sprintf(`Rate the content quality of this video: clarity, depth and structure.

TITLE: %s

TRANSCRIPT:
%s

Respond in JSON format:
{
  "score": 7.5,
  "summary": "One-sentence justification",
  "strengths": ["strength 1"],
  "weaknesses": ["weakness 1"],
  "confidence": 0.8
}

Score from 0 (unusable) to 10 (exceptional).`, title, transcript)
	}
}
