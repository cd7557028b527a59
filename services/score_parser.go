package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// ScoreDocument is the structured result extracted from a scoring response.
// Document holds the full parsed JSON for storage; Score and Confidence are
// pulled out for projection onto the video row.
type ScoreDocument struct {
	Score      float64
	Confidence float64
	Document   string
	Degraded   bool
}

var scoreTokenRe = regexp.MustCompile(`(?i)score["']?\s*[:=]\s*([0-9]+(?:\.[0-9]+)?)`)

// ParseScoreResponse extracts a score document from free model output.
// Policy: take the first {...} block and parse it as JSON; if that fails,
// fall back to a regex hunt for a score token; if that fails too, default
// to 5.0 with low confidence. Parsing never returns an error — degraded
// output only lowers confidence.
func ParseScoreResponse(response string) *ScoreDocument {
	if jsonStr := extractJSON(response); jsonStr != "" {
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(jsonStr), &parsed); err == nil {
			doc := &ScoreDocument{
				Score:      5.0,
				Confidence: 0.7,
				Document:   jsonStr,
			}
			if v, ok := toFloat(parsed["score"]); ok {
				doc.Score = clampScore(v)
			}
			if v, ok := toFloat(parsed["confidence"]); ok {
				doc.Confidence = v
			}
			return doc
		}
	}

	doc := &ScoreDocument{
		Score:      5.0,
		Confidence: 0.3,
		Degraded:   true,
	}
	if m := scoreTokenRe.FindStringSubmatch(response); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			doc.Score = clampScore(v)
		}
	}

	fallback, _ := json.Marshal(map[string]interface{}{
		"score":     doc.Score,
		"raw":       truncate(response, 2000),
		"degraded":  true,
	})
	doc.Document = string(fallback)
	return doc
}

// extractJSON returns the first top-level {...} block in the response, or
// "" when none exists.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end != -1 && end > start {
		return response[start : end+1]
	}
	return ""
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
