package services

import (
	"encoding/json"
	"testing"
)

func TestParseScoreResponse_WellFormedJSON(t *testing.T) {
	response := `Here is my assessment:
{"score": 8.5, "summary": "Strong material", "confidence": 0.9}
Hope that helps.`

	doc := ParseScoreResponse(response)
	if doc.Score != 8.5 {
		t.Errorf("score = %v, want 8.5", doc.Score)
	}
	if doc.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", doc.Confidence)
	}
	if doc.Degraded {
		t.Error("well-formed JSON should not be marked degraded")
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(doc.Document), &parsed); err != nil {
		t.Fatalf("stored document is not valid JSON: %v", err)
	}
	if parsed["summary"] != "Strong material" {
		t.Errorf("document lost fields: %v", parsed)
	}
}

func TestParseScoreResponse_ScoreTokenFallback(t *testing.T) {
	doc := ParseScoreResponse("I would give this a score: 7 out of ten overall.")
	if doc.Score != 7 {
		t.Errorf("score = %v, want 7", doc.Score)
	}
	if !doc.Degraded {
		t.Error("regex fallback should be marked degraded")
	}
	if doc.Confidence >= 0.7 {
		t.Errorf("confidence = %v, want low confidence for fallback", doc.Confidence)
	}
}

func TestParseScoreResponse_DefaultScore(t *testing.T) {
	doc := ParseScoreResponse("The model refused to answer.")
	if doc.Score != 5.0 {
		t.Errorf("score = %v, want default 5.0", doc.Score)
	}
	if !doc.Degraded {
		t.Error("defaulted response should be marked degraded")
	}
}

func TestParseScoreResponse_ClampsOutOfRange(t *testing.T) {
	doc := ParseScoreResponse(`{"score": 42}`)
	if doc.Score != 10 {
		t.Errorf("score = %v, want clamp to 10", doc.Score)
	}

	doc = ParseScoreResponse(`{"score": -3}`)
	if doc.Score != 0 {
		t.Errorf("score = %v, want clamp to 0", doc.Score)
	}
}

func TestParseScoreResponse_MalformedJSONFallsThrough(t *testing.T) {
	// Broken JSON containing a score token still recovers the number.
	doc := ParseScoreResponse(`{"score": 6.5, "summary": "unterminated`)
	if doc.Score != 6.5 {
		t.Errorf("score = %v, want 6.5 via token fallback", doc.Score)
	}
	if !doc.Degraded {
		t.Error("malformed JSON should be marked degraded")
	}
}

func TestParseScoreResponse_NeverFatal(t *testing.T) {
	for _, input := range []string{"", "{}", "}{", "score:", "no digits at all"} {
		doc := ParseScoreResponse(input)
		if doc == nil {
			t.Fatalf("nil document for input %q", input)
		}
		if doc.Score < 0 || doc.Score > 10 {
			t.Errorf("score %v out of range for input %q", doc.Score, input)
		}
	}
}
