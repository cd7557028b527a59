package services

import (
	"strings"
)

// DefaultChunkSize bounds TTS chunk length in characters.
const DefaultChunkSize = 1000

// SplitIntoChunks breaks text into chunks of roughly maxLen characters
// without splitting mid-sentence. Sentences are accumulated greedily: a
// chunk is closed when the next sentence would push it past maxLen and it
// already holds something. A single sentence longer than maxLen becomes an
// oversized chunk on its own; that is accepted behavior.
func SplitIntoChunks(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}

	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence) > maxLen {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(sentence)
		current.WriteString(". ")
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}
