package rag

import "strings"

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// SplitText cuts text into chunks of at most size runes with the given
// overlap between consecutive chunks. Cuts prefer paragraph breaks, then
// line breaks, then spaces, so passages stay readable.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// cutPoint searches backwards from the hard limit for a natural boundary.
func cutPoint(runes []rune, start, limit int) int {
	window := runes[start:limit]
	text := string(window)

	for _, sep := range []string{"\n\n", "\n", " "} {
		if idx := strings.LastIndex(text, sep); idx > 0 {
			return start + len([]rune(text[:idx+len(sep)]))
		}
	}
	return limit
}
