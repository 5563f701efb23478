package stringutil

import "unicode/utf8"

// DefaultChunkSize is the largest message body most chat platforms accept in one send.
const DefaultChunkSize = 2000

// Chunk splits text into consecutive pieces of at most size characters.
// Joining the pieces in order yields the original text byte for byte; an
// invalid UTF-8 byte counts as one character. An empty text yields a single
// empty piece so callers always have something to send.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if text == "" {
		return []string{""}
	}
	chunks := make([]string, 0, (utf8.RuneCountInString(text)+size-1)/size)
	start, count := 0, 0
	for end := 0; end < len(text); {
		_, width := utf8.DecodeRuneInString(text[end:])
		end += width
		count++
		if count == size {
			chunks = append(chunks, text[start:end])
			start, count = end, 0
		}
	}
	if start < len(text) {
		chunks = append(chunks, text[start:])
	}
	return chunks
}
