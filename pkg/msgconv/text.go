package msgconv

import "strings"

// NoContentPlaceholder is returned by ExtractText when nothing can be extracted.
const NoContentPlaceholder = "(no content)"

// ExtractText returns the best-effort plain text of the last conversation entry.
// String content is returned unchanged; for multipart content the non-empty
// text parts are joined with newlines and images contribute nothing.
func ExtractText(conv Conversation) string {
	last, ok := conv.Last()
	if !ok {
		return NoContentPlaceholder
	}
	if text, ok := last.Content.Text(); ok {
		return text
	}
	parts, _ := last.Content.Parts()
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if tp, ok := part.(TextPart); ok && tp.Text != "" {
			texts = append(texts, tp.Text)
		}
	}
	return strings.Join(texts, "\n")
}
