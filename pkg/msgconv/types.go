// Package msgconv holds the conversation payload model and its conversion
// into the completion provider's input shapes.
package msgconv

// MessageRole represents the role of a message sender
type MessageRole string

const (
	RoleUser MessageRole = "user"
)

// ContentPartType identifies the type of content in a message
type ContentPartType string

const (
	ContentTypeText  ContentPartType = "text"
	ContentTypeImage ContentPartType = "image"
)

// ContentPart is a single typed unit of message content. The set of
// implementations is closed: TextPart and ImagePart.
type ContentPart interface {
	Type() ContentPartType
	isContentPart()
}

// TextPart is a text content block.
type TextPart struct {
	Text string
}

func (TextPart) Type() ContentPartType { return ContentTypeText }
func (TextPart) isContentPart()        {}

// ImagePart is an image content block.
type ImagePart struct {
	Source ImageSource
}

func (ImagePart) Type() ContentPartType { return ContentTypeImage }
func (ImagePart) isContentPart()        {}

// ImageSource references an image either by remote URL or by inline base64 data.
type ImageSource struct {
	URL      string
	Data     string // base64, set for inline images
	MimeType string // content type of Data
}

// RemoteImage returns a URL-referenced image source.
func RemoteImage(url string) ImageSource {
	return ImageSource{URL: url}
}

// InlineImage returns an image source carrying base64 data.
func InlineImage(b64Data, mimeType string) ImageSource {
	return ImageSource{Data: b64Data, MimeType: mimeType}
}

// IsInline reports whether the image carries its own data instead of a URL.
func (s ImageSource) IsInline() bool {
	return s.URL == "" && s.Data != ""
}

// Content is either plain text or an ordered list of content parts.
type Content struct {
	text      string
	parts     []ContentPart
	multipart bool
}

// PlainText creates string content.
func PlainText(text string) Content {
	return Content{text: text}
}

// MultiPart creates content made of typed parts.
func MultiPart(parts ...ContentPart) Content {
	return Content{parts: parts, multipart: true}
}

// Text returns the string content, if this is plain text content.
func (c Content) Text() (string, bool) {
	return c.text, !c.multipart
}

// Parts returns the content parts, if this is multipart content.
func (c Content) Parts() ([]ContentPart, bool) {
	return c.parts, c.multipart
}

// Message is a single conversation entry.
type Message struct {
	Role    MessageRole
	Content Content
}

// NewTextMessage creates a user message with plain text content
func NewTextMessage(text string) Message {
	return Message{Role: RoleUser, Content: PlainText(text)}
}

// NewPartsMessage creates a user message with multipart content
func NewPartsMessage(parts ...ContentPart) Message {
	return Message{Role: RoleUser, Content: MultiPart(parts...)}
}

// Conversation is an ordered list of conversation entries.
type Conversation []Message

// Last returns the most recent entry.
func (c Conversation) Last() (Message, bool) {
	if len(c) == 0 {
		return Message{}, false
	}
	return c[len(c)-1], true
}
