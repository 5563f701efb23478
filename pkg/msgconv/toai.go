package msgconv

import (
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"

	"github.com/beeper/chatbot-bridge/pkg/shared/media"
)

// Provider content tags used in the Responses API input.
const (
	InputTypeText  = "input_text"
	InputTypeImage = "input_image"
)

const imageDetailAuto = "auto"

// InputMessage is the Responses API input item for a message.
type InputMessage struct {
	Role    string         `json:"role"`
	Content []InputContent `json:"content"`
}

// InputContent is a single provider content block.
type InputContent struct {
	Type     string  `json:"type"`
	Text     *string `json:"text,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
	Detail   string  `json:"detail,omitempty"`
}

func imageURL(src ImageSource) string {
	if src.IsInline() {
		return media.BuildDataURL(src.MimeType, src.Data)
	}
	return src.URL
}

func roleOf(msg Message) string {
	if msg.Role == "" {
		return string(RoleUser)
	}
	return string(msg.Role)
}

// ToInputContent normalizes message content into provider blocks. String
// content becomes a single input_text block and text parts are retagged as
// input_text; images become input_image blocks with inline data expressed as
// a data URL.
func ToInputContent(content Content) ([]InputContent, error) {
	if text, ok := content.Text(); ok {
		return []InputContent{{Type: InputTypeText, Text: &text}}, nil
	}
	parts, _ := content.Parts()
	out := make([]InputContent, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case TextPart:
			text := p.Text
			out = append(out, InputContent{Type: InputTypeText, Text: &text})
		case ImagePart:
			out = append(out, InputContent{Type: InputTypeImage, ImageURL: imageURL(p.Source), Detail: imageDetailAuto})
		default:
			return nil, fmt.Errorf("unsupported content part %T", part)
		}
	}
	return out, nil
}

// ToInputMessages converts the message into the provider's input list.
func ToInputMessages(msg Message) ([]InputMessage, error) {
	content, err := ToInputContent(msg.Content)
	if err != nil {
		return nil, err
	}
	return []InputMessage{{Role: roleOf(msg), Content: content}}, nil
}

// ToResponsesInput converts the message into openai-go Responses API input.
func ToResponsesInput(msg Message) (responses.ResponseInputParam, error) {
	blocks, err := ToInputContent(msg.Content)
	if err != nil {
		return nil, err
	}
	contentList := make(responses.ResponseInputMessageContentListParam, 0, len(blocks))
	for _, block := range blocks {
		switch block.Type {
		case InputTypeText:
			contentList = append(contentList, responses.ResponseInputContentUnionParam{
				OfInputText: &responses.ResponseInputTextParam{
					Text: *block.Text,
				},
			})
		case InputTypeImage:
			contentList = append(contentList, responses.ResponseInputContentUnionParam{
				OfInputImage: &responses.ResponseInputImageParam{
					ImageURL: openai.String(block.ImageURL),
					Detail:   responses.ResponseInputImageDetailAuto,
				},
			})
		}
	}
	return responses.ResponseInputParam{
		responses.ResponseInputItemUnionParam{
			OfMessage: &responses.EasyInputMessageParam{
				Role: responses.EasyInputMessageRole(roleOf(msg)),
				Content: responses.EasyInputMessageContentUnionParam{
					OfInputItemContentList: contentList,
				},
			},
		},
	}, nil
}
