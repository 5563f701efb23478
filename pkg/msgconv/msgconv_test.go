package msgconv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_PlainString(t *testing.T) {
	conv := Conversation{NewTextMessage("hello")}
	assert.Equal(t, "hello", ExtractText(conv))
}

func TestExtractText_PartsSkipImagesAndEmpty(t *testing.T) {
	conv := Conversation{NewPartsMessage(
		TextPart{Text: "describe this"},
		ImagePart{Source: RemoteImage("https://example.com/img.png")},
		TextPart{Text: ""},
		TextPart{Text: "carefully"},
	)}
	assert.Equal(t, "describe this\ncarefully", ExtractText(conv))
}

func TestExtractText_OnlyLastEntry(t *testing.T) {
	conv := Conversation{NewTextMessage("first"), NewTextMessage("second")}
	assert.Equal(t, "second", ExtractText(conv))
}

func TestExtractText_Empty(t *testing.T) {
	assert.Equal(t, NoContentPlaceholder, ExtractText(nil))
}

func TestExtractText_OnlyImages(t *testing.T) {
	conv := Conversation{NewPartsMessage(ImagePart{Source: RemoteImage("https://example.com/a.png")})}
	assert.Equal(t, "", ExtractText(conv))
}

func TestToInputMessages_PlainString(t *testing.T) {
	input, err := ToInputMessages(NewTextMessage("hi"))
	require.NoError(t, err)
	data, err := json.Marshal(input)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":[{"type":"input_text","text":"hi"}]}]`, string(data))
}

func TestToInputMessages_EmptyStringKeepsTextField(t *testing.T) {
	input, err := ToInputMessages(NewTextMessage(""))
	require.NoError(t, err)
	data, err := json.Marshal(input)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":[{"type":"input_text","text":""}]}]`, string(data))
}

func TestToInputMessages_PartsRetagTextAndKeepImages(t *testing.T) {
	input, err := ToInputMessages(NewPartsMessage(
		TextPart{Text: "what is this?"},
		ImagePart{Source: RemoteImage("https://example.com/a.png")},
		ImagePart{Source: InlineImage("QUJD", "image/jpeg")},
	))
	require.NoError(t, err)
	data, err := json.Marshal(input)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":[
		{"type":"input_text","text":"what is this?"},
		{"type":"input_image","image_url":"https://example.com/a.png","detail":"auto"},
		{"type":"input_image","image_url":"data:image/jpeg;base64,QUJD","detail":"auto"}
	]}]`, string(data))
}

type bogusPart struct{}

func (bogusPart) Type() ContentPartType { return "bogus" }
func (bogusPart) isContentPart()        {}

func TestToInputContent_UnsupportedPart(t *testing.T) {
	_, err := ToInputContent(MultiPart(bogusPart{}))
	require.Error(t, err)
}

func TestToResponsesInput(t *testing.T) {
	input, err := ToResponsesInput(NewPartsMessage(
		TextPart{Text: "caption"},
		ImagePart{Source: InlineImage("QUJD", "image/png")},
	))
	require.NoError(t, err)
	require.Len(t, input, 1)
	msg := input[0].OfMessage
	require.NotNil(t, msg)
	assert.EqualValues(t, "user", msg.Role)
	parts := msg.Content.OfInputItemContentList
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].OfInputText)
	assert.Equal(t, "caption", parts[0].OfInputText.Text)
	require.NotNil(t, parts[1].OfInputImage)
	assert.Equal(t, "data:image/png;base64,QUJD", parts[1].OfInputImage.ImageURL.Value)
}

func TestContentAccessors(t *testing.T) {
	text, ok := PlainText("x").Text()
	assert.True(t, ok)
	assert.Equal(t, "x", text)
	_, ok = PlainText("x").Parts()
	assert.False(t, ok)

	parts, ok := MultiPart(TextPart{Text: "y"}).Parts()
	assert.True(t, ok)
	assert.Len(t, parts, 1)
	_, ok = MultiPart().Text()
	assert.False(t, ok)
}
