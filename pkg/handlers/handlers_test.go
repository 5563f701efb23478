package handlers

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beeper/chatbot-bridge/pkg/completion"
	"github.com/beeper/chatbot-bridge/pkg/msgconv"
	"github.com/beeper/chatbot-bridge/pkg/state"
)

type recordingResponder struct {
	conv    msgconv.Conversation
	model   string
	timeout time.Duration
	calls   int
}

func (r *recordingResponder) Respond(_ context.Context, conv msgconv.Conversation, model string, timeout time.Duration, _ ...completion.RequestOption) string {
	r.conv = conv
	r.model = model
	r.timeout = timeout
	r.calls++
	return "reply"
}

func devModeHandlers() *Handlers {
	client := completion.NewClient(completion.Config{}, zerolog.Nop())
	return New(client, nil, "", 0)
}

func TestHandleText_DevFallback(t *testing.T) {
	h := devModeHandlers()
	store := state.NewDefaultMemoryStore()
	assert.Equal(t, "[dev:fallback] hello world", h.HandleText(context.Background(), "hello world", store))

	last, ok := store.Get(LastPromptKey)
	require.True(t, ok)
	assert.Equal(t, "hello world", last)
}

func TestHandleText_CommandsShortCircuit(t *testing.T) {
	rec := &recordingResponder{}
	h := New(rec, nil, "m", time.Second)
	store := state.NewDefaultMemoryStore()

	assert.Equal(t, "pong", h.HandleText(context.Background(), "ping", store))
	assert.Contains(t, h.HandleText(context.Background(), "help", store), "Commands:")
	assert.Zero(t, rec.calls)
	_, ok := store.Get(LastPromptKey)
	assert.False(t, ok)
}

func TestHandleText_ForwardsModelAndTimeout(t *testing.T) {
	rec := &recordingResponder{}
	h := New(rec, nil, "custom-model", 5*time.Second)

	assert.Equal(t, "reply", h.HandleText(context.Background(), "tell me a joke", nil))
	assert.Equal(t, "custom-model", rec.model)
	assert.Equal(t, 5*time.Second, rec.timeout)
	require.Len(t, rec.conv, 1)
	text, ok := rec.conv[0].Content.Text()
	require.True(t, ok)
	assert.Equal(t, "tell me a joke", text)
}

func TestNew_Defaults(t *testing.T) {
	rec := &recordingResponder{}
	h := New(rec, nil, "", 0)
	h.HandleText(context.Background(), "hi", nil)
	assert.Equal(t, DefaultModel, rec.model)
	assert.Equal(t, completion.DefaultTimeout, rec.timeout)
}

func TestHandleTextWithImage_URLDevFallback(t *testing.T) {
	h := devModeHandlers()
	reply, err := h.HandleTextWithImage(context.Background(), "what is in this image?", "http://example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "[dev:fallback] what is in this image?", reply)
}

func TestHandleTextWithImage_BypassesRouter(t *testing.T) {
	rec := &recordingResponder{}
	h := New(rec, nil, "", 0)
	_, err := h.HandleTextWithImage(context.Background(), "ping", "https://example.com/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)

	parts, ok := rec.conv[0].Content.Parts()
	require.True(t, ok)
	require.Len(t, parts, 2)
	assert.Equal(t, msgconv.TextPart{Text: "ping"}, parts[0])
	assert.Equal(t, msgconv.ImagePart{Source: msgconv.RemoteImage("https://example.com/a.jpg")}, parts[1])
}

func TestHandleTextWithImage_LocalFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte{0xff, 0xd8, 0xff, 0xe0}

	cases := []struct {
		name, file, mime string
	}{
		{"jpeg", "photo.JPG", "image/jpeg"},
		{"unknown extension defaults to png", "blob.bin", "image/png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			rec := &recordingResponder{}
			h := New(rec, nil, "", 0)
			_, err := h.HandleTextWithImage(context.Background(), "describe", path)
			require.NoError(t, err)

			parts, _ := rec.conv[0].Content.Parts()
			require.Len(t, parts, 2)
			img, ok := parts[1].(msgconv.ImagePart)
			require.True(t, ok)
			assert.True(t, img.Source.IsInline())
			assert.Equal(t, tc.mime, img.Source.MimeType)
			assert.Equal(t, base64.StdEncoding.EncodeToString(data), img.Source.Data)
		})
	}
}

func TestHandleTextWithImage_MissingFile(t *testing.T) {
	rec := &recordingResponder{}
	h := New(rec, nil, "", 0)
	_, err := h.HandleTextWithImage(context.Background(), "x", filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, rec.calls)
}
