package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beeper/chatbot-bridge/pkg/completion"
	"github.com/beeper/chatbot-bridge/pkg/handlers"
	"github.com/beeper/chatbot-bridge/pkg/state"
)

type fakeHandler struct {
	textReply  string
	imageReply string
	imageErr   error
	panicWith  any
	gotRef     string
	gotStore   handlers.Store
}

func (f *fakeHandler) HandleText(_ context.Context, text string, store handlers.Store) string {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	f.gotStore = store
	if store != nil {
		store.Set("seen", text)
	}
	return f.textReply
}

func (f *fakeHandler) HandleTextWithImage(_ context.Context, _, ref string) (string, error) {
	f.gotRef = ref
	return f.imageReply, f.imageErr
}

type sink struct {
	sent    []string
	failOn  int
	failErr error
}

func (s *sink) send(_ context.Context, text string) error {
	if s.failErr != nil && len(s.sent) == s.failOn {
		s.failOn = -1
		return s.failErr
	}
	s.sent = append(s.sent, text)
	return nil
}

func TestDispatch_ChunksLongReplies(t *testing.T) {
	h := &fakeHandler{textReply: strings.Repeat("a", 4500)}
	d := NewDispatcher(h, nil, zerolog.Nop())
	out := &sink{}

	d.Dispatch(context.Background(), InboundMessage{ChannelID: "c", Text: "hi"}, out.send)
	require.Len(t, out.sent, 3)
	assert.Len(t, out.sent[0], 2000)
	assert.Len(t, out.sent[1], 2000)
	assert.Len(t, out.sent[2], 500)
}

func TestDispatch_AttachmentUsesImageHandler(t *testing.T) {
	h := &fakeHandler{imageReply: "an image"}
	d := NewDispatcher(h, nil, zerolog.Nop())
	out := &sink{}

	d.Dispatch(context.Background(), InboundMessage{Text: "what?", AttachmentURL: "https://cdn/x.png"}, out.send)
	assert.Equal(t, []string{"an image"}, out.sent)
	assert.Equal(t, "https://cdn/x.png", h.gotRef)
}

func TestDispatch_HandlerErrorSendsApology(t *testing.T) {
	h := &fakeHandler{imageErr: errors.New("read image file: boom")}
	d := NewDispatcher(h, nil, zerolog.Nop())
	out := &sink{}

	d.Dispatch(context.Background(), InboundMessage{AttachmentURL: "/missing.png"}, out.send)
	assert.Equal(t, []string{Apology}, out.sent)
}

func TestDispatch_PanicSendsApology(t *testing.T) {
	h := &fakeHandler{panicWith: "kaboom"}
	d := NewDispatcher(h, nil, zerolog.Nop())
	out := &sink{}

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), InboundMessage{Text: "hi"}, out.send)
	})
	assert.Equal(t, []string{Apology}, out.sent)
}

func TestDispatch_FirstSendFailureSendsApology(t *testing.T) {
	h := &fakeHandler{textReply: "short"}
	d := NewDispatcher(h, nil, zerolog.Nop())
	out := &sink{failOn: 0, failErr: errors.New("rate limited")}

	d.Dispatch(context.Background(), InboundMessage{Text: "hi"}, out.send)
	assert.Equal(t, []string{Apology}, out.sent)
}

func TestDispatch_LaterSendFailureSkipsApology(t *testing.T) {
	h := &fakeHandler{textReply: strings.Repeat("b", 4100)}
	d := NewDispatcher(h, nil, zerolog.Nop())
	out := &sink{failOn: 1, failErr: errors.New("rate limited")}

	d.Dispatch(context.Background(), InboundMessage{Text: "hi"}, out.send)
	require.Len(t, out.sent, 1)
	assert.Len(t, out.sent[0], 2000)
}

func TestDispatch_EmptyReplySendsNothing(t *testing.T) {
	h := &fakeHandler{textReply: ""}
	d := NewDispatcher(h, nil, zerolog.Nop())
	out := &sink{}

	d.Dispatch(context.Background(), InboundMessage{Text: "hi"}, out.send)
	assert.Empty(t, out.sent)
}

func TestDispatch_StoreIsScopedByChannel(t *testing.T) {
	store := state.NewDefaultMemoryStore()
	h := &fakeHandler{textReply: "ok"}
	d := NewDispatcher(h, store, zerolog.Nop())
	out := &sink{}

	d.Dispatch(context.Background(), InboundMessage{ChannelID: "one", Text: "first"}, out.send)
	d.Dispatch(context.Background(), InboundMessage{ChannelID: "two", Text: "second"}, out.send)

	v, ok := store.Get("one:seen")
	require.True(t, ok)
	assert.Equal(t, "first", v)
	v, ok = store.Get("two:seen")
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestDispatch_EndToEndDevMode(t *testing.T) {
	client := completion.NewClient(completion.Config{}, zerolog.Nop())
	d := NewDispatcher(handlers.New(client, nil, "", 0), state.NewDefaultMemoryStore(), zerolog.Nop())
	out := &sink{}

	d.Dispatch(context.Background(), InboundMessage{ChannelID: "c", Text: "ping"}, out.send)
	d.Dispatch(context.Background(), InboundMessage{ChannelID: "c", Text: "hello world"}, out.send)
	assert.Equal(t, []string{"pong", "[dev:fallback] hello world"}, out.sent)
}
