// Package handlers turns inbound chat text into a reply by choosing between
// the command router and the completion client.
package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/beeper/chatbot-bridge/pkg/completion"
	"github.com/beeper/chatbot-bridge/pkg/msgconv"
	"github.com/beeper/chatbot-bridge/pkg/router"
	"github.com/beeper/chatbot-bridge/pkg/shared/media"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-5-nano"

// LastPromptKey is the store key under which HandleText records the most
// recent text it forwarded to the completion client.
const LastPromptKey = "last_prompt"

// Responder produces a reply for a conversation. It never fails; errors are
// folded into the returned text. *completion.Client implements it.
type Responder interface {
	Respond(ctx context.Context, conv msgconv.Conversation, model string, timeout time.Duration, opts ...completion.RequestOption) string
}

// Store is the subset of the ephemeral state store the handlers write to.
type Store interface {
	Set(key string, value any)
}

type Handlers struct {
	responder Responder
	router    *router.Router
	model     string
	timeout   time.Duration
}

// New creates handlers backed by the given responder and router. An empty
// model falls back to DefaultModel and a non-positive timeout to
// completion.DefaultTimeout. A nil router uses the default command table.
func New(responder Responder, r *router.Router, model string, timeout time.Duration) *Handlers {
	if r == nil {
		r = router.New()
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = completion.DefaultTimeout
	}
	return &Handlers{
		responder: responder,
		router:    r,
		model:     model,
		timeout:   timeout,
	}
}

// HandleText answers a text-only message. Known commands are answered by the
// router without touching the network.
func (h *Handlers) HandleText(ctx context.Context, text string, store Store) string {
	if reply, ok := h.router.Route(text); ok {
		return reply
	}
	if store != nil {
		store.Set(LastPromptKey, text)
	}
	conv := msgconv.Conversation{msgconv.NewTextMessage(text)}
	return h.responder.Respond(ctx, conv, h.model, h.timeout)
}

// HandleTextWithImage answers a message with an attached image. ref is either
// an http(s) URL or a local file path. Only reading a local file can fail.
func (h *Handlers) HandleTextWithImage(ctx context.Context, text, ref string) (string, error) {
	source, err := imageSource(ref)
	if err != nil {
		return "", err
	}
	conv := msgconv.Conversation{msgconv.NewPartsMessage(
		msgconv.TextPart{Text: text},
		msgconv.ImagePart{Source: source},
	)}
	return h.responder.Respond(ctx, conv, h.model, h.timeout), nil
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func imageSource(ref string) (msgconv.ImageSource, error) {
	if isURL(ref) {
		return msgconv.RemoteImage(ref), nil
	}
	mimeType, ok := media.MimeType(ref)
	if !ok {
		mimeType = media.DefaultImageMimeType
	}
	data, err := media.EncodeBase64(ref)
	if err != nil {
		return msgconv.ImageSource{}, err
	}
	return msgconv.InlineImage(data, mimeType), nil
}
