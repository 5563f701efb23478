// Package gateway contains the platform-neutral half of a chat session:
// turning one inbound message into handler calls and chunked outbound sends.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/beeper/chatbot-bridge/pkg/handlers"
	"github.com/beeper/chatbot-bridge/pkg/shared/stringutil"
)

// Apology is sent when handling a message fails for any reason.
const Apology = "Sorry, something went wrong."

// InboundMessage is a platform-neutral chat message addressed to the bot.
type InboundMessage struct {
	ChannelID string
	AuthorID  string
	Text      string
	// AttachmentURL is the retrievable reference of the first attachment, if any.
	// It may be an http(s) URL or a local file path.
	AttachmentURL string
}

// SendFunc delivers one outbound message to the channel the inbound message came from.
type SendFunc func(ctx context.Context, text string) error

// MessageHandler is implemented by *handlers.Handlers.
type MessageHandler interface {
	HandleText(ctx context.Context, text string, store handlers.Store) string
	HandleTextWithImage(ctx context.Context, text, ref string) (string, error)
}

// Store is the ephemeral state shared by every message of a session.
type Store interface {
	Set(key string, value any)
}

type Dispatcher struct {
	handler   MessageHandler
	store     Store
	log       zerolog.Logger
	chunkSize int

	typingInterval time.Duration
	typingTTL      time.Duration
}

func NewDispatcher(h MessageHandler, store Store, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		handler:   h,
		store:     store,
		log:       log.With().Str("component", "dispatcher").Logger(),
		chunkSize: stringutil.DefaultChunkSize,

		typingInterval: DefaultTypingInterval,
		typingTTL:      DefaultTypingTTL,
	}
}

// channelStore namespaces keys by channel so handlers never see another channel's state.
type channelStore struct {
	store     Store
	channelID string
}

func (s channelStore) Set(key string, value any) {
	s.store.Set(s.channelID+":"+key, value)
}

// Dispatch handles msg and sends the reply in order as one or more chunks.
// Failures, including panics in the handler, are logged and answered with
// Apology. Dispatch never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, msg InboundMessage, send SendFunc) {
	d.DispatchWithTyping(ctx, msg, send, nil)
}

// DispatchWithTyping is Dispatch with a typing indicator shown until the
// first reply chunk is sent. A nil typing func disables the indicator.
func (d *Dispatcher) DispatchWithTyping(ctx context.Context, msg InboundMessage, send SendFunc, typing TypingFunc) {
	log := d.log.With().
		Str("correlation_id", uuid.NewString()).
		Str("channel_id", msg.ChannelID).
		Str("author_id", msg.AuthorID).
		Bool("has_attachment", msg.AttachmentURL != "").
		Logger()
	ctx = log.WithContext(ctx)

	tc := startTyping(ctx, typing, d.typingInterval, d.typingTTL)
	defer tc.Stop()
	delivered, err := d.handleAndSend(ctx, msg, func(ctx context.Context, text string) error {
		tc.Stop()
		return send(ctx, text)
	})
	if err == nil {
		return
	} else if delivered > 0 {
		// An apology after a partial reply reads as a second answer.
		log.Err(err).Int("delivered_chunks", delivered).Msg("Failed to send rest of reply")
		return
	}
	log.Err(err).Msg("Failed to handle message")
	tc.Stop()
	if sendErr := send(ctx, Apology); sendErr != nil {
		log.Err(sendErr).Msg("Failed to send apology")
	}
}

// handleAndSend returns the number of chunks delivered before any error.
func (d *Dispatcher) handleAndSend(ctx context.Context, msg InboundMessage, send SendFunc) (int, error) {
	reply, err := d.reply(ctx, msg)
	if err != nil {
		return 0, err
	}
	if reply == "" {
		zerolog.Ctx(ctx).Warn().Msg("Handler produced an empty reply, nothing to send")
		return 0, nil
	}
	parts := stringutil.Chunk(reply, d.chunkSize)
	for i, part := range parts {
		if err = send(ctx, part); err != nil {
			return i, fmt.Errorf("send reply chunk %d of %d: %w", i+1, len(parts), err)
		}
	}
	return len(parts), nil
}

func (d *Dispatcher) reply(ctx context.Context, msg InboundMessage) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	if msg.AttachmentURL != "" {
		return d.handler.HandleTextWithImage(ctx, msg.Text, msg.AttachmentURL)
	}
	var store handlers.Store
	if d.store != nil {
		store = channelStore{store: d.store, channelID: msg.ChannelID}
	}
	return d.handler.HandleText(ctx, msg.Text, store), nil
}
