// Package matrix connects the dispatcher to a Matrix account using the
// client-server sync API.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/beeper/chatbot-bridge/pkg/gateway"
	"github.com/beeper/chatbot-bridge/pkg/shared/media"
)

// typingTimeout is how long the homeserver shows the indicator without a refresh.
const typingTimeout = 30 * time.Second

type Session struct {
	client     *mautrix.Client
	dispatcher *gateway.Dispatcher
	log        zerolog.Logger

	wg sync.WaitGroup
}

func NewSession(homeserver, userID, token string, dispatcher *gateway.Dispatcher, log zerolog.Logger) (*Session, error) {
	if homeserver == "" || userID == "" {
		return nil, errors.New("matrix homeserver and user id are required")
	}
	client, err := mautrix.NewClient(homeserver, id.UserID(userID), token)
	if err != nil {
		return nil, fmt.Errorf("create matrix client: %w", err)
	}
	s := &Session{
		client:     client,
		dispatcher: dispatcher,
		log:        log.With().Str("component", "matrix").Str("user_id", userID).Logger(),
	}
	client.Log = s.log

	syncer := mautrix.NewDefaultSyncer()
	syncer.OnSync(client.DontProcessOldEvents)
	syncer.OnEventType(event.StateMember, s.onMember)
	syncer.OnEventType(event.EventMessage, s.onMessage)
	client.Syncer = syncer
	return s, nil
}

// Run syncs until ctx is done and waits for in-flight messages to finish.
func (s *Session) Run(ctx context.Context) error {
	s.log.Info().Msg("Starting Matrix sync")
	err := s.client.SyncWithContext(ctx)
	s.wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("matrix sync: %w", err)
	}
	return nil
}

func (s *Session) onMember(ctx context.Context, evt *event.Event) {
	member := evt.Content.AsMember()
	if member.Membership != event.MembershipInvite || evt.GetStateKey() != s.client.UserID.String() {
		return
	}
	if _, err := s.client.JoinRoomByID(ctx, evt.RoomID); err != nil {
		s.log.Err(err).Stringer("room_id", evt.RoomID).Msg("Failed to join invited room")
		return
	}
	s.log.Info().Stringer("room_id", evt.RoomID).Stringer("inviter", evt.Sender).Msg("Joined room")
}

func (s *Session) onMessage(ctx context.Context, evt *event.Event) {
	if evt.Sender == s.client.UserID {
		return
	}
	content := evt.Content.AsMessage()
	msg, image, ok := inboundFromContent(evt.RoomID, evt.Sender, content)
	if !ok {
		return
	}
	roomID := evt.RoomID
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if image != nil {
			path, err := s.downloadImage(ctx, image)
			if err != nil {
				s.log.Err(err).Stringer("room_id", roomID).Msg("Failed to download image")
				s.send(ctx, roomID, gateway.Apology)
				return
			}
			defer os.Remove(path)
			msg.AttachmentURL = path
		}
		send := func(ctx context.Context, text string) error {
			_, err := s.client.SendText(ctx, roomID, text)
			return err
		}
		typing := func(ctx context.Context, on bool) error {
			_, err := s.client.UserTyping(ctx, roomID, on, typingTimeout)
			return err
		}
		s.dispatcher.DispatchWithTyping(ctx, msg, send, typing)
	}()
}

func (s *Session) send(ctx context.Context, roomID id.RoomID, text string) {
	if _, err := s.client.SendText(ctx, roomID, text); err != nil {
		s.log.Err(err).Stringer("room_id", roomID).Msg("Failed to send message")
	}
}

type imageRef struct {
	uri      id.ContentURI
	mimeType string
}

// downloadImage stores the media in a temp file so the handler can read it
// through the local-file image path. The caller removes the file.
func (s *Session) downloadImage(ctx context.Context, ref *imageRef) (string, error) {
	data, err := s.client.DownloadBytes(ctx, ref.uri)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", ref.uri, err)
	}
	ext := media.ExtensionFor(ref.mimeType)
	if ext == "" {
		ext = media.ExtensionFor(media.DefaultImageMimeType)
	}
	f, err := os.CreateTemp("", "chatbot-image-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// inboundFromContent maps a room message to an inbound message. Images are
// returned separately because they must be downloaded first. Notices are
// ignored: bots send them and must not answer each other.
func inboundFromContent(roomID id.RoomID, sender id.UserID, content *event.MessageEventContent) (gateway.InboundMessage, *imageRef, bool) {
	if content == nil {
		return gateway.InboundMessage{}, nil, false
	}
	msg := gateway.InboundMessage{
		ChannelID: roomID.String(),
		AuthorID:  sender.String(),
	}
	switch content.MsgType {
	case event.MsgText:
		msg.Text = content.Body
		return msg, nil, true
	case event.MsgImage:
		uri, err := content.URL.Parse()
		if err != nil || uri.IsEmpty() {
			return gateway.InboundMessage{}, nil, false
		}
		// Body is the caption only when a separate file name is present.
		if content.FileName != "" && content.FileName != content.Body {
			msg.Text = content.Body
		}
		ref := &imageRef{uri: uri}
		if content.Info != nil {
			ref.mimeType = content.Info.MimeType
		}
		return msg, ref, true
	default:
		return gateway.InboundMessage{}, nil, false
	}
}
