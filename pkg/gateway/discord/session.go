// Package discord connects the dispatcher to a Discord bot account.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/beeper/chatbot-bridge/pkg/gateway"
	"github.com/beeper/chatbot-bridge/pkg/router"
)

const intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

type Session struct {
	dg         *discordgo.Session
	dispatcher *gateway.Dispatcher
	router     *router.Router
	log        zerolog.Logger

	ctx context.Context
}

// NewSession prepares a bot session. No connection is made until Run.
func NewSession(token string, dispatcher *gateway.Dispatcher, r *router.Router, log zerolog.Logger) (*Session, error) {
	if token == "" {
		return nil, errors.New("discord token is empty")
	}
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	if r == nil {
		r = router.New()
	}
	dg.Identify.Intents = intents
	s := &Session{
		dg:         dg,
		dispatcher: dispatcher,
		router:     r,
		log:        log.With().Str("component", "discord").Logger(),
		ctx:        context.Background(),
	}
	dg.AddHandler(s.onReady)
	dg.AddHandler(s.onInteraction)
	dg.AddHandler(s.onMessage)
	return s, nil
}

// Run opens the gateway connection and blocks until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	if err := s.dg.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	<-ctx.Done()
	s.log.Info().Msg("Closing Discord session")
	if err := s.dg.Close(); err != nil {
		return fmt.Errorf("close discord gateway: %w", err)
	}
	return nil
}

func (s *Session) onReady(dg *discordgo.Session, r *discordgo.Ready) {
	s.log.Info().
		Str("user", r.User.String()).
		Str("user_id", r.User.ID).
		Msg("Logged in")
	appID := r.User.ID
	if r.Application != nil && r.Application.ID != "" {
		appID = r.Application.ID
	}
	synced, err := dg.ApplicationCommandBulkOverwrite(appID, "", applicationCommands(s.router), discordgo.WithContext(s.ctx))
	if err != nil {
		s.log.Warn().Err(err).Msg("Slash command sync failed")
		return
	}
	s.log.Info().Int("count", len(synced)).Msg("Synced application commands")
}

func (s *Session) onInteraction(dg *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	reply, ok := s.router.Route(name)
	if !ok {
		reply = gateway.Apology
	}
	err := dg.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: reply},
	}, discordgo.WithContext(s.ctx))
	if err != nil {
		s.log.Err(err).Str("command", name).Msg("Failed to respond to interaction")
	}
}

func (s *Session) onMessage(dg *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if dg.State != nil && dg.State.User != nil {
		selfID = dg.State.User.ID
	}
	msg, ok := inboundFromMessage(m, selfID)
	if !ok {
		return
	}
	send := func(ctx context.Context, text string) error {
		_, err := dg.ChannelMessageSend(m.ChannelID, text, discordgo.WithContext(ctx))
		return err
	}
	// Discord has no explicit stop; the indicator clears when a message is sent.
	typing := func(ctx context.Context, on bool) error {
		if !on {
			return nil
		}
		return dg.ChannelTyping(m.ChannelID, discordgo.WithContext(ctx))
	}
	s.dispatcher.DispatchWithTyping(s.ctx, msg, send, typing)
}

// inboundFromMessage converts a gateway message event. ok is false for
// messages the bot itself authored.
func inboundFromMessage(m *discordgo.MessageCreate, selfID string) (gateway.InboundMessage, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return gateway.InboundMessage{}, false
	}
	if m.Author.ID == selfID {
		return gateway.InboundMessage{}, false
	}
	msg := gateway.InboundMessage{
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Text:      m.Content,
	}
	for _, att := range m.Attachments {
		if att != nil && att.URL != "" {
			msg.AttachmentURL = att.URL
			break
		}
	}
	return msg, true
}

func applicationCommands(r *router.Router) []*discordgo.ApplicationCommand {
	cmds := r.Commands()
	out := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, cmd := range cmds {
		out = append(out, &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
			Type:        discordgo.ChatApplicationCommand,
		})
	}
	return out
}
