package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/beeper/chatbot-bridge/pkg/completion"
	"github.com/beeper/chatbot-bridge/pkg/config"
	"github.com/beeper/chatbot-bridge/pkg/gateway"
	"github.com/beeper/chatbot-bridge/pkg/gateway/discord"
	"github.com/beeper/chatbot-bridge/pkg/gateway/matrix"
	"github.com/beeper/chatbot-bridge/pkg/handlers"
	"github.com/beeper/chatbot-bridge/pkg/logging"
	"github.com/beeper/chatbot-bridge/pkg/router"
	"github.com/beeper/chatbot-bridge/pkg/state"
)

type runner interface {
	Run(ctx context.Context) error
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the TOML settings file")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.Setup(settings.LogConfig, settings.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
		os.Exit(1)
	}
	if err = settings.Validate(); err != nil {
		var tokenErr *config.TokenError
		if errors.As(err, &tokenErr) {
			log.Error().Msg(tokenErr.Error())
		} else {
			log.Err(err).Msg("Invalid settings")
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := newSession(settings, log)
	if err != nil {
		log.Err(err).Msg("Failed to create chat session")
		os.Exit(1)
	}
	log.Info().
		Str("platform", string(settings.Platform)).
		Str("model", settings.Model).
		Bool("completion_credential", settings.OpenAIAPIKey != "").
		Msg("Starting chatbot bridge")
	if err = session.Run(ctx); err != nil {
		log.Err(err).Msg("Chat session stopped with error")
		os.Exit(1)
	}
}

func newSession(settings config.Settings, log zerolog.Logger) (runner, error) {
	client := completion.NewClient(settings.CompletionConfig(), log)
	commands := router.New()
	h := handlers.New(client, commands, settings.Model, settings.Timeout)
	dispatcher := gateway.NewDispatcher(h, state.NewDefaultMemoryStore(), log)

	switch settings.Platform {
	case config.PlatformMatrix:
		return matrix.NewSession(settings.MatrixHomeserver, settings.MatrixUserID, settings.MatrixAccessToken, dispatcher, log)
	default:
		return discord.NewSession(settings.DiscordToken, dispatcher, commands, log)
	}
}
