package main

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beeper/chatbot-bridge/pkg/config"
	"github.com/beeper/chatbot-bridge/pkg/gateway/discord"
	"github.com/beeper/chatbot-bridge/pkg/gateway/matrix"
)

const token = "abcdefghijklmnopqrstuvwxyz0123456789"

func TestNewSession_SelectsPlatform(t *testing.T) {
	base := config.Settings{Model: "gpt-5-nano", Timeout: time.Second}

	discordSettings := base
	discordSettings.Platform = config.PlatformDiscord
	discordSettings.DiscordToken = token
	session, err := newSession(discordSettings, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &discord.Session{}, session)

	matrixSettings := base
	matrixSettings.Platform = config.PlatformMatrix
	matrixSettings.MatrixHomeserver = "https://matrix.example.org"
	matrixSettings.MatrixUserID = "@bot:example.org"
	matrixSettings.MatrixAccessToken = token
	session, err = newSession(matrixSettings, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &matrix.Session{}, session)
}
