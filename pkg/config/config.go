// Package config loads the bot settings from the environment, an optional
// .env file and an optional TOML settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/beeper/chatbot-bridge/pkg/completion"
	"github.com/beeper/chatbot-bridge/pkg/handlers"
	"github.com/beeper/chatbot-bridge/pkg/shared/stringutil"
)

const (
	DefaultPath      = "config/settings.toml"
	DefaultDotEnv    = ".env"
	DefaultLogLevel  = "INFO"
	DefaultLogConfig = "logging.yaml"

	// MinTokenLength is the shortest platform credential accepted by Validate.
	MinTokenLength = 30
)

type Platform string

const (
	PlatformDiscord Platform = "discord"
	PlatformMatrix  Platform = "matrix"
)

// Settings is built once at startup and passed by value to every component.
type Settings struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	Model           string
	Timeout         time.Duration
	Instructions    string
	ReasoningEffort string

	Platform          Platform
	DiscordToken      string
	MatrixHomeserver  string
	MatrixUserID      string
	MatrixAccessToken string

	LogLevel  string
	LogConfig string
}

type fileOpenAI struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	Timeout         string `toml:"timeout"`
	Instructions    string `toml:"instructions"`
	ReasoningEffort string `toml:"reasoning_effort"`
}

type fileDiscord struct {
	Token string `toml:"token"`
}

type fileMatrix struct {
	Homeserver  string `toml:"homeserver"`
	UserID      string `toml:"user_id"`
	AccessToken string `toml:"access_token"`
}

type fileLogging struct {
	Level  string `toml:"level"`
	Config string `toml:"config"`
}

type fileBot struct {
	Platform string `toml:"platform"`
}

type fileSettings struct {
	OpenAI  fileOpenAI  `toml:"openai"`
	Discord fileDiscord `toml:"discord"`
	Matrix  fileMatrix  `toml:"matrix"`
	Logging fileLogging `toml:"logging"`
	Bot     fileBot     `toml:"bot"`
}

// Load reads .env from the working directory and the TOML file at path.
// Neither file has to exist. Non-blank environment variables take precedence
// over file values.
func Load(path string) (Settings, error) {
	return load(path, DefaultDotEnv)
}

func load(path, dotenvPath string) (Settings, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	var file fileSettings
	if path != "" {
		if _, err := toml.DecodeFile(path, &file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("decode settings file %s: %w", path, err)
		}
	}

	timeout, err := parseTimeout(stringutil.EnvOr("OPENAI_TIMEOUT", file.OpenAI.Timeout))
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		OpenAIAPIKey:    strings.TrimSpace(stringutil.EnvOr("OPENAI_API_KEY", file.OpenAI.APIKey)),
		OpenAIBaseURL:   stringutil.EnvOr("OPENAI_BASE_URL", stringutil.FirstNonEmpty(file.OpenAI.BaseURL, completion.DefaultBaseURL)),
		Model:           stringutil.EnvOr("OPENAI_MODEL", stringutil.FirstNonEmpty(file.OpenAI.Model, handlers.DefaultModel)),
		Timeout:         timeout,
		Instructions:    stringutil.EnvOr("OPENAI_INSTRUCTIONS", file.OpenAI.Instructions),
		ReasoningEffort: stringutil.EnvOr("OPENAI_REASONING_EFFORT", file.OpenAI.ReasoningEffort),

		Platform:          Platform(strings.ToLower(stringutil.EnvOr("CHAT_PLATFORM", stringutil.FirstNonEmpty(file.Bot.Platform, string(PlatformDiscord))))),
		DiscordToken:      strings.TrimSpace(stringutil.EnvOr("DISCORD_BOT_TOKEN", file.Discord.Token)),
		MatrixHomeserver:  stringutil.EnvOr("MATRIX_HOMESERVER", file.Matrix.Homeserver),
		MatrixUserID:      stringutil.EnvOr("MATRIX_USER_ID", file.Matrix.UserID),
		MatrixAccessToken: strings.TrimSpace(stringutil.EnvOr("MATRIX_ACCESS_TOKEN", file.Matrix.AccessToken)),

		LogLevel:  stringutil.EnvOr("LOG_LEVEL", stringutil.FirstNonEmpty(file.Logging.Level, DefaultLogLevel)),
		LogConfig: stringutil.EnvOr("LOG_CONFIG", stringutil.FirstNonEmpty(file.Logging.Config, DefaultLogConfig)),
	}
	return s, nil
}

// parseTimeout accepts a Go duration ("45s") or a number of seconds ("45", "2.5").
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return completion.DefaultTimeout, nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("invalid timeout %q: must be positive", raw)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", raw)
	}
	return d, nil
}

// CompletionConfig returns the completion client configuration.
func (s Settings) CompletionConfig() completion.Config {
	return completion.Config{
		APIKey:          s.OpenAIAPIKey,
		BaseURL:         s.OpenAIBaseURL,
		Instructions:    s.Instructions,
		ReasoningEffort: s.ReasoningEffort,
	}
}

// PlatformToken returns the environment key and value of the credential the
// selected platform needs.
func (s Settings) PlatformToken() (key, token string) {
	if s.Platform == PlatformMatrix {
		return "MATRIX_ACCESS_TOKEN", s.MatrixAccessToken
	}
	return "DISCORD_BOT_TOKEN", s.DiscordToken
}
