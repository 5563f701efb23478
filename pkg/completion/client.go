// Package completion turns conversation payloads into completion provider
// requests and always produces reply text, falling back from the SDK
// transport to a raw HTTP transport and finally to a local echo.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/beeper/chatbot-bridge/pkg/msgconv"
)

// DefaultBaseURL is the provider API root used when none is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// DevFallbackPrefix marks replies produced without a configured credential.
const DevFallbackPrefix = "[dev:fallback] "

// Config holds the process-wide completion settings.
type Config struct {
	APIKey          string
	BaseURL         string
	Instructions    string
	ReasoningEffort string
}

// Client produces completion text for a conversation. Respond never fails.
type Client struct {
	cfg        Config
	log        zerolog.Logger
	httpClient *http.Client
	transports []Transport
}

type Option func(*Client)

// WithHTTPClient sets the HTTP client used by the default transports.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTransports replaces the default SDK and HTTP transports.
func WithTransports(transports ...Transport) Option {
	return func(c *Client) {
		c.transports = transports
	}
}

// NewClient creates a completion client. Without an API key no transports
// are used and every call returns the developer fallback.
func NewClient(cfg Config, log zerolog.Logger, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	c := &Client{
		cfg: cfg,
		log: log.With().Str("component", "completion").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transports == nil && c.HasCredential() {
		c.transports = []Transport{
			NewSDKTransport(cfg.APIKey, cfg.BaseURL, c.httpClient, c.log),
			NewHTTPTransport(cfg.APIKey, cfg.BaseURL, c.httpClient, c.log),
		}
	}
	return c
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return c.cfg.APIKey != ""
}

type requestOverrides struct {
	instructions    *string
	reasoningEffort *string
}

// RequestOption overrides a process-wide default for a single call.
type RequestOption func(*requestOverrides)

// WithInstructions overrides the configured instructions. An empty value omits them.
func WithInstructions(instructions string) RequestOption {
	return func(o *requestOverrides) {
		o.instructions = &instructions
	}
}

// WithReasoningEffort overrides the configured reasoning effort. An empty value omits it.
func WithReasoningEffort(effort string) RequestOption {
	return func(o *requestOverrides) {
		o.reasoningEffort = &effort
	}
}

func (c *Client) loggerFor(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if ctxLog := zerolog.Ctx(ctx); ctxLog != nil && ctxLog.GetLevel() != zerolog.Disabled {
			return ctxLog
		}
	}
	return &c.log
}

// Respond returns the model's reply to the last conversation entry. Every
// failure degrades to a fallback marker followed by the entry's text.
func (c *Client) Respond(ctx context.Context, conv msgconv.Conversation, model string, timeout time.Duration, opts ...RequestOption) string {
	log := c.loggerFor(ctx)
	if !c.HasCredential() {
		return DevFallbackPrefix + msgconv.ExtractText(conv)
	}

	var overrides requestOverrides
	for _, opt := range opts {
		opt(&overrides)
	}
	instructions := c.cfg.Instructions
	if overrides.instructions != nil {
		instructions = *overrides.instructions
	}
	reasoningEffort := c.cfg.ReasoningEffort
	if overrides.reasoningEffort != nil {
		reasoningEffort = *overrides.reasoningEffort
	}

	req, err := NewRequest(conv, model, timeout, instructions, reasoningEffort)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build completion request")
		return errorFallback(classify(err), conv)
	}

	res := runChain(ctx, req, c.transports, func(failure *TransportError) {
		addErrorFields(log.Debug(), failure).Msg("Completion transport attempt failed")
	})
	if res.OK {
		return res.Text
	}
	kind := KindUnknown
	if first := res.FirstFailure(); first != nil {
		kind = first.Kind
	}
	addErrorFields(log.Error(), joinFailures(res.Failures)).
		Str("model", req.Model).
		Msg("All completion transports failed")
	return errorFallback(kind, conv)
}

func errorFallback(kind FailureKind, conv msgconv.Conversation) string {
	return fmt.Sprintf("[fallback: error %s] %s", kind, msgconv.ExtractText(conv))
}

func joinFailures(failures []*TransportError) error {
	if len(failures) == 0 {
		return errors.New("no transports configured")
	}
	errs := make([]error, len(failures))
	for i, failure := range failures {
		errs[i] = failure
	}
	return errors.Join(errs...)
}
