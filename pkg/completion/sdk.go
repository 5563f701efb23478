package completion

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rs/zerolog"
	"go.mau.fi/util/random"

	"github.com/beeper/chatbot-bridge/pkg/msgconv"
)

// SDKTransport calls the Responses API through the official openai-go client.
type SDKTransport struct {
	client openai.Client
	log    zerolog.Logger
}

// NewSDKTransport creates the primary transport. Retries are disabled since
// the fallback chain is the only recovery mechanism.
func NewSDKTransport(apiKey, baseURL string, httpClient *http.Client, log zerolog.Logger) *SDKTransport {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	log = log.With().Str("transport", "sdk").Logger()
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithMiddleware(makeRequestTraceMiddleware(log)),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &SDKTransport{
		client: openai.NewClient(opts...),
		log:    log,
	}
}

func (t *SDKTransport) Name() string {
	return "sdk"
}

func (t *SDKTransport) buildParams(req *Request) (responses.ResponseNewParams, error) {
	input, err := msgconv.ToResponsesInput(req.Message)
	if err != nil {
		return responses.ResponseNewParams{}, &TransportError{Transport: t.Name(), Kind: KindInvalidRequest, Err: err}
	}
	params := responses.ResponseNewParams{
		Model: req.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
	}
	if req.Instructions != "" {
		params.Instructions = openai.String(req.Instructions)
	}
	if req.ReasoningEffort != "" {
		params.Reasoning = shared.ReasoningParam{
			Effort: shared.ReasoningEffort(req.ReasoningEffort),
		}
	}
	return params, nil
}

// Complete sends the request and returns the concatenated output text, which
// is empty for responses that carry no output_text parts.
func (t *SDKTransport) Complete(ctx context.Context, req *Request) (string, error) {
	params, err := t.buildParams(req)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	resp, err := t.client.Responses.New(ctx, params)
	if err != nil {
		return "", err
	}
	return resp.OutputText(), nil
}

func newOutboundRequestID() string {
	return "cbb_" + random.String(12)
}

func makeRequestTraceMiddleware(log zerolog.Logger) option.Middleware {
	traceLog := log.With().Str("component", "openai_http").Logger()
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		start := time.Now()
		requestID := strings.TrimSpace(req.Header.Get("x-request-id"))
		if requestID == "" {
			requestID = newOutboundRequestID()
			req.Header.Set("x-request-id", requestID)
		}
		reqPath := ""
		if req.URL != nil {
			reqPath = req.URL.Path
		}

		resp, err := next(req)
		elapsedMs := time.Since(start).Milliseconds()
		if err != nil {
			traceLog.Debug().
				Err(err).
				Str("request_id", requestID).
				Str("request_path", reqPath).
				Int64("duration_ms", elapsedMs).
				Msg("Provider HTTP request failed")
			return nil, err
		}
		event := traceLog.Debug().
			Str("request_id", requestID).
			Str("request_path", reqPath).
			Int("status_code", resp.StatusCode).
			Int64("duration_ms", elapsedMs)
		if upstreamRequestID := strings.TrimSpace(resp.Header.Get("x-request-id")); upstreamRequestID != "" {
			event = event.Str("upstream_request_id", upstreamRequestID)
		}
		event.Msg("Provider HTTP response")
		return resp, nil
	}
}
