package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/beeper/chatbot-bridge/pkg/shared/httputil"
)

// HTTPTransport posts the request body to the Responses endpoint directly.
type HTTPTransport struct {
	apiKey     string
	url        string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewHTTPTransport creates the secondary transport for the given API base URL.
func NewHTTPTransport(apiKey, baseURL string, httpClient *http.Client, log zerolog.Logger) *HTTPTransport {
	return &HTTPTransport{
		apiKey:     apiKey,
		url:        responsesURL(baseURL),
		httpClient: httpClient,
		log:        log.With().Str("transport", "http").Logger(),
	}
}

func responsesURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/responses"
}

func (t *HTTPTransport) Name() string {
	return "http"
}

// Complete posts the request with the timeout applied as a deadline.
func (t *HTTPTransport) Complete(ctx context.Context, req *Request) (string, error) {
	body, err := req.Body()
	if err != nil {
		return "", &TransportError{Transport: t.Name(), Kind: KindInvalidRequest, Err: err}
	}
	t.log.Debug().Str("url", t.url).RawJSON("request_body", body).Msg("Sending provider HTTP request")

	raw, err := httputil.PostJSON(ctx, t.httpClient, t.url, httputil.BearerHeaders(t.apiKey), body, req.Timeout)
	if err != nil {
		return "", err
	}
	return ParseResponseText(raw)
}

// ParseResponseText extracts reply text from a Responses API JSON body.
// A top-level output_text wins. Otherwise text is gathered from the output
// items, either string content or output_text/text blocks, joined with
// newlines. If no text is found the compacted JSON itself is returned.
func ParseResponseText(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return "", fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}
	if text := root.Get("output_text"); text.Exists() {
		return text.String(), nil
	}

	var parts []string
	for _, item := range root.Get("output").Array() {
		if !item.IsObject() {
			continue
		}
		content := item.Get("content")
		if !truthy(content) {
			content = item.Get("text")
		}
		switch {
		case content.Type == gjson.String:
			parts = append(parts, content.Str)
		case content.IsArray():
			for _, block := range content.Array() {
				if !block.IsObject() {
					continue
				}
				switch block.Get("type").String() {
				case "output_text", "text":
					parts = append(parts, block.Get("text").String())
				}
			}
		}
	}
	if len(parts) > 0 {
		return joinNonEmpty(parts), nil
	}
	return string(pretty.Ugly(raw)), nil
}

// truthy mirrors the provider's loose "present and non-empty" check on output fields.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		return len(v.Map()) > 0
	default:
		return true
	}
}

func joinNonEmpty(parts []string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, "\n")
}
