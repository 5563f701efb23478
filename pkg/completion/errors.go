package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/rs/zerolog"

	"github.com/beeper/chatbot-bridge/pkg/shared/httputil"
)

// FailureKind names the category of a failed transport attempt. It is embedded
// in the user-visible fallback marker, so values are short and stable.
type FailureKind string

const (
	KindInvalidRequest FailureKind = "invalid_request"
	KindAuth           FailureKind = "auth"
	KindRateLimited    FailureKind = "rate_limited"
	KindStatus         FailureKind = "status"
	KindTimeout        FailureKind = "timeout"
	KindCanceled       FailureKind = "canceled"
	KindConnection     FailureKind = "connection"
	KindDecode         FailureKind = "decode"
	KindUnknown        FailureKind = "unknown"
)

var (
	// ErrEmptyConversation is returned when a request is built from no entries.
	ErrEmptyConversation = errors.New("conversation has no entries")
	// ErrEmptyModel is returned when a request has no model identifier.
	ErrEmptyModel = errors.New("model must not be empty")
	// ErrMalformedResponse is returned when a provider response cannot be interpreted.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// TransportError is the typed failure of a single transport attempt.
type TransportError struct {
	Transport string
	Kind      FailureKind
	Err       error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s transport failed (%s): %v", e.Transport, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newTransportError(transport string, err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		if te.Transport == "" {
			te.Transport = transport
		}
		return te
	}
	return &TransportError{Transport: transport, Kind: classify(err), Err: err}
}

func kindForStatus(code int) FailureKind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindStatus
	}
}

// classify maps an error from either transport onto a FailureKind.
func classify(err error) FailureKind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr.StatusCode)
	}
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) {
		return kindForStatus(statusErr.StatusCode)
	}
	switch {
	case errors.Is(err, ErrEmptyConversation), errors.Is(err, ErrEmptyModel):
		return KindInvalidRequest
	case errors.Is(err, ErrMalformedResponse):
		return KindDecode
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnection
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindDecode
	}
	return KindUnknown
}

func addErrorFields(event *zerolog.Event, err error) *zerolog.Event {
	var te *TransportError
	if errors.As(err, &te) {
		event = event.Str("transport", te.Transport).Str("failure_kind", string(te.Kind))
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode != 0 {
			event = event.Int("status_code", apiErr.StatusCode)
		}
		if apiErr.Code != "" {
			event = event.Str("error_code", apiErr.Code)
		}
		if apiErr.Type != "" {
			event = event.Str("error_type", apiErr.Type)
		}
		if apiErr.Response != nil {
			if requestID := apiErr.Response.Header.Get("x-request-id"); requestID != "" {
				event = event.Str("request_id", requestID)
			}
		}
	}
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) {
		event = event.Int("status_code", statusErr.StatusCode)
	}
	return event.Err(err)
}
