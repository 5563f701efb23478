package completion

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/beeper/chatbot-bridge/pkg/msgconv"
)

// DefaultTimeout bounds a single transport attempt when the caller gives none.
const DefaultTimeout = 30 * time.Second

// Request is a normalized completion request built fresh for every call.
// Only the last conversation entry is carried.
type Request struct {
	Model           string
	Message         msgconv.Message
	Input           []msgconv.InputMessage
	Instructions    string
	ReasoningEffort string
	Timeout         time.Duration
}

// NewRequest normalizes the last conversation entry into provider input.
func NewRequest(conv msgconv.Conversation, model string, timeout time.Duration, instructions, reasoningEffort string) (*Request, error) {
	last, ok := conv.Last()
	if !ok {
		return nil, ErrEmptyConversation
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, ErrEmptyModel
	}
	input, err := msgconv.ToInputMessages(last)
	if err != nil {
		return nil, fmt.Errorf("normalize content: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Request{
		Model:           model,
		Message:         last,
		Input:           input,
		Instructions:    instructions,
		ReasoningEffort: reasoningEffort,
		Timeout:         timeout,
	}, nil
}

// Body returns the JSON request body for the raw HTTP transport. The timeout
// is not part of the body, and instructions and reasoning are only present
// when non-empty.
func (r *Request) Body() ([]byte, error) {
	body := []byte(`{}`)
	var err error
	if body, err = sjson.SetBytes(body, "model", r.Model); err != nil {
		return nil, fmt.Errorf("set model: %w", err)
	}
	if body, err = sjson.SetBytes(body, "input", r.Input); err != nil {
		return nil, fmt.Errorf("set input: %w", err)
	}
	if r.Instructions != "" {
		if body, err = sjson.SetBytes(body, "instructions", r.Instructions); err != nil {
			return nil, fmt.Errorf("set instructions: %w", err)
		}
	}
	if r.ReasoningEffort != "" {
		if body, err = sjson.SetBytes(body, "reasoning.effort", r.ReasoningEffort); err != nil {
			return nil, fmt.Errorf("set reasoning effort: %w", err)
		}
	}
	return body, nil
}
