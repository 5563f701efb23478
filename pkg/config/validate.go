package config

import (
	"errors"
	"fmt"
)

var (
	ErrTokenMissing    = errors.New("token missing")
	ErrTokenTooShort   = errors.New("token too short")
	ErrUnknownPlatform = errors.New("unknown chat platform")
	ErrMatrixIdentity  = errors.New("matrix homeserver and user id are required")
)

// TokenError describes an unusable platform credential.
type TokenError struct {
	Key string
	Err error
}

func (e *TokenError) Error() string {
	if errors.Is(e.Err, ErrTokenTooShort) {
		return fmt.Sprintf("%s looks invalid (too short). Please regenerate and set it.", e.Key)
	}
	return fmt.Sprintf("%s is empty. Set it in .env or config/settings.toml.", e.Key)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Validate checks that the selected platform can be connected to.
func (s Settings) Validate() error {
	switch s.Platform {
	case PlatformDiscord:
	case PlatformMatrix:
		if s.MatrixHomeserver == "" || s.MatrixUserID == "" {
			return ErrMatrixIdentity
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownPlatform, s.Platform)
	}
	key, token := s.PlatformToken()
	if token == "" {
		return &TokenError{Key: key, Err: ErrTokenMissing}
	}
	if len(token) < MinTokenLength {
		return &TokenError{Key: key, Err: ErrTokenTooShort}
	}
	return nil
}
