package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTypingInterval is how often the indicator is resent. Platforms
	// expire typing state after roughly ten seconds.
	DefaultTypingInterval = 6 * time.Second
	// DefaultTypingTTL bounds how long a single reply keeps the indicator alive.
	DefaultTypingTTL = 2 * time.Minute
)

// TypingFunc sets or clears the bot's typing indicator in the inbound channel.
type TypingFunc func(ctx context.Context, typing bool) error

// typingController keeps a typing indicator alive until stopped or its TTL elapses.
type typingController struct {
	set      TypingFunc
	ctx      context.Context
	log      *zerolog.Logger
	interval time.Duration
	ttl      time.Duration

	mu       sync.Mutex
	sealed   bool
	stopChan chan struct{}
	ttlTimer *time.Timer
}

func startTyping(ctx context.Context, set TypingFunc, interval, ttl time.Duration) *typingController {
	tc := &typingController{
		set:      set,
		ctx:      ctx,
		log:      zerolog.Ctx(ctx),
		interval: interval,
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
	if set == nil || interval <= 0 {
		tc.sealed = true
		return tc
	}
	tc.send(true)
	ticker := time.NewTicker(interval)
	if ttl > 0 {
		tc.ttlTimer = time.AfterFunc(ttl, func() {
			tc.log.Debug().Msg("Typing TTL reached, stopping typing indicator")
			tc.Stop()
		})
	}
	go tc.refreshLoop(ticker)
	return tc
}

func (tc *typingController) refreshLoop(ticker *time.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-tc.stopChan:
			return
		case <-tc.ctx.Done():
			return
		case <-ticker.C:
			tc.mu.Lock()
			sealed := tc.sealed
			tc.mu.Unlock()
			if sealed {
				return
			}
			tc.send(true)
		}
	}
}

func (tc *typingController) send(typing bool) {
	if err := tc.set(tc.ctx, typing); err != nil {
		tc.log.Debug().Err(err).Bool("typing", typing).Msg("Failed to update typing indicator")
	}
}

// Stop clears the indicator. Calling it more than once is a no-op.
func (tc *typingController) Stop() {
	tc.mu.Lock()
	if tc.sealed {
		tc.mu.Unlock()
		return
	}
	tc.sealed = true
	if tc.ttlTimer != nil {
		tc.ttlTimer.Stop()
	}
	close(tc.stopChan)
	tc.mu.Unlock()

	tc.send(false)
}
