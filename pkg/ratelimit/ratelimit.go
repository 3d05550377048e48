package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
)

// Channel identifies an external service paced independently
type Channel string

const (
	// ChannelProvider paces calls to the content provider
	ChannelProvider Channel = "provider"
	// ChannelLLM paces calls to the completion service
	ChannelLLM Channel = "llm"
	// ChannelStore paces writes to the spreadsheet
	ChannelStore Channel = "store"
)

// Limiter enforces a minimum interval between calls on each registered
// channel by delaying callers. Repeated failures on a channel widen the
// interval exponentially (doubling, capped) until a success resets it.
type Limiter struct {
	mu       sync.Mutex
	channels map[Channel]*channelState

	now func() time.Time // injectable for tests
}

type channelState struct {
	interval   time.Duration // minimum inter-call interval, 60s / calls-per-minute
	maxBackoff time.Duration
	failures   int
	next       time.Time // earliest time the next call may start
}

// New creates an empty limiter, channels are added with Register
func New() *Limiter {
	return &Limiter{channels: map[Channel]*channelState{}, now: time.Now}
}

// Register adds a channel with the given calls-per-minute budget
func (l *Limiter) Register(ch Channel, perMinute int, maxBackoff time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	interval := time.Minute / time.Duration(perMinute)
	l.channels[ch] = &channelState{interval: interval, maxBackoff: maxBackoff}
}

// Acquire blocks until the next call on the channel is permitted. The wait
// honors the channel's current interval including any failure backoff.
func (l *Limiter) Acquire(ctx context.Context, ch Channel) error {
	l.mu.Lock()
	st, ok := l.channels[ch]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("channel %q not registered", ch)
	}

	now := l.now()
	wait := st.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	// reserve the slot before sleeping so concurrent callers queue up
	start := now.Add(wait)
	st.next = start.Add(st.currentInterval())
	l.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Success resets the channel's backoff to the configured base interval
func (l *Limiter) Success(ch Channel) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st, ok := l.channels[ch]; ok && st.failures > 0 {
		lgr.Printf("[DEBUG] channel %s recovered after %d failures", ch, st.failures)
		st.failures = 0
	}
}

// Failure widens the channel's interval, each consecutive failure doubles
// the delay up to the configured cap
func (l *Limiter) Failure(ch Channel) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.channels[ch]
	if !ok {
		return
	}
	st.failures++
	lgr.Printf("[WARN] channel %s backing off, %d consecutive failures, interval %v",
		ch, st.failures, st.currentInterval())
}

// Interval reports the channel's effective inter-call interval
func (l *Limiter) Interval(ch Channel) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st, ok := l.channels[ch]; ok {
		return st.currentInterval()
	}
	return 0
}

func (s *channelState) currentInterval() time.Duration {
	interval := s.interval
	for i := 0; i < s.failures; i++ {
		interval *= 2
		if interval >= s.maxBackoff {
			return s.maxBackoff
		}
	}
	return interval
}
