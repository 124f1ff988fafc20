package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-compliance-backend/internal/domain"
	"github.com/tbourn/go-compliance-backend/internal/llm"
	"github.com/tbourn/go-compliance-backend/internal/observability"
)

const (
	defaultBuffer      = 16
	defaultIdleTimeout = 30 * time.Second
)

// ChatService relays a conversation to the completion provider and hands
// the reply back as a channel of events.
//
// One producer goroutine per stream reads upstream fragments and pushes them
// onto a bounded channel. When the consumer falls behind, the send blocks and
// so does the upstream read; nothing is buffered beyond Buffer events. The
// producer runs under the caller's context: cancelling it aborts the upstream
// call and ends the producer without a terminal event.
type ChatService struct {
	Provider llm.Provider
	Prompt   llm.Prompt // resolved persona, model and token cap

	Buffer      int           // channel bound; <= 0 uses 16
	IdleTimeout time.Duration // max upstream silence; <= 0 uses 30s
}

// Stream validates the request, opens the upstream call and starts the
// producer. On success the returned channel yields zero or more content
// events followed by exactly one terminal event, then closes.
//
// Errors returned before a channel exists: ErrEmptyMessage,
// ErrInvalidHistory, ErrUpstreamUnavailable, ErrUpstreamTimeout or the
// context error when the caller went away during open.
func (s *ChatService) Stream(ctx context.Context, message string, history []domain.ChatTurn) (<-chan domain.ChatEvent, error) {
	ctx, span := observability.Tracer("services/ChatService").Start(ctx, "Stream",
		trace.WithAttributes(attribute.Int("chat.history_turns", len(history))),
	)

	msgs, err := s.messages(message, history)
	if err != nil {
		observability.ChatStreams.WithLabelValues(observability.OutcomeRejected).Inc()
		span.End()
		return nil, err
	}

	upCtx, cancelUp := context.WithCancel(ctx)
	idle := newIdleTimer(s.idleTimeout(), cancelUp)
	start := time.Now()

	stream, err := s.Provider.Open(upCtx, llm.Request{
		Model:       s.Prompt.Model,
		Messages:    msgs,
		MaxTokens:   s.Prompt.MaxTokens,
		Temperature: s.Prompt.Temperature,
	})
	if err != nil {
		idle.pause()
		cancelUp()
		defer span.End()
		span.RecordError(err)
		span.SetStatus(codes.Error, "open upstream")
		switch {
		case idle.fired():
			observability.ChatStreams.WithLabelValues(observability.OutcomeTimeout).Inc()
			return nil, fmt.Errorf("%w: no response within %s", ErrUpstreamTimeout, s.idleTimeout())
		case ctx.Err() != nil:
			observability.ChatStreams.WithLabelValues(observability.OutcomeCanceled).Inc()
			return nil, ctx.Err()
		default:
			observability.ChatStreams.WithLabelValues(observability.OutcomeUnavailable).Inc()
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
	}

	out := make(chan domain.ChatEvent, s.buffer())
	go s.produce(ctx, span, stream, idle, cancelUp, out, start)
	return out, nil
}

// messages builds system prompt + history + final user turn. History turns
// without content, such as an assistant reply cut off before its first
// fragment, are dropped.
func (s *ChatService) messages(message string, history []domain.ChatTurn) ([]llm.Message, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: domain.RoleSystem, Content: s.Prompt.System})
	for i, turn := range history {
		if !domain.ValidHistoryRole(turn.Role) {
			return nil, fmt.Errorf("%w: turn %d has role %q", ErrInvalidHistory, i, turn.Role)
		}
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		msgs = append(msgs, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return append(msgs, llm.Message{Role: domain.RoleUser, Content: message}), nil
}

func (s *ChatService) produce(
	ctx context.Context,
	span trace.Span,
	stream llm.Stream,
	idle *idleTimer,
	cancelUp context.CancelFunc,
	out chan<- domain.ChatEvent,
	start time.Time,
) {
	tokens := 0
	outcome := observability.OutcomeCanceled
	defer func() {
		idle.pause()
		_ = stream.Close()
		cancelUp()
		close(out)

		observability.ChatStreams.WithLabelValues(outcome).Inc()
		observability.ChatStreamDuration.Observe(time.Since(start).Seconds())
		span.SetAttributes(
			attribute.Int("chat.tokens", tokens),
			attribute.String("chat.outcome", outcome),
		)
		span.End()
	}()

	for {
		chunk, err := stream.Recv()
		idle.pause()
		if err != nil {
			var ev domain.ChatEvent
			switch {
			case errors.Is(err, io.EOF):
				outcome, ev = observability.OutcomeCompleted, domain.DoneEvent()
			case idle.fired():
				outcome = observability.OutcomeTimeout
				ev = domain.ErrorEvent(fmt.Errorf("%w: no fragment within %s", ErrUpstreamTimeout, s.idleTimeout()))
			case ctx.Err() != nil:
				return
			default:
				outcome = observability.OutcomeInterrupted
				ev = domain.ErrorEvent(fmt.Errorf("%w: %v", ErrUpstreamInterrupted, err))
			}
			if ev.Err != nil {
				span.RecordError(ev.Err)
				span.SetStatus(codes.Error, outcome)
			}
			if !emit(ctx, out, ev) {
				outcome = observability.OutcomeCanceled
			}
			return
		}

		if !emit(ctx, out, domain.ContentEvent(chunk)) {
			return
		}
		tokens++
		observability.ChatStreamTokens.Inc()
		idle.resume()
	}
}

// emit blocks until ev is queued or ctx is done.
func emit(ctx context.Context, out chan<- domain.ChatEvent, ev domain.ChatEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *ChatService) buffer() int {
	if s.Buffer > 0 {
		return s.Buffer
	}
	return defaultBuffer
}

func (s *ChatService) idleTimeout() time.Duration {
	if s.IdleTimeout > 0 {
		return s.IdleTimeout
	}
	return defaultIdleTimeout
}

// idleTimer cancels the upstream call when it is left running for longer
// than d. It is paused while the producer waits on the consumer, so a slow
// client never counts as upstream silence.
type idleTimer struct {
	d       time.Duration
	t       *time.Timer
	expired atomic.Bool
}

func newIdleTimer(d time.Duration, onFire func()) *idleTimer {
	it := &idleTimer{d: d}
	it.t = time.AfterFunc(d, func() {
		it.expired.Store(true)
		onFire()
	})
	return it
}

func (it *idleTimer) pause() { it.t.Stop() }

func (it *idleTimer) resume() {
	if !it.expired.Load() {
		it.t.Reset(it.d)
	}
}

func (it *idleTimer) fired() bool { return it.expired.Load() }
