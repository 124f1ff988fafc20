// Chat HTTP handler.
//
// This file exposes the chat relay and the service contracts consumed by all
// handlers in the package:
//   - POST /api/chat   (server-sent events)
//
// The handler is transport-thin: it decodes the request, opens the relay and
// copies events to the client as `data: <json>\n\n` frames.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-compliance-backend/internal/domain"
	"github.com/tbourn/go-compliance-backend/internal/http/middleware"
	"github.com/tbourn/go-compliance-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// SubmissionService validates and stores form payloads.
//
// Errors are *validation.Error for rejected input, or errors wrapping
// services.ErrStoreFailure.
type SubmissionService interface {
	Onboard(ctx context.Context, raw map[string]any) (*domain.OnboardingSubmission, error)
	Contact(ctx context.Context, raw map[string]any) (*domain.ContactMessage, error)
}

// ChatService opens a relayed completion stream. The returned channel yields
// content events and exactly one terminal event, unless ctx is cancelled.
type ChatService interface {
	Stream(ctx context.Context, message string, history []domain.ChatTurn) (<-chan domain.ChatEvent, error)
}

// IdempotencyRecorder remembers which resource an Idempotency-Key created.
type IdempotencyRecorder interface {
	Create(ctx context.Context, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	subSvc  SubmissionService
	chatSvc ChatService

	idem    IdempotencyRecorder // optional
	idemTTL time.Duration
}

// New constructs Handlers bound to the given services. idem may be nil, in
// which case Idempotency-Key headers are validated but not recorded.
func New(subSvc SubmissionService, chatSvc ChatService, idem IdempotencyRecorder, idemTTL time.Duration) *Handlers {
	return &Handlers{subSvc: subSvc, chatSvc: chatSvc, idem: idem, idemTTL: idemTTL}
}

//
// DTOs
//

// ChatRequest is the JSON payload of POST /api/chat. History is owned by the
// caller and resent on every turn.
type ChatRequest struct {
	Message string            `json:"message" example:"Which buildings need a safety case report?"`
	History []domain.ChatTurn `json:"history"`
}

//
// Handlers
//

// Chat godoc
// @ID          chat
// @Summary     Chat with the compliance assistant
// @Description Relays the conversation to the completion provider and streams the reply as server-sent events.
// @Description Each frame is `data: <json>` with one of {"content":"..."}, {"done":true} or {"error":"..."}.
// @Description Nothing follows a done or error frame.
// @Tags        Chat
// @Accept      json
// @Produce     text/event-stream
//
// @Param       body  body  handlers.ChatRequest  true  "Message and prior history"
//
// @Success     200  {object}  domain.ChatEventPayload       "Event stream"
// @Failure     400  {object}  handlers.ChatErrorResponse    "Missing message, invalid history or invalid JSON"
// @Failure     502  {object}  handlers.ChatErrorResponse    "Completion provider unavailable"
// @Failure     504  {object}  handlers.ChatErrorResponse    "Completion provider timed out"
// @Router      /api/chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			failChat(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, msgBodyTooLarge)
			return
		}
		failChat(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}

	lg := middleware.LoggerFrom(c)

	// Cancelling ctx aborts the upstream call; it happens when the client
	// goes away, when a write fails, and when the handler returns.
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, err := h.chatSvc.Stream(ctx, req.Message, req.History)
	if err != nil {
		h.chatRejected(c, lg, err)
		return
	}

	// Wait for the first event so a provider failure before any content can
	// still be answered with a status code.
	first, open := <-events
	if !open {
		lg.Info().Msg("chat: client went away before first event")
		return
	}
	if first.Kind == domain.EventError {
		h.chatRejected(c, lg, first.Err)
		return
	}

	// Long streams are bounded by the relay idle timeout, not the server's
	// write timeout.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		lg.Debug().Err(err).Msg("chat: write deadline not cleared")
	}

	hdr := c.Writer.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	frames := 0
	for ev, ok := first, true; ok; ev, ok = <-events {
		if err := writeEvent(c.Writer, ev); err != nil {
			cancel()
			lg.Info().Err(err).Int("frames", frames).Msg("chat: client write failed, stream cancelled")
			return
		}
		frames++
		if ev.Terminal() {
			if ev.Kind == domain.EventError {
				lg.Error().Err(ev.Err).Int("frames", frames).Msg("chat: stream ended with error")
			}
			return
		}
	}
	// Channel closed without a terminal event: the request context is done.
	lg.Info().Int("frames", frames).Msg("chat: stream cancelled")
}

// chatRejected answers a chat request that failed before the stream was
// committed.
func (h *Handlers) chatRejected(c *gin.Context, lg *zerolog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		failChat(c, http.StatusBadRequest, ErrCodeEmptyMessage, msgMessageRequired)
	case errors.Is(err, services.ErrInvalidHistory):
		failChat(c, http.StatusBadRequest, ErrCodeInvalidHistory, msgInvalidHistory)
	case errors.Is(err, services.ErrUpstreamTimeout):
		lg.Error().Err(err).Msg("chat: upstream timed out")
		failChat(c, http.StatusGatewayTimeout, ErrCodeUpstreamTimeout, msgChatTimeout)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		lg.Info().Err(err).Msg("chat: client went away during open")
		c.Abort()
	default:
		lg.Error().Err(err).Msg("chat: upstream unavailable")
		failChat(c, http.StatusBadGateway, ErrCodeUpstreamUnavailable, msgChatUnavailable)
	}
}

// writeEvent writes ev as one event-stream frame and flushes it.
func writeEvent(w gin.ResponseWriter, ev domain.ChatEvent) error {
	var p domain.ChatEventPayload
	switch ev.Kind {
	case domain.EventContent:
		content := ev.Content
		p.Content = &content
	case domain.EventDone:
		p.Done = true
	case domain.EventError:
		p.Error = eventErrorText(ev.Err)
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(append([]byte("data: "), b...), '\n', '\n')); err != nil {
		return err
	}
	w.Flush()
	return nil
}

func eventErrorText(err error) string {
	if errors.Is(err, services.ErrUpstreamTimeout) {
		return msgChatTimeout
	}
	return msgChatInterrupted
}
