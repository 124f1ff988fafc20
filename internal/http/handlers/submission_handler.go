// Submission HTTP handlers.
//
// This file exposes the funnel's form endpoints:
//   - POST /api/onboard   (building details)
//   - POST /api/contact   (contact message)
//
// Both accept an optional Idempotency-Key header. A retry carrying a key that
// already created a record is answered with the original id and
// Idempotency-Replayed: true; nothing new is stored.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-compliance-backend/internal/http/middleware"
	"github.com/tbourn/go-compliance-backend/internal/observability"
	"github.com/tbourn/go-compliance-backend/internal/repo"
	"github.com/tbourn/go-compliance-backend/internal/services"
	"github.com/tbourn/go-compliance-backend/internal/validation"
)

// OnboardRequest documents the POST /api/onboard payload. The handler
// decodes the body itself so that every field failure can be reported.
type OnboardRequest struct {
	Address            string `json:"address"            example:"12 Example Street, SW1A 1AA"`
	BuildingType       string `json:"buildingType"       example:"residential-block" enums:"residential-block,mixed-use,converted-house,purpose-built,retirement,other"`
	YearBuilt          string `json:"yearBuilt"          example:"1971-1990" enums:"pre-1900,1900-1945,1946-1970,1971-1990,1991-2010,post-2010,unknown"`
	HeightBand         string `json:"heightBand"         example:"11-18m" enums:"under-11m,11-18m,over-18m,unknown"`
	NumberOfUnits      int    `json:"numberOfUnits"      example:"24" minimum:"1"`
	HasLifts           bool   `json:"hasLifts"           example:"true"`
	HasCommercialUnits bool   `json:"hasCommercialUnits" example:"false"`
	Email              string `json:"email"              example:"duty.holder@example.com"`
}

// ContactRequest documents the POST /api/contact payload.
type ContactRequest struct {
	Name    string `json:"name"    example:"Alex Morgan"`
	Email   string `json:"email"   example:"alex@example.com"`
	Message string `json:"message" example:"We manage three blocks and need help with the safety case."`
}

// submission describes one form endpoint.
type submission struct {
	kind     string
	received string // success message
	failed   string // opaque 500 message
	create   func(ctx context.Context, raw map[string]any) (id string, err error)
}

// Onboard godoc
// @ID          onboard
// @Summary     Submit building details
// @Description Validates and stores an onboarding submission. Every failing field is listed in details.
// @Tags        Submissions
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string                   false  "Makes retries safe; same key returns the original id"  example(onboard-7f3c)
// @Param       body             body    handlers.OnboardRequest  true   "Building details"
//
// @Success     201  {object}  handlers.SubmissionResponse
// @Header      201  {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to process submission"
// @Router      /api/onboard [post]
func (h *Handlers) Onboard(c *gin.Context) {
	h.submit(c, submission{
		kind:     services.KindOnboarding,
		received: msgOnboardReceived,
		failed:   msgOnboardFailed,
		create: func(ctx context.Context, raw map[string]any) (string, error) {
			rec, err := h.subSvc.Onboard(ctx, raw)
			if err != nil {
				return "", err
			}
			return rec.ID, nil
		},
	})
}

// Contact godoc
// @ID          contact
// @Summary     Leave a contact message
// @Description Validates and stores a contact message.
// @Tags        Submissions
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string                   false  "Makes retries safe; same key returns the original id"  example(contact-19ab)
// @Param       body             body    handlers.ContactRequest  true   "Contact message"
//
// @Success     201  {object}  handlers.SubmissionResponse
// @Header      201  {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to process message"
// @Router      /api/contact [post]
func (h *Handlers) Contact(c *gin.Context) {
	h.submit(c, submission{
		kind:     services.KindContact,
		received: msgContactReceived,
		failed:   msgContactFailed,
		create: func(ctx context.Context, raw map[string]any) (string, error) {
			rec, err := h.subSvc.Contact(ctx, raw)
			if err != nil {
				return "", err
			}
			return rec.ID, nil
		},
	})
}

func (h *Handlers) submit(c *gin.Context, s submission) {
	if id, replay := middleware.ReplayResourceID(c); replay {
		observability.Submissions.WithLabelValues(s.kind, "replayed").Inc()
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
		ok(c, http.StatusCreated, SubmissionResponse{Success: true, ID: id, Message: s.received})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, msgBodyTooLarge)
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	raw, err := validation.DecodeObject(body)
	if err != nil {
		h.submitFailed(c, s, err)
		return
	}

	id, err := s.create(c.Request.Context(), raw)
	if err != nil {
		h.submitFailed(c, s, err)
		return
	}

	h.remember(c, id)
	ok(c, http.StatusCreated, SubmissionResponse{Success: true, ID: id, Message: s.received})
}

func (h *Handlers) submitFailed(c *gin.Context, s submission, err error) {
	if ve, isVE := validation.AsError(err); isVE {
		failValidation(c, ve)
		return
	}
	// Operation and cause only; the payload stays out of the log.
	lg := middleware.LoggerFrom(c)
	if errors.Is(err, services.ErrStoreFailure) {
		lg.Error().Err(err).Str("kind", s.kind).Msg("submission store failed")
	} else {
		lg.Error().Err(err).Str("kind", s.kind).Msg("submission failed")
	}
	fail(c, http.StatusInternalServerError, ErrCodeStoreFailure, s.failed)
}

// remember records the created id under the request's Idempotency-Key.
// Losing a concurrent first-use race keeps the earlier record.
func (h *Handlers) remember(c *gin.Context, id string) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.idem == nil {
		return
	}
	_, err := h.idem.Create(c.Request.Context(), middleware.IdempotencyScope(c), key, id, http.StatusCreated, h.idemTTL)
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not saved")
	}
}
