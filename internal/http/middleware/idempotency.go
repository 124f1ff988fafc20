// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for the form endpoints. It
// validates an Idempotency-Key request header, looks up whether the same key
// already created a resource on the same route, and annotates the request
// context so handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay, ReplayResourceID)
//
// Persistence stays behind the narrow IdempotencyLookup function type.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to make a
// submission safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set to "true" on responses served from a
// previously recorded result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemScope    = "idem.scope"
	ctxKeyIdemResource = "idem.resource" // string: resource id of the original request
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
// The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyScope returns the scope the key applies to (the matched route).
func IdempotencyScope(c *gin.Context) string {
	v, _ := c.Get(ctxKeyIdemScope)
	return asString(v)
}

// ReplayResourceID returns the id created by the original request when this
// one is a replay.
func ReplayResourceID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemResource)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether a live record exists for this request's key.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayResourceID(c)
	return ok
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
// TTL is enforced by the lookup.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Defaults to ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup returns the resource id recorded for (scope, key) if the
// record is still live at now, or "" when there is none. Errors are treated
// as a miss so a lookup failure never blocks a submission.
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (resourceID string, err error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes it with its scope, and marks the request as a replay when lookup
// finds a prior result.
//
//   - Header absent: no-op.
//   - Header invalid: 400 with code bad_idempotency_key.
//   - Lookup hit: ReplayResourceID returns the original id.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success":    false,
				"error":      "Invalid Idempotency-Key header",
				"code":       "bad_idempotency_key",
				"request_id": GetRequestID(c),
			})
			return
		}

		scope := c.FullPath()
		if scope == "" {
			scope = c.Request.URL.Path
		}
		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)

		if lookup != nil {
			id, err := lookup(c.Request.Context(), scope, key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			} else if id != "" {
				c.Set(ctxKeyIdemResource, id)
			}
		}

		c.Next()
	}
}
