// Package middleware contains the Gin middleware shared by the funnel API.
//
// This file provides SecurityHeaders. Form replies echo what a duty holder
// typed (address, email, message) and chat frames carry the conversation, so
// JSON responses are marked no-store. The chat handler replaces that with
// no-cache when it commits an event stream. HSTS is opt-in and only sent for
// HTTPS requests. No CSP is set; the only HTML served is the optional Swagger
// UI.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	headerExpose      = "Access-Control-Expose-Headers"
	defaultHSTSMaxAge = 180 * 24 * time.Hour
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests. Enable
	// only when traffic is HTTPS up to the app, proxy hop included.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days when not positive.
	HSTSMaxAge time.Duration
	// NoStore adds Cache-Control: no-store with the legacy Pragma/Expires pair.
	NoStore bool
	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
	// Expose lists response headers browser clients may read, such as
	// X-Request-ID and Idempotency-Replayed. They are merged into any
	// Access-Control-Expose-Headers value already present.
	Expose []string
}

// SecurityHeaders returns middleware that sets nosniff, DENY framing and
// no-referrer on every response, plus the optional headers in opt.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if len(opt.Expose) > 0 {
			h.Set(headerExpose, mergeTokens(h.Get(headerExpose), opt.Expose))
		}

		c.Next()
	}
}

// mergeTokens appends each of add to the comma-separated list cur unless an
// equal token (case-insensitive) is already there.
func mergeTokens(cur string, add []string) string {
	out := cur
	for _, tok := range add {
		if hasToken(out, tok) {
			continue
		}
		if out == "" {
			out = tok
		} else {
			out += ", " + tok
		}
	}
	return out
}

func hasToken(list, tok string) bool {
	for _, t := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(t), tok) {
			return true
		}
	}
	return false
}

// isHTTPS reports whether the request arrived over TLS, directly or behind a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
