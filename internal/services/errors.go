// Package services holds the application logic between the HTTP handlers and
// the adapters: form submissions over repo.Store and the chat relay over
// llm.Provider. This file centralizes service-level error values.
//
// Translation into user-facing messages and status codes happens in the
// handler layer; details of wrapped errors never cross that boundary.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when a chat request carries no message or
	// only whitespace.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrInvalidHistory is returned when a history turn has a role other than
	// user or assistant, or empty content.
	ErrInvalidHistory = errors.New("history is invalid")

	// ErrUpstreamUnavailable means the completion provider could not be
	// reached or refused the request before any content was produced.
	ErrUpstreamUnavailable = errors.New("completion provider unavailable")

	// ErrUpstreamInterrupted means the provider failed after streaming began.
	// Content already relayed stays valid.
	ErrUpstreamInterrupted = errors.New("completion stream interrupted")

	// ErrUpstreamTimeout means the provider sent nothing for longer than the
	// configured idle window.
	ErrUpstreamTimeout = errors.New("completion stream idle timeout")

	// ErrStoreFailure wraps any persistence error on the submission paths.
	ErrStoreFailure = errors.New("store failure")
)
