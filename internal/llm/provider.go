// Package llm talks to the external chat-completion provider. The relay
// depends only on Provider: given a message list and a token cap it yields a
// stream of text fragments. Any backend offering that shape can be plugged in.
package llm

import (
	"context"
	"errors"
)

// Message is one entry of the outbound conversation.
type Message struct {
	Role    string
	Content string
}

// Request describes a streaming completion call.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Stream yields text fragments in upstream order. Recv returns io.EOF once
// the upstream finished normally. Close releases the connection and may be
// called at any point, including after an error.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Provider opens streaming completions. Cancelling ctx aborts the upstream
// call, including a Recv that is blocked on the network.
type Provider interface {
	Open(ctx context.Context, req Request) (Stream, error)
}

// ErrNotConfigured is returned by providers that lack credentials.
var ErrNotConfigured = errors.New("llm: provider not configured")
