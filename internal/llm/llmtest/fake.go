// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbourn/go-compliance-backend/internal/llm"
)

// Script describes one upstream reply.
type Script struct {
	Chunks []string
	Err    error         // returned after Chunks; nil ends with io.EOF
	Hang   bool          // after Chunks, block until the call is cancelled
	Delay  time.Duration // pause before every Recv

	OpenErr  error // fail Open with this error
	OpenHang bool  // block Open until the call is cancelled
}

// Provider replays Script on every Open and records the requests it saw.
type Provider struct {
	Script Script

	mu       sync.Mutex
	requests []llm.Request
	streams  []*Stream
}

// New returns a Provider replaying s.
func New(s Script) *Provider { return &Provider{Script: s} }

func (p *Provider) Open(ctx context.Context, req llm.Request) (llm.Stream, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.Script.OpenHang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.Script.OpenErr != nil {
		return nil, p.Script.OpenErr
	}
	s := &Stream{ctx: ctx, script: p.Script}
	p.mu.Lock()
	p.streams = append(p.streams, s)
	p.mu.Unlock()
	return s, nil
}

// Requests returns the requests received so far.
func (p *Provider) Requests() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Request(nil), p.requests...)
}

// Last returns the most recently opened stream, or nil.
func (p *Provider) Last() *Stream {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.streams) == 0 {
		return nil
	}
	return p.streams[len(p.streams)-1]
}

// Stream is the llm.Stream handed out by Provider.
type Stream struct {
	ctx    context.Context
	script Script
	next   int
	closed atomic.Bool
}

func (s *Stream) Recv() (string, error) {
	if d := s.script.Delay; d > 0 {
		select {
		case <-time.After(d):
		case <-s.ctx.Done():
			return "", s.ctx.Err()
		}
	}
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.next < len(s.script.Chunks) {
		c := s.script.Chunks[s.next]
		s.next++
		return c, nil
	}
	if s.script.Hang {
		<-s.ctx.Done()
		return "", s.ctx.Err()
	}
	if s.script.Err != nil {
		return "", s.script.Err
	}
	return "", io.EOF
}

func (s *Stream) Close() error {
	s.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool { return s.closed.Load() }

// Done is closed once the upstream call is cancelled.
func (s *Stream) Done() <-chan struct{} { return s.ctx.Done() }
