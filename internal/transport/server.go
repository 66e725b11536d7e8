// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/semaphore"

	"catalog/internal/metrics"
)

// DefaultWorkers bounds concurrent requests when Options.Workers is unset.
const DefaultWorkers = 32

// HandlerFunc serves one subject. The returned value becomes the response
// payload.
type HandlerFunc func(ctx context.Context, payload []byte) (any, error)

// Options configures a Server.
type Options struct {
	Codec   Codec
	Workers int64
	// Timeout is the per-request deadline. Zero disables it.
	Timeout time.Duration
	Metrics *metrics.Collector
}

// Server routes requests to subject handlers. At most Workers requests run
// at a time; the rest wait for a slot until their context ends.
type Server struct {
	codec    Codec
	sem      *semaphore.Weighted
	timeout  time.Duration
	metrics  *metrics.Collector
	handlers map[string]HandlerFunc
}

// NewServer creates a server with no subjects registered.
func NewServer(opts Options) *Server {
	if opts.Codec == nil {
		opts.Codec = JSONCodec{}
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Server{
		codec:    opts.Codec,
		sem:      semaphore.NewWeighted(opts.Workers),
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers h for subject, replacing any previous handler.
func (s *Server) Handle(subject string, h HandlerFunc) {
	s.handlers[subject] = h
}

// Subjects lists the registered subjects in sorted order.
func (s *Server) Subjects() []string {
	out := make([]string, 0, len(s.handlers))
	for subject := range s.handlers {
		out = append(out, subject)
	}
	sort.Strings(out)
	return out
}

// Codec returns the server's wire codec.
func (s *Server) Codec() Codec { return s.codec }

// Dispatch runs the handler for subject and wraps the outcome in an
// envelope. It never returns a Go error: failures are carried by the
// envelope status.
func (s *Server) Dispatch(ctx context.Context, subject string, payload []byte) Envelope {
	start := time.Now()
	env := s.dispatch(ctx, subject, payload)
	s.metrics.ObserveRequest(subject, string(env.Status), time.Since(start))
	return env
}

func (s *Server) dispatch(ctx context.Context, subject string, payload []byte) Envelope {
	h, ok := s.handlers[subject]
	if !ok {
		return Envelope{Status: StatusNotFound, Message: fmt.Sprintf("unknown subject %q", subject)}
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		slog.Warn("request abandoned while waiting for a worker", "subject", subject, "error", err)
		return Envelope{Status: StatusInternal, Message: internalMessage}
	}
	defer s.sem.Release(1)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := h(ctx, payload)
	if err != nil {
		env := Failure(err)
		if env.Status == StatusInternal {
			slog.Error("request failed", "subject", subject, "error", err)
		} else {
			slog.Debug("request rejected", "subject", subject, "status", env.Status, "error", err)
		}
		return env
	}

	env := Envelope{Status: StatusOK}
	if result != nil {
		data, err := s.codec.Marshal(result)
		if err != nil {
			slog.Error("encode response payload", "subject", subject, "error", err)
			return Envelope{Status: StatusInternal, Message: internalMessage}
		}
		env.Payload = data
	}
	return env
}

// Encode serializes an envelope with the server's codec.
func (s *Server) Encode(env Envelope) ([]byte, error) {
	data, err := s.codec.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}
