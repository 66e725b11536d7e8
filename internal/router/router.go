// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chain that carry
// transport subjects over HTTP.
package router

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"catalog/internal/domain"
	"catalog/internal/metrics"
	"catalog/internal/middleware"
	"catalog/internal/transport"
)

// DefaultMaxBodyBytes caps request payloads when no limit is configured.
const DefaultMaxBodyBytes int64 = 10 << 20

// New creates the chi router. Every subject registered on srv is reachable
// at POST /rpc/{subject}; the HTTP status mirrors the envelope status.
func New(srv *transport.Server, m *metrics.Collector, maxBodyBytes int64) chi.Router {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/rpc", func(r chi.Router) {
		r.Get("/", subjectsHandler(srv))
		r.Post("/{subject}", rpcHandler(srv, maxBodyBytes))
	})

	return r
}

// rpcHandler reads the raw payload, dispatches it to the subject and writes
// the envelope.
func rpcHandler(srv *transport.Server, maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := chi.URLParam(r, "subject")

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeEnvelope(w, srv, transport.Failure(domain.Invalid("request payload exceeds %d bytes", tooLarge.Limit)))
				return
			}
			slog.Warn("read request payload", "subject", subject, "error", err)
			writeEnvelope(w, srv, transport.Failure(domain.Invalid("could not read request payload")))
			return
		}

		writeEnvelope(w, srv, srv.Dispatch(r.Context(), subject, payload))
	}
}

// subjectsHandler lists the registered subjects.
func subjectsHandler(srv *transport.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]string{"subjects": srv.Subjects()})
	}
}

func writeEnvelope(w http.ResponseWriter, srv *transport.Server, env transport.Envelope) {
	body, err := srv.Encode(env)
	if err != nil {
		slog.Error("encode envelope", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", srv.Codec().ContentType())
	w.WriteHeader(env.Status.HTTPStatus())
	w.Write(body)
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
