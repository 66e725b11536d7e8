// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package transport dispatches requests addressed to named subjects
// ("category.create", "category.tree", ...) to the category service. Every
// request carries an opaque payload and every response is an Envelope with
// a status, an optional message and an optional payload.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"catalog/internal/domain"
)

// Status is the outcome of a request.
type Status string

const (
	StatusOK              Status = "Ok"
	StatusNotFound        Status = "NotFound"
	StatusInvalidArgument Status = "InvalidArgument"
	StatusInternal        Status = "Internal"
	StatusAlreadyExists   Status = "AlreadyExists"
)

// internalMessage is all a caller learns about an internal failure.
const internalMessage = "internal error"

// Envelope wraps every response.
type Envelope struct {
	Status  Status          `json:"status"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OK reports whether the request succeeded.
func (e Envelope) OK() bool { return e.Status == StatusOK }

// HTTPStatus maps an envelope status to the HTTP status the router answers
// with.
func (s Status) HTTPStatus() int {
	switch s {
	case StatusOK:
		return http.StatusOK
	case StatusNotFound:
		return http.StatusNotFound
	case StatusInvalidArgument:
		return http.StatusBadRequest
	case StatusAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf classifies err against the domain taxonomy. Anything not
// recognised is Internal.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, domain.ErrNotFound):
		return StatusNotFound
	case errors.Is(err, domain.ErrDuplicateSlug), errors.Is(err, domain.ErrDuplicateID):
		return StatusAlreadyExists
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrParentNotFound),
		errors.Is(err, domain.ErrHasChildren),
		errors.Is(err, domain.ErrCircularDependency),
		errors.Is(err, errBadPayload):
		return StatusInvalidArgument
	default:
		return StatusInternal
	}
}

// Failure builds the envelope for err. Internal failures get a generic
// message.
func Failure(err error) Envelope {
	status := StatusOf(err)
	if status == StatusInternal {
		return Envelope{Status: status, Message: internalMessage}
	}
	return Envelope{Status: status, Message: err.Error()}
}
