// Package apierr is the typed error taxonomy the edge handlers translate
// into HTTP responses. Internal layers (store, reconcile, sync, registry)
// return these instead of bare errors so the API layer never has to
// guess a status code from error text.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/logging"
)

// Kind is the closed set of error categories the API layer distinguishes.
type Kind string

const (
	// KindBadRequest is a malformed or unparseable request body/header.
	KindBadRequest Kind = "bad_request"
	// KindNotFound names an asset group, service, or config that does
	// not exist.
	KindNotFound Kind = "not_found"
	// KindSyncReference is a desired-state document that references a
	// config name or output address not present anywhere in the same
	// document (§4.C SyncReference).
	KindSyncReference Kind = "sync_reference"
	// KindSyncDuplicate is a desired-state document with two services
	// or configs sharing one identity (§4.C SyncDuplicate).
	KindSyncDuplicate Kind = "sync_duplicate"
	// KindForbidden is a request outside the caller's asset group.
	KindForbidden Kind = "forbidden"
	// KindInternal covers store failures, pool exhaustion, and anything
	// else whose detail must not reach the client.
	KindInternal Kind = "internal"
)

// Error is the typed error every internal package returns on failure
// paths the API layer must render distinctly.
type Error struct {
	Kind    Kind
	Message string
	// Cause is the underlying error, logged but never serialized back
	// to the client for Kind == KindInternal.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// BadRequest builds a KindBadRequest error.
func BadRequest(msg string) *Error { return &Error{Kind: KindBadRequest, Message: msg} }

// NotFound builds a KindNotFound error.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// SyncReference builds a KindSyncReference error.
func SyncReference(msg string) *Error { return &Error{Kind: KindSyncReference, Message: msg} }

// SyncDuplicate builds a KindSyncDuplicate error.
func SyncDuplicate(msg string) *Error { return &Error{Kind: KindSyncDuplicate, Message: msg} }

// Forbidden builds a KindForbidden error.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// Internal wraps cause as a KindInternal error. msg is safe to return
// to the client; cause is logged but never serialized.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

func (k Kind) httpStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSyncReference, KindSyncDuplicate:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// response is the wire shape for every error body, matching the
// original service's {"errors": [...]} convention.
type response struct {
	Errors []string `json:"errors"`
}

// WriteJSON renders err as a JSON error response with the status code
// its Kind maps to. Internal-kind causes are logged with full detail
// and never reach the response body.
func WriteJSON(w http.ResponseWriter, component string, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = Internal("Internal Server Error", err)
	}

	status := apiErr.Kind.httpStatus()
	msg := apiErr.Message
	if apiErr.Kind == KindInternal {
		logging.ErrorCF(component, "request failed", logging.Fields{
			"error": apiErr.Error(),
		})
		msg = "Internal Server Error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Errors: []string{msg}})
}
