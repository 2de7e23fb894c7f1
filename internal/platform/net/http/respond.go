// Package http is the JSON transport layer of the control API
package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"

	perr "enrollcam/internal/platform/errors"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Envelope is the body of every control API response
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// RequestID returns the chi request id on ctx, if any
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// JSON writes v with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorEnvelope maps err onto an envelope and its status
func ErrorEnvelope(err error, reqID string) (int, Envelope) {
	status, wire := perr.HTTP(err)
	return status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Code:       wire.Code,
		Error:      wire.Message,
		RequestID:  reqID,
	}
}

// RespondError writes err as an envelope
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status, env := ErrorEnvelope(err, RequestID(r.Context()))
	JSON(w, status, env)
}

// Response is returned by return-style handlers
type Response struct {
	Status int
	Body   any
}

// Handle adapts a Response-returning func to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		resp := h(r)
		if err, ok := resp.Body.(error); ok && err != nil {
			RespondError(w, r, err)
			return
		}
		status := resp.Status
		if status == 0 {
			status = stdhttp.StatusOK
		}
		if status == stdhttp.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		JSON(w, status, Envelope{
			StatusCode: status,
			Status:     stdhttp.StatusText(status),
			RequestID:  RequestID(r.Context()),
			Data:       resp.Body,
		})
	}
}

// OK is a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Accepted is a 202 response, used when work continues in the background
func Accepted(data any) Response { return Response{Status: stdhttp.StatusAccepted, Body: data} }

// NoContent is a 204 response
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error is a response whose status and body come from err
func Error(err error) Response { return Response{Body: err} }
