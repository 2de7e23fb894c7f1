// Package http provides the capture control API
package http

import (
	"context"
	stdhttp "net/http"
	"strconv"

	perr "enrollcam/internal/platform/errors"
	phttp "enrollcam/internal/platform/net/http"
	dom "enrollcam/internal/services/capture/domain"
)

// Controller is what the handlers drive
type Controller interface {
	Start(ctx context.Context, strategy dom.Strategy, subjectID string) (dom.Snapshot, error)
	Cancel() dom.Snapshot
	Snapshot() (dom.Snapshot, bool)
	Observe(o *dom.FaceObservation)
	Attempts(ctx context.Context, subjectID string, limit int) ([]dom.Attempt, error)
}

// StartInput names the person being enrolled
type StartInput struct {
	SubjectID string `json:"subject_id" validate:"required,max=64"`
}

// ObservationInput carries the latest detector reading; a null face clears it
type ObservationInput struct {
	Face *dom.FaceObservation `json:"face"`
}

// Register mounts the capture routes on r
func Register(r phttp.Router, c Controller) {
	h := &handlers{c: c}
	phttp.GetJSON(r, "/", h.status)
	phttp.PostJSON(r, "/burst", h.burst, phttp.Accepted)
	phttp.PostJSON(r, "/recording", h.recording, phttp.Accepted)
	phttp.PostNoBody(r, "/cancel", h.cancel)
	phttp.PostJSON(r, "/observation", h.observe)
	phttp.GetJSON(r, "/attempts", h.attempts)
}

type handlers struct{ c Controller }

func (h *handlers) status(*stdhttp.Request) (any, error) {
	snap, _ := h.c.Snapshot()
	return snap, nil
}

func (h *handlers) burst(r *stdhttp.Request, in StartInput) (any, error) {
	return h.c.Start(r.Context(), dom.StrategyBurst, in.SubjectID)
}

func (h *handlers) recording(r *stdhttp.Request, in StartInput) (any, error) {
	return h.c.Start(r.Context(), dom.StrategyRecording, in.SubjectID)
}

func (h *handlers) cancel(*stdhttp.Request) (any, error) {
	return h.c.Cancel(), nil
}

func (h *handlers) observe(_ *stdhttp.Request, in ObservationInput) (any, error) {
	h.c.Observe(in.Face)
	snap, _ := h.c.Snapshot()
	return snap, nil
}

func (h *handlers) attempts(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	subject := q.Get("subject_id")
	if subject == "" {
		return nil, perr.Validationf("subject_id is required")
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, perr.Validationf("limit must be a non-negative integer")
		}
		limit = n
	}
	return h.c.Attempts(r.Context(), subject, limit)
}
