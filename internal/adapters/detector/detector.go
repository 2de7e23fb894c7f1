// Package detector provides the face detection capability variants
package detector

import (
	"context"
	"sync"

	dom "enrollcam/internal/services/capture/domain"
)

// Unavailable is the build without a face detector
// The live gate then asks the operator instead of rejecting
type Unavailable struct{}

// Available reports false
func (Unavailable) Available() bool { return false }

// Detect never reports a face
func (Unavailable) Detect(context.Context, []byte) (*dom.FaceObservation, error) { return nil, nil }

// Func adapts a detection function into a working detector
type Func func(ctx context.Context, img []byte) (*dom.FaceObservation, error)

// Available reports true
func (Func) Available() bool { return true }

// Detect calls f
func (f Func) Detect(ctx context.Context, img []byte) (*dom.FaceObservation, error) {
	return f(ctx, img)
}

// Static answers every detection with the last observation it was given
// It suits kiosks where an external tracker pushes readings over the control API
type Static struct {
	mu  sync.RWMutex
	obs *dom.FaceObservation
}

// NewStatic seeds the detector with o, which may be nil
func NewStatic(o *dom.FaceObservation) *Static {
	s := &Static{}
	s.Set(o)
	return s
}

// Set replaces the reported observation
func (s *Static) Set(o *dom.FaceObservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o == nil {
		s.obs = nil
		return
	}
	c := *o
	s.obs = &c
}

// Available reports true
func (s *Static) Available() bool { return true }

// Detect returns a copy of the current observation
func (s *Static) Detect(context.Context, []byte) (*dom.FaceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.obs == nil {
		return nil, nil
	}
	c := *s.obs
	return &c, nil
}

// Of picks Unavailable for a nil detector
func Of(d dom.Detector) dom.Detector {
	if d == nil {
		return Unavailable{}
	}
	return d
}
