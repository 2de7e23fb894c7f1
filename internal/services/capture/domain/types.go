// Package domain defines the capture session types and the ports it drives
package domain

import (
	"encoding/base64"
	"time"

	"enrollcam/internal/core/facegate"
)

// Strategy selects how frames are collected
type Strategy string

// Capture strategies
const (
	StrategyBurst     Strategy = "burst"
	StrategyRecording Strategy = "recording"
)

// Valid reports whether s names a known strategy
func (s Strategy) Valid() bool { return s == StrategyBurst || s == StrategyRecording }

// State is a capture session lifecycle state
type State string

// Session states
const (
	StateIdle           State = "idle"
	StateWaitingForFace State = "waiting_for_face"
	StateCapturing      State = "capturing"
	StateRecording      State = "recording"
	StateExtracting     State = "extracting"
	StateSubmitting     State = "submitting"
	StateDone           State = "done"
	StateCancelled      State = "cancelled"
	StateFailed         State = "failed"
)

// Terminal reports whether no further transition can leave s
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}

// Frame is one captured still
// Hash is computed once when the frame is filtered; burst frames are admitted unhashed
type Frame struct {
	Bytes      []byte
	CapturedAt time.Time
	Offset     time.Duration // position in the recording, fallback frames only
	Hash       string
}

// FaceObservation is the latest live detector reading
type FaceObservation = facegate.Observation

// Weights are the server side re-ranking hints
type Weights struct {
	Frontalness float64 `json:"frontalness"`
	Sharpness   float64 `json:"sharpness"`
	Area        float64 `json:"area"`
	Quality     float64 `json:"quality"`
}

// DefaultWeights favour frontal faces, then sharpness
var DefaultWeights = Weights{Frontalness: 0.4, Sharpness: 0.3, Area: 0.2, Quality: 0.1}

// DefaultSelectTop is how many frames the server keeps after ranking
const DefaultSelectTop = 10

// EnrollmentPayload is the body posted to the enrollment endpoint
type EnrollmentPayload struct {
	SubjectID     string   `json:"employeeId"`
	Images        []string `json:"images"`
	SelectTop     int      `json:"selectTop"`
	Weights       Weights  `json:"weights"`
	Preview       bool     `json:"preview"`
	PreviewImages bool     `json:"previewImages"`
}

// Result is the enrollment endpoint's answer
type Result struct {
	Success         bool   `json:"success"`
	Message         string `json:"message,omitempty"`
	ImagesProcessed int    `json:"imagesProcessed,omitempty"`
	SelectedFrames  int    `json:"selectedFrames,omitempty"`
}

// DataURI renders an encoded JPEG the way the enrollment endpoint expects it
func DataURI(b []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(b)
}

// NewPayload builds the request for frames in acceptance order
func NewPayload(subject string, frames []Frame, selectTop int, w Weights, preview bool) EnrollmentPayload {
	imgs := make([]string, 0, len(frames))
	for _, f := range frames {
		imgs = append(imgs, DataURI(f.Bytes))
	}
	if selectTop <= 0 {
		selectTop = DefaultSelectTop
	}
	return EnrollmentPayload{
		SubjectID: subject,
		Images:    imgs,
		SelectTop: selectTop,
		Weights:   w,
		Preview:   preview,
	}
}

// Snapshot is a read-only view of a session for the control surface
type Snapshot struct {
	SessionID    string    `json:"session_id"`
	SubjectID    string    `json:"subject_id"`
	Strategy     Strategy  `json:"strategy"`
	State        State     `json:"state"`
	GoodFrames   int       `json:"good_frames"`
	Target       int       `json:"target"`
	UsedFallback bool      `json:"used_fallback"`
	Message      string    `json:"message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
}

// Stats counts what happened to candidates during one session
type Stats struct {
	Captured          int `json:"captured"`
	Accepted          int `json:"accepted"`
	Duplicates        int `json:"duplicates"`
	Blurry            int `json:"blurry"`
	Undersized        int `json:"undersized"`
	GateSkips         int `json:"gate_skips"`
	CaptureFailures   int `json:"capture_failures"`
	ThumbnailFailures int `json:"thumbnail_failures"`
	NoFace            int `json:"no_face"`
}

// Attempt is the ledger row written once a session reaches a terminal state
type Attempt struct {
	SessionID       string
	SubjectID       string
	Strategy        Strategy
	Outcome         State
	FramesSubmitted int
	ImagesUsed      int
	Message         string
	UsedFallback    bool
	StartedAt       time.Time
	FinishedAt      time.Time
}
