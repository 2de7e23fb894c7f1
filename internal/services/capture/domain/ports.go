package domain

import (
	"context"
	"time"
)

// Device is the camera the session drives exclusively for its duration
type Device interface {
	// CapturePhoto takes one encoded still; quality is in [0,1]
	CapturePhoto(ctx context.Context, quality float64) ([]byte, error)
	// StartRecording begins a bounded recording and returns at once
	StartRecording(ctx context.Context, maxDuration time.Duration) (Recording, error)
	// StopRecording asks an active recording to finish early
	StopRecording(rec Recording) error
}

// Recording is an in-flight video capture
type Recording interface {
	// Wait blocks until the recording stops naturally or is stopped
	Wait(ctx context.Context) (Artifact, error)
}

// Artifact references a finished recording
type Artifact struct {
	URI      string
	Duration time.Duration
}

// Thumbnailer decodes a still from a finished recording
type Thumbnailer interface {
	Thumbnail(ctx context.Context, a Artifact, at time.Duration) ([]byte, error)
}

// Detector is the optional face detection capability
// An unavailable detector never reports observations and routes the gate to the user prompt
type Detector interface {
	Available() bool
	// Detect runs a fast classification of img; a nil observation means no face
	Detect(ctx context.Context, img []byte) (*FaceObservation, error)
}

// Permissions reports device grants
type Permissions interface {
	Camera(ctx context.Context) (bool, error)
	Microphone(ctx context.Context) (bool, error)
}

// Prompter asks the operator to proceed without live face verification
type Prompter interface {
	ConfirmUnverified(ctx context.Context) (bool, error)
}

// Normalizer re-encodes a raw still before it is hashed or submitted
type Normalizer interface {
	Normalize(ctx context.Context, img []byte) ([]byte, error)
}

// Submitter sends an enrollment to the remote matching service
type Submitter interface {
	Submit(ctx context.Context, p EnrollmentPayload) (Result, error)
}

// CacheInvalidator clears the local recognition template timestamp
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Recorder persists terminal session outcomes
type Recorder interface {
	RecordAttempt(ctx context.Context, a Attempt, s Stats) error
}

// ControlPort is the session control surface used by the HTTP layer and the CLI
type ControlPort interface {
	StartBurst(ctx context.Context, subject string) (Snapshot, error)
	StartRecording(ctx context.Context, subject string) (Snapshot, error)
	Cancel() Snapshot
	Snapshot() (Snapshot, bool)
}

// RunPort runs one session to completion
type RunPort interface {
	Run(ctx context.Context, strategy Strategy, subject string) (Snapshot, error)
}
