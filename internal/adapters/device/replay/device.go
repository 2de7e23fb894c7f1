package replay

import (
	"context"
	"sync"
	"time"

	perr "enrollcam/internal/platform/errors"
	dom "enrollcam/internal/services/capture/domain"
)

// Device replays a manifest as a camera, thumbnailer and permission source
type Device struct {
	m      Manifest
	photos [][]byte
	frames [][]byte

	mu     sync.Mutex
	next   int
	active *recording
}

var (
	_ dom.Device      = (*Device)(nil)
	_ dom.Thumbnailer = (*Device)(nil)
	_ dom.Permissions = (*Device)(nil)
)

// New builds a device from an already loaded manifest
// frames line up with m.Recording.Frames
func New(m Manifest, photos, frames [][]byte) *Device {
	if m.Recording.URI == "" {
		m.Recording.URI = DefaultRecordingURI
	}
	return &Device{m: m, photos: photos, frames: frames}
}

// Manifest returns the manifest the device replays
func (d *Device) Manifest() Manifest { return d.m }

// CapturePhoto hands out the manifest stills in order, wrapping around
func (d *Device) CapturePhoto(ctx context.Context, _ float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil && !d.m.StillsWhileRecording {
		return nil, perr.Unavailablef("camera cannot take stills while recording")
	}
	if len(d.photos) == 0 {
		return nil, perr.Unavailablef("no stills to replay")
	}
	b := d.photos[d.next%len(d.photos)]
	d.next++
	return b, nil
}

// StartRecording begins a recording that ends after maxDuration or on StopRecording
func (d *Device) StartRecording(_ context.Context, maxDuration time.Duration) (dom.Recording, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		return nil, perr.Conflictf("recording already in progress")
	}
	r := &recording{
		dev:     d,
		uri:     d.m.Recording.URI,
		limit:   maxDuration,
		started: time.Now(),
		stopped: make(chan struct{}),
	}
	d.active = r
	return r, nil
}

// StopRecording ends rec early; stopping twice is harmless
func (d *Device) StopRecording(rec dom.Recording) error {
	r, ok := rec.(*recording)
	if !ok || r.dev != d {
		return perr.Validationf("recording does not belong to this device")
	}
	r.once.Do(func() { close(r.stopped) })
	return nil
}

// Thumbnail returns the manifest frame closest to at
func (d *Device) Thumbnail(ctx context.Context, a dom.Artifact, at time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.URI == "" || a.URI != d.m.Recording.URI {
		return nil, perr.Newf(perr.ErrorCodeNotFound, "unknown recording %q", a.URI)
	}
	if len(d.frames) == 0 {
		return nil, perr.Newf(perr.ErrorCodeNotFound, "recording has no frames")
	}
	best, dist := 0, time.Duration(-1)
	for i, f := range d.m.Recording.Frames {
		delta := f.At - at
		if delta < 0 {
			delta = -delta
		}
		if dist < 0 || delta < dist {
			best, dist = i, delta
		}
	}
	return d.frames[best], nil
}

// Camera reports the manifest's camera grant
func (d *Device) Camera(context.Context) (bool, error) { return d.m.Permissions.Camera, nil }

// Microphone reports the manifest's microphone grant
func (d *Device) Microphone(context.Context) (bool, error) { return d.m.Permissions.Microphone, nil }

func (d *Device) finish(r *recording) {
	d.mu.Lock()
	if d.active == r {
		d.active = nil
	}
	d.mu.Unlock()
}

type recording struct {
	dev     *Device
	uri     string
	limit   time.Duration
	started time.Time
	stopped chan struct{}
	once    sync.Once
}

// Wait blocks until the limit elapses or the recording is stopped
func (r *recording) Wait(ctx context.Context) (dom.Artifact, error) {
	defer r.dev.finish(r)
	t := time.NewTimer(r.limit)
	defer t.Stop()
	select {
	case <-r.stopped:
	case <-t.C:
	case <-ctx.Done():
		return dom.Artifact{}, ctx.Err()
	}
	return dom.Artifact{URI: r.uri, Duration: min(time.Since(r.started), r.limit)}, nil
}
