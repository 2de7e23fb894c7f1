package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"enrollcam/internal/core/facegate"
	"enrollcam/internal/modkit"
	dom "enrollcam/internal/services/capture/domain"
)

var goodFace = &dom.FaceObservation{
	Width: 200, Height: 200,
	LeftEyeOpen: facegate.Eye(0.9), RightEyeOpen: facegate.Eye(0.9),
}

var errBusy = errors.New("camera busy")

type fakeRecording struct {
	uri      string
	limit    time.Duration
	started  time.Time
	stopped  chan struct{}
	once     sync.Once
	mu       sync.Mutex
	stopTime time.Time
}

func (r *fakeRecording) stop() {
	r.once.Do(func() {
		r.mu.Lock()
		r.stopTime = time.Now()
		r.mu.Unlock()
		close(r.stopped)
	})
}

// stoppedAfter is how long after start StopRecording was first called, zero if never
func (r *fakeRecording) stoppedAfter() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopTime.IsZero() {
		return 0
	}
	return r.stopTime.Sub(r.started)
}

func (r *fakeRecording) Wait(ctx context.Context) (dom.Artifact, error) {
	t := time.NewTimer(r.limit)
	defer t.Stop()
	select {
	case <-r.stopped:
	case <-t.C:
	case <-ctx.Done():
		return dom.Artifact{}, ctx.Err()
	}
	return dom.Artifact{URI: r.uri, Duration: time.Since(r.started)}, nil
}

type fakeDevice struct {
	mu        sync.Mutex
	photo     func(i int) ([]byte, error)
	liveErr   error // returned by CapturePhoto while a recording runs
	startErr  error
	calls     []time.Time
	recs      []*fakeRecording
	stopCalls int
}

func (d *fakeDevice) CapturePhoto(_ context.Context, _ float64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := len(d.calls)
	d.calls = append(d.calls, time.Now())
	if d.liveErr != nil && len(d.recs) > 0 {
		return nil, d.liveErr
	}
	if d.photo == nil {
		return nil, errBusy
	}
	return d.photo(i)
}

func (d *fakeDevice) StartRecording(_ context.Context, limit time.Duration) (dom.Recording, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return nil, d.startErr
	}
	r := &fakeRecording{
		uri:     fmt.Sprintf("file:///rec-%d.mp4", len(d.recs)),
		limit:   limit,
		started: time.Now(),
		stopped: make(chan struct{}),
	}
	d.recs = append(d.recs, r)
	return r, nil
}

func (d *fakeDevice) StopRecording(rec dom.Recording) error {
	d.mu.Lock()
	d.stopCalls++
	d.mu.Unlock()
	rec.(*fakeRecording).stop()
	return nil
}

func (d *fakeDevice) captureTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.calls...)
}

func (d *fakeDevice) recording(i int) *fakeRecording {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recs[i]
}

func (d *fakeDevice) stops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopCalls
}

type fakeThumbs struct {
	mu    sync.Mutex
	fn    func(at time.Duration) ([]byte, error)
	calls []time.Duration
}

func (f *fakeThumbs) Thumbnail(_ context.Context, _ dom.Artifact, at time.Duration) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, at)
	f.mu.Unlock()
	return f.fn(at)
}

func (f *fakeThumbs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeDetector struct {
	available bool
	detect    func(img []byte) (*dom.FaceObservation, error)
}

func (d fakeDetector) Available() bool { return d.available }

func (d fakeDetector) Detect(_ context.Context, img []byte) (*dom.FaceObservation, error) {
	if d.detect == nil {
		return nil, nil
	}
	return d.detect(img)
}

type fakePrompter struct {
	answer bool
	err    error
	asked  int
}

func (p *fakePrompter) ConfirmUnverified(context.Context) (bool, error) {
	p.asked++
	return p.answer, p.err
}

type fakePerms struct{ camera, mic bool }

func (p fakePerms) Camera(context.Context) (bool, error)     { return p.camera, nil }
func (p fakePerms) Microphone(context.Context) (bool, error) { return p.mic, nil }

type fakeSubmitter struct {
	mu       sync.Mutex
	res      dom.Result
	err      error
	payloads []dom.EnrollmentPayload
}

func (s *fakeSubmitter) Submit(_ context.Context, p dom.EnrollmentPayload) (dom.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return s.res, s.err
}

func (s *fakeSubmitter) sent() []dom.EnrollmentPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dom.EnrollmentPayload(nil), s.payloads...)
}

type fakeCache struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

type fakeRecorder struct {
	mu       sync.Mutex
	attempts []dom.Attempt
	stats    []dom.Stats
}

func (r *fakeRecorder) RecordAttempt(_ context.Context, a dom.Attempt, s dom.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, a)
	r.stats = append(r.stats, s)
	return nil
}

func (r *fakeRecorder) last(t *testing.T) (dom.Attempt, dom.Stats) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.attempts) == 0 {
		t.Fatal("no attempt recorded")
	}
	return r.attempts[len(r.attempts)-1], r.stats[len(r.stats)-1]
}

func newTestSvc(t *testing.T, cfg Config, p Ports) *Svc {
	t.Helper()
	if p.Submitter == nil {
		p.Submitter = &fakeSubmitter{res: dom.Result{Success: true}}
	}
	s := New(modkit.Deps{}, cfg, p)
	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("sess-%d", n) }
	return s
}

// runSession opens a session, seeds the live observation and drives it to the end
func runSession(t *testing.T, s *Svc, strategy dom.Strategy, obs *dom.FaceObservation) *Session {
	t.Helper()
	sess, ctx, err := s.open(t.Context(), strategy, "emp-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sess.Observe(obs)
	s.drive(ctx, sess)
	return sess
}

func uris(frames ...[]byte) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = dom.DataURI(f)
	}
	return out
}
