// Package service runs capture sessions against a camera device and submits the result
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"enrollcam/internal/core/subject"
	"enrollcam/internal/modkit"
	"enrollcam/internal/platform/clock"
	perr "enrollcam/internal/platform/errors"
	"enrollcam/internal/platform/logger"
	dom "enrollcam/internal/services/capture/domain"
)

// Service is the capture control surface plus the blocking runner
type Service interface {
	dom.ControlPort
	dom.RunPort
	Observe(o *dom.FaceObservation)
	Wait(ctx context.Context) error
	Err() error
}

// Ports are the collaborators a session drives
// Device and Submitter are required; the rest degrade when nil
type Ports struct {
	Device      dom.Device
	Thumbnailer dom.Thumbnailer
	Detector    dom.Detector
	Permissions dom.Permissions
	Prompter    dom.Prompter
	Normalizer  dom.Normalizer
	Submitter   dom.Submitter
	Cache       dom.CacheInvalidator
	Recorder    dom.Recorder
	Clock       clock.Clock
}

// Svc owns at most one active session at a time
type Svc struct {
	cfg   Config
	p     Ports
	log   *logger.Logger
	newID func() string

	mu     sync.Mutex
	active *Session
	wg     sync.WaitGroup
}

var _ Service = (*Svc)(nil)

// New constructs the service
func New(deps modkit.Deps, cfg Config, p Ports) *Svc {
	if p.Device == nil {
		panic("capture: nil Device")
	}
	if p.Submitter == nil {
		panic("capture: nil Submitter")
	}
	log := deps.Log.With().Str("component", "capture").Logger()
	return &Svc{
		cfg:   cfg.withDefaults(),
		p:     p,
		log:   &log,
		newID: uuid.NewString,
	}
}

// StartBurst begins a burst session in the background
func (s *Svc) StartBurst(ctx context.Context, subjectID string) (dom.Snapshot, error) {
	return s.start(ctx, dom.StrategyBurst, subjectID)
}

// StartRecording begins a record and sample session in the background
func (s *Svc) StartRecording(ctx context.Context, subjectID string) (dom.Snapshot, error) {
	return s.start(ctx, dom.StrategyRecording, subjectID)
}

func (s *Svc) start(ctx context.Context, strategy dom.Strategy, subjectID string) (dom.Snapshot, error) {
	// the session outlives the request that started it
	sess, sctx, err := s.open(context.WithoutCancel(ctx), strategy, subjectID)
	if err != nil {
		return dom.Snapshot{}, err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.drive(sctx, sess)
	}()
	return sess.Snapshot(), nil
}

// Run executes one session to completion; cancelling ctx cancels the session
func (s *Svc) Run(ctx context.Context, strategy dom.Strategy, subjectID string) (dom.Snapshot, error) {
	sess, sctx, err := s.open(ctx, strategy, subjectID)
	if err != nil {
		return dom.Snapshot{}, err
	}
	s.wg.Add(1)
	stop := context.AfterFunc(ctx, func() { sess.Cancel() })
	s.drive(sctx, sess)
	stop()
	s.wg.Done()
	return sess.Snapshot(), sess.Err()
}

// open validates the request and claims the device for a new session
func (s *Svc) open(ctx context.Context, strategy dom.Strategy, subjectID string) (*Session, context.Context, error) {
	if !strategy.Valid() {
		return nil, nil, perr.Validationf("unknown capture strategy %q", strategy)
	}
	id, err := subject.Normalize(subjectID)
	if err != nil {
		return nil, nil, err
	}
	if s.p.Permissions != nil {
		ok, err := s.p.Permissions.Camera(ctx)
		if err != nil {
			return nil, nil, perr.Wrap(err, perr.ErrorCodePermission, "camera permission check failed")
		}
		if !ok {
			return nil, nil, perr.Permissionf("camera permission required")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		select {
		case <-s.active.Done():
		default:
			return nil, nil, perr.Conflictf("a capture session is already running")
		}
	}
	sess, sctx := newSession(ctx, s.newID(), id, strategy, s.cfg, s.p)
	s.active = sess
	sess.log.Info().Str("subject", id).Msg("capture session started")
	return sess, sctx, nil
}

// drive runs capture and submission, then applies the terminal transition
func (s *Svc) drive(ctx context.Context, sess *Session) {
	defer close(sess.done)
	defer sess.halt()

	frames, err := sess.capture(ctx)
	if err == nil {
		err = s.submit(ctx, sess, frames)
	}
	sess.finish(err)
	s.record(ctx, sess)
}

func (s *Svc) submit(ctx context.Context, sess *Session, frames []dom.Frame) error {
	if !sess.transition(dom.StateSubmitting) {
		return errCancelled
	}
	p := dom.NewPayload(sess.subject, frames, s.cfg.SelectTop, s.cfg.Weights, sess.strategy == dom.StrategyRecording)
	res, err := s.p.Submitter.Submit(ctx, p)
	if err != nil {
		if sess.stopped(ctx) {
			return errCancelled
		}
		if _, ok := perr.As(err); ok {
			return err
		}
		return perr.Wrap(err, perr.ErrorCodeSubmission, err.Error())
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Enrollment failed"
		}
		return perr.New(perr.ErrorCodeSubmission, msg)
	}
	sess.setSubmitted(len(frames), res)

	if s.p.Cache != nil {
		if err := s.p.Cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
			sess.log.Warn().Err(err).Msg("failed to clear face cache timestamp after enrollment")
		}
	}
	return nil
}

// record writes the ledger row; failures are logged only
func (s *Svc) record(ctx context.Context, sess *Session) {
	if s.p.Recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.p.Recorder.RecordAttempt(rctx, sess.attempt(), sess.statsCopy()); err != nil {
		sess.log.Warn().Err(err).Msg("record attempt failed")
	}
}

// Cancel stops the active session; it is a no-op once the session is terminal
func (s *Svc) Cancel() dom.Snapshot {
	sess := s.current()
	if sess == nil {
		return dom.Snapshot{State: dom.StateIdle}
	}
	sess.Cancel()
	return sess.Snapshot()
}

// Snapshot reports the most recent session
func (s *Svc) Snapshot() (dom.Snapshot, bool) {
	sess := s.current()
	if sess == nil {
		return dom.Snapshot{State: dom.StateIdle}, false
	}
	return sess.Snapshot(), true
}

// Observe forwards a detector reading to the active session
func (s *Svc) Observe(o *dom.FaceObservation) {
	if sess := s.current(); sess != nil {
		sess.Observe(o)
	}
}

// Err reports how the current session ended; nil while it runs or after a success
func (s *Svc) Err() error {
	sess := s.current()
	if sess == nil {
		return nil
	}
	return sess.Err()
}

// Wait blocks until the current session has finished or ctx is done
func (s *Svc) Wait(ctx context.Context) error {
	sess := s.current()
	if sess == nil {
		return nil
	}
	select {
	case <-sess.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any running session and waits for background work
func (s *Svc) Close(ctx context.Context) error {
	s.Cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Svc) current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
