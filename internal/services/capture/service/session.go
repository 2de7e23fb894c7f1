package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"enrollcam/internal/core/facegate"
	"enrollcam/internal/core/framehash"
	"enrollcam/internal/core/sharpness"
	"enrollcam/internal/platform/clock"
	perr "enrollcam/internal/platform/errors"
	"enrollcam/internal/platform/logger"
	dom "enrollcam/internal/services/capture/domain"
)

var errCancelled = perr.New(perr.ErrorCodeCancelled, "capture cancelled")

// Session is one enrollment attempt
// All accumulated state lives here and is released on the terminal transition
type Session struct {
	id       string
	subject  string
	strategy dom.Strategy
	cfg      Config
	p        Ports
	gate     facegate.Gate
	clk      clock.Clock
	log      *logger.Logger

	cancelled atomic.Bool
	halt      context.CancelFunc
	done      chan struct{}

	mu           sync.Mutex
	state        dom.State
	frames       []dom.Frame
	seen         map[string]struct{}
	good         int
	obs          *dom.FaceObservation
	rec          dom.Recording
	recActive    bool
	usedFallback bool
	submitted    int
	imagesUsed   int
	message      string
	err          error
	stats        dom.Stats
	startedAt    time.Time
	finishedAt   time.Time
}

func newSession(parent context.Context, id, subject string, strategy dom.Strategy, cfg Config, p Ports) (*Session, context.Context) {
	ctx := logger.WithSession(parent, id, string(strategy))
	ctx, halt := context.WithCancel(ctx)
	clk := clock.Or(p.Clock)
	return &Session{
		id:        id,
		subject:   subject,
		strategy:  strategy,
		cfg:       cfg,
		p:         p,
		gate:      facegate.New(cfg.RefDim),
		clk:       clk,
		log:       logger.C(ctx),
		halt:      halt,
		done:      make(chan struct{}),
		state:     dom.StateIdle,
		seen:      make(map[string]struct{}),
		startedAt: clk.Now(),
	}, ctx
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Done is closed once the session has finished all of its work
func (s *Session) Done() <-chan struct{} { return s.done }

// Err is the terminal error, nil after a successful submission
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns a copy of the externally visible state
func (s *Session) Snapshot() dom.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dom.Snapshot{
		SessionID:    s.id,
		SubjectID:    s.subject,
		Strategy:     s.strategy,
		State:        s.state,
		GoodFrames:   s.good,
		Target:       s.target(),
		UsedFallback: s.usedFallback,
		Message:      s.message,
		StartedAt:    s.startedAt,
		FinishedAt:   s.finishedAt,
	}
}

func (s *Session) target() int {
	if s.strategy == dom.StrategyBurst {
		return s.cfg.BurstCount
	}
	return s.cfg.MinGoodFrames
}

// Observe replaces the live face observation; nil clears it
func (s *Session) Observe(o *dom.FaceObservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	if o == nil {
		s.obs = nil
		return
	}
	c := *o
	s.obs = &c
}

func (s *Session) latest() *dom.FaceObservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.obs == nil {
		return nil
	}
	c := *s.obs
	return &c
}

// Cancel stops the session and drops everything it accumulated
// It returns false when the session was already terminal
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.cancelled.Store(true)
	var rec dom.Recording
	if s.recActive {
		rec = s.rec
	}
	s.state = dom.StateCancelled
	s.message = errCancelled.Error()
	s.err = errCancelled
	s.finishedAt = s.clk.Now()
	s.release()
	s.mu.Unlock()

	if rec != nil {
		if err := s.p.Device.StopRecording(rec); err != nil {
			s.log.Warn().Err(err).Msg("stop recording on cancel failed")
		}
	}
	s.halt()
	s.log.Info().Msg("capture cancelled")
	return true
}

// stopped reports cooperative cancellation, including the parent context going away
func (s *Session) stopped(ctx context.Context) bool {
	return s.cancelled.Load() || ctx.Err() != nil
}

// transition moves to a non-terminal state unless the session already ended
func (s *Session) transition(to dom.State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.log.Debug().Str("from", string(s.state)).Str("to", string(to)).Msg("state")
	s.state = to
	return true
}

// finish applies the terminal transition for err unless Cancel got there first
func (s *Session) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.finishedAt = s.clk.Now()
	s.err = err
	switch {
	case err == nil:
		s.state = dom.StateDone
		s.message = fmt.Sprintf("face enrolled using %d images", s.submitted)
		s.log.Info().Int("frames", s.submitted).Int("images_used", s.imagesUsed).Msg("enrollment submitted")
	case perr.IsCode(err, perr.ErrorCodeCancelled):
		s.state = dom.StateCancelled
		s.message = perr.MessageOf(err)
		s.log.Info().Msg(s.message)
	default:
		s.state = dom.StateFailed
		s.message = perr.MessageOf(err)
		s.log.Warn().Err(err).Str("code", perr.CodeOf(err).String()).Msg("capture failed")
	}
	s.release()
}

// release drops frames, hashes and the live observation; caller holds mu
func (s *Session) release() {
	s.frames = nil
	s.seen = make(map[string]struct{})
	s.good = 0
	s.obs = nil
	s.rec = nil
	s.recActive = false
}

// admit runs a candidate through dedup then sharpness and appends it when both pass
func (s *Session) admit(f dom.Frame) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled.Load() || s.state.Terminal() {
		return false, "cancelled"
	}
	if f.Hash == "" {
		f.Hash = framehash.Sum(f.Bytes)
	}
	if _, dup := s.seen[f.Hash]; dup {
		s.stats.Duplicates++
		return false, "duplicate"
	}
	if !sharpness.IsLikelySharp(f.Bytes) {
		s.stats.Blurry++
		return false, "blurry"
	}
	s.seen[f.Hash] = struct{}{}
	s.frames = append(s.frames, f)
	s.good++
	s.stats.Accepted++
	return true, ""
}

// appendRaw admits a frame without filtering
func (s *Session) appendRaw(f dom.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled.Load() || s.state.Terminal() {
		return false
	}
	s.frames = append(s.frames, f)
	s.good++
	s.stats.Accepted++
	return true
}

func (s *Session) counts() (good, frames int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.good, len(s.frames)
}

// enough reports whether extraction can stop
func (s *Session) enough() bool {
	good, n := s.counts()
	return good >= s.cfg.MinGoodFrames || n >= s.cfg.MaxFrames
}

// take copies the accepted frames in acceptance order
func (s *Session) take() []dom.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dom.Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *Session) count(fn func(*dom.Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

func (s *Session) statsCopy() dom.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// setRecording publishes rec so Cancel can stop it; false when the session already ended
func (s *Session) setRecording(rec dom.Recording) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.rec, s.recActive = rec, true
	return true
}

func (s *Session) clearRecording() {
	s.mu.Lock()
	s.recActive = false
	s.mu.Unlock()
}

func (s *Session) recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recActive
}

func (s *Session) markFallback() {
	s.mu.Lock()
	s.usedFallback = true
	s.mu.Unlock()
}

func (s *Session) fallbackUsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usedFallback
}

func (s *Session) setSubmitted(frames int, res dom.Result) {
	s.mu.Lock()
	s.submitted = frames
	s.imagesUsed = res.ImagesProcessed
	s.mu.Unlock()
}

func (s *Session) attempt() dom.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dom.Attempt{
		SessionID:       s.id,
		SubjectID:       s.subject,
		Strategy:        s.strategy,
		Outcome:         s.state,
		FramesSubmitted: s.submitted,
		ImagesUsed:      s.imagesUsed,
		Message:         s.message,
		UsedFallback:    s.usedFallback,
		StartedAt:       s.startedAt,
		FinishedAt:      s.finishedAt,
	}
}

func (s *Session) detecting() bool {
	return s.p.Detector != nil && s.p.Detector.Available()
}

// normalize re-encodes img when a normalizer is wired
func (s *Session) normalize(ctx context.Context, img []byte) ([]byte, error) {
	if s.p.Normalizer == nil {
		return img, nil
	}
	return s.p.Normalizer.Normalize(ctx, img)
}

// capture runs the pre-flight gate and the chosen strategy
func (s *Session) capture(ctx context.Context) ([]dom.Frame, error) {
	if !s.transition(dom.StateWaitingForFace) {
		return nil, errCancelled
	}
	res, err := s.waitForFace(ctx)
	if s.stopped(ctx) {
		return nil, errCancelled
	}
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "face check failed")
	}
	switch res {
	case gateDeclined:
		return nil, errDeclined
	case gateTimeout:
		return nil, errFaceAbsent
	}
	if !s.transition(dom.StateCapturing) {
		return nil, errCancelled
	}
	if s.strategy == dom.StrategyRecording {
		return s.runRecording(ctx)
	}
	return s.runBurst(ctx)
}
