package service

import (
	"context"
	"time"

	"enrollcam/internal/platform/clock"
	perr "enrollcam/internal/platform/errors"
	dom "enrollcam/internal/services/capture/domain"
)

// runRecording records a bounded video while sampling stills from the live camera
// If live sampling fails or yields nothing, frames are pulled from the finished recording instead
func (s *Session) runRecording(ctx context.Context) ([]dom.Frame, error) {
	if err := s.requireMicrophone(ctx); err != nil {
		return nil, err
	}
	if !s.transition(dom.StateRecording) {
		return nil, errCancelled
	}
	rec, err := s.p.Device.StartRecording(ctx, s.cfg.RecordDuration)
	if err != nil {
		if s.stopped(ctx) {
			return nil, errCancelled
		}
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "failed to record video")
	}
	if !s.setRecording(rec) {
		_ = s.p.Device.StopRecording(rec)
		return nil, errCancelled
	}

	sampled := make(chan struct{})
	go func() {
		defer close(sampled)
		s.sampleLive(ctx, rec)
	}()

	art, werr := rec.Wait(ctx)
	s.clearRecording()
	<-sampled

	if s.stopped(ctx) {
		return nil, errCancelled
	}
	if werr != nil {
		return nil, perr.Wrap(werr, perr.ErrorCodeUnavailable, "failed to record video")
	}
	if art.URI == "" {
		return nil, perr.Unavailablef("failed to record video")
	}

	if good, _ := s.counts(); s.fallbackUsed() || good == 0 {
		if !s.transition(dom.StateExtracting) {
			return nil, errCancelled
		}
		s.markFallback()
		s.extractFallback(ctx, art)
	}
	if s.stopped(ctx) {
		return nil, errCancelled
	}
	frames := s.take()
	if len(frames) == 0 {
		return nil, perr.Exhaustedf("no good frames extracted from video")
	}
	return frames, nil
}

func (s *Session) requireMicrophone(ctx context.Context) error {
	if s.p.Permissions == nil {
		return nil
	}
	ok, err := s.p.Permissions.Microphone(ctx)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodePermission, "microphone permission check failed")
	}
	if !ok {
		return perr.Permissionf("microphone permission required: allow audio recording to capture video")
	}
	return nil
}

// sampleLive is the capture loop that runs alongside the recording
func (s *Session) sampleLive(ctx context.Context, rec dom.Recording) {
	interval := s.cfg.sampleInterval()
	start := s.clk.Now()
	for s.sampling(ctx, start) {
		if s.detecting() && !s.gate.Acceptable(s.latest()) {
			s.count(func(st *dom.Stats) { st.GateSkips++ })
		} else {
			img, err := s.p.Device.CapturePhoto(ctx, s.cfg.PhotoQuality)
			if err != nil {
				if s.stopped(ctx) {
					return
				}
				// The device will not take stills while recording; do not try again
				s.count(func(st *dom.Stats) { st.CaptureFailures++ })
				s.markFallback()
				s.log.Warn().Err(err).Msg("live capture failed, falling back to thumbnails")
				return
			}
			if s.offerLive(ctx, img) {
				if good, _ := s.counts(); good >= s.cfg.MinGoodFrames {
					break
				}
			}
		}
		if err := s.clk.Sleep(ctx, interval); err != nil {
			return
		}
	}
	s.stopIfEnough(rec)
}

func (s *Session) sampling(ctx context.Context, start time.Time) bool {
	if s.stopped(ctx) || !s.recording() {
		return false
	}
	if clock.Since(s.clk, start) >= s.cfg.RecordDuration {
		return false
	}
	good, n := s.counts()
	return n < s.cfg.MaxFrames && good < s.cfg.MinGoodFrames
}

// offerLive filters one live still and reports whether it was accepted
func (s *Session) offerLive(ctx context.Context, img []byte) bool {
	if len(img) == 0 {
		return false
	}
	s.count(func(st *dom.Stats) { st.Captured++ })
	if len(img) <= s.cfg.MinLivePayload {
		s.count(func(st *dom.Stats) { st.Undersized++ })
		s.log.Debug().Int("bytes", len(img)).Msg("live still too small")
		return false
	}
	img, err := s.normalize(ctx, img)
	if err != nil {
		s.count(func(st *dom.Stats) { st.CaptureFailures++ })
		s.log.Warn().Err(err).Msg("normalize failed")
		return false
	}
	ok, why := s.admit(dom.Frame{Bytes: img, CapturedAt: s.clk.Now()})
	if !ok {
		s.log.Debug().Str("reason", why).Msg("live still rejected")
	}
	return ok
}

// stopIfEnough ends the recording early once MinGoodFrames were collected live
func (s *Session) stopIfEnough(rec dom.Recording) {
	good, _ := s.counts()
	if good < s.cfg.MinGoodFrames || !s.recording() {
		return
	}
	s.log.Info().Int("good", good).Msg("enough good frames, stopping recording early")
	if err := s.p.Device.StopRecording(rec); err != nil {
		s.log.Debug().Err(err).Msg("early stop recording failed")
	}
}
