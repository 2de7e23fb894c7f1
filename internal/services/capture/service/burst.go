package service

import (
	"context"

	perr "enrollcam/internal/platform/errors"
	dom "enrollcam/internal/services/capture/domain"
)

// runBurst takes BurstCount stills at a fixed cadence
// Every still that arrives is kept; volume matters more than quality here
func (s *Session) runBurst(ctx context.Context) ([]dom.Frame, error) {
	for i := 0; i < s.cfg.BurstCount; i++ {
		if s.stopped(ctx) {
			break
		}
		s.burstOne(ctx, i)
		if err := s.clk.Sleep(ctx, s.cfg.BurstCadence); err != nil {
			break
		}
	}
	if s.stopped(ctx) {
		return nil, errCancelled
	}
	frames := s.take()
	if len(frames) == 0 {
		return nil, perr.Exhaustedf("no images were captured successfully")
	}
	return frames, nil
}

func (s *Session) burstOne(ctx context.Context, i int) {
	img, err := s.p.Device.CapturePhoto(ctx, s.cfg.PhotoQuality)
	if err == nil && len(img) == 0 {
		err = perr.Unavailablef("photo capture returned no image")
	}
	if err != nil {
		s.count(func(st *dom.Stats) { st.CaptureFailures++ })
		s.log.Warn().Err(err).Int("index", i).Msg("photo capture failed")
		return
	}
	s.count(func(st *dom.Stats) { st.Captured++ })
	img, err = s.normalize(ctx, img)
	if err != nil {
		s.count(func(st *dom.Stats) { st.CaptureFailures++ })
		s.log.Warn().Err(err).Int("index", i).Msg("normalize failed")
		return
	}
	s.appendRaw(dom.Frame{Bytes: img, CapturedAt: s.clk.Now()})
}
