package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"enrollcam/internal/core/facegate"
	dom "enrollcam/internal/services/capture/domain"
)

// extractFallback pulls thumbnails out of a finished recording in small concurrent batches
// Results are filtered in offset order so frames keep their position in the video
func (s *Session) extractFallback(ctx context.Context, art dom.Artifact) {
	if s.p.Thumbnailer == nil {
		s.log.Warn().Msg("no thumbnailer wired, fallback extraction skipped")
		return
	}
	dur := art.Duration
	if dur <= 0 {
		dur = s.cfg.RecordDuration
	}
	at := offsets(dur, s.cfg.ExtractFrames)
	s.log.Info().Str("uri", art.URI).Int("offsets", len(at)).Msg("extracting frames from recording")

	for i := 0; i < len(at); i += s.cfg.ThumbnailBatch {
		if s.stopped(ctx) {
			return
		}
		batch := at[i:min(i+s.cfg.ThumbnailBatch, len(at))]
		thumbs := s.decodeBatch(ctx, art, batch)
		for j, img := range thumbs {
			if s.stopped(ctx) {
				return
			}
			if img != nil {
				s.offerThumbnail(ctx, img, batch[j])
			}
			if s.enough() {
				return
			}
		}
	}
}

// decodeBatch decodes every offset in parallel; a failed decode leaves a nil slot
func (s *Session) decodeBatch(ctx context.Context, art dom.Artifact, at []time.Duration) [][]byte {
	out := make([][]byte, len(at))
	var g errgroup.Group
	for i, t := range at {
		g.Go(func() error {
			img, err := s.p.Thumbnailer.Thumbnail(ctx, art, t)
			if err != nil || len(img) == 0 {
				s.count(func(st *dom.Stats) { st.ThumbnailFailures++ })
				s.log.Debug().Err(err).Dur("at", t).Msg("thumbnail decode failed")
				return nil
			}
			out[i] = img
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Session) offerThumbnail(ctx context.Context, img []byte, at time.Duration) {
	s.count(func(st *dom.Stats) { st.Captured++ })
	if !s.thumbnailHasFace(ctx, img) {
		s.count(func(st *dom.Stats) { st.NoFace++ })
		return
	}
	img, err := s.normalize(ctx, img)
	if err != nil {
		s.count(func(st *dom.Stats) { st.ThumbnailFailures++ })
		s.log.Warn().Err(err).Dur("at", at).Msg("normalize failed")
		return
	}
	if ok, why := s.admit(dom.Frame{Bytes: img, CapturedAt: s.clk.Now(), Offset: at}); !ok {
		s.log.Debug().Str("reason", why).Dur("at", at).Msg("thumbnail rejected")
	}
}

// thumbnailHasFace runs the fast detector pass
// No detector, or a detector error, accepts the thumbnail
func (s *Session) thumbnailHasFace(ctx context.Context, img []byte) bool {
	if !s.detecting() {
		return true
	}
	obs, err := s.p.Detector.Detect(ctx, img)
	if err != nil {
		s.log.Debug().Err(err).Msg("thumbnail detection failed, keeping frame")
		return true
	}
	return facegate.ThumbnailHasFace(obs)
}
