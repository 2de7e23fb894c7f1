package service

import (
	"context"

	"enrollcam/internal/platform/clock"
	perr "enrollcam/internal/platform/errors"
)

type gateResult int

const (
	gatePassed gateResult = iota
	gateTimeout
	gateDeclined
)

var (
	errFaceAbsent = perr.New(perr.ErrorCodeFaceAbsent, "no face detected: align your face inside the frame and try again")
	errDeclined   = perr.New(perr.ErrorCodeCancelled, "capture cancelled: live face detection is unavailable")
)

// waitForFace polls the live observation until the gate accepts it or FaceWait elapses
// Without a detector the operator decides; with no prompter wired that counts as a decline
func (s *Session) waitForFace(ctx context.Context) (gateResult, error) {
	if !s.detecting() {
		if s.p.Prompter == nil {
			s.log.Warn().Msg("face detection unavailable and no prompter wired")
			return gateDeclined, nil
		}
		ok, err := s.p.Prompter.ConfirmUnverified(ctx)
		if err != nil {
			return gateDeclined, err
		}
		if !ok {
			return gateDeclined, nil
		}
		s.log.Info().Msg("proceeding without live face verification")
		return gatePassed, nil
	}

	start := s.clk.Now()
	for clock.Since(s.clk, start) < s.cfg.FaceWait {
		if s.stopped(ctx) {
			return gateDeclined, nil
		}
		if s.gate.Acceptable(s.latest()) {
			return gatePassed, nil
		}
		if err := s.clk.Sleep(ctx, s.cfg.FacePoll); err != nil {
			return gateDeclined, nil
		}
	}
	s.log.Info().Str("reason", s.gate.Reason(s.latest())).Dur("waited", s.cfg.FaceWait).Msg("no acceptable face")
	return gateTimeout, nil
}
