package service

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"

	perr "enrollcam/internal/platform/errors"
	"enrollcam/internal/platform/testkit"
	dom "enrollcam/internal/services/capture/domain"
)

func TestFaceWaitTimesOut(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dev := &fakeDevice{}
		s := newTestSvc(t, Config{}, Ports{Device: dev, Detector: fakeDetector{available: true}})
		tiny := *goodFace
		tiny.Width, tiny.Height = 10, 10

		start := time.Now()
		sess := runSession(t, s, dom.StrategyBurst, &tiny)

		if !perr.IsCode(sess.Err(), perr.ErrorCodeFaceAbsent) || sess.Snapshot().State != dom.StateFailed {
			t.Fatalf("err = %v state = %s", sess.Err(), sess.Snapshot().State)
		}
		if waited := time.Since(start); waited != DefaultFaceWait {
			t.Fatalf("waited %v, want %v", waited, DefaultFaceWait)
		}
		if len(dev.captureTimes()) != 0 {
			t.Fatal("captured without a face")
		}
		testkit.MustContain(t, sess.Snapshot().Message, "no face detected")
	})
}

func TestFaceWaitPassesOnceFaceAligns(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dev := &fakeDevice{photo: func(i int) ([]byte, error) { return testkit.SharpBytes(byte(i), 2000), nil }}
		s := newTestSvc(t, Config{BurstCount: 1}, Ports{Device: dev, Detector: fakeDetector{available: true}})
		sess, ctx, err := s.open(t.Context(), dom.StrategyBurst, "emp-1")
		if err != nil {
			t.Fatal(err)
		}
		start := time.Now()
		go s.drive(ctx, sess)

		time.Sleep(500 * time.Millisecond)
		sess.Observe(goodFace)
		<-sess.Done()

		if sess.Snapshot().State != dom.StateDone {
			t.Fatalf("state = %s err = %v", sess.Snapshot().State, sess.Err())
		}
		// polls at 0, 200, 400, 600: the first poll after the face appeared passes
		calls := dev.captureTimes()
		if len(calls) != 1 || calls[0].Sub(start) != 600*time.Millisecond {
			t.Fatalf("capture times = %v", calls)
		}
	})
}

func TestUnavailableDetectorAsksOperator(t *testing.T) {
	cases := []struct {
		name      string
		prompter  dom.Prompter
		wantState dom.State
		wantCode  perr.ErrorCode
	}{
		{"proceed", &fakePrompter{answer: true}, dom.StateDone, 0},
		{"decline", &fakePrompter{answer: false}, dom.StateCancelled, perr.ErrorCodeCancelled},
		{"no prompter", nil, dom.StateCancelled, perr.ErrorCodeCancelled},
		{"prompt error", &fakePrompter{err: errors.New("tty closed")}, dom.StateFailed, perr.ErrorCodeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				dev := &fakeDevice{photo: func(i int) ([]byte, error) { return testkit.SharpBytes(byte(i), 2000), nil }}
				s := newTestSvc(t, Config{BurstCount: 2}, Ports{
					Device:   dev,
					Detector: fakeDetector{available: false},
					Prompter: tc.prompter,
				})

				sess := runSession(t, s, dom.StrategyBurst, nil)

				if got := sess.Snapshot().State; got != tc.wantState {
					t.Fatalf("state = %s, want %s (err %v)", got, tc.wantState, sess.Err())
				}
				if tc.wantState == dom.StateDone {
					if sess.Err() != nil {
						t.Fatalf("err = %v", sess.Err())
					}
					return
				}
				if perr.CodeOf(sess.Err()) != tc.wantCode {
					t.Fatalf("code = %v, want %v", perr.CodeOf(sess.Err()), tc.wantCode)
				}
				if len(dev.captureTimes()) != 0 {
					t.Fatal("captured after the operator declined")
				}
			})
		})
	}
}
