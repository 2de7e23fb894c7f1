package service

import (
	"slices"
	"testing"
	"testing/synctest"
	"time"

	perr "enrollcam/internal/platform/errors"
	"enrollcam/internal/platform/testkit"
	dom "enrollcam/internal/services/capture/domain"
)

func TestRecordingStopsEarlyWithDistinctSharpFrames(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		a := testkit.SharpBytes(1, 2000)
		b := testkit.SharpBytes(2, 2000)
		c := testkit.SharpBytes(3, 2000)
		// t=800 repeats t=0 and t=2400 repeats t=1600
		seq := [][]byte{a, a, b, b, c}
		dev := &fakeDevice{photo: func(i int) ([]byte, error) { return seq[i], nil }}
		thumbs := &fakeThumbs{fn: func(time.Duration) ([]byte, error) { return nil, errBusy }}
		sub := &fakeSubmitter{res: dom.Result{Success: true}}
		rec := &fakeRecorder{}
		s := newTestSvc(t, Config{MinGoodFrames: 3, MaxFrames: 5, RecordDuration: 4 * time.Second}, Ports{
			Device:      dev,
			Thumbnailer: thumbs,
			Detector:    fakeDetector{available: true},
			Permissions: fakePerms{camera: true, mic: true},
			Submitter:   sub,
			Recorder:    rec,
		})

		sess := runSession(t, s, dom.StrategyRecording, goodFace)

		if sess.Snapshot().State != dom.StateDone {
			t.Fatalf("state = %s err = %v", sess.Snapshot().State, sess.Err())
		}
		r := dev.recording(0)
		var at []time.Duration
		for _, c := range dev.captureTimes() {
			at = append(at, c.Sub(r.started))
		}
		want := []time.Duration{0, 800 * time.Millisecond, 1600 * time.Millisecond, 2400 * time.Millisecond, 3200 * time.Millisecond}
		if !slices.Equal(at, want) {
			t.Fatalf("live captures at %v, want %v", at, want)
		}
		if got := r.stoppedAfter(); got == 0 || got > 3200*time.Millisecond {
			t.Fatalf("recording stopped after %v, want <= 3.2s", got)
		}
		sent := sub.sent()
		if len(sent) != 1 || !slices.Equal(sent[0].Images, uris(a, b, c)) {
			t.Fatal("want exactly the three distinct frames in capture order")
		}
		if !sent[0].Preview || sent[0].PreviewImages {
			t.Fatalf("recording payload flags = %+v", sent[0])
		}
		if thumbs.count() != 0 {
			t.Fatal("fallback ran although live sampling succeeded")
		}
		at2, st := rec.last(t)
		if at2.UsedFallback || st.Duplicates != 2 || st.Accepted != 3 {
			t.Fatalf("attempt = %+v stats = %+v", at2, st)
		}
	})
}

func TestRecordingFallsBackWhenLiveCaptureFails(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		img := func(at time.Duration) []byte { return testkit.SharpBytes(byte(at/time.Millisecond/100), 2000) }
		thumbs := &fakeThumbs{fn: func(at time.Duration) ([]byte, error) {
			if at == 400*time.Millisecond {
				return nil, errBusy
			}
			return img(at), nil
		}}
		dev := &fakeDevice{liveErr: errBusy}
		sub := &fakeSubmitter{res: dom.Result{Success: true}}
		s := newTestSvc(t, Config{MinGoodFrames: 3, ExtractFrames: 10}, Ports{
			Device:      dev,
			Thumbnailer: thumbs,
			Prompter:    &fakePrompter{answer: true},
			Submitter:   sub,
		})

		sess := runSession(t, s, dom.StrategyRecording, nil)

		snap := sess.Snapshot()
		if snap.State != dom.StateDone || !snap.UsedFallback {
			t.Fatalf("snapshot = %+v err = %v", snap, sess.Err())
		}
		if n := len(dev.captureTimes()); n != 1 {
			t.Fatalf("live capture attempted %d times, want a single attempt", n)
		}
		want := uris(img(0), img(800*time.Millisecond), img(1200*time.Millisecond))
		if sent := sub.sent(); len(sent) != 1 || !slices.Equal(sent[0].Images, want) {
			t.Fatal("fallback frames not submitted in offset order")
		}
		// two batches of three decoded before the target was met
		if thumbs.count() != 6 {
			t.Fatalf("thumbnail decodes = %d, want 6", thumbs.count())
		}
	})
}

func TestRecordingWithNothingExtractedFails(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		thumbs := &fakeThumbs{fn: func(time.Duration) ([]byte, error) { return nil, errBusy }}
		sub := &fakeSubmitter{res: dom.Result{Success: true}}
		s := newTestSvc(t, Config{}, Ports{
			Device:      &fakeDevice{liveErr: errBusy},
			Thumbnailer: thumbs,
			Detector:    fakeDetector{available: false},
			Prompter:    &fakePrompter{answer: true},
			Submitter:   sub,
		})

		sess := runSession(t, s, dom.StrategyRecording, nil)

		snap := sess.Snapshot()
		if snap.State != dom.StateFailed || snap.Message == "" {
			t.Fatalf("snapshot = %+v", snap)
		}
		if !perr.IsCode(sess.Err(), perr.ErrorCodeExhausted) {
			t.Fatalf("err = %v", sess.Err())
		}
		if len(sess.take()) != 0 || len(sub.sent()) != 0 {
			t.Fatal("frames left behind or submitted")
		}
		if thumbs.count() != DefaultExtractFrames {
			t.Fatalf("decoded %d offsets, want all %d", thumbs.count(), DefaultExtractFrames)
		}
	})
}

func TestRecordingSkipsCaptureWhileGateRejects(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dev := &fakeDevice{photo: func(i int) ([]byte, error) { return testkit.SharpBytes(byte(i), 2000), nil }}
		thumbs := &fakeThumbs{fn: func(at time.Duration) ([]byte, error) {
			return testkit.SharpBytes(byte(at/time.Millisecond/40), 2000), nil
		}}
		rec := &fakeRecorder{}
		s := newTestSvc(t, Config{MinGoodFrames: 2}, Ports{
			Device: dev, Thumbnailer: thumbs, Detector: fakeDetector{available: true}, Recorder: rec,
		})
		sess, ctx, err := s.open(t.Context(), dom.StrategyRecording, "emp-1")
		if err != nil {
			t.Fatal(err)
		}
		sess.Observe(goodFace)
		go s.drive(ctx, sess)

		// face turns away once recording has started
		time.Sleep(time.Millisecond)
		turned := *goodFace
		turned.Yaw = 40
		sess.Observe(&turned)
		<-sess.Done()

		if n := len(dev.captureTimes()); n != 1 {
			t.Fatalf("live captures = %d, want only the one before the face turned", n)
		}
		a, st := rec.last(t)
		if a.Outcome != dom.StateDone || st.GateSkips == 0 {
			t.Fatalf("attempt = %+v stats = %+v", a, st)
		}
		if a.UsedFallback {
			t.Fatal("one live frame was accepted, fallback should not run")
		}
	})
}

func TestRecordingNeedsMicrophone(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dev := &fakeDevice{}
		s := newTestSvc(t, Config{}, Ports{
			Device:      dev,
			Detector:    fakeDetector{available: true},
			Permissions: fakePerms{camera: true, mic: false},
		})

		sess := runSession(t, s, dom.StrategyRecording, goodFace)

		if !perr.IsCode(sess.Err(), perr.ErrorCodePermission) || sess.Snapshot().State != dom.StateFailed {
			t.Fatalf("err = %v state = %s", sess.Err(), sess.Snapshot().State)
		}
		testkit.MustContain(t, sess.Snapshot().Message, "microphone")
		if len(dev.recs) != 0 {
			t.Fatal("recording started without microphone permission")
		}
	})
}

func TestCancelDuringRecording(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dev := &fakeDevice{photo: func(i int) ([]byte, error) { return testkit.SharpBytes(byte(i), 2000), nil }}
		thumbs := &fakeThumbs{fn: func(time.Duration) ([]byte, error) { return testkit.SharpBytes(9, 2000), nil }}
		sub := &fakeSubmitter{res: dom.Result{Success: true}}
		s := newTestSvc(t, Config{}, Ports{
			Device: dev, Thumbnailer: thumbs, Detector: fakeDetector{available: true}, Submitter: sub,
		})
		sess, ctx, err := s.open(t.Context(), dom.StrategyRecording, "emp-1")
		if err != nil {
			t.Fatal(err)
		}
		sess.Observe(goodFace)
		go s.drive(ctx, sess)

		time.Sleep(1050 * time.Millisecond)
		if good, _ := sess.counts(); good == 0 {
			t.Fatal("live sampling should have accepted frames by now")
		}
		if !sess.Cancel() {
			t.Fatal("Cancel returned false on a running session")
		}
		sess.mu.Lock()
		released := sess.frames == nil && len(sess.seen) == 0 && sess.obs == nil && sess.good == 0
		sess.mu.Unlock()
		if !released {
			t.Fatal("cancel did not release session state")
		}
		if dev.stops() != 1 {
			t.Fatalf("StopRecording calls = %d, want 1", dev.stops())
		}
		<-sess.Done()

		if sess.Snapshot().State != dom.StateCancelled {
			t.Fatalf("state = %s", sess.Snapshot().State)
		}
		if len(sub.sent()) != 0 || thumbs.count() != 0 {
			t.Fatal("cancelled session went on to submit or extract")
		}
	})
}

func TestLiveStillAtPayloadFloorIsUndersized(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		floor := testkit.SharpBytes(1, DefaultMinLivePayload)
		seq := [][]byte{floor, testkit.SharpBytes(2, DefaultMinLivePayload+1), testkit.SharpBytes(3, DefaultMinLivePayload+1), testkit.SharpBytes(4, DefaultMinLivePayload+1)}
		dev := &fakeDevice{photo: func(i int) ([]byte, error) { return seq[min(i, len(seq)-1)], nil }}
		sub := &fakeSubmitter{res: dom.Result{Success: true}}
		rec := &fakeRecorder{}
		s := newTestSvc(t, Config{MinGoodFrames: 3, MaxFrames: 5, RecordDuration: 4 * time.Second}, Ports{
			Device:      dev,
			Thumbnailer: &fakeThumbs{fn: func(time.Duration) ([]byte, error) { return nil, errBusy }},
			Detector:    fakeDetector{available: true},
			Permissions: fakePerms{camera: true, mic: true},
			Submitter:   sub,
			Recorder:    rec,
		})

		sess := runSession(t, s, dom.StrategyRecording, goodFace)

		if sess.Snapshot().State != dom.StateDone {
			t.Fatalf("state = %s err = %v", sess.Snapshot().State, sess.Err())
		}
		sent := sub.sent()
		if len(sent) != 1 || !slices.Equal(sent[0].Images, uris(seq[1:]...)) {
			t.Fatal("a still of exactly the payload floor should not be submitted")
		}
		if _, st := rec.last(t); st.Undersized != 1 || st.Accepted != 3 {
			t.Fatalf("stats = %+v", st)
		}
	})
}
