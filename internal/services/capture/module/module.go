// Package module wires the capture service to its device, detector, submitter and stores
package module

import (
	"context"

	"enrollcam/internal/adapters/detector"
	"enrollcam/internal/adapters/device/replay"
	"enrollcam/internal/adapters/enroll"
	"enrollcam/internal/adapters/prompt"
	"enrollcam/internal/adapters/templatecache"
	"enrollcam/internal/modkit"
	"enrollcam/internal/modkit/repokit"
	"enrollcam/internal/platform/clock"
	perr "enrollcam/internal/platform/errors"
	phttp "enrollcam/internal/platform/net/http"
	dom "enrollcam/internal/services/capture/domain"
	chttp "enrollcam/internal/services/capture/http"
	"enrollcam/internal/services/capture/repo"
	"enrollcam/internal/services/capture/service"
)

// Module owns the capture service and the adapters behind it
type Module struct {
	deps   modkit.Deps
	opts   Options
	svc    *service.Svc
	device *replay.Device
	face   *dom.FaceObservation
	static *detector.Static
	ledger *repo.Ledger
	cache  *templatecache.Cache
}

var (
	_ modkit.Module    = (*Module)(nil)
	_ chttp.Controller = (*Module)(nil)
)

// Option swaps a collaborator, mostly for the CLI and tests
type Option func(*wiring)

type wiring struct {
	device    *replay.Device
	prompter  dom.Prompter
	submitter dom.Submitter
	clock     clock.Clock
}

// WithDevice uses d instead of loading CAPTURE_DEVICE_MANIFEST
func WithDevice(d *replay.Device) Option { return func(w *wiring) { w.device = d } }

// WithPrompter asks p when no detector is available
func WithPrompter(p dom.Prompter) Option { return func(w *wiring) { w.prompter = p } }

// WithSubmitter replaces the HTTP enrollment client
func WithSubmitter(s dom.Submitter) Option { return func(w *wiring) { w.submitter = s } }

// WithClock replaces the wall clock
func WithClock(c clock.Clock) Option { return func(w *wiring) { w.clock = c } }

// New builds the module; config defaults come first, then non-zero overrides
func New(ctx context.Context, deps modkit.Deps, overrides Options, with ...Option) (*Module, error) {
	opts := merge(FromConfig(deps.Cfg), overrides)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	var w wiring
	for _, fn := range with {
		fn(&w)
	}

	dev := w.device
	if dev == nil {
		if opts.DeviceManifest == "" {
			return nil, perr.Validationf("CAPTURE_DEVICE_MANIFEST is required")
		}
		d, err := replay.Load(opts.DeviceManifest)
		if err != nil {
			return nil, err
		}
		dev = d
	}

	sub := w.submitter
	if sub == nil {
		if opts.EnrollBaseURL == "" {
			return nil, perr.Validationf("ENROLL_BASE_URL is required")
		}
		sub = enroll.NewClient(opts.enrollOptions())
	}

	m := &Module{deps: deps, opts: opts, device: dev}
	man := dev.Manifest()
	m.face = man.Face.Observation()

	var det dom.Detector = detector.Unavailable{}
	if man.Detector {
		m.static = detector.NewStatic(m.face)
		det = m.static
	}

	prompter := w.prompter
	if prompter == nil {
		prompter = prompt.Fixed(opts.ProceedUnverified)
	}

	ports := service.Ports{
		Device:      dev,
		Thumbnailer: dev,
		Detector:    det,
		Permissions: dev,
		Prompter:    prompter,
		Normalizer:  opts.normalizer(),
		Submitter:   sub,
		Clock:       w.clock,
	}

	if deps.Lite != nil {
		c, err := templatecache.New(ctx, deps.Lite)
		if err != nil {
			return nil, err
		}
		m.cache = c
		ports.Cache = c
	}

	var ledgerRepo repo.Repo
	if deps.PG != nil {
		if err := repo.EnsureSchema(ctx, deps.PG); err != nil {
			return nil, err
		}
		ledgerRepo = repokit.MustBind(repo.NewPG(), deps.PG)
	}
	if deps.CH != nil {
		if err := repo.EnsureStatsSchema(ctx, deps.CH); err != nil {
			return nil, err
		}
	}
	m.ledger = repo.NewLedger(ledgerRepo, deps.CH)
	if m.ledger.Enabled() {
		ports.Recorder = m.ledger
	}

	m.svc = service.New(deps, opts.serviceConfig(), ports)
	deps.Log.Info().
		Bool("detector", man.Detector).
		Bool("template_cache", m.cache != nil).
		Bool("ledger", m.ledger.Enabled()).
		Msg("capture module ready")
	return m, nil
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "capture" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) {
	r.Route("/capture", func(sub phttp.Router) { chttp.Register(sub, m) })
}

// Close cancels the running session and waits for it
func (m *Module) Close(ctx context.Context) error { return m.svc.Close(ctx) }

// Service exposes the capture service
func (m *Module) Service() service.Service { return m.svc }

// Cache exposes the template cache, nil without SQLite
func (m *Module) Cache() *templatecache.Cache { return m.cache }

// Start begins a session and seeds it with the device's live face reading
func (m *Module) Start(ctx context.Context, strategy dom.Strategy, subjectID string) (dom.Snapshot, error) {
	var (
		snap dom.Snapshot
		err  error
	)
	switch strategy {
	case dom.StrategyBurst:
		snap, err = m.svc.StartBurst(ctx, subjectID)
	case dom.StrategyRecording:
		snap, err = m.svc.StartRecording(ctx, subjectID)
	default:
		return dom.Snapshot{}, perr.Validationf("unknown capture strategy %q", strategy)
	}
	if err != nil {
		return dom.Snapshot{}, err
	}
	if m.face != nil {
		m.svc.Observe(m.face)
	}
	return snap, nil
}

// Enroll runs one session to the end; cancelling ctx cancels the session
func (m *Module) Enroll(ctx context.Context, strategy dom.Strategy, subjectID string) (dom.Snapshot, error) {
	if _, err := m.Start(ctx, strategy, subjectID); err != nil {
		return dom.Snapshot{}, err
	}
	if err := m.svc.Wait(ctx); err != nil {
		m.svc.Cancel()
		_ = m.svc.Wait(context.WithoutCancel(ctx))
	}
	snap, _ := m.svc.Snapshot()
	return snap, m.svc.Err()
}

// Cancel stops the running session
func (m *Module) Cancel() dom.Snapshot { return m.svc.Cancel() }

// Snapshot reports the latest session
func (m *Module) Snapshot() (dom.Snapshot, bool) { return m.svc.Snapshot() }

// Observe feeds a detector reading to the live gate and the thumbnail detector
func (m *Module) Observe(o *dom.FaceObservation) {
	if m.static != nil {
		m.static.Set(o)
	}
	m.svc.Observe(o)
}

// Attempts lists a subject's recent attempts from the ledger
func (m *Module) Attempts(ctx context.Context, subjectID string, limit int) ([]dom.Attempt, error) {
	r := m.ledger.Repo()
	if r == nil {
		return nil, perr.Unavailablef("attempt ledger is not configured")
	}
	return r.RecentAttempts(ctx, subjectID, limit)
}
