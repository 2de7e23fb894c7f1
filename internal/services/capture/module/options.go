package module

import (
	"time"

	"enrollcam/internal/adapters/enroll"
	"enrollcam/internal/adapters/imaging"
	"enrollcam/internal/core/facegate"
	"enrollcam/internal/platform/config"
	"enrollcam/internal/platform/net/http/bind"
	dom "enrollcam/internal/services/capture/domain"
	"enrollcam/internal/services/capture/service"
)

// Options controls the capture module
type Options struct {
	BurstCount   int           `env:"CAPTURE_BURST_COUNT" validate:"gte=0,lte=500"`
	BurstCadence time.Duration `env:"CAPTURE_BURST_CADENCE" validate:"gte=0"`
	FaceWait     time.Duration `env:"CAPTURE_FACE_WAIT" validate:"gte=0"`
	FacePoll     time.Duration `env:"CAPTURE_FACE_POLL" validate:"gte=0"`

	RecordDuration time.Duration `env:"CAPTURE_RECORD_DURATION" validate:"gte=0,lte=1m"`
	ExtractFrames  int           `env:"CAPTURE_EXTRACT_FRAMES" validate:"gte=0"`
	MinGoodFrames  int           `env:"CAPTURE_MIN_GOOD_FRAMES" validate:"gte=0"`
	MaxFrames      int           `env:"CAPTURE_MAX_FRAMES" validate:"gte=0"`
	ThumbnailBatch int           `env:"CAPTURE_THUMBNAIL_BATCH" validate:"gte=0,lte=32"`

	PhotoQuality float64 `env:"CAPTURE_PHOTO_QUALITY" validate:"gte=0,lte=1"`
	RefDim       float64 `env:"CAPTURE_REF_DIM" validate:"gte=0"`
	SelectTop    int     `env:"CAPTURE_SELECT_TOP" validate:"gte=0"`

	NormalizeWidth   int `env:"CAPTURE_NORMALIZE_WIDTH" validate:"gte=0"`
	NormalizeQuality int `env:"CAPTURE_NORMALIZE_QUALITY" validate:"gte=0,lte=100"`

	// NormalizeFingerprint stamps each re-encoded still so the duplicate check sees past the JPEG header
	NormalizeFingerprint bool `env:"CAPTURE_NORMALIZE_FINGERPRINT"`

	// DeviceManifest is the replay manifest backing the camera
	DeviceManifest string `env:"CAPTURE_DEVICE_MANIFEST"`
	// ProceedUnverified answers the no-detector prompt when no operator is attached
	ProceedUnverified bool

	EnrollBaseURL string        `env:"ENROLL_BASE_URL" validate:"omitempty,url"`
	EnrollToken   string        `env:"ENROLL_TOKEN"`
	EnrollTimeout time.Duration `env:"ENROLL_TIMEOUT" validate:"gte=0"`
}

// FromConfig reads CAPTURE_ and ENROLL_ keys
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CAPTURE_")
	e := cfg.Prefix("ENROLL_")
	return Options{
		BurstCount:     c.MayInt("BURST_COUNT", service.DefaultBurstCount),
		BurstCadence:   c.MayDuration("BURST_CADENCE", service.DefaultBurstCadence),
		FaceWait:       c.MayDuration("FACE_WAIT", service.DefaultFaceWait),
		FacePoll:       c.MayDuration("FACE_POLL", service.DefaultFacePoll),
		RecordDuration: c.MayDuration("RECORD_DURATION", service.DefaultRecordDuration),
		ExtractFrames:  c.MayInt("EXTRACT_FRAMES", service.DefaultExtractFrames),
		MinGoodFrames:  c.MayInt("MIN_GOOD_FRAMES", service.DefaultMinGoodFrames),
		MaxFrames:      c.MayInt("MAX_FRAMES", service.DefaultMaxFrames),
		ThumbnailBatch: c.MayInt("THUMBNAIL_BATCH", service.DefaultThumbnailBatch),
		PhotoQuality:   c.MayFloat64("PHOTO_QUALITY", service.DefaultPhotoQuality),
		RefDim:         c.MayFloat64("REF_DIM", facegate.DefaultRefDim),
		SelectTop:      c.MayInt("SELECT_TOP", dom.DefaultSelectTop),

		NormalizeWidth:       c.MayInt("NORMALIZE_WIDTH", imaging.DefaultWidth),
		NormalizeQuality:     c.MayInt("NORMALIZE_QUALITY", imaging.DefaultQuality),
		NormalizeFingerprint: c.MayBool("NORMALIZE_FINGERPRINT", false),

		DeviceManifest:    c.MayString("DEVICE_MANIFEST", ""),
		ProceedUnverified: c.MayBool("PROCEED_UNVERIFIED", false),

		EnrollBaseURL: e.MayString("BASE_URL", ""),
		EnrollToken:   e.MayString("TOKEN", ""),
		EnrollTimeout: e.MayDuration("TIMEOUT", 30*time.Second),
	}
}

// merge applies the non-zero fields of o over base
func merge(base, o Options) Options {
	if o.BurstCount != 0 {
		base.BurstCount = o.BurstCount
	}
	if o.BurstCadence != 0 {
		base.BurstCadence = o.BurstCadence
	}
	if o.FaceWait != 0 {
		base.FaceWait = o.FaceWait
	}
	if o.FacePoll != 0 {
		base.FacePoll = o.FacePoll
	}
	if o.RecordDuration != 0 {
		base.RecordDuration = o.RecordDuration
	}
	if o.ExtractFrames != 0 {
		base.ExtractFrames = o.ExtractFrames
	}
	if o.MinGoodFrames != 0 {
		base.MinGoodFrames = o.MinGoodFrames
	}
	if o.MaxFrames != 0 {
		base.MaxFrames = o.MaxFrames
	}
	if o.ThumbnailBatch != 0 {
		base.ThumbnailBatch = o.ThumbnailBatch
	}
	if o.PhotoQuality != 0 {
		base.PhotoQuality = o.PhotoQuality
	}
	if o.RefDim != 0 {
		base.RefDim = o.RefDim
	}
	if o.SelectTop != 0 {
		base.SelectTop = o.SelectTop
	}
	if o.NormalizeWidth != 0 {
		base.NormalizeWidth = o.NormalizeWidth
	}
	if o.NormalizeQuality != 0 {
		base.NormalizeQuality = o.NormalizeQuality
	}
	if o.DeviceManifest != "" {
		base.DeviceManifest = o.DeviceManifest
	}
	if o.ProceedUnverified {
		base.ProceedUnverified = true
	}
	if o.NormalizeFingerprint {
		base.NormalizeFingerprint = true
	}
	if o.EnrollBaseURL != "" {
		base.EnrollBaseURL = o.EnrollBaseURL
	}
	if o.EnrollToken != "" {
		base.EnrollToken = o.EnrollToken
	}
	if o.EnrollTimeout != 0 {
		base.EnrollTimeout = o.EnrollTimeout
	}
	return base
}

// Validate checks the tag constraints
func (o Options) Validate() error { return bind.Struct(o) }

func (o Options) serviceConfig() service.Config {
	return service.Config{
		BurstCount:     o.BurstCount,
		BurstCadence:   o.BurstCadence,
		FaceWait:       o.FaceWait,
		FacePoll:       o.FacePoll,
		RecordDuration: o.RecordDuration,
		ExtractFrames:  o.ExtractFrames,
		MinGoodFrames:  o.MinGoodFrames,
		MaxFrames:      o.MaxFrames,
		ThumbnailBatch: o.ThumbnailBatch,
		PhotoQuality:   o.PhotoQuality,
		RefDim:         o.RefDim,
		SelectTop:      o.SelectTop,
	}
}

func (o Options) enrollOptions() enroll.Options {
	return enroll.Options{BaseURL: o.EnrollBaseURL, Token: o.EnrollToken, Timeout: o.EnrollTimeout}
}

func (o Options) normalizer() imaging.Resizer {
	r := imaging.NewResizer(o.NormalizeWidth, o.NormalizeQuality)
	if o.NormalizeFingerprint {
		return r.WithFingerprint()
	}
	return r
}
