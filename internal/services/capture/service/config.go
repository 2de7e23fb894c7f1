package service

import (
	"time"

	"enrollcam/internal/core/facegate"
	dom "enrollcam/internal/services/capture/domain"
)

// Config controls capture budgets and thresholds
type Config struct {
	BurstCount   int
	BurstCadence time.Duration

	FaceWait time.Duration
	FacePoll time.Duration

	RecordDuration    time.Duration
	ExtractFrames     int
	MinGoodFrames     int
	MaxFrames         int
	ThumbnailBatch    int
	MinSampleInterval time.Duration
	// MinLivePayload drops live stills of at most this many raw bytes; negative disables the check
	MinLivePayload int

	PhotoQuality float64
	RefDim       float64

	SelectTop int
	Weights   dom.Weights
}

// Defaults mirror the kiosk app's tuning
const (
	DefaultBurstCount        = 50
	DefaultBurstCadence      = 20 * time.Millisecond
	DefaultFaceWait          = 3 * time.Second
	DefaultFacePoll          = 200 * time.Millisecond
	DefaultRecordDuration    = 4 * time.Second
	DefaultExtractFrames     = 100
	DefaultMinGoodFrames     = 30
	DefaultMaxFrames         = 50
	DefaultThumbnailBatch    = 3
	DefaultMinSampleInterval = 100 * time.Millisecond
	DefaultMinLivePayload    = 1500
	DefaultPhotoQuality      = 0.4
)

// DefaultConfig returns the stock budgets
func DefaultConfig() Config { return Config{}.withDefaults() }

func (c Config) withDefaults() Config {
	if c.BurstCount <= 0 {
		c.BurstCount = DefaultBurstCount
	}
	if c.BurstCadence <= 0 {
		c.BurstCadence = DefaultBurstCadence
	}
	if c.FaceWait <= 0 {
		c.FaceWait = DefaultFaceWait
	}
	if c.FacePoll <= 0 {
		c.FacePoll = DefaultFacePoll
	}
	if c.RecordDuration <= 0 {
		c.RecordDuration = DefaultRecordDuration
	}
	if c.ExtractFrames <= 0 {
		c.ExtractFrames = DefaultExtractFrames
	}
	if c.MinGoodFrames <= 0 {
		c.MinGoodFrames = DefaultMinGoodFrames
	}
	if c.MaxFrames <= 0 {
		c.MaxFrames = DefaultMaxFrames
	}
	if c.ThumbnailBatch <= 0 {
		c.ThumbnailBatch = DefaultThumbnailBatch
	}
	if c.MinSampleInterval <= 0 {
		c.MinSampleInterval = DefaultMinSampleInterval
	}
	if c.MinLivePayload < 0 {
		c.MinLivePayload = 0
	} else if c.MinLivePayload == 0 {
		c.MinLivePayload = DefaultMinLivePayload
	}
	if c.PhotoQuality <= 0 || c.PhotoQuality > 1 {
		c.PhotoQuality = DefaultPhotoQuality
	}
	if c.RefDim <= 0 {
		c.RefDim = facegate.DefaultRefDim
	}
	if c.SelectTop <= 0 {
		c.SelectTop = dom.DefaultSelectTop
	}
	if c.Weights == (dom.Weights{}) {
		c.Weights = dom.DefaultWeights
	}
	return c
}

// sampleInterval spaces live stills so that min(ExtractFrames, MaxFrames) fit in one recording
func (c Config) sampleInterval() time.Duration {
	n := min(c.ExtractFrames, c.MaxFrames)
	if n <= 0 {
		n = 1
	}
	return max(c.MinSampleInterval, (c.RecordDuration / time.Duration(n)).Truncate(time.Millisecond))
}

// offsets spans [0, d) at a stride of d/n, floored to whole milliseconds
func offsets(d time.Duration, n int) []time.Duration {
	if d <= 0 {
		return nil
	}
	if n <= 0 {
		n = 1
	}
	step := max(time.Millisecond, (d / time.Duration(n)).Truncate(time.Millisecond))
	out := make([]time.Duration, 0, n+1)
	for t := time.Duration(0); t < d; t += step {
		out = append(out, t)
	}
	return out
}
