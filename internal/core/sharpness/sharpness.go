// Package sharpness is a cheap blur filter over encoded image bytes
//
// It does not decode the image. It samples the base64 transport form of the
// leading bytes and treats a low spread of character codes as a sign of a
// flat, low-detail frame. It is a heuristic, and callers must not treat it as
// an image-quality metric.
package sharpness

import "enrollcam/internal/core/framehash"

const (
	// SampleChars is how many leading base64 characters are considered
	SampleChars = 1200
	// Stride takes every Stride-th character of the sample
	Stride = 3
	// Threshold is the variance a frame must exceed to count as sharp
	Threshold = 60.0
)

// Variance returns the population variance of the sampled character codes and the sample size
func Variance(b []byte) (float64, int) {
	s := framehash.Prefix(b, SampleChars)
	var sum, sumsq float64
	n := 0
	for i := 0; i < len(s); i += Stride {
		v := float64(s[i])
		sum += v
		sumsq += v * v
		n++
	}
	if n == 0 {
		return 0, 0
	}
	mean := sum / float64(n)
	return sumsq/float64(n) - mean*mean, n
}

// IsLikelySharp reports whether b's sampled variance exceeds Threshold; empty input is never sharp
func IsLikelySharp(b []byte) bool {
	v, n := Variance(b)
	return n > 0 && v > Threshold
}
