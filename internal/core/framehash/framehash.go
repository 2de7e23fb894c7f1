// Package framehash fingerprints frames for duplicate suppression
//
// The fingerprint covers only the leading bytes of the encoded image, read in
// their base64 transport form, so two frames whose headers and first scanlines
// agree collide. That is the intended behaviour: consecutive stills of a
// stationary face typically do.
package framehash

import (
	"encoding/base64"
	"strconv"
)

const (
	// PrefixChars is how many base64 characters are folded into the hash
	PrefixChars = 200

	seed = 5381
)

// Sum returns the base-36 djb2 hash of the first PrefixChars base64 characters of b
func Sum(b []byte) string {
	return SumEncoded(Prefix(b, PrefixChars))
}

// SumEncoded hashes an already base64-encoded string, truncated to PrefixChars
func SumEncoded(s string) string {
	if len(s) > PrefixChars {
		s = s[:PrefixChars]
	}
	h := uint32(seed)
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return strconv.FormatUint(uint64(h), 36)
}

// Prefix returns the first n characters of b's standard base64 encoding without encoding all of b
func Prefix(b []byte, n int) string {
	raw := (n + 3) / 4 * 3
	if raw < len(b) {
		b = b[:raw]
	}
	s := base64.StdEncoding.EncodeToString(b)
	if len(s) > n {
		s = s[:n]
	}
	return s
}
