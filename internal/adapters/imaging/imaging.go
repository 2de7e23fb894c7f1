// Package imaging re-encodes captured stills to the size the enrollment service expects
package imaging

import (
	"bytes"
	"context"
	"hash/fnv"
	"image"
	"image/jpeg"
	_ "image/png" // thumbnails may arrive as png
	"strconv"

	"golang.org/x/image/draw"

	perr "enrollcam/internal/platform/errors"
	dom "enrollcam/internal/services/capture/domain"
)

// Defaults match the enrollment client: 480px wide at JPEG quality 50
const (
	DefaultWidth   = 480
	DefaultQuality = 50
)

// Resizer scales images down to Width and encodes them as JPEG
type Resizer struct {
	Width   int
	Quality int

	// Fingerprint adds a comment segment after SOI with a digest of the scan
	Fingerprint bool
}

var _ dom.Normalizer = Resizer{}

// NewResizer applies defaults to non-positive values
func NewResizer(width, quality int) Resizer {
	if width <= 0 {
		width = DefaultWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return Resizer{Width: width, Quality: quality}
}

// WithFingerprint returns r with comment stamping on
func (r Resizer) WithFingerprint() Resizer {
	r.Fingerprint = true
	return r
}

// Normalize decodes img, scales it to Width keeping the aspect ratio and re-encodes it
// Images narrower than Width are re-encoded without scaling
func (r Resizer) Normalize(ctx context.Context, img []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "decode image")
	}
	b := src.Bounds()
	var out image.Image = src
	if b.Dx() > r.Width {
		h := max(1, b.Dy()*r.Width/b.Dx())
		dst := image.NewRGBA(image.Rect(0, 0, r.Width, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		out = dst
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: r.Quality}); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "encode jpeg")
	}
	if !r.Fingerprint {
		return buf.Bytes(), nil
	}
	return stamp(buf.Bytes()), nil
}

// stamp inserts a comment segment after SOI holding a digest of the encoded scan
// Frame fingerprints read only the leading bytes, which are otherwise the same
// quantization tables for every frame encoded at one quality and size
func stamp(enc []byte) []byte {
	if len(enc) < 2 {
		return enc
	}
	h := fnv.New64a()
	_, _ = h.Write(enc[2:])
	payload := "frame " + strconv.FormatUint(h.Sum64(), 16)

	seg := len(payload) + 2
	out := make([]byte, 0, len(enc)+seg+2)
	out = append(out, enc[:2]...)
	out = append(out, 0xFF, 0xFE, byte(seg>>8), byte(seg))
	out = append(out, payload...)
	return append(out, enc[2:]...)
}

// Passthrough leaves stills untouched, for devices that already deliver the target format
type Passthrough struct{}

// Normalize returns img
func (Passthrough) Normalize(_ context.Context, img []byte) ([]byte, error) { return img, nil }
