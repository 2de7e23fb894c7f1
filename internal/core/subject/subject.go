// Package subject normalises the identifier of the person being enrolled
//
// Identifiers arrive from kiosk keyboards, QR scans and HR exports; the same
// employee id can show up in fullwidth digits or with stray format characters.
// Normalize folds those to one canonical form before the id is submitted.
package subject

import (
	"strings"
	"sync"
	"unicode"

	perr "enrollcam/internal/platform/errors"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// MaxLen bounds a normalised identifier in bytes
const MaxLen = 64

var chains = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// Normalize returns the canonical form of id or a validation error
func Normalize(id string) (string, error) {
	id = strings.ToValidUTF8(id, "")
	tr := chains.Get().(transform.Transformer)
	out, _, err := transform.String(tr, id)
	tr.Reset()
	chains.Put(tr)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeValidation, "subject id could not be normalised")
	}
	out = strings.TrimSpace(out)

	switch {
	case out == "":
		return "", perr.Validationf("subject id is required")
	case len(out) > MaxLen:
		return "", perr.Validationf("subject id must be at most %d bytes", MaxLen)
	case strings.IndexFunc(out, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		return "", perr.Validationf("subject id must not contain whitespace")
	}
	return out, nil
}
