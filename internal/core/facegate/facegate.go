// Package facegate decides whether a face observation is good enough to capture from
package facegate

import "math"

// Observation is one detector reading of the most prominent face
// Eye values are probabilities in [0,1]; nil means the detector did not report one
type Observation struct {
	Width        float64  `json:"width"`
	Height       float64  `json:"height"`
	LeftEyeOpen  *float64 `json:"left_eye_open,omitempty"`
	RightEyeOpen *float64 `json:"right_eye_open,omitempty"`
	Roll         float64  `json:"roll"`
	Yaw          float64  `json:"yaw"`
}

// Eye is a convenience for building observations
func Eye(p float64) *float64 { return &p }

// Gate holds the live-preview thresholds
type Gate struct {
	// RefDim is the reference viewport dimension; area is compared against RefDim squared
	RefDim       float64
	MinAreaRatio float64
	MinEyeOpen   float64
	MaxAngle     float64
}

// Defaults for the live gate and the fallback thumbnail check
const (
	DefaultRefDim       = 390
	DefaultMinAreaRatio = 0.02
	DefaultMinEyeOpen   = 0.25
	DefaultMaxAngle     = 25
	ThumbnailMinEyeOpen = 0.3
)

// New returns a Gate with the default thresholds for a viewport of refDim
func New(refDim float64) Gate {
	if refDim <= 0 {
		refDim = DefaultRefDim
	}
	return Gate{
		RefDim:       refDim,
		MinAreaRatio: DefaultMinAreaRatio,
		MinEyeOpen:   DefaultMinEyeOpen,
		MaxAngle:     DefaultMaxAngle,
	}
}

// Acceptable reports whether o is large enough, has an open eye and faces the camera
// An absent eye reading counts as closed; a nil observation is never acceptable
func (g Gate) Acceptable(o *Observation) bool {
	if o == nil || g.RefDim <= 0 {
		return false
	}
	area := (o.Width * o.Height) / (g.RefDim * g.RefDim)
	eyes := value(o.LeftEyeOpen) > g.MinEyeOpen || value(o.RightEyeOpen) > g.MinEyeOpen
	angle := math.Abs(o.Roll) < g.MaxAngle && math.Abs(o.Yaw) < g.MaxAngle
	return area > g.MinAreaRatio && eyes && angle
}

// Reason names the first failed check, or "" when o is acceptable
func (g Gate) Reason(o *Observation) string {
	switch {
	case o == nil:
		return "no_face"
	case g.RefDim <= 0 || (o.Width*o.Height)/(g.RefDim*g.RefDim) <= g.MinAreaRatio:
		return "too_small"
	case !(value(o.LeftEyeOpen) > g.MinEyeOpen || value(o.RightEyeOpen) > g.MinEyeOpen):
		return "eyes_closed"
	case !(math.Abs(o.Roll) < g.MaxAngle && math.Abs(o.Yaw) < g.MaxAngle):
		return "head_turned"
	}
	return ""
}

// ThumbnailHasFace is the looser check applied to frames pulled from a finished recording
// A face with either eye above ThumbnailMinEyeOpen passes, and so does a face with no eye readings at all
func ThumbnailHasFace(o *Observation) bool {
	if o == nil {
		return false
	}
	if o.LeftEyeOpen == nil && o.RightEyeOpen == nil {
		return true
	}
	return (o.LeftEyeOpen != nil && *o.LeftEyeOpen > ThumbnailMinEyeOpen) ||
		(o.RightEyeOpen != nil && *o.RightEyeOpen > ThumbnailMinEyeOpen)
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
