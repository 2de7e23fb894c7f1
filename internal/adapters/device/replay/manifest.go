// Package replay is a camera device backed by files on disk
// A YAML manifest lists the stills to hand out and the frames of the recording
package replay

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	perr "enrollcam/internal/platform/errors"
	dom "enrollcam/internal/services/capture/domain"
)

// Manifest describes one replayable capture
type Manifest struct {
	Permissions struct {
		Camera     bool `yaml:"camera"`
		Microphone bool `yaml:"microphone"`
	} `yaml:"permissions"`

	// Detector reports whether a face detector is available on this device
	Detector bool `yaml:"detector"`
	// Face is the live observation pushed when a session starts
	Face *Face `yaml:"face"`

	Photos []string `yaml:"photos"`
	// StillsWhileRecording false makes CapturePhoto fail during a recording
	StillsWhileRecording bool `yaml:"stills_while_recording"`

	Recording struct {
		URI    string  `yaml:"uri"`
		Frames []Frame `yaml:"frames"`
	} `yaml:"recording"`
}

// Face is the YAML shape of a face observation
type Face struct {
	Width        float64  `yaml:"width"`
	Height       float64  `yaml:"height"`
	LeftEyeOpen  *float64 `yaml:"left_eye_open"`
	RightEyeOpen *float64 `yaml:"right_eye_open"`
	Roll         float64  `yaml:"roll"`
	Yaw          float64  `yaml:"yaw"`
}

// Observation converts f
func (f *Face) Observation() *dom.FaceObservation {
	if f == nil {
		return nil
	}
	return &dom.FaceObservation{
		Width: f.Width, Height: f.Height,
		LeftEyeOpen: f.LeftEyeOpen, RightEyeOpen: f.RightEyeOpen,
		Roll: f.Roll, Yaw: f.Yaw,
	}
}

// Frame is one decodable position in the recording
type Frame struct {
	At   time.Duration `yaml:"at"`
	File string        `yaml:"file"`
}

// DefaultRecordingURI names the recording when the manifest leaves it blank
const DefaultRecordingURI = "replay://recording"

// ParseManifest decodes a manifest document
func ParseManifest(b []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Manifest{}, perr.Wrap(err, perr.ErrorCodeValidation, "invalid replay manifest")
	}
	slices.SortStableFunc(m.Recording.Frames, func(a, b Frame) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return m, nil
}

// Load reads the manifest at path and every file it names
// Relative file names resolve against the manifest's directory
func Load(path string) (*Device, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "read replay manifest %s", path)
	}
	m, err := ParseManifest(b)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	read := func(name string) ([]byte, error) {
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "read replay file %s", name)
		}
		return data, nil
	}

	photos := make([][]byte, 0, len(m.Photos))
	for _, p := range m.Photos {
		data, err := read(p)
		if err != nil {
			return nil, err
		}
		photos = append(photos, data)
	}
	frames := make([][]byte, 0, len(m.Recording.Frames))
	for _, f := range m.Recording.Frames {
		data, err := read(f.File)
		if err != nil {
			return nil, err
		}
		frames = append(frames, data)
	}
	return New(m, photos, frames), nil
}
