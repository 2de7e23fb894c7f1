package subject

import (
	"strings"
	"testing"

	perr "enrollcam/internal/platform/errors"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"E-1001", "E-1001"},
		{"  E-1001\t", "E-1001"},
		{"Ｅ－１００１", "E-1001"},
		{"E\u200b-10\u200d01", "E-1001"},
		{"64f1c2a9e8b7d6c5b4a39281", "64f1c2a9e8b7d6c5b4a39281"},
		{"emp\xff42", "emp42"},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil || got != c.want {
			t.Fatalf("Normalize(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "\u200b", "E 1001", "E\n1001", strings.Repeat("9", MaxLen+1)} {
		if _, err := Normalize(in); !perr.IsCode(err, perr.ErrorCodeValidation) {
			t.Fatalf("Normalize(%q) err = %v, want validation", in, err)
		}
	}
}
