package prompt

import (
	"bytes"
	"strings"
	"testing"

	"enrollcam/internal/platform/testkit"
)

func TestFixed(t *testing.T) {
	t.Parallel()

	if ok, _ := Fixed(true).ConfirmUnverified(t.Context()); !ok {
		t.Fatal("Fixed(true) declined")
	}
	if ok, _ := Fixed(false).ConfirmUnverified(t.Context()); ok {
		t.Fatal("Fixed(false) accepted")
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"y\n":     true,
		" YES \n": true,
		"n\n":     false,
		"\n":      false,
		"":        false,
		"yes":     true,
	}
	for in, want := range cases {
		var out bytes.Buffer
		got, err := Terminal{In: strings.NewReader(in), Out: &out}.ConfirmUnverified(t.Context())
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: got %v, want %v", in, got, want)
		}
		testkit.MustContain(t, out.String(), "Proceed without live check?")
	}
}
