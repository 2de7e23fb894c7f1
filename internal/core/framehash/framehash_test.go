package framehash

import (
	"encoding/base64"
	"testing"

	kit "enrollcam/internal/platform/testkit"
)

func TestSumEncodedKnownValues(t *testing.T) {
	cases := map[string]string{
		"":   "45h",   // 5381
		"a":  "3t3a",  // 177670
		"AB": "3hn8o", // 5862120
	}
	for in, want := range cases {
		if got := SumEncoded(in); got != want {
			t.Fatalf("SumEncoded(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSumWrapsAt32Bits(t *testing.T) {
	b := kit.SharpBytes(9, 4096)
	h := Sum(b)
	if len(h) == 0 || len(h) > 7 {
		t.Fatalf("32-bit hash rendered as %q", h)
	}
}

func TestSumOnlyReadsPrefix(t *testing.T) {
	a := kit.SharpBytes(1, 2000)
	b := append([]byte(nil), a...)
	b[1500] ^= 0xff
	if Sum(a) != Sum(b) {
		t.Fatalf("bytes past the prefix should not change the hash")
	}
	c := append([]byte(nil), a...)
	c[10] ^= 0xff
	if Sum(a) == Sum(c) {
		t.Fatalf("bytes inside the prefix should change the hash")
	}
}

func TestSumMatchesFullEncoding(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 100, 149, 150, 151, 5000} {
		b := kit.SharpBytes(byte(n), n)
		full := base64.StdEncoding.EncodeToString(b)
		if got, want := Sum(b), SumEncoded(full); got != want {
			t.Fatalf("n=%d: Sum=%q, SumEncoded(full)=%q", n, got, want)
		}
	}
}

func TestSumDeterministic(t *testing.T) {
	b := kit.SharpBytes(3, 900)
	if Sum(b) != Sum(b) {
		t.Fatalf("hash not deterministic")
	}
}
