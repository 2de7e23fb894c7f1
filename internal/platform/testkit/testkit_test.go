package testkit

import (
	"bytes"
	"testing"
)

func TestMustPanic(t *testing.T) {
	t.Parallel()
	MustPanic(t, func() { panic("boom") })
}

func TestMustContain(t *testing.T) {
	t.Parallel()
	MustContain(t, "session cancelled by user", "cancelled")
}

func TestSharpBytesDeterministicPerSeed(t *testing.T) {
	t.Parallel()
	a1 := SharpBytes(1, 64)
	a2 := SharpBytes(1, 64)
	b := SharpBytes(2, 64)
	if !bytes.Equal(a1, a2) {
		t.Fatalf("same seed should give same bytes")
	}
	if bytes.Equal(a1[:8], b[:8]) {
		t.Fatalf("different seeds should differ in prefix")
	}
}

func TestFlatBytes(t *testing.T) {
	t.Parallel()
	b := FlatBytes('A', 10)
	if len(b) != 10 || bytes.Count(b, []byte{'A'}) != 10 {
		t.Fatalf("unexpected flat bytes %q", b)
	}
}

func TestSharpBytesEmpty(t *testing.T) {
	t.Parallel()
	if b := SharpBytes(7, 0); len(b) != 0 {
		t.Fatalf("SharpBytes(7, 0) = %v", b)
	}
}
