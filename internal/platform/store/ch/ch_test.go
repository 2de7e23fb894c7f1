package ch

import (
	"context"
	"strings"
	"testing"
)

func TestBuildClientInfo(t *testing.T) {
	ci := BuildClientInfo(" enrollcam ", "serve")
	if len(ci.Products) != 5 {
		t.Fatalf("products = %d", len(ci.Products))
	}
	if ci.Products[0].Name != "enrollcam" || ci.Products[1].Version != "serve" {
		t.Fatalf("unexpected products %+v", ci.Products)
	}
	if !strings.HasPrefix(ci.Products[2].Version, "go") {
		t.Fatalf("go version = %q", ci.Products[2].Version)
	}
}

func TestOpenRejectsBadDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{URL: "clickhouse://host:notaport/db"}); err == nil {
		t.Fatalf("expected error for bad dsn")
	}
}

func TestNilCloseAndEmptyInsert(t *testing.T) {
	var c *CH
	if err := c.Close(); err != nil {
		t.Fatalf("nil Close = %v", err)
	}
	if err := (&CH{}).Insert(context.Background(), "capture_sessions", nil); err != nil {
		t.Fatalf("empty insert = %v", err)
	}
}
