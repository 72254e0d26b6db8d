package observability

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" x-api-key=abc , broken, =empty, tenant=ops ")
	if len(got) != 2 {
		t.Fatalf("len: want=%d got=%d (%v)", 2, len(got), got)
	}
	if got["x-api-key"] != "abc" || got["tenant"] != "ops" {
		t.Fatalf("unexpected headers: %v", got)
	}
	if ParseHeaders("  ") != nil {
		t.Fatalf("expected nil for blank input")
	}
}

func TestClampRatio(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-1, 0},
		{0.25, 0.25},
		{3, 1},
	}
	for _, tc := range cases {
		if got := clampRatio(tc.in); got != tc.want {
			t.Fatalf("clampRatio(%v): want=%v got=%v", tc.in, tc.want, got)
		}
	}
}

func TestInitOTelDisabled(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{Enabled: false})
	if shutdown == nil {
		t.Fatalf("expected non-nil shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	_, span := Tracer().Start(context.Background(), "noop")
	span.End()
}
