package stream

import (
	"testing"
	"time"
)

func TestBackoffDelay_DoublesUntilCap(t *testing.T) {
	base := 1 * time.Second
	max := 60 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 32 * time.Second},
		{7, 60 * time.Second},  // 64s capped
		{8, 60 * time.Second},
		{20, 60 * time.Second},
		{500, 60 * time.Second}, // float overflow collapses to the cap
	}

	for _, tt := range tests {
		if got := backoffDelay(tt.attempt, base, max); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffDelay_AttemptFloor(t *testing.T) {
	base := 1 * time.Second
	max := 60 * time.Second

	if got := backoffDelay(0, base, max); got != base {
		t.Errorf("backoffDelay(0) = %v, want %v", got, base)
	}
	if got := backoffDelay(-4, base, max); got != base {
		t.Errorf("backoffDelay(-4) = %v, want %v", got, base)
	}
}

func TestBackoffDelay_CustomBase(t *testing.T) {
	base := 50 * time.Millisecond
	max := 200 * time.Millisecond

	want := []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		200 * time.Millisecond,
	}
	for i, w := range want {
		if got := backoffDelay(i+1, base, max); got != w {
			t.Errorf("backoffDelay(%d) = %v, want %v", i+1, got, w)
		}
	}
}
