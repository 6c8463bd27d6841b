package config

import (
	"testing"
	"time"
)

func TestEpoch(t *testing.T) {
	cfg := &Config{EpochSeconds: 300}

	tests := []struct {
		unix int64
		want int64
	}{
		{0, 0},
		{299, 0},
		{300, 1},
		{3600, 12}, // one hour is twelve epochs
		{301500, 1005},
	}

	for _, tt := range tests {
		got := cfg.Epoch(time.Unix(tt.unix, 0))
		if got != tt.want {
			t.Errorf("Epoch(unix=%d) = %d, want %d", tt.unix, got, tt.want)
		}
	}
}

func TestEpochZeroConfigFallsBack(t *testing.T) {
	cfg := &Config{}
	if got := cfg.Epoch(time.Unix(600, 0)); got != 2 {
		t.Errorf("Epoch with zero EpochSeconds = %d, want 2", got)
	}
}
