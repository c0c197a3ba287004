package model_test

import (
	"testing"
	"time"

	"github.com/ogulcanaydogan/traffic-guardian/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestBytesToGB(t *testing.T) {
	tests := []struct {
		name  string
		bytes uint64
		want  float64
	}{
		{"zero", 0, 0},
		{"one GiB", 1 << 30, 1.0},
		{"half GiB", 1 << 29, 0.5},
		{"one TiB", 1 << 40, 1024.0},
		{"one MiB", 1 << 20, 1.0 / 1024.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, model.BytesToGB(tt.bytes), 1e-9)
		})
	}
}

func TestBytesToGB_BinaryNotDecimal(t *testing.T) {
	// 1 GB decimal (10^9 bytes) must come out below 1.0 under the binary
	// factor. Guards against accidentally switching conventions.
	got := model.BytesToGB(1_000_000_000)
	assert.Less(t, got, 1.0)
	assert.InDelta(t, 0.9313, got, 0.001)
}

func TestPeriodKey(t *testing.T) {
	assert.Equal(t, "2025-04", model.PeriodKey(time.Date(2025, 4, 13, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-12", model.PeriodKey(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)))

	// Adjacent months produce distinct keys across a rollover boundary.
	jan31 := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
	feb1 := time.Date(2026, 2, 1, 0, 30, 0, 0, time.UTC)
	assert.NotEqual(t, model.PeriodKey(jan31), model.PeriodKey(feb1))
}
