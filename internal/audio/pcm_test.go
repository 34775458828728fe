package internal_audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownmixMean(t *testing.T) {
	tests := []struct {
		name     string
		samples  []int16
		channels int
		want     []int16
	}{
		{"stereo mean", []int16{100, 200, -100, -200}, 2, []int16{150, -150}},
		{"order independent", []int16{200, 100, -200, -100}, 2, []int16{150, -150}},
		{"mono passthrough", []int16{1, 2, 3}, 1, []int16{1, 2, 3}},
		{"four channel", []int16{4, 8, 12, 16}, 4, []int16{10}},
		{"sum exceeds int16", []int16{30000, 30000}, 2, []int16{30000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DownmixMean(tt.samples, tt.channels)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDownmixMean_Invalid(t *testing.T) {
	_, err := DownmixMean([]int16{1, 2, 3}, 2)
	assert.Error(t, err, "misaligned frame")

	_, err = DownmixMean([]int16{1}, 0)
	assert.Error(t, err)
}

func TestDownmixMeanFloat(t *testing.T) {
	got, err := DownmixMeanFloat([]float32{0.5, -0.5, 1.0, 0.0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.0, got[0], 1e-6)
	assert.InDelta(t, 0.5, got[1], 1e-6)
}

// The signed 16-bit range is asymmetric: negative samples scale by 32768 and
// non-negative ones by 32767, so both rails are reachable without overflow.
func TestFloatToPCM16(t *testing.T) {
	tests := []struct {
		name   string
		sample float64
		want   int16
	}{
		{"negative full scale", -1.0, -32768},
		{"positive full scale", 1.0, 32767},
		{"zero", 0.0, 0},
		{"half positive", 0.5, 16384}, // 16383.5 rounds away from zero
		{"half negative", -0.5, -16384},
		{"clamped above", 1.7, 32767},
		{"clamped below", -2.3, -32768},
		{"small negative", -1.0 / 32768.0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FloatToPCM16(tt.sample))
		})
	}
}

func TestFloatsToPCM16(t *testing.T) {
	got := FloatsToPCM16([]float32{-1.0, 0.0, 1.0})
	assert.Equal(t, []int16{-32768, 0, 32767}, got)
}

func TestPCM16ToFloats(t *testing.T) {
	got := PCM16ToFloats([]int16{-32768, 0, 16384})
	require.Len(t, got, 3)
	assert.InDelta(t, -1.0, got[0], 1e-9)
	assert.InDelta(t, 0.0, got[1], 1e-9)
	assert.InDelta(t, 0.5, got[2], 1e-9)
}

func TestDuration(t *testing.T) {
	assert.InDelta(t, 3.5, Duration(56000, 16000), 1e-9)
	assert.InDelta(t, 0.0, Duration(0, 16000), 1e-9)
}
