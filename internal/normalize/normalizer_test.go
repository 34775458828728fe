package internal_normalize

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_audio "github.com/rapidaai/voicecollect/internal/audio"
	"github.com/rapidaai/voicecollect/pkg/commons"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	logger, err := commons.NewApplicationLogger(commons.WithLogLevel("error"))
	require.NoError(t, err)

	n, err := NewNormalizer(logger, Config{
		TargetSampleRate: 16000,
		TargetChannels:   1,
		MinDuration:      0.5,
		MaxDuration:      30.0,
		RecordingsDir:    t.TempDir(),
	})
	require.NoError(t, err)
	return n
}

func container(t *testing.T, samples []int16, rate, channels int) []byte {
	t.Helper()
	data, err := internal_audio.Encode(samples, rate, channels)
	require.NoError(t, err)
	return data
}

func TestNewNormalizer_Invalid(t *testing.T) {
	logger, err := commons.NewApplicationLogger(commons.WithLogLevel("error"))
	require.NoError(t, err)

	_, err = NewNormalizer(logger, Config{TargetSampleRate: 0, TargetChannels: 1})
	assert.Error(t, err)

	_, err = NewNormalizer(logger, Config{TargetSampleRate: 16000, TargetChannels: 2})
	assert.Error(t, err, "only mono output is supported")
}

func TestNormalize_CanonicalPassthrough(t *testing.T) {
	n := testNormalizer(t)

	samples := make([]int16, 16000) // 1s @ 16kHz mono
	for i := range samples {
		samples[i] = int16(i % 1000)
	}

	result, err := n.Normalize(context.Background(), container(t, samples, 16000, 1))
	require.NoError(t, err)

	assert.Equal(t, 16000, result.SampleRate)
	assert.Equal(t, 1, result.Channels)
	assert.Equal(t, 16000, result.Samples)
	assert.InDelta(t, 1.0, result.Duration, 1e-9)

	decoded, info, err := internal_audio.Decode(result.Container)
	require.NoError(t, err)
	assert.Equal(t, 16000, info.SampleRate)
	assert.Equal(t, samples, decoded, "canonical input passes through unchanged")
}

func TestNormalize_StereoDownmix(t *testing.T) {
	n := testNormalizer(t)

	// 1s of stereo at 16kHz: left 100, right 300 on every frame.
	samples := make([]int16, 32000)
	for i := 0; i < len(samples); i += 2 {
		samples[i] = 100
		samples[i+1] = 300
	}

	result, err := n.Normalize(context.Background(), container(t, samples, 16000, 2))
	require.NoError(t, err)
	assert.Equal(t, 16000, result.Samples)

	decoded, _, err := internal_audio.Decode(result.Container)
	require.NoError(t, err)
	for _, s := range decoded {
		assert.Equal(t, int16(200), s, "downmix is the per-frame mean")
	}
}

func TestNormalize_Resamples(t *testing.T) {
	n := testNormalizer(t)

	// 2s @ 8kHz mono must become 2s @ 16kHz.
	result, err := n.Normalize(context.Background(), container(t, make([]int16, 16000), 8000, 1))
	require.NoError(t, err)

	assert.Equal(t, 16000, result.SampleRate)
	assert.Equal(t, 32000, result.Samples)
	assert.InDelta(t, 2.0, result.Duration, 1e-9)

	info, err := internal_audio.GetInfo(result.Container)
	require.NoError(t, err)
	assert.Equal(t, 16000, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
}

func TestNormalize_DurationBounds(t *testing.T) {
	n := testNormalizer(t)

	// 0.25s: below the 0.5s floor.
	_, err := n.Normalize(context.Background(), container(t, make([]int16, 4000), 16000, 1))
	assert.ErrorIs(t, err, ErrInvalidDuration)

	// 31s: above the 30s ceiling.
	_, err = n.Normalize(context.Background(), container(t, make([]int16, 31*16000), 16000, 1))
	assert.ErrorIs(t, err, ErrInvalidDuration)

	// Bounds apply after resampling: 0.25s @ 44.1kHz stays 0.25s.
	_, err = n.Normalize(context.Background(), container(t, make([]int16, 11025), 44100, 1))
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestNormalize_EmptyPayload(t *testing.T) {
	n := testNormalizer(t)
	_, err := n.Normalize(context.Background(), container(t, []int16{}, 16000, 1))
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestNormalize_MalformedContainer(t *testing.T) {
	n := testNormalizer(t)

	_, err := n.Normalize(context.Background(), []byte("not a wav file"))
	assert.ErrorIs(t, err, internal_audio.ErrMalformedContainer)
}

func TestStore(t *testing.T) {
	n := testNormalizer(t)

	result, err := n.Normalize(context.Background(), container(t, make([]int16, 16000), 16000, 1))
	require.NoError(t, err)

	stored, err := n.Store(context.Background(), result, 42)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Filename, "rec_42_"), "name is derived from the recording id")
	assert.True(t, strings.HasSuffix(stored.Filename, ".wav"))
	assert.Equal(t, int64(len(result.Container)), stored.Size)

	data, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, result.Container, data)

	// No temporary files survive a successful publish.
	entries, err := os.ReadDir(filepath.Dir(stored.Path))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"))
	}
}

func TestStore_CollisionFree(t *testing.T) {
	n := testNormalizer(t)

	result, err := n.Normalize(context.Background(), container(t, make([]int16, 16000), 16000, 1))
	require.NoError(t, err)

	first, err := n.Store(context.Background(), result, 7)
	require.NoError(t, err)
	second, err := n.Store(context.Background(), result, 7)
	require.NoError(t, err)

	assert.NotEqual(t, first.Filename, second.Filename, "same recording id twice must not collide")
	assert.FileExists(t, first.Path)
	assert.FileExists(t, second.Path)
}
