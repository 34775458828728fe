package internal_capture

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_audio "github.com/rapidaai/voicecollect/internal/audio"
	"github.com/rapidaai/voicecollect/pkg/commons"
)

type fakeStream struct {
	ch       chan Chunk
	once     sync.Once
	closed   bool
	holdOpen bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{ch: make(chan Chunk, 64)}
}

func (s *fakeStream) Chunks() <-chan Chunk { return s.ch }

func (s *fakeStream) Close() error {
	s.closed = true
	if !s.holdOpen {
		s.finish()
	}
	return nil
}

// finish ends chunk delivery, like a device that has fully stopped.
func (s *fakeStream) finish() {
	s.once.Do(func() { close(s.ch) })
}

type fakeDriver struct {
	stream   *fakeStream
	openErr  error
	holdOpen bool
	gotCfg   DeviceConfig
	opens    int
}

func (d *fakeDriver) Open(_ context.Context, cfg DeviceConfig) (Stream, error) {
	d.opens++
	d.gotCfg = cfg
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.stream = newFakeStream()
	d.stream.holdOpen = d.holdOpen
	return d.stream, nil
}

func testLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(commons.WithLogLevel("error"))
	require.NoError(t, err)
	return logger
}

func pcmChunk(samples ...int16) Chunk {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return Chunk{Data: data}
}

func TestEncoder_SessionRoundTrip(t *testing.T) {
	driver := &fakeDriver{}
	enc := NewEncoder(testLogger(t), driver, NewPCM16DecoderFactory(1))

	require.NoError(t, enc.Begin(context.Background()))
	assert.True(t, enc.Active())
	assert.Equal(t, DefaultDeviceConfig(), driver.gotCfg)

	driver.stream.ch <- pcmChunk(100, -200, 300)
	driver.stream.ch <- pcmChunk(-400, 500)

	container, err := enc.End(context.Background())
	require.NoError(t, err)
	assert.False(t, enc.Active())
	assert.True(t, driver.stream.closed, "device must be released")

	samples, info, err := internal_audio.Decode(container)
	require.NoError(t, err)
	assert.Equal(t, 16000, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, []int16{100, -200, 300, -400, 500}, samples, "chunk order preserved")
}

func TestEncoder_StereoDownmix(t *testing.T) {
	driver := &fakeDriver{}
	enc := NewEncoder(testLogger(t), driver, NewPCM16DecoderFactory(2),
		WithDeviceConfig(DeviceConfig{SampleRate: 16000, Channels: 2}))

	require.NoError(t, enc.Begin(context.Background()))
	driver.stream.ch <- pcmChunk(100, 200, -1000, -2000)

	container, err := enc.End(context.Background())
	require.NoError(t, err)

	samples, _, err := internal_audio.Decode(container)
	require.NoError(t, err)
	assert.Equal(t, []int16{150, -1500}, samples)
}

func TestEncoder_BeginWhileActive(t *testing.T) {
	driver := &fakeDriver{}
	enc := NewEncoder(testLogger(t), driver, NewPCM16DecoderFactory(1))

	require.NoError(t, enc.Begin(context.Background()))
	err := enc.Begin(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRecording)
	assert.Equal(t, 1, driver.opens, "second Begin must not touch the device")

	enc.Cancel()
}

func TestEncoder_EndWhileInactive(t *testing.T) {
	enc := NewEncoder(testLogger(t), &fakeDriver{}, NewPCM16DecoderFactory(1))
	_, err := enc.End(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestEncoder_DeviceAccessFailure(t *testing.T) {
	driver := &fakeDriver{openErr: errors.New("permission denied")}
	enc := NewEncoder(testLogger(t), driver, NewPCM16DecoderFactory(1))

	err := enc.Begin(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceAccess)
	assert.False(t, enc.Active(), "failed Begin leaves the encoder inactive")

	// The encoder stays usable once the device becomes available.
	driver.openErr = nil
	require.NoError(t, enc.Begin(context.Background()))
	enc.Cancel()
}

func TestEncoder_CancelDiscards(t *testing.T) {
	driver := &fakeDriver{}
	enc := NewEncoder(testLogger(t), driver, NewPCM16DecoderFactory(1))

	require.NoError(t, enc.Begin(context.Background()))
	driver.stream.ch <- pcmChunk(1, 2, 3)
	enc.Cancel()

	assert.False(t, enc.Active())
	assert.True(t, driver.stream.closed)

	// A fresh session starts clean.
	require.NoError(t, enc.Begin(context.Background()))
	container, err := enc.End(context.Background())
	require.NoError(t, err)
	samples, _, err := internal_audio.Decode(container)
	require.NoError(t, err)
	assert.Empty(t, samples, "cancelled chunks must not leak into the next session")
}

func TestEncoder_CancelWhileInactive(t *testing.T) {
	enc := NewEncoder(testLogger(t), &fakeDriver{}, NewPCM16DecoderFactory(1))
	enc.Cancel() // no-op
	assert.False(t, enc.Active())
}

// A session that begins while the previous End is still draining must not
// leak its chunks into the previous session's render, and vice versa.
func TestEncoder_EndDoesNotLeakNextSession(t *testing.T) {
	driver := &fakeDriver{holdOpen: true}
	enc := NewEncoder(testLogger(t), driver, NewPCM16DecoderFactory(1))

	require.NoError(t, enc.Begin(context.Background()))
	first := driver.stream
	first.ch <- pcmChunk(1, 2)

	type endResult struct {
		container []byte
		err       error
	}
	results := make(chan endResult, 1)
	go func() {
		container, err := enc.End(context.Background())
		results <- endResult{container, err}
	}()

	// End releases the session before the drain completes, so a new session
	// may begin while the first is still rendering.
	require.Eventually(t, func() bool { return !enc.Active() }, time.Second, time.Millisecond)
	require.NoError(t, enc.Begin(context.Background()))
	second := driver.stream
	second.ch <- pcmChunk(9, 9)

	first.finish()
	res := <-results
	require.NoError(t, res.err)
	samples, _, err := internal_audio.Decode(res.container)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2}, samples, "first session renders only its own chunks")

	second.finish()
	container, err := enc.End(context.Background())
	require.NoError(t, err)
	samples, _, err = internal_audio.Decode(container)
	require.NoError(t, err)
	assert.Equal(t, []int16{9, 9}, samples, "second session renders only its own chunks")
}

func TestEncoder_EmptySession(t *testing.T) {
	driver := &fakeDriver{}
	enc := NewEncoder(testLogger(t), driver, NewPCM16DecoderFactory(1))

	require.NoError(t, enc.Begin(context.Background()))
	container, err := enc.End(context.Background())
	require.NoError(t, err)

	require.NoError(t, internal_audio.Validate(container))
	info, err := internal_audio.GetInfo(container)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Samples, "zero chunks still yield a well-formed container")
}
