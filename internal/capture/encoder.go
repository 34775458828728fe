// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"context"
	"fmt"
	"sync"

	internal_audio "github.com/rapidaai/voicecollect/internal/audio"
	"github.com/rapidaai/voicecollect/pkg/commons"
)

// EncoderOption configures an Encoder.
type EncoderOption func(*encoderConfig)

type encoderConfig struct {
	device DeviceConfig
}

// WithDeviceConfig overrides the default device constraints.
func WithDeviceConfig(cfg DeviceConfig) EncoderOption {
	return func(c *encoderConfig) { c.device = cfg }
}

// DefaultDeviceConfig is the capture constraint set for prompt recording:
// 16kHz mono with hardware echo cancellation and noise suppression where
// the platform offers them.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		SampleRate:       16000,
		Channels:         1,
		EchoCancellation: true,
		NoiseSuppression: true,
	}
}

// captureSession owns everything belonging to one device session: the open
// stream, its chunk buffer, and the pump-exit signal. End and Cancel detach
// the whole session under the lock, so a Begin interleaved with a draining
// End can never reach the previous session's buffer.
type captureSession struct {
	stream Stream
	done   chan struct{}
	chunks []Chunk
}

// Encoder drives one input device session at a time: Begin opens the device
// and buffers every arriving compressed chunk in order, End releases the
// device and renders the buffered session as an uncompressed mono WAV
// container, Cancel releases and discards.
//
// Single-session: no two device sessions may be active concurrently on the
// same Encoder, enforced by the state machine below.
type Encoder struct {
	logger     commons.Logger
	driver     Driver
	newDecoder DecoderFactory
	device     DeviceConfig

	mu      sync.Mutex
	session *captureSession
}

// NewEncoder creates a capture encoder over the given platform driver and
// chunk format.
func NewEncoder(logger commons.Logger, driver Driver, newDecoder DecoderFactory, opts ...EncoderOption) *Encoder {
	cfg := encoderConfig{device: DefaultDeviceConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Encoder{
		logger:     logger,
		driver:     driver,
		newDecoder: newDecoder,
		device:     cfg.device,
	}
}

// Begin acquires the input device and starts buffering chunks. Fails with
// ErrAlreadyRecording while a session is active and ErrDeviceAccess when the
// device cannot be acquired.
func (e *Encoder) Begin(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return ErrAlreadyRecording
	}

	stream, err := e.driver.Open(ctx, e.device)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceAccess, err)
	}

	sess := &captureSession{stream: stream, done: make(chan struct{})}
	e.session = sess

	// Pump: append every arriving chunk in order. No chunk is dropped while
	// the session is active; the goroutine exits when the stream closes its
	// channel.
	go func() {
		defer close(sess.done)
		for chunk := range stream.Chunks() {
			e.mu.Lock()
			sess.chunks = append(sess.chunks, chunk)
			e.mu.Unlock()
		}
	}()

	return nil
}

// End stops the device, releases all hardware handles, decodes the buffered
// session and returns it as a mono PCM-16 WAV container. The device is
// released on every exit path, including decode failure. End blocks until
// decode completes. Fails with ErrNotRecording while inactive.
func (e *Encoder) End(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	sess := e.session
	e.session = nil
	e.mu.Unlock()
	if sess == nil {
		return nil, ErrNotRecording
	}

	// Release hardware first: closing the stream closes the chunk channel,
	// which drains the pump.
	if err := sess.stream.Close(); err != nil {
		e.logger.Warnw("failed to close capture stream", "error", err.Error())
	}

	select {
	case <-sess.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// The pump has exited; the done close orders its last append before this
	// read.
	return e.render(sess.chunks)
}

// Cancel stops the device, discards the buffered session, and returns the
// encoder to the inactive state. Calling Cancel while inactive is a no-op.
func (e *Encoder) Cancel() {
	e.mu.Lock()
	sess := e.session
	e.session = nil
	e.mu.Unlock()
	if sess == nil {
		return
	}

	if err := sess.stream.Close(); err != nil {
		e.logger.Warnw("failed to close capture stream", "error", err.Error())
	}
	<-sess.done
}

// Active reports whether a device session is open.
func (e *Encoder) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil
}

// render decodes the buffered chunks into a single mono PCM stream and wraps
// it in a WAV container. Multi-channel decoder output is downmixed by
// per-sample arithmetic mean before quantization.
func (e *Encoder) render(chunks []Chunk) ([]byte, error) {
	decoder, err := e.newDecoder()
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk decoder: %w", err)
	}

	var mono []float32
	for i, chunk := range chunks {
		samples, channels, err := decoder.Decode(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to decode chunk %d of %d: %w", i+1, len(chunks), err)
		}
		frames, err := internal_audio.DownmixMeanFloat(samples, channels)
		if err != nil {
			return nil, fmt.Errorf("failed to downmix chunk %d: %w", i+1, err)
		}
		mono = append(mono, frames...)
	}

	container, err := internal_audio.Encode(internal_audio.FloatsToPCM16(mono), e.device.SampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to encode container: %w", err)
	}

	e.logger.Debugw("capture session rendered",
		"chunks", len(chunks),
		"samples", len(mono),
		"duration", internal_audio.Duration(len(mono), e.device.SampleRate),
	)
	return container, nil
}
