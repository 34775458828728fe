// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"context"
	"errors"
)

// Capture error taxonomy. Callers branch with errors.Is; none of these are
// retried automatically.
var (
	// ErrDeviceAccess reports that the input device could not be acquired
	// (permission denied, no device, device busy).
	ErrDeviceAccess = errors.New("audio input device unavailable")
	// ErrAlreadyRecording reports Begin while a session is active.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNotRecording reports End or chunk delivery while inactive.
	ErrNotRecording = errors.New("no recording in progress")
)

// DeviceConfig is the capture constraint set requested from the driver.
// Echo cancellation and noise suppression are best-effort: drivers apply
// them where the platform supports it.
type DeviceConfig struct {
	SampleRate       int
	Channels         int
	EchoCancellation bool
	NoiseSuppression bool
}

// Chunk is one compressed audio fragment delivered by the device stream, in
// arrival order.
type Chunk struct {
	Data []byte
}

// Stream is an open device session. Chunks delivers fragments until Close;
// the channel is closed once the device has fully stopped.
type Stream interface {
	Chunks() <-chan Chunk
	Close() error
}

// Driver is the platform audio capability: anything that can open a
// microphone-like device under the given constraints. Browser media APIs,
// native capture backends, and test fakes all sit behind this interface.
type Driver interface {
	Open(ctx context.Context, cfg DeviceConfig) (Stream, error)
}
