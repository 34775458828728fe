// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_normalize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	internal_audio "github.com/rapidaai/voicecollect/internal/audio"
	internal_audio_resampler "github.com/rapidaai/voicecollect/internal/audio/resampler"
	"github.com/rapidaai/voicecollect/pkg/commons"
)

// ErrInvalidDuration reports clips outside the admissible duration range,
// including empty payloads.
var ErrInvalidDuration = errors.New("audio duration out of admissible range")

// Config holds the canonical sample format and the admissible clip bounds.
type Config struct {
	TargetSampleRate int
	TargetChannels   int
	MinDuration      float64 // seconds
	MaxDuration      float64 // seconds
	RecordingsDir    string
}

// Result is a normalized clip ready for storage: canonical-format container
// plus server-derived metadata.
type Result struct {
	Container  []byte
	Duration   float64
	SampleRate int
	Channels   int
	Samples    int
}

// StoredFile describes where Store published a normalized clip.
type StoredFile struct {
	Filename string
	Path     string // absolute
	Size     int64
}

// Normalizer converts uploaded containers into the canonical sample format
// (16kHz mono PCM-16 by default) and persists them atomically.
type Normalizer struct {
	logger    commons.Logger
	cfg       Config
	resampler internal_audio_resampler.Resampler
}

// NewNormalizer builds the normalization service for the given canonical
// format.
func NewNormalizer(logger commons.Logger, cfg Config) (*Normalizer, error) {
	if cfg.TargetSampleRate <= 0 {
		return nil, fmt.Errorf("target sample rate must be positive, got %d", cfg.TargetSampleRate)
	}
	if cfg.TargetChannels != 1 {
		return nil, fmt.Errorf("only mono output is supported, got %d channels", cfg.TargetChannels)
	}
	resampler, err := internal_audio_resampler.GetResampler(logger)
	if err != nil {
		return nil, err
	}
	return &Normalizer{logger: logger, cfg: cfg, resampler: resampler}, nil
}

// Normalize decodes a raw uploaded container, downmixes to mono, resamples
// to the target rate, and validates the result. Duration is derived from the
// normalized payload only; nothing client-declared is trusted.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte) (*Result, error) {
	samples, info, err := internal_audio.Decode(raw)
	if err != nil {
		return nil, err
	}
	if info.DataSize == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDuration)
	}

	mono, err := internal_audio.DownmixMean(samples, info.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to downmix: %w", err)
	}

	if info.SampleRate != n.cfg.TargetSampleRate {
		mono, err = n.resampler.Resample(mono, info.SampleRate, n.cfg.TargetSampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to resample %dHz -> %dHz: %w", info.SampleRate, n.cfg.TargetSampleRate, err)
		}
	}

	duration := internal_audio.Duration(len(mono), n.cfg.TargetSampleRate)
	if duration < n.cfg.MinDuration || duration > n.cfg.MaxDuration {
		return nil, fmt.Errorf("%w: %.2fs not within [%.2fs, %.2fs]",
			ErrInvalidDuration, duration, n.cfg.MinDuration, n.cfg.MaxDuration)
	}

	container, err := internal_audio.Encode(mono, n.cfg.TargetSampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to encode normalized container: %w", err)
	}

	n.logger.Debugw("normalized upload",
		"source_rate", info.SampleRate,
		"source_channels", info.Channels,
		"duration", duration,
	)
	return &Result{
		Container:  container,
		Duration:   duration,
		SampleRate: n.cfg.TargetSampleRate,
		Channels:   1,
		Samples:    len(mono),
	}, nil
}

// Store persists a normalized clip under a collision-free name derived from
// the recording identifier, never from anything client-supplied. The write
// is atomic: the container lands in a uniquely named temporary file which is
// then renamed into place, so concurrent invocations never collide and a
// partial file is never visible.
func (n *Normalizer) Store(ctx context.Context, result *Result, recordingID uint64) (*StoredFile, error) {
	if err := os.MkdirAll(n.cfg.RecordingsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recordings dir: %w", err)
	}

	token := uuid.NewString()
	filename := fmt.Sprintf("rec_%d_%s.wav", recordingID, token)
	finalPath := filepath.Join(n.cfg.RecordingsDir, filename)
	tmpPath := filepath.Join(n.cfg.RecordingsDir, fmt.Sprintf(".rec_%d_%s.tmp", recordingID, token))

	if err := os.WriteFile(tmpPath, result.Container, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to publish %s: %w", filename, err)
	}

	return &StoredFile{
		Filename: filename,
		Path:     finalPath,
		Size:     int64(len(result.Container)),
	}, nil
}
