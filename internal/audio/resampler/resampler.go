// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio_resampler

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"

	internal_audio "github.com/rapidaai/voicecollect/internal/audio"
	"github.com/rapidaai/voicecollect/pkg/commons"
)

// Resampler converts mono PCM-16 audio between sample rates.
type Resampler interface {
	// Resample converts samples from srcRate to dstRate. The output always
	// holds exactly round(len(samples) * dstRate / srcRate) samples, so the
	// clip duration is preserved within one sample period.
	Resample(samples []int16, srcRate, dstRate int) ([]int16, error)
}

type sincResampler struct {
	logger commons.Logger
}

// GetResampler returns the windowed-sinc resampler. A fresh conversion
// pipeline is built per call, so repeated conversions of the same input are
// bit-identical.
func GetResampler(logger commons.Logger) (Resampler, error) {
	return &sincResampler{logger: logger}, nil
}

// flushBlock is the zero-block size pushed through the pipeline to drain the
// sinc filter tail after the real input.
const flushBlock = 256

func (r *sincResampler) Resample(samples []int16, srcRate, dstRate int) ([]int16, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("sample rates must be positive, got %d -> %d", srcRate, dstRate)
	}
	if srcRate == dstRate {
		return samples, nil
	}

	expected := int(math.Round(float64(len(samples)) * float64(dstRate) / float64(srcRate)))
	if len(samples) == 0 {
		return []int16{}, nil
	}

	pipeline, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	output, err := pipeline.Process(internal_audio.PCM16ToFloats(samples))
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	// Drain the filter tail with silence until the expected sample count is
	// reached, then pin the length exactly.
	zeros := make([]float64, flushBlock)
	for i := 0; len(output) < expected && i < 64; i++ {
		tail, err := pipeline.Process(zeros)
		if err != nil {
			break
		}
		if len(tail) == 0 {
			continue
		}
		output = append(output, tail...)
	}

	if len(output) > expected {
		output = output[:expected]
	}

	result := make([]int16, expected)
	for i, s := range output {
		result[i] = internal_audio.FloatToPCM16(s)
	}
	// Any shortfall stays zero (silence) so the duration contract holds.
	return result, nil
}
