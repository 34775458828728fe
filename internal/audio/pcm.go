// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import (
	"fmt"
	"math"
)

// DownmixMean reduces interleaved multi-channel PCM-16 to mono by taking the
// arithmetic mean of each frame across channels. A single-channel input is
// returned as-is.
func DownmixMean(samples []int16, channels int) ([]int16, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if channels == 1 {
		return samples, nil
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("sample count %d is not aligned to %d channels", len(samples), channels)
	}

	frames := len(samples) / channels
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		mono[i] = int16(sum / int32(channels))
	}
	return mono, nil
}

// DownmixMeanFloat is DownmixMean over normalized float32 frames, used on the
// capture path before quantization.
func DownmixMeanFloat(samples []float32, channels int) ([]float32, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if channels == 1 {
		return samples, nil
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("sample count %d is not aligned to %d channels", len(samples), channels)
	}

	frames := len(samples) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += samples[i*channels+ch]
		}
		mono[i] = sum / float32(channels)
	}
	return mono, nil
}

// FloatToPCM16 quantizes one normalized sample to signed 16-bit. The input is
// clamped to [-1, 1] first; negative values scale by 32768 and non-negative
// values by 32767 (the signed integer range is asymmetric), rounding to the
// nearest integer.
func FloatToPCM16(sample float64) int16 {
	if sample < -1.0 {
		sample = -1.0
	} else if sample > 1.0 {
		sample = 1.0
	}
	if sample < 0 {
		return int16(math.Round(sample * 32768))
	}
	return int16(math.Round(sample * 32767))
}

// FloatsToPCM16 quantizes a normalized float32 buffer with FloatToPCM16.
func FloatsToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = FloatToPCM16(float64(s))
	}
	return out
}

// PCM16ToFloats expands PCM-16 samples to normalized float64, the working
// format of the resampler.
func PCM16ToFloats(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / 32768.0
	}
	return out
}

// Duration computes clip length in seconds from frame count and rate.
func Duration(frames, sampleRate int) float64 {
	return float64(frames) / float64(sampleRate)
}
