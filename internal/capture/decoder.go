// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"encoding/binary"
	"fmt"

	opus "gopkg.in/hraban/opus.v2"
)

// ChunkDecoder turns one compressed chunk into normalized float32 PCM
// frames, reporting the channel count of the decoded signal. Decoders may be
// stateful across chunks of one session, so the encoder builds a fresh one
// per Begin through a DecoderFactory.
type ChunkDecoder interface {
	Decode(chunk Chunk) (samples []float32, channels int, err error)
}

// DecoderFactory builds a session-scoped ChunkDecoder.
type DecoderFactory func() (ChunkDecoder, error)

// ============================================================================
// Opus
// ============================================================================

// maxOpusFrameMs is the longest frame Opus can carry per packet.
const maxOpusFrameMs = 120

type opusChunkDecoder struct {
	decoder    *opus.Decoder
	sampleRate int
	channels   int
	pcm        []float32
}

// NewOpusDecoderFactory decodes Opus packets, the chunk format produced by
// browser capture. sampleRate and channels describe the decoded signal.
func NewOpusDecoderFactory(sampleRate, channels int) DecoderFactory {
	return func() (ChunkDecoder, error) {
		dec, err := opus.NewDecoder(sampleRate, channels)
		if err != nil {
			return nil, fmt.Errorf("failed to create opus decoder: %w", err)
		}
		return &opusChunkDecoder{
			decoder:    dec,
			sampleRate: sampleRate,
			channels:   channels,
			pcm:        make([]float32, sampleRate*maxOpusFrameMs/1000*channels),
		}, nil
	}
}

func (d *opusChunkDecoder) Decode(chunk Chunk) ([]float32, int, error) {
	n, err := d.decoder.DecodeFloat32(chunk.Data, d.pcm)
	if err != nil {
		return nil, 0, fmt.Errorf("opus decode error: %w", err)
	}
	out := make([]float32, n*d.channels)
	copy(out, d.pcm[:n*d.channels])
	return out, d.channels, nil
}

// ============================================================================
// Raw PCM-16
// ============================================================================

type pcm16ChunkDecoder struct {
	channels int
}

// NewPCM16DecoderFactory passes through little-endian PCM-16 chunks,
// normalizing to float32. Used by native clients that capture uncompressed
// audio, and by tests.
func NewPCM16DecoderFactory(channels int) DecoderFactory {
	return func() (ChunkDecoder, error) {
		if channels <= 0 {
			return nil, fmt.Errorf("channel count must be positive, got %d", channels)
		}
		return &pcm16ChunkDecoder{channels: channels}, nil
	}
}

func (d *pcm16ChunkDecoder) Decode(chunk Chunk) ([]float32, int, error) {
	if len(chunk.Data)%(2*d.channels) != 0 {
		return nil, 0, fmt.Errorf("pcm chunk of %d bytes is not aligned to %d-channel frames", len(chunk.Data), d.channels)
	}
	samples := make([]float32, len(chunk.Data)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(chunk.Data[i*2:]))) / 32768.0
	}
	return samples, d.channels, nil
}
