// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the fixed size of the canonical PCM WAV header.
	HeaderSize = 44

	BytesPerSample = 2  // LINEAR16 → 2 bytes per sample
	BitsPerSample  = 16 // LINEAR16 → 16 bits per sample
	PCMFormat      = 1  // WAV PCM format tag
)

// ErrMalformedContainer reports a container whose magic markers, declared
// chunk sizes, or format tag do not match the canonical PCM WAV layout.
var ErrMalformedContainer = errors.New("malformed audio container")

// Header is the canonical 44-byte PCM WAV header. Field order matches the
// wire layout exactly; it is written and read with binary.LittleEndian.
type Header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + data length
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BytesPerSample
	BlockAlign    uint16 // NumChannels * BytesPerSample
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // payload byte length
}

// Info describes a decoded container without carrying its payload.
type Info struct {
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	Bits       int     `json:"bitsPerSample"`
	Samples    int     `json:"samples"` // frames per channel
	Duration   float64 `json:"durationSeconds"`
	DataSize   int     `json:"dataSizeBytes"`
}

// Encode renders interleaved PCM-16 samples into a WAV container.
func Encode(samples []int16, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("sample count %d is not aligned to %d channels", len(samples), channels)
	}

	dataSize := uint32(len(samples) * BytesPerSample)
	header := Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   PCMFormat,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(channels) * BytesPerSample,
		BlockAlign:    uint16(channels) * BytesPerSample,
		BitsPerSample: BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(samples)*BytesPerSample))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a WAV container into interleaved PCM-16 samples. The
// header-declared payload length must match the actual payload length.
func Decode(data []byte) ([]int16, *Info, error) {
	header, err := parseHeader(data)
	if err != nil {
		return nil, nil, err
	}

	numSamples := int(header.Subchunk2Size) / BytesPerSample
	samples := make([]int16, numSamples)
	reader := bytes.NewReader(data[HeaderSize:])
	if err := binary.Read(reader, binary.LittleEndian, samples); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read audio samples: %v", ErrMalformedContainer, err)
	}
	return samples, headerInfo(header), nil
}

// Validate checks structural integrity without decoding the payload.
func Validate(data []byte) error {
	_, err := parseHeader(data)
	return err
}

// GetInfo extracts container metadata without decoding the payload.
func GetInfo(data []byte) (*Info, error) {
	header, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	return headerInfo(header), nil
}

func headerInfo(header *Header) *Info {
	frames := int(header.Subchunk2Size) / (BytesPerSample * int(header.NumChannels))
	return &Info{
		SampleRate: int(header.SampleRate),
		Channels:   int(header.NumChannels),
		Bits:       int(header.BitsPerSample),
		Samples:    frames,
		Duration:   float64(frames) / float64(header.SampleRate),
		DataSize:   int(header.Subchunk2Size),
	}
}

func parseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrMalformedContainer, HeaderSize, len(data))
	}

	var header Header
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: unreadable header: %v", ErrMalformedContainer, err)
	}

	if string(header.ChunkID[:]) != "RIFF" {
		return nil, fmt.Errorf("%w: missing RIFF marker", ErrMalformedContainer)
	}
	if string(header.Format[:]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing WAVE marker", ErrMalformedContainer)
	}
	if string(header.Subchunk1ID[:]) != "fmt " {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrMalformedContainer)
	}
	if string(header.Subchunk2ID[:]) != "data" {
		return nil, fmt.Errorf("%w: missing data chunk", ErrMalformedContainer)
	}
	if header.Subchunk1Size != 16 {
		return nil, fmt.Errorf("%w: unexpected fmt chunk size %d", ErrMalformedContainer, header.Subchunk1Size)
	}
	if header.AudioFormat != PCMFormat {
		return nil, fmt.Errorf("%w: unsupported format tag %d (only PCM)", ErrMalformedContainer, header.AudioFormat)
	}
	if header.BitsPerSample != BitsPerSample {
		return nil, fmt.Errorf("%w: unsupported bit depth %d (only 16-bit)", ErrMalformedContainer, header.BitsPerSample)
	}
	if header.NumChannels == 0 {
		return nil, fmt.Errorf("%w: zero channel count", ErrMalformedContainer)
	}
	if header.SampleRate == 0 {
		return nil, fmt.Errorf("%w: zero sample rate", ErrMalformedContainer)
	}
	expectedByteRate := header.SampleRate * uint32(header.NumChannels) * BytesPerSample
	if header.ByteRate != expectedByteRate {
		return nil, fmt.Errorf("%w: byte rate %d does not match %d", ErrMalformedContainer, header.ByteRate, expectedByteRate)
	}
	if header.BlockAlign != header.NumChannels*BytesPerSample {
		return nil, fmt.Errorf("%w: block align %d does not match %d", ErrMalformedContainer, header.BlockAlign, header.NumChannels*BytesPerSample)
	}
	if int(header.Subchunk2Size) != len(data)-HeaderSize {
		return nil, fmt.Errorf("%w: declared payload %d bytes, actual %d",
			ErrMalformedContainer, header.Subchunk2Size, len(data)-HeaderSize)
	}
	if header.Subchunk2Size%uint32(header.BlockAlign) != 0 {
		return nil, fmt.Errorf("%w: payload not aligned to %d-byte frames", ErrMalformedContainer, header.BlockAlign)
	}
	return &header, nil
}
