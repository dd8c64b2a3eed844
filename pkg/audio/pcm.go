// Package audio decodes the raw speech payload and streams it to a playback sink.
package audio

import (
	"encoding/binary"
	"time"
)

const (
	SampleRate = 24000
	Channels   = 1
)

// Buffer is a decoded waveform with samples in [-1, 1).
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// DecodePCM16 reads 16-bit little-endian signed mono PCM at SampleRate.
// A trailing odd byte is ignored.
func DecodePCM16(data []byte) *Buffer {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return &Buffer{
		Samples:    samples,
		SampleRate: SampleRate,
		Channels:   Channels,
	}
}

// Duration at normal speed.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	frames := len(b.Samples) / b.Channels
	return time.Duration(frames) * time.Second / time.Duration(b.SampleRate)
}
