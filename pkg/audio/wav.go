package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// EncodeWAV writes buf as a 16-bit PCM WAV. rate is applied by scaling the
// declared sample rate, so pitch and speed change together.
func EncodeWAV(w io.Writer, buf *Buffer, rate float64) error {
	if buf == nil {
		return errors.New("audio: nil buffer")
	}
	if rate <= 0 {
		return errors.New("audio: rate must be positive")
	}

	sampleRate := uint32(math.Round(float64(buf.SampleRate) * rate))
	channels := uint16(buf.Channels)
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * uint32(blockAlign)
	dataSize := uint32(len(buf.Samples) * 2)

	header := []interface{}{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + dataSize),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16), // fmt chunk size
		uint16(1),  // PCM
		channels,
		sampleRate,
		byteRate,
		blockAlign,
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	pcm := make([]byte, dataSize)
	for i, s := range buf.Samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(toInt16(s)))
	}
	_, err := w.Write(pcm)
	return err
}

func toInt16(s float32) int16 {
	v := math.Round(float64(s) * 32768)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
