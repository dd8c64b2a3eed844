package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"trend-finder-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	started  bool
	frames   int
	samples  int
	closes   int
	reason   StopReason
	format   Format
	startErr error
	firstW   chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{firstW: make(chan struct{}, 1)}
}

func (s *recordingSink) Start(f Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	s.format = f
	return s.startErr
}

func (s *recordingSink) WriteFrame(samples []float32) error {
	s.mu.Lock()
	s.frames++
	s.samples += len(samples)
	s.mu.Unlock()
	select {
	case s.firstW <- struct{}{}:
	default:
	}
	return nil
}

func (s *recordingSink) Close(reason StopReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	s.reason = reason
	return nil
}

func (s *recordingSink) snapshot() (frames, samples, closes int, reason StopReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames, s.samples, s.closes, s.reason
}

func instantClock(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// neverClock holds every frame so tests can stop a playback mid-stream.
func neverClock(time.Duration) <-chan time.Time {
	return nil
}

func pcmOf(samples ...int16) []byte {
	var buf bytes.Buffer
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

func TestDecodePCM16(t *testing.T) {
	data := append(pcmOf(0, -32768, 16384, 32767), 0x01)

	buf := DecodePCM16(data)

	require.Len(t, buf.Samples, 4)
	assert.Equal(t, float32(0), buf.Samples[0])
	assert.Equal(t, float32(-1), buf.Samples[1])
	assert.Equal(t, float32(0.5), buf.Samples[2])
	assert.InDelta(t, 0.99997, buf.Samples[3], 1e-4)
	assert.Equal(t, SampleRate, buf.SampleRate)
	assert.Equal(t, 1, buf.Channels)
}

func TestDuration(t *testing.T) {
	buf := DecodePCM16(make([]byte, SampleRate*2))
	assert.Equal(t, time.Second, buf.Duration())
}

func TestEncodeWAVScalesSampleRate(t *testing.T) {
	buf := DecodePCM16(pcmOf(0, 16384, -16384))

	var out bytes.Buffer
	require.NoError(t, EncodeWAV(&out, buf, 1.5))

	b := out.Bytes()
	require.Len(t, b, 44+6)
	assert.Equal(t, "RIFF", string(b[0:4]))
	assert.Equal(t, "WAVE", string(b[8:12]))
	assert.Equal(t, uint32(36000), binary.LittleEndian.Uint32(b[24:28]))
	assert.Equal(t, "data", string(b[36:40]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(b[40:44]))
	assert.Equal(t, pcmOf(0, 16384, -16384), b[44:])

	assert.Error(t, EncodeWAV(&out, buf, 0))
}

func TestPlayFinishes(t *testing.T) {
	player := NewPlayer(logger.NewNopLogger(), WithFrameSize(10), WithClock(instantClock))
	sink := newRecordingSink()

	pb, err := player.Play(context.Background(), DecodePCM16(make([]byte, 25*2)), 1.25, sink)
	require.NoError(t, err)
	<-pb.Done()

	frames, samples, closes, reason := sink.snapshot()
	assert.Equal(t, 3, frames)
	assert.Equal(t, 25, samples)
	assert.Equal(t, 1, closes)
	assert.Equal(t, ReasonFinished, reason)
	assert.Equal(t, 1.25, sink.format.Rate)
	assert.False(t, player.Active())
}

func TestStopThenImmediateReplay(t *testing.T) {
	player := NewPlayer(logger.NewNopLogger(), WithFrameSize(10), WithClock(neverClock))
	long := DecodePCM16(make([]byte, 1000*2))

	first := newRecordingSink()
	_, err := player.Play(context.Background(), long, 1, first)
	require.NoError(t, err)
	<-first.firstW

	assert.True(t, player.Stop())
	_, _, closes, reason := first.snapshot()
	assert.Equal(t, 1, closes)
	assert.Equal(t, ReasonStopped, reason)
	assert.False(t, player.Active())
	assert.False(t, player.Stop())

	second := newRecordingSink()
	_, err = player.Play(context.Background(), long, 1, second)
	require.NoError(t, err)
	<-second.firstW
	assert.True(t, player.Active())
	player.Stop()
}

func TestPlayReplacesActive(t *testing.T) {
	player := NewPlayer(logger.NewNopLogger(), WithFrameSize(10), WithClock(neverClock))
	long := DecodePCM16(make([]byte, 1000*2))

	first := newRecordingSink()
	_, err := player.Play(context.Background(), long, 1, first)
	require.NoError(t, err)
	<-first.firstW

	second := newRecordingSink()
	_, err = player.Play(context.Background(), long, 1, second)
	require.NoError(t, err)

	_, _, closes, reason := first.snapshot()
	assert.Equal(t, 1, closes)
	assert.Equal(t, ReasonReplaced, reason)

	player.Stop()
	_, _, closes, _ = second.snapshot()
	assert.Equal(t, 1, closes)
}

func TestSinkReleasedOnFailedStart(t *testing.T) {
	player := NewPlayer(logger.NewNopLogger(), WithClock(instantClock))
	sink := newRecordingSink()
	sink.startErr = errors.New("device busy")

	pb, err := player.Play(context.Background(), DecodePCM16(make([]byte, 100)), 1, sink)
	require.NoError(t, err)
	<-pb.Done()

	frames, _, closes, reason := sink.snapshot()
	assert.Zero(t, frames)
	assert.Equal(t, 1, closes)
	assert.Equal(t, ReasonFailed, reason)
	assert.Equal(t, ReasonFailed, pb.Reason())
}

func TestContextCancelStopsPlayback(t *testing.T) {
	player := NewPlayer(logger.NewNopLogger(), WithFrameSize(10), WithClock(neverClock))
	sink := newRecordingSink()
	ctx, cancel := context.WithCancel(context.Background())

	pb, err := player.Play(ctx, DecodePCM16(make([]byte, 1000)), 1, sink)
	require.NoError(t, err)
	<-sink.firstW
	cancel()
	<-pb.Done()

	_, _, closes, reason := sink.snapshot()
	assert.Equal(t, 1, closes)
	assert.Equal(t, ReasonCancelled, reason)
}

func TestPlayRejectsBadRate(t *testing.T) {
	player := NewPlayer(logger.NewNopLogger())
	sink := newRecordingSink()

	_, err := player.Play(context.Background(), DecodePCM16(nil), 0, sink)
	assert.Error(t, err)
	_, _, closes, _ := sink.snapshot()
	assert.Equal(t, 1, closes)
}
