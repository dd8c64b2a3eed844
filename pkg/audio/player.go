package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"trend-finder-be/internal/pkg/logger"
)

// DefaultFrameSize is 100ms of audio at SampleRate.
const DefaultFrameSize = SampleRate / 10

type StopReason string

const (
	ReasonFinished  StopReason = "finished"
	ReasonStopped   StopReason = "stopped"
	ReasonReplaced  StopReason = "replaced"
	ReasonCancelled StopReason = "cancelled"
	ReasonFailed    StopReason = "failed"
)

type Format struct {
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	Rate       float64 `json:"playbackRate"`
	Samples    int     `json:"samples"`
}

// Sink is the output device. Close is called exactly once per playback, on
// every exit path, including when Start fails.
type Sink interface {
	Start(format Format) error
	WriteFrame(samples []float32) error
	Close(reason StopReason) error
}

type Option func(*Player)

// WithFrameSize sets the number of samples per written frame.
func WithFrameSize(n int) Option {
	return func(p *Player) {
		if n > 0 {
			p.frameSize = n
		}
	}
}

// WithClock replaces time.After for frame pacing.
func WithClock(after func(time.Duration) <-chan time.Time) Option {
	return func(p *Player) {
		p.after = after
	}
}

// Player allows one active playback at a time.
type Player struct {
	mu     sync.Mutex
	active *Playback

	frameSize int
	after     func(time.Duration) <-chan time.Time
	logger    logger.ILogger
}

func NewPlayer(log logger.ILogger, opts ...Option) *Player {
	p := &Player{
		frameSize: DefaultFrameSize,
		after:     time.After,
		logger:    log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type Playback struct {
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu     sync.Mutex
	reason StopReason
}

func newPlayback() *Playback {
	return &Playback{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (pb *Playback) stop(reason StopReason) {
	pb.stopOnce.Do(func() {
		pb.mu.Lock()
		pb.reason = reason
		pb.mu.Unlock()
		close(pb.stopCh)
	})
}

// Done is closed once the sink has been released.
func (pb *Playback) Done() <-chan struct{} {
	return pb.done
}

func (pb *Playback) Reason() StopReason {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.reason
}

// Play cancels the active playback, waits for it to release its sink and then
// streams buf to sink at rate times normal speed.
func (p *Player) Play(ctx context.Context, buf *Buffer, rate float64, sink Sink) (*Playback, error) {
	if buf == nil || sink == nil {
		return nil, errors.New("audio: nil buffer or sink")
	}
	if rate <= 0 {
		sink.Close(ReasonFailed)
		return nil, errors.New("audio: rate must be positive")
	}

	pb := newPlayback()

	p.mu.Lock()
	previous := p.active
	p.active = pb
	p.mu.Unlock()

	if previous != nil {
		previous.stop(ReasonReplaced)
		<-previous.done
	}

	go p.run(ctx, pb, buf, rate, sink)
	return pb, nil
}

// Stop ends the active playback, if any, and waits for its sink to be released.
func (p *Player) Stop() bool {
	p.mu.Lock()
	pb := p.active
	p.mu.Unlock()

	if pb == nil {
		return false
	}
	pb.stop(ReasonStopped)
	<-pb.done
	return true
}

func (p *Player) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

func (p *Player) run(ctx context.Context, pb *Playback, buf *Buffer, rate float64, sink Sink) {
	defer func() {
		p.mu.Lock()
		if p.active == pb {
			p.active = nil
		}
		p.mu.Unlock()
		close(pb.done)
	}()

	reason := p.stream(ctx, pb, buf, rate, sink)
	pb.stop(reason)

	if err := sink.Close(pb.Reason()); err != nil {
		p.logger.Debug("AUDIO", "Sink close failed", map[string]interface{}{"error": err.Error()})
	}
}

func (p *Player) stream(ctx context.Context, pb *Playback, buf *Buffer, rate float64, sink Sink) StopReason {
	err := sink.Start(Format{
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels,
		Rate:       rate,
		Samples:    len(buf.Samples),
	})
	if err != nil {
		p.logger.Warn("AUDIO", "Sink refused playback", map[string]interface{}{"error": err.Error()})
		return ReasonFailed
	}

	step := p.frameSize * buf.Channels
	frameDur := time.Duration(float64(p.frameSize) / (float64(buf.SampleRate) * rate) * float64(time.Second))

	for off := 0; off < len(buf.Samples); off += step {
		select {
		case <-pb.stopCh:
			return ReasonStopped
		case <-ctx.Done():
			return ReasonCancelled
		default:
		}

		end := min(off+step, len(buf.Samples))
		if err := sink.WriteFrame(buf.Samples[off:end]); err != nil {
			p.logger.Warn("AUDIO", "Sink write failed", map[string]interface{}{"error": err.Error()})
			return ReasonFailed
		}

		select {
		case <-pb.stopCh:
			return ReasonStopped
		case <-ctx.Done():
			return ReasonCancelled
		case <-p.after(frameDur):
		}
	}

	return ReasonFinished
}
