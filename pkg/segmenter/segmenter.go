// Package segmenter splits an unbounded stream of audio samples into
// segments of speech.
//
// Samples may be passed in chunks of any size: they are framed into the
// windows of the VAD, every window is classified, and a segment is finalized
// once the VAD reports silence again (or Flush is called). A Segmenter is not
// safe for concurrent use.
package segmenter

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/ringbuffer"
	"github.com/xaionaro-go/vad/pkg/vad"
)

type Segmenter struct {
	config Config
	vad    vad.VAD
	buffer *ringbuffer.RingBuffer

	// carry contains the samples not consumed by a window shift, yet.
	carry []float32

	// start is the absolute index of the beginning of the open segment.
	start  int64
	isOpen bool

	// isOverlong is set while the relaxed VAD parameters are in effect.
	isOverlong          bool
	maxUtteranceSamples int

	segments []SpeechSegment
}

func New(
	ctx context.Context,
	v vad.VAD,
	cfg Config,
) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sampleRate, err := audio.SampleRateOf(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("unable to get the sample rate of the VAD: %w", err)
	}
	if sampleRate != cfg.SampleRate {
		return nil, fmt.Errorf("the VAD requires sample rate %d, but %d is configured", sampleRate, cfg.SampleRate)
	}
	channels, err := v.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the amount of channels of the VAD: %w", err)
	}
	if channels != 1 {
		return nil, fmt.Errorf("only mono VADs are supported, but %T has %d channels", v, channels)
	}

	windowSize, windowShift := v.WindowSize(), v.WindowShift()
	if windowShift <= 0 || windowShift > windowSize {
		return nil, fmt.Errorf("invalid window geometry of %T: size:%d shift:%d", v, windowSize, windowShift)
	}

	s := &Segmenter{
		config:              cfg,
		vad:                 v,
		maxUtteranceSamples: cfg.SampleRate.SamplesForDuration(cfg.MaxSpeechDuration),
	}

	capacity := cfg.SampleRate.SamplesForDuration(cfg.BufferDuration)
	if minCapacity := s.lookbackSamples() + windowSize; capacity < minCapacity {
		return nil, fmt.Errorf("buffer_duration %v (%d samples) is too short, at least %d samples are required", cfg.BufferDuration, capacity, minCapacity)
	}
	s.buffer = ringbuffer.New(capacity)
	s.applyParams(ctx)

	logger.Debugf(ctx, "segmenter: capacity:%d window:%d shift:%d lookback:%d max_utterance:%d", capacity, windowSize, windowShift, s.lookbackSamples(), s.maxUtteranceSamples)
	return s, nil
}

func (s *Segmenter) Config() Config {
	return s.config
}

// lookbackSamples is how far before the first speech window a new segment
// is started; the onset confirmation of the VAD has already consumed that much.
func (s *Segmenter) lookbackSamples() int {
	return s.config.LookbackWindows*s.vad.WindowSize() + s.vad.MinSpeechDurationSamples()
}

// AcceptWaveform processes the next chunk of mono samples.
//
// If the VAD fails, the windows processed before the failure stay in effect
// and the rest of the samples is kept for the next call.
func (s *Segmenter) AcceptWaveform(
	ctx context.Context,
	samples []float32,
) (_err error) {
	logger.Tracef(ctx, "AcceptWaveform, len:%d", len(samples))
	defer func() { logger.Tracef(ctx, "/AcceptWaveform, len:%d: %v", len(samples), _err) }()

	s.carry = append(s.carry, samples...)

	windowSize, windowShift := s.vad.WindowSize(), s.vad.WindowShift()
	offset := 0
	defer func() {
		s.carry = append(s.carry[:0], s.carry[offset:]...)
	}()
	for len(s.carry)-offset >= windowSize {
		if err := s.acceptWindow(ctx, s.carry[offset:offset+windowSize], windowShift); err != nil {
			return err
		}
		offset += windowShift
	}
	return nil
}

func (s *Segmenter) acceptWindow(
	ctx context.Context,
	window []float32,
	shift int,
) error {
	s.applyParams(ctx)

	isSpeech, err := s.vad.IsSpeech(ctx, window)
	if err != nil {
		return fmt.Errorf("unable to classify the window at %d: %w", s.buffer.Tail(), err)
	}

	s.reserve(ctx, shift)
	s.buffer.Push(window[:shift])

	if isSpeech {
		s.onSpeech(ctx)
	} else {
		s.onSilence(ctx)
	}
	return nil
}

// applyParams switches the VAD to the relaxed parameters while the buffered
// utterance is overlong, so that it gets cut at the next short pause.
func (s *Segmenter) applyParams(ctx context.Context) {
	isOverlong := s.maxUtteranceSamples > 0 && s.buffer.Size() > s.maxUtteranceSamples
	if isOverlong != s.isOverlong {
		logger.Debugf(ctx, "overlong utterance: %v (buffered %d samples)", isOverlong, s.buffer.Size())
		s.isOverlong = isOverlong
	}

	if isOverlong {
		s.vad.SetMinSilenceDuration(s.config.RelaxedMinSilenceDuration)
		s.vad.SetThreshold(s.config.RelaxedThreshold)
	} else {
		s.vad.SetMinSilenceDuration(s.config.MinSilenceDuration)
		s.vad.SetThreshold(s.config.Threshold)
	}
}

// reserve makes room for n more samples in the buffer.
func (s *Segmenter) reserve(ctx context.Context, n int) {
	if s.buffer.Free() >= n {
		return
	}

	if !s.isOpen {
		s.buffer.Pop(n - s.buffer.Free())
		return
	}

	logger.Warnf(ctx, "the speech segment started at %d does not fit into the buffer of %d samples, cutting it", s.start, s.buffer.Capacity())
	tail := s.buffer.Tail()
	s.finalize(ctx, tail)
	s.start = tail
}

func (s *Segmenter) onSpeech(ctx context.Context) {
	if s.isOpen {
		return
	}
	s.start = max(s.buffer.Tail()-int64(s.lookbackSamples()), s.buffer.Head())
	s.isOpen = true
	logger.Debugf(ctx, "speech started at %d", s.start)
}

func (s *Segmenter) onSilence(ctx context.Context) {
	if s.isOpen {
		s.finalize(ctx, s.buffer.Tail()-int64(s.vad.MinSilenceDurationSamples()))
		s.isOpen = false
		return
	}

	end := s.buffer.Tail() - int64(s.lookbackSamples())
	if n := end - s.buffer.Head(); n > 0 {
		s.buffer.Pop(int(n))
	}
}

// finalize enqueues the open segment [start, end) and drops everything
// before end from the buffer.
func (s *Segmenter) finalize(ctx context.Context, end int64) {
	if end <= s.start {
		logger.Debugf(ctx, "dropping an empty speech segment [%d, %d)", s.start, end)
	} else {
		segment := SpeechSegment{
			Start:   s.start,
			Samples: s.buffer.Get(s.start, int(end-s.start)),
		}
		logger.Debugf(ctx, "speech segment [%d, %d)", segment.Start, segment.End())
		s.segments = append(s.segments, segment)
	}

	if n := end - s.buffer.Head(); n > 0 {
		s.buffer.Pop(int(n))
	}
}

// Flush finalizes the open segment (if any) including all the accepted
// samples, even those which did not form a complete window, yet.
func (s *Segmenter) Flush(ctx context.Context) {
	logger.Tracef(ctx, "Flush")
	defer logger.Tracef(ctx, "/Flush")

	if !s.isOpen {
		return
	}

	if len(s.carry) > 0 {
		s.reserve(ctx, len(s.carry))
		s.buffer.Push(s.carry)
		s.carry = s.carry[:0]
	}

	s.finalize(ctx, s.buffer.Tail())
	s.isOpen = false
}

// Reset brings the Segmenter to its initial state, dropping all the
// finalized segments which were not popped.
func (s *Segmenter) Reset(ctx context.Context) {
	logger.Tracef(ctx, "Reset")
	defer logger.Tracef(ctx, "/Reset")

	s.segments = nil
	s.vad.Reset(ctx)
	s.buffer.Reset()
	s.carry = s.carry[:0]
	s.start = 0
	s.isOpen = false
	s.isOverlong = false
	s.applyParams(ctx)
}

// Compute returns the raw speech probability of a window, see vad.VAD.
func (s *Segmenter) Compute(ctx context.Context, window []float32) (float64, error) {
	return s.vad.Compute(ctx, window)
}

func (s *Segmenter) IsSpeechDetected() bool {
	return s.isOpen
}

// IsOverlong reports whether the relaxed VAD parameters are in effect.
func (s *Segmenter) IsOverlong() bool {
	return s.isOverlong
}

// CurrentSpeechSegment returns a copy of the speech segment which is
// still in progress.
func (s *Segmenter) CurrentSpeechSegment() (SpeechSegment, bool) {
	if !s.isOpen {
		return SpeechSegment{}, false
	}
	length := max(int(s.buffer.Tail()-s.start)-1, 0)
	return SpeechSegment{
		Start:   s.start,
		Samples: s.buffer.Get(s.start, length),
	}, true
}

func (s *Segmenter) Empty() bool {
	return len(s.segments) == 0
}

func (s *Segmenter) Len() int {
	return len(s.segments)
}

// Front returns the oldest finalized segment without removing it.
func (s *Segmenter) Front() (SpeechSegment, bool) {
	if len(s.segments) == 0 {
		return SpeechSegment{}, false
	}
	return s.segments[0], true
}

// Pop removes the oldest finalized segment and hands it over to the caller.
func (s *Segmenter) Pop() (SpeechSegment, bool) {
	if len(s.segments) == 0 {
		return SpeechSegment{}, false
	}
	segment := s.segments[0]
	s.segments[0] = SpeechSegment{}
	s.segments = s.segments[1:]
	return segment, true
}

// Clear drops all the finalized segments.
func (s *Segmenter) Clear() {
	s.segments = nil
}
