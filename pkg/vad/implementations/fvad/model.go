// Package fvad implements a speech probability model on top of the WebRTC
// voice activity detector (libfvad).
//
// The detector makes a binary decision per frame, so the probability is
// always either 0 or 1.
package fvad

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/vad"
)

const (
	DefaultFrameDuration = 30 * time.Millisecond

	// DefaultMode is the most restrictive mode of the detector.
	DefaultMode = 3
)

// Detector is the subset of libfvad used by Model.
type Detector interface {
	SetMode(mode int) error
	SetSampleRate(sampleRate int) error
	Process(frame []int16) (bool, error)

	// Reset also resets the mode and the sample rate.
	Reset()
	Close()
}

func IsSupportedSampleRate(sampleRate audio.SampleRate) bool {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
		return true
	}
	return false
}

func IsSupportedFrameDuration(d time.Duration) bool {
	switch d {
	case 10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond:
		return true
	}
	return false
}

type Model struct {
	Detector   Detector
	SampleRate audio.SampleRate
	Mode       int
	Size       int

	frame []int16
}

var _ vad.Model = (*Model)(nil)

// New takes the ownership of the detector: it is closed by Model.Close.
func New(
	ctx context.Context,
	detector Detector,
	sampleRate audio.SampleRate,
	frameDuration time.Duration,
	mode int,
) (*Model, error) {
	if !IsSupportedSampleRate(sampleRate) {
		return nil, fmt.Errorf("libfvad does not support sample rate %d", sampleRate)
	}
	if !IsSupportedFrameDuration(frameDuration) {
		return nil, fmt.Errorf("libfvad supports only frames of 10, 20 or 30 ms, but %v is requested", frameDuration)
	}
	size := sampleRate.SamplesForDuration(frameDuration)
	m := &Model{
		Detector:   detector,
		SampleRate: sampleRate,
		Mode:       mode,
		Size:       size,
		frame:      make([]int16, size),
	}
	if err := m.configure(); err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "fvad: rate:%d mode:%d frame:%d", sampleRate, mode, size)
	return m, nil
}

func (m *Model) configure() error {
	if err := m.Detector.SetMode(m.Mode); err != nil {
		return fmt.Errorf("unable to set mode %d: %w", m.Mode, err)
	}
	if err := m.Detector.SetSampleRate(int(m.SampleRate)); err != nil {
		return fmt.Errorf("unable to set sample rate %d: %w", m.SampleRate, err)
	}
	return nil
}

func (m *Model) Close() error {
	m.Detector.Close()
	return nil
}

func (m *Model) Encoding(context.Context) (audio.Encoding, error) {
	return audio.EncodingPCM{
		PCMFormat:  audio.PCMFormatFloat32LE,
		SampleRate: m.SampleRate,
	}, nil
}

func (*Model) Channels(context.Context) (audio.Channel, error) {
	return 1, nil
}

func (m *Model) WindowSize() int {
	return m.Size
}

func (m *Model) WindowShift() int {
	return m.Size
}

func (m *Model) Run(ctx context.Context, window []float32) (float64, error) {
	if len(window) != m.Size {
		panic(fmt.Errorf("expected a window of %d samples, but received %d", m.Size, len(window)))
	}
	for idx, sample := range window {
		m.frame[idx] = toInt16(sample)
	}
	isVoice, err := m.Detector.Process(m.frame)
	if err != nil {
		return 0, fmt.Errorf("libfvad is unable to process the frame: %w", err)
	}
	if isVoice {
		return 1, nil
	}
	return 0, nil
}

func (m *Model) Reset(ctx context.Context) {
	m.Detector.Reset()
	if err := m.configure(); err != nil {
		logger.Errorf(ctx, "unable to reconfigure the detector after a reset: %v", err)
	}
}

func toInt16(sample float32) int16 {
	v := math.Round(float64(sample) * 32768)
	return int16(min(max(v, math.MinInt16), math.MaxInt16))
}
