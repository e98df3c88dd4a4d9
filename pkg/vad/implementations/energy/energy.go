// Package energy implements a speech probability model based on the
// RMS level of a window relative to an adaptive noise floor.
package energy

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/vad"
)

const (
	WindowDuration = 32 * time.Millisecond

	// InitialNoiseFloor is the RMS level assumed before any window is observed.
	InitialNoiseFloor = 1e-3
	MinNoiseFloor     = 1e-5

	// NoiseFloorRiseRate is the fraction of the difference the noise floor
	// follows per window when the level is above the floor. Going down
	// is immediate.
	NoiseFloorRiseRate = 0.002

	// SNRMidpoint is the signal-to-noise ratio (dB) at which the probability is 0.5.
	SNRMidpoint = 12.0
	SNRSlope    = 3.0
)

type Model struct {
	SampleRate audio.SampleRate
	Size       int
	NoiseFloor float64
}

var _ vad.Model = (*Model)(nil)

func New(sampleRate audio.SampleRate) (*Model, error) {
	size := sampleRate.SamplesForDuration(WindowDuration)
	if size <= 0 {
		return nil, fmt.Errorf("sample rate %d is too low", sampleRate)
	}
	return &Model{
		SampleRate: sampleRate,
		Size:       size,
		NoiseFloor: InitialNoiseFloor,
	}, nil
}

func (*Model) Close() error {
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

func (m *Model) Run(_ context.Context, window []float32) (float64, error) {
	level := RMS(window)

	snr := 20 * math.Log10(max(level, MinNoiseFloor)/m.NoiseFloor)
	prob := 1 / (1 + math.Exp(-(snr-SNRMidpoint)/SNRSlope))

	if level < m.NoiseFloor {
		m.NoiseFloor = max(level, MinNoiseFloor)
	} else {
		m.NoiseFloor += (level - m.NoiseFloor) * NoiseFloorRiseRate
	}
	return prob, nil
}

func (m *Model) Reset(context.Context) {
	m.NoiseFloor = InitialNoiseFloor
}

func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
