// Package spectral implements a speech probability model based on the share
// of the spectral energy which falls into the voice band.
package spectral

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/brettbuddin/fourier"
	"github.com/mjibson/go-dsp/window"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/vad"
)

const (
	MinWindowDuration = 32 * time.Millisecond

	VoiceBandLow  = 300.0
	VoiceBandHigh = 3400.0

	// LevelMidpoint is the window level (dBFS) at which the level gate is 0.5;
	// quieter windows are not considered speech regardless of the spectrum.
	LevelMidpoint = -50.0
	LevelSlope    = 3.0
)

type Model struct {
	SampleRate audio.SampleRate
	Window     []float64
	Buffer     []complex128
	BandLow    int
	BandHigh   int
}

var _ vad.Model = (*Model)(nil)

func New(sampleRate audio.SampleRate) (*Model, error) {
	if float64(sampleRate)/2 <= VoiceBandLow {
		return nil, fmt.Errorf("sample rate %d is too low to cover the voice band", sampleRate)
	}
	size := nextPowerOfTwo(sampleRate.SamplesForDuration(MinWindowDuration))
	binWidth := float64(sampleRate) / float64(size)
	return &Model{
		SampleRate: sampleRate,
		Window:     window.Hann(size),
		Buffer:     make([]complex128, size),
		BandLow:    max(int(math.Ceil(VoiceBandLow/binWidth)), 1),
		BandHigh:   min(int(VoiceBandHigh/binWidth), size/2),
	}, nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
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
	return len(m.Window)
}

// WindowShift is a half of the window: consecutive Hann windows overlap
// by 50%.
func (m *Model) WindowShift() int {
	return len(m.Window) / 2
}

func (m *Model) Run(_ context.Context, samples []float32) (float64, error) {
	if len(samples) != len(m.Window) {
		return 0, fmt.Errorf("expected a window of %d samples, received %d", len(m.Window), len(samples))
	}

	var energy float64
	for idx, sample := range samples {
		v := float64(sample)
		energy += v * v
		m.Buffer[idx] = complex(v*m.Window[idx], 0)
	}
	if energy == 0 {
		return 0, nil
	}
	level := 10 * math.Log10(energy/float64(len(samples)))

	if err := fourier.Forward(m.Buffer); err != nil {
		return 0, fmt.Errorf("unable to compute the FFT: %w", err)
	}

	var total, band float64
	for idx := 1; idx <= len(m.Buffer)/2; idx++ {
		c := m.Buffer[idx]
		power := real(c)*real(c) + imag(c)*imag(c)
		total += power
		if idx >= m.BandLow && idx <= m.BandHigh {
			band += power
		}
	}
	if total == 0 {
		return 0, nil
	}

	gate := 1 / (1 + math.Exp(-(level-LevelMidpoint)/LevelSlope))
	return band / total * gate, nil
}

// Reset is a no-op: the model keeps no state between windows.
func (*Model) Reset(context.Context) {}
