package vad

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/vad/hysteresis"
)

type Params struct {
	// Threshold is the speech probability above which a window is speech.
	Threshold float64 `yaml:"threshold"`

	// MinSpeechDuration is how long the probability must stay above
	// the threshold before the speech is confirmed.
	MinSpeechDuration time.Duration `yaml:"min_speech_duration"`

	// MinSilenceDuration is how long the probability must stay below
	// Threshold-RecoveryMargin before the speech is considered finished.
	MinSilenceDuration time.Duration `yaml:"min_silence_duration"`

	RecoveryMargin float64 `yaml:"recovery_margin"`
}

func DefaultParams() Params {
	return Params{
		Threshold:          0.5,
		MinSpeechDuration:  250 * time.Millisecond,
		MinSilenceDuration: 500 * time.Millisecond,
		RecoveryMargin:     hysteresis.DefaultRecoveryMargin,
	}
}

func (p Params) Validate() error {
	if p.MinSpeechDuration < 0 {
		return fmt.Errorf("min_speech_duration must not be negative: %v", p.MinSpeechDuration)
	}
	if p.MinSilenceDuration < 0 {
		return fmt.Errorf("min_silence_duration must not be negative: %v", p.MinSilenceDuration)
	}
	return p.hysteresisParams(1).Validate()
}

func (p Params) hysteresisParams(sampleRate audio.SampleRate) hysteresis.Params {
	return hysteresis.Params{
		Threshold:         p.Threshold,
		RecoveryMargin:    p.RecoveryMargin,
		MinSpeechSamples:  sampleRate.SamplesForDuration(p.MinSpeechDuration),
		MinSilenceSamples: sampleRate.SamplesForDuration(p.MinSilenceDuration),
	}
}
