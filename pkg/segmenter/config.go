package segmenter

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/vad"
)

type Config struct {
	SampleRate audio.SampleRate `yaml:"sample_rate"`

	// Params are the detection parameters applied to the VAD while
	// the current utterance is not overlong.
	vad.Params `yaml:",inline"`

	// MaxSpeechDuration is the amount of buffered speech after which
	// the VAD is switched to the relaxed parameters to force a cut soon.
	// Non-positive value disables the relaxation.
	MaxSpeechDuration time.Duration `yaml:"max_speech_duration"`

	RelaxedThreshold          float64       `yaml:"relaxed_threshold"`
	RelaxedMinSilenceDuration time.Duration `yaml:"relaxed_min_silence_duration"`

	// BufferDuration defines the capacity of the sample buffer.
	BufferDuration time.Duration `yaml:"buffer_duration"`

	// LookbackWindows is how many windows (in addition to the minimal
	// speech duration) a new segment is back-dated by.
	LookbackWindows int `yaml:"lookback_windows"`
}

func DefaultConfig() Config {
	return Config{
		SampleRate:                16000,
		Params:                    vad.DefaultParams(),
		MaxSpeechDuration:         20 * time.Second,
		RelaxedThreshold:          0.9,
		RelaxedMinSilenceDuration: 100 * time.Millisecond,
		BufferDuration:            60 * time.Second,
		LookbackWindows:           2,
	}
}

func (cfg Config) Validate() error {
	var mErr *multierror.Error
	if cfg.SampleRate == 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("sample_rate is not set"))
	}
	if err := cfg.Params.Validate(); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if cfg.RelaxedThreshold < 0 || cfg.RelaxedThreshold > 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("relaxed_threshold must be within [0, 1], but it is %v", cfg.RelaxedThreshold))
	}
	if cfg.RelaxedMinSilenceDuration < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("relaxed_min_silence_duration must not be negative: %v", cfg.RelaxedMinSilenceDuration))
	}
	if cfg.BufferDuration <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("buffer_duration must be positive: %v", cfg.BufferDuration))
	}
	if cfg.LookbackWindows < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("lookback_windows must not be negative: %d", cfg.LookbackWindows))
	}
	return mErr.ErrorOrNil()
}
