// Package hysteresis converts a sequence of per-window speech probabilities
// into a stable speech/silence decision.
//
// A speech onset is kept pending until it lasted for at least the minimum
// speech duration, so short bursts never trigger. Once triggered, the state
// survives probabilities down to Threshold-RecoveryMargin, and releases only
// after the probability stayed below that level for at least the minimum
// silence duration.
package hysteresis

import (
	"fmt"
)

const (
	DefaultRecoveryMargin = 0.15
)

type Params struct {
	Threshold         float64
	RecoveryMargin    float64
	MinSpeechSamples  int
	MinSilenceSamples int
}

func (p Params) Validate() error {
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("threshold must be within [0, 1], but it is %v", p.Threshold)
	}
	if p.RecoveryMargin < 0 || p.RecoveryMargin > p.Threshold {
		return fmt.Errorf("recovery margin must be within [0, threshold=%v], but it is %v", p.Threshold, p.RecoveryMargin)
	}
	if p.MinSpeechSamples < 0 {
		return fmt.Errorf("minimal speech duration must not be negative: %d", p.MinSpeechSamples)
	}
	if p.MinSilenceSamples < 0 {
		return fmt.Errorf("minimal silence duration must not be negative: %d", p.MinSilenceSamples)
	}
	return nil
}

type State int

const (
	StateSilence = State(iota)
	StatePendingSpeech
	StateSpeech
	StatePendingSilence
)

func (s State) String() string {
	switch s {
	case StateSilence:
		return "silence"
	case StatePendingSpeech:
		return "pending_speech"
	case StateSpeech:
		return "speech"
	case StatePendingSilence:
		return "pending_silence"
	}
	return fmt.Sprintf("unknown_state_%d", int(s))
}

type Hysteresis struct {
	Params

	// currentSample is the position right after the last observed window.
	currentSample int64

	// speechStart is where the pending (or confirmed) onset was observed.
	speechStart    int64
	hasSpeechStart bool

	// silenceStart is where the probability dropped below the recovery level.
	silenceStart    int64
	hasSilenceStart bool

	triggered bool
}

func New(params Params) (*Hysteresis, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Hysteresis{Params: params}, nil
}

// Update accounts a window of `advance` new samples which has the given speech
// probability and returns if the stream is considered speech at this point.
func (h *Hysteresis) Update(prob float64, advance int) bool {
	h.currentSample += int64(advance)
	above := prob > h.Threshold

	if above && h.hasSilenceStart {
		h.hasSilenceStart = false
	}

	if !h.triggered {
		switch {
		case above && !h.hasSpeechStart:
			h.speechStart, h.hasSpeechStart = h.currentSample, true
			return false
		case above:
			if h.currentSample-h.speechStart < int64(h.MinSpeechSamples) {
				return false
			}
			h.triggered = true
			return true
		case prob < h.Threshold:
			h.hasSpeechStart = false
			h.hasSilenceStart = false
		}
		return false
	}

	if prob > h.Threshold-h.RecoveryMargin {
		return true
	}

	if !h.hasSilenceStart {
		h.silenceStart, h.hasSilenceStart = h.currentSample, true
	}
	if h.currentSample-h.silenceStart < int64(h.MinSilenceSamples) {
		return true
	}

	h.hasSpeechStart = false
	h.hasSilenceStart = false
	h.triggered = false
	return false
}

func (h *Hysteresis) State() State {
	switch {
	case h.triggered && h.hasSilenceStart:
		return StatePendingSilence
	case h.triggered:
		return StateSpeech
	case h.hasSpeechStart:
		return StatePendingSpeech
	}
	return StateSilence
}

func (h *Hysteresis) SetThreshold(threshold float64) {
	h.Threshold = threshold
}

func (h *Hysteresis) SetMinSilenceSamples(samples int) {
	h.MinSilenceSamples = samples
}

func (h *Hysteresis) Reset() {
	h.currentSample = 0
	h.hasSpeechStart = false
	h.hasSilenceStart = false
	h.triggered = false
}
