package vad

import (
	"context"
	"time"

	"github.com/xaionaro-go/vad/pkg/audio"
)

// VAD is a stateful frame classifier: it is fed consecutive windows of
// mono float32 samples and tells which of them belong to speech.
//
// Implementations are not safe for concurrent use.
type VAD interface {
	audio.AbstractAnalyzer

	// WindowSize is the amount of samples in each window passed to IsSpeech.
	WindowSize() int

	// WindowShift is the hop between consecutive windows; it is never
	// larger than WindowSize, the difference is the overlap between windows.
	WindowShift() int

	MinSpeechDurationSamples() int
	MinSilenceDurationSamples() int

	// IsSpeech classifies the next window (of exactly WindowSize samples).
	IsSpeech(ctx context.Context, window []float32) (bool, error)

	// Compute returns the raw speech probability of the window, without
	// updating the speech/silence decision state.
	Compute(ctx context.Context, window []float32) (float64, error)

	Reset(ctx context.Context)
	SetThreshold(threshold float64)
	SetMinSilenceDuration(d time.Duration)
}

// Model is a stateful per-window speech probability estimator.
type Model interface {
	audio.AbstractAnalyzer

	WindowSize() int
	WindowShift() int

	// Run returns the probability (in [0, 1]) that the window contains speech,
	// and updates the internal (e.g. recurrent) state of the model.
	Run(ctx context.Context, window []float32) (float64, error)

	// Reset clears the internal state of the model.
	Reset(ctx context.Context)
}
