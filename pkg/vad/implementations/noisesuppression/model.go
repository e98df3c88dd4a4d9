// Package noisesuppression implements a speech probability model on top of
// the voice probability reported by a noise suppressor.
package noisesuppression

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/noisesuppression"
	"github.com/xaionaro-go/vad/pkg/vad"
)

type Model struct {
	noisesuppression.NoiseSuppression
	PCMFormat   audio.PCMFormat
	WindowLen   int
	InputBuffer []byte
	Output      []byte
}

var _ vad.Model = (*Model)(nil)

// New wraps a mono noise suppressor; its window is one chunk of the
// suppressor, and windows do not overlap.
func New(
	ctx context.Context,
	noiseSuppression noisesuppression.NoiseSuppression,
) (*Model, error) {
	channels, err := noiseSuppression.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the amount of channels: %w", err)
	}
	if channels != 1 {
		return nil, fmt.Errorf("only mono noise suppressors are supported, but %T has %d channels", noiseSuppression, channels)
	}
	encoding, err := noiseSuppression.Encoding(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the encoding: %w", err)
	}
	encodingPCM, ok := encoding.(audio.EncodingPCM)
	if !ok {
		return nil, fmt.Errorf("noise suppression encoding is not PCM: %T", encoding)
	}
	sampleSize := encodingPCM.BytesPerSample()
	chunkSize := noiseSuppression.ChunkSize()
	if sampleSize == 0 || chunkSize == 0 || chunkSize%sampleSize != 0 {
		return nil, fmt.Errorf("invalid chunk size %d for sample size %d", chunkSize, sampleSize)
	}
	windowLen := int(chunkSize / sampleSize)
	logger.Debugf(ctx, "noise suppression based model: encoding:%s window:%d", encodingPCM, windowLen)

	return &Model{
		NoiseSuppression: noiseSuppression,
		PCMFormat:        encodingPCM.PCMFormat,
		WindowLen:        windowLen,
		InputBuffer:      make([]byte, chunkSize),
		Output:           make([]byte, chunkSize),
	}, nil
}

func (m *Model) WindowSize() int {
	return m.WindowLen
}

func (m *Model) WindowShift() int {
	return m.WindowLen
}

func (m *Model) Run(ctx context.Context, window []float32) (float64, error) {
	if len(window) != m.WindowLen {
		return 0, fmt.Errorf("expected a window of %d samples, received %d", m.WindowLen, len(window))
	}

	sampleSize := int(m.PCMFormat.Size())
	for idx, sample := range window {
		m.PCMFormat.Encode(m.InputBuffer[idx*sampleSize:], float64(sample))
	}

	voiceConfidence, err := m.NoiseSuppression.SuppressNoise(ctx, m.InputBuffer, m.Output)
	if err != nil {
		return 0, fmt.Errorf("unable to noise-suppress: %w", err)
	}
	return voiceConfidence, nil
}

func (m *Model) Reset(ctx context.Context) {
	resetter, ok := m.NoiseSuppression.(noisesuppression.Resetter)
	if !ok {
		logger.Debugf(ctx, "%T does not support resetting", m.NoiseSuppression)
		return
	}
	if err := resetter.Reset(ctx); err != nil {
		logger.Errorf(ctx, "unable to reset %T: %v", m.NoiseSuppression, err)
	}
}
