package noisesuppression

import (
	"context"
	"io"

	"github.com/xaionaro-go/vad/pkg/audio"
)

type NoiseSuppression interface {
	io.Closer

	Encoding(context.Context) (audio.Encoding, error)
	Channels(context.Context) (audio.Channel, error)
	ChunkSize() uint

	// SuppressNoise writes the denoised input to outputVoice and returns
	// the probability that the input contains voice.
	SuppressNoise(ctx context.Context, input []byte, outputVoice []byte) (float64, error)
}

// Resetter is implemented by the noise suppressors which are able to
// forget their accumulated state.
type Resetter interface {
	Reset(ctx context.Context) error
}
