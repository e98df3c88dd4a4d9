package audio

import (
	"context"
	"fmt"
	"io"
)

// AbstractAnalyzer is the common part of everything that consumes audio
// in a fixed format.
type AbstractAnalyzer interface {
	io.Closer

	Encoding(context.Context) (Encoding, error)
	Channels(context.Context) (Channel, error)
}

// SampleRateOf returns the sample rate the analyzer expects, which is
// only defined for PCM encodings.
func SampleRateOf(
	ctx context.Context,
	analyzer AbstractAnalyzer,
) (SampleRate, error) {
	enc, err := analyzer.Encoding(ctx)
	if err != nil {
		return 0, fmt.Errorf("unable to get the encoding of %T: %w", analyzer, err)
	}
	switch enc := enc.(type) {
	case EncodingPCM:
		return enc.SampleRate, nil
	case *EncodingPCM:
		return enc.SampleRate, nil
	default:
		return 0, fmt.Errorf("encoding %T of %T is not PCM", enc, analyzer)
	}
}
