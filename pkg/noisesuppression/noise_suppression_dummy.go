package noisesuppression

import (
	"context"

	"github.com/xaionaro-go/vad/pkg/audio"
)

// Dummy passes the input through and reports a voice probability
// computed by VoiceProbabilityFunc (or 1 if it is nil).
type Dummy struct {
	EncodingValue        audio.Encoding
	ChannelsValue        audio.Channel
	ChunkSizeValue       uint
	VoiceProbabilityFunc func(input []byte) float64
	ResetCount           int
}

var (
	_ NoiseSuppression = (*Dummy)(nil)
	_ Resetter         = (*Dummy)(nil)
)

func NewDummy(
	encoding audio.Encoding,
	channels audio.Channel,
	chunkSize uint,
) *Dummy {
	return &Dummy{
		EncodingValue:  encoding,
		ChannelsValue:  channels,
		ChunkSizeValue: chunkSize,
	}
}

func (s *Dummy) Close() error {
	return nil
}

func (s *Dummy) Encoding(context.Context) (audio.Encoding, error) {
	return s.EncodingValue, nil
}

func (s *Dummy) Channels(context.Context) (audio.Channel, error) {
	return s.ChannelsValue, nil
}

func (s *Dummy) ChunkSize() uint {
	return s.ChunkSizeValue
}

func (s *Dummy) SuppressNoise(_ context.Context, input []byte, outputVoice []byte) (float64, error) {
	copy(outputVoice, input)
	if s.VoiceProbabilityFunc == nil {
		return 1, nil
	}
	return s.VoiceProbabilityFunc(input), nil
}

func (s *Dummy) Reset(context.Context) error {
	s.ResetCount++
	return nil
}
