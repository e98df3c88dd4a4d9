package segmenter

import (
	"time"

	"github.com/xaionaro-go/vad/pkg/audio"
)

type SpeechSegment struct {
	// Start is the absolute index of the first sample of the segment
	// within the stream (counting from the last Reset).
	Start   int64
	Samples []float32
}

func (s SpeechSegment) End() int64 {
	return s.Start + int64(len(s.Samples))
}

func (s SpeechSegment) StartTime(sampleRate audio.SampleRate) time.Duration {
	return sampleRate.DurationForSamples(s.Start)
}

func (s SpeechSegment) Duration(sampleRate audio.SampleRate) time.Duration {
	return sampleRate.DurationForSamples(int64(len(s.Samples)))
}
