package audio

import (
	"fmt"
	"time"
)

type SampleRate uint32

func (r SampleRate) SamplesForDuration(d time.Duration) int {
	return int(int64(r) * int64(d) / int64(time.Second))
}

func (r SampleRate) DurationForSamples(samples int64) time.Duration {
	if r == 0 {
		return 0
	}
	return time.Duration(samples * int64(time.Second) / int64(r))
}

type Channel uint

type Encoding interface {
	fmt.Stringer
	BytesPerSample() uint
	BytesForDuration(time.Duration) uint64
}

type EncodingPCM struct {
	PCMFormat
	SampleRate SampleRate
}

var _ Encoding = EncodingPCM{}

func (e EncodingPCM) BytesPerSample() uint {
	return e.PCMFormat.Size()
}

// BytesForDuration returns the amount of bytes a single channel of this
// encoding takes for the given duration.
func (e EncodingPCM) BytesForDuration(d time.Duration) uint64 {
	return uint64(e.SampleRate.SamplesForDuration(d)) * uint64(e.BytesPerSample())
}

func (e EncodingPCM) String() string {
	return fmt.Sprintf("%s@%dHz", e.PCMFormat, e.SampleRate)
}
