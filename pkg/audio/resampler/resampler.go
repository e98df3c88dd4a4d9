// Package resampler converts a PCM byte stream to another sample format,
// channel layout and sample rate.
package resampler

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/xaionaro-go/vad/pkg/audio"
)

const (
	distanceStep = 10000
)

type Format struct {
	Channels   audio.Channel
	SampleRate audio.SampleRate
	PCMFormat  audio.PCMFormat
}

func (f Format) Validate() error {
	if f.Channels == 0 {
		return fmt.Errorf("the amount of channels is zero")
	}
	if f.SampleRate == 0 {
		return fmt.Errorf("the sample rate is zero")
	}
	if f.PCMFormat.Size() == 0 {
		return fmt.Errorf("invalid PCM format %v", f.PCMFormat)
	}
	return nil
}

// FrameSize is the size of one sample of all the channels.
func (f Format) FrameSize() uint {
	return f.PCMFormat.Size() * uint(f.Channels)
}

func (f Format) String() string {
	return fmt.Sprintf("%s@%dHz*%dch", f.PCMFormat, f.SampleRate, f.Channels)
}

// Resampler is an io.Reader of outFormat samples converted from inReader.
//
// Channels of a frame are averaged and the result is written to every
// output channel; the sample rate is converted by dropping or repeating frames.
type Resampler struct {
	inReader  io.Reader
	inFormat  Format
	outFormat Format
	locker    sync.Mutex

	inDistance  uint64
	outDistance uint64

	// buffer[:pending] is the input which is read, but not converted, yet.
	buffer  []byte
	pending int
	inEOF   error

	inFrameSize     int
	outFrameSize    int
	outDistanceStep uint64
}

var _ io.Reader = (*Resampler)(nil)

func NewResampler(
	inFormat Format,
	inReader io.Reader,
	outFormat Format,
) (*Resampler, error) {
	if err := inFormat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input format %s: %w", inFormat, err)
	}
	if err := outFormat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid output format %s: %w", outFormat, err)
	}
	if inFormat.Channels != outFormat.Channels && inFormat.Channels != 1 && outFormat.Channels != 1 {
		return nil, fmt.Errorf("do not know how to convert %d channels to %d", inFormat.Channels, outFormat.Channels)
	}

	return &Resampler{
		inReader:        inReader,
		inFormat:        inFormat,
		outFormat:       outFormat,
		inFrameSize:     int(inFormat.FrameSize()),
		outFrameSize:    int(outFormat.FrameSize()),
		outDistanceStep: distanceStep * uint64(inFormat.SampleRate) / uint64(outFormat.SampleRate),
	}, nil
}

func (r *Resampler) InputFormat() Format {
	return r.inFormat
}

func (r *Resampler) OutputFormat() Format {
	return r.outFormat
}

func (r *Resampler) Read(p []byte) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	maxOutFrames := len(p) / r.outFrameSize
	if maxOutFrames == 0 {
		return 0, nil
	}

	if r.inEOF == nil {
		framesToRead := max(uint64(maxOutFrames)*uint64(r.inFormat.SampleRate)/uint64(r.outFormat.SampleRate), 1)
		bufSize := r.pending + int(framesToRead)*r.inFrameSize
		if len(r.buffer) < bufSize {
			buffer := make([]byte, bufSize)
			copy(buffer, r.buffer[:r.pending])
			r.buffer = buffer
		}
		n, err := r.inReader.Read(r.buffer[r.pending:bufSize])
		r.pending += n
		if err != nil {
			r.inEOF = err
		}
	}

	inFrames := r.pending / r.inFrameSize
	if inFrames == 0 {
		if r.inEOF != nil {
			if r.pending != 0 && errors.Is(r.inEOF, io.EOF) {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, r.inEOF
		}
		return 0, nil
	}

	srcIdx, dstIdx := 0, 0
	for srcIdx < inFrames && dstIdx < maxOutFrames {
		for r.inDistance < r.outDistance && srcIdx < inFrames {
			srcIdx++
			r.inDistance += distanceStep
		}
		if srcIdx >= inFrames {
			break
		}

		value := r.readFrame(r.buffer[srcIdx*r.inFrameSize:])
		for dstIdx < maxOutFrames && r.outDistance <= r.inDistance {
			r.writeFrame(p[dstIdx*r.outFrameSize:], value)
			dstIdx++
			r.outDistance += r.outDistanceStep
		}
		if r.outDistance <= r.inDistance {
			// the output is full, but this frame is still to be repeated
			break
		}

		srcIdx++
		r.inDistance += distanceStep
	}

	consumed := srcIdx * r.inFrameSize
	r.pending = copy(r.buffer, r.buffer[consumed:r.pending])
	return dstIdx * r.outFrameSize, nil
}

func (r *Resampler) readFrame(frame []byte) float64 {
	sampleSize := int(r.inFormat.PCMFormat.Size())
	var sum float64
	for channelIdx := 0; channelIdx < int(r.inFormat.Channels); channelIdx++ {
		sum += r.inFormat.PCMFormat.Decode(frame[channelIdx*sampleSize:])
	}
	return sum / float64(r.inFormat.Channels)
}

func (r *Resampler) writeFrame(frame []byte, value float64) {
	sampleSize := int(r.outFormat.PCMFormat.Size())
	for channelIdx := 0; channelIdx < int(r.outFormat.Channels); channelIdx++ {
		r.outFormat.PCMFormat.Encode(frame[channelIdx*sampleSize:], value)
	}
}
