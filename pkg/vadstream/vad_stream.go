// Package vadstream feeds a segmenter from a byte stream of PCM samples.
//
// Writers (e.g. a capturing goroutine) and the segmenter are decoupled by
// a circular buffer: Write only copies the data, while a single consumer
// goroutine decodes it, runs the VAD and publishes the finalized segments.
package vadstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/iamcalledrob/circular"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/segmenter"
)

const (
	DefaultSegmentsQueueSize = 16
)

var (
	ErrClosed = errors.New("the stream is closed")
)

type VADStream struct {
	segmenter  *segmenter.Segmenter
	pcmFormat  audio.PCMFormat
	bufferSize int
	ctx        context.Context

	inputBufferLocker sync.Mutex
	inputBuffer       *circular.Buffer
	inputClosed       bool

	writeProgressedCh   chan struct{}
	consumeProgressedCh chan struct{}

	segmentsCh chan segmenter.SpeechSegment
	doneCh     chan struct{}

	resultErrorLocker sync.Mutex
	resultError       error
}

var (
	_ io.WriteCloser = (*VADStream)(nil)
	_ io.ReaderFrom  = (*VADStream)(nil)
)

// New starts the consumer goroutine. The segmenter must not be used by
// anything else until Segments is closed.
//
// Samples are mono in pcmFormat at the sample rate of the segmenter.
func New(
	ctx context.Context,
	seg *segmenter.Segmenter,
	pcmFormat audio.PCMFormat,
	bufferSize uint,
) (*VADStream, error) {
	sampleSize := pcmFormat.Size()
	if sampleSize == 0 {
		return nil, fmt.Errorf("invalid PCM format %v", pcmFormat)
	}
	if bufferSize < sampleSize {
		return nil, fmt.Errorf("the buffer size %d is smaller than a sample (%d)", bufferSize, sampleSize)
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	s := &VADStream{
		segmenter:  seg,
		pcmFormat:  pcmFormat,
		bufferSize: int(bufferSize),
		ctx:        ctx,

		inputBuffer: circular.NewBuffer(int(bufferSize)),

		writeProgressedCh:   make(chan struct{}),
		consumeProgressedCh: make(chan struct{}),

		segmentsCh: make(chan segmenter.SpeechSegment, DefaultSegmentsQueueSize),
		doneCh:     make(chan struct{}),
	}
	observability.Go(ctx, func() {
		defer close(s.doneCh)
		defer cancelFunc()
		err := s.consumerLoop(ctx)
		if err != nil {
			s.setError(fmt.Errorf("got an error from the consumer loop: %w", err))
		}
	})
	return s, nil
}

func (s *VADStream) setError(err error) {
	s.resultErrorLocker.Lock()
	defer s.resultErrorLocker.Unlock()
	if s.resultError == nil {
		s.resultError = err
	}
}

// Err returns the error which stopped the consumer, if any.
func (s *VADStream) Err() error {
	s.resultErrorLocker.Lock()
	defer s.resultErrorLocker.Unlock()
	return s.resultError
}

// Segments returns the finalized speech segments. The channel is closed
// when the consumer stops: after Close or on an error. It must be drained,
// otherwise the consumer (and eventually Write and Close) blocks.
func (s *VADStream) Segments() <-chan segmenter.SpeechSegment {
	return s.segmentsCh
}

// Done is closed when the consumer stops.
func (s *VADStream) Done() <-chan struct{} {
	return s.doneCh
}

func (s *VADStream) Write(p []byte) (_ret int, _err error) {
	logger.Tracef(s.ctx, "Write, len:%d", len(p))
	defer func() { logger.Tracef(s.ctx, "/Write, len:%d: %d, %v", len(p), _ret, _err) }()

	written := 0
	for len(p) > 0 {
		chunk := p[:min(len(p), s.bufferSize)]
		if err := s.writeChunk(chunk); err != nil {
			return written, err
		}
		written += len(chunk)
		p = p[len(chunk):]
	}
	return written, nil
}

func (s *VADStream) writeChunk(chunk []byte) error {
	s.inputBufferLocker.Lock()
	defer s.inputBufferLocker.Unlock()
	for len(chunk) > 0 {
		if s.inputClosed {
			return ErrClosed
		}
		select {
		case <-s.doneCh:
			if err := s.Err(); err != nil {
				return err
			}
			return ErrClosed
		default:
		}

		// on ErrNoSpace the buffer is already filled with the first w bytes
		w, err := s.inputBuffer.Write(chunk)
		if err != nil && !errors.Is(err, circular.ErrNoSpace) {
			return fmt.Errorf("unable to write to the circular buffer: %w", err)
		}
		chunk = chunk[w:]
		if w > 0 {
			s.notifyWriteProgressed()
		}
		if len(chunk) > 0 {
			s.waitForConsumeProgressed()
		}
	}
	return nil
}

func (s *VADStream) notifyWriteProgressed() {
	logger.Tracef(s.ctx, "closing writeProgressedCh")
	var oldCh chan struct{}
	oldCh, s.writeProgressedCh = s.writeProgressedCh, make(chan struct{})
	close(oldCh)
}

func (s *VADStream) waitForConsumeProgressed() {
	logger.Tracef(s.ctx, "waitForConsumeProgressed")
	defer logger.Tracef(s.ctx, "/waitForConsumeProgressed")

	ch := s.consumeProgressedCh
	s.inputBufferLocker.Unlock()
	defer s.inputBufferLocker.Lock()
	select {
	case <-s.doneCh:
	case <-ch:
		logger.Tracef(s.ctx, "waitForConsumeProgressed: received an event")
	}
}

// ReadFrom writes everything from r until io.EOF, it does not close the stream.
func (s *VADStream) ReadFrom(r io.Reader) (_ret int64, _err error) {
	logger.Tracef(s.ctx, "ReadFrom")
	defer func() { logger.Tracef(s.ctx, "/ReadFrom: %d, %v", _ret, _err) }()

	readBuf := make([]byte, s.bufferSize)
	var total int64
	for {
		n, err := r.Read(readBuf)
		if n > 0 {
			w, wErr := s.Write(readBuf[:n])
			total += int64(w)
			if wErr != nil {
				return total, wErr
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("unable to read: %w", err)
		}
	}
}

// Close stops accepting new data, waits until the consumer processed
// everything and flushed the segmenter, and returns the consumer's error.
func (s *VADStream) Close() (_err error) {
	logger.Tracef(s.ctx, "Close")
	defer func() { logger.Tracef(s.ctx, "/Close: %v", _err) }()

	s.inputBufferLocker.Lock()
	if s.inputClosed {
		s.inputBufferLocker.Unlock()
		return ErrClosed
	}
	s.inputClosed = true
	s.notifyWriteProgressed()
	s.inputBufferLocker.Unlock()

	<-s.doneCh
	return s.Err()
}

func (s *VADStream) consumerLoop(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "consumerLoop")
	defer func() { logger.Tracef(ctx, "/consumerLoop: %v", _err) }()
	defer close(s.segmentsCh)

	sampleSize := int(s.pcmFormat.Size())
	readBuf := make([]byte, s.bufferSize+sampleSize)
	samples := make([]float32, 0, len(readBuf)/sampleSize)
	pending := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var (
			n           int
			inputClosed bool
			waitCh      chan struct{}
		)
		if err := func() error {
			s.inputBufferLocker.Lock()
			defer s.inputBufferLocker.Unlock()
			var err error
			n, err = s.inputBuffer.Read(readBuf[pending:])
			waitCh, inputClosed = s.writeProgressedCh, s.inputClosed
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("unable to read from the circular buffer: %w", err)
			}
			if n < 0 {
				return fmt.Errorf("received a negative count: %d", n)
			}
			if n > 0 {
				logger.Tracef(ctx, "closing consumeProgressedCh")
				var oldCh chan struct{}
				oldCh, s.consumeProgressedCh = s.consumeProgressedCh, make(chan struct{})
				close(oldCh)
			}
			return nil
		}(); err != nil {
			return err
		}

		if n == 0 {
			if inputClosed {
				if pending != 0 {
					logger.Warnf(ctx, "dropping %d bytes of an incomplete sample", pending)
				}
				s.segmenter.Flush(ctx)
				return s.publishSegments(ctx)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-waitCh:
				logger.Tracef(ctx, "consumerLoop: received a write event")
			}
			continue
		}

		total := pending + n
		complete := total - total%sampleSize
		samples = samples[:0]
		for offset := 0; offset < complete; offset += sampleSize {
			samples = append(samples, float32(s.pcmFormat.Decode(readBuf[offset:])))
		}
		pending = copy(readBuf, readBuf[complete:total])

		if err := s.segmenter.AcceptWaveform(ctx, samples); err != nil {
			return fmt.Errorf("unable to process %d samples: %w", len(samples), err)
		}
		if err := s.publishSegments(ctx); err != nil {
			return err
		}
	}
}

func (s *VADStream) publishSegments(ctx context.Context) error {
	for {
		segment, ok := s.segmenter.Pop()
		if !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.segmentsCh <- segment:
		}
	}
}
