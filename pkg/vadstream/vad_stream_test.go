package vadstream

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/segmenter"
	"github.com/xaionaro-go/vad/pkg/vad"
)

func newTestSegmenter(t *testing.T) *segmenter.Segmenter {
	ctx := context.Background()
	cfg := segmenter.DefaultConfig()
	cfg.MinSpeechDuration = 250 * time.Millisecond
	cfg.MinSilenceDuration = 100 * time.Millisecond
	cfg.BufferDuration = time.Second

	model := vad.NewDummyModel(cfg.SampleRate, 512, 512, func(window []float32) float64 {
		return float64(window[0])
	})
	v, err := vad.NewModelVAD(ctx, model, cfg.Params)
	require.NoError(t, err)
	s, err := segmenter.New(ctx, v, cfg)
	require.NoError(t, err)
	return s
}

// frames encodes 512-sample frames, the first sample of a speech frame is 1.
func frames(pcmFormat audio.PCMFormat, isSpeech ...bool) []byte {
	sampleSize := int(pcmFormat.Size())
	result := make([]byte, len(isSpeech)*512*sampleSize)
	for frameIdx, speech := range isSpeech {
		for idx := 0; idx < 512; idx++ {
			var v float64
			if speech && idx == 0 {
				v = 1
			}
			pcmFormat.Encode(result[(frameIdx*512+idx)*sampleSize:], v)
		}
	}
	return result
}

func repeat(v bool, count int) []bool {
	result := make([]bool, count)
	for idx := range result {
		result[idx] = v
	}
	return result
}

func collect(s *VADStream) []segmenter.SpeechSegment {
	var result []segmenter.SpeechSegment
	for segment := range s.Segments() {
		result = append(result, segment)
	}
	return result
}

func TestVADStream(t *testing.T) {
	ctx := context.Background()

	for _, pcmFormat := range []audio.PCMFormat{audio.PCMFormatS16LE, audio.PCMFormatFloat32LE, audio.PCMFormatS24BE} {
		t.Run(pcmFormat.String(), func(t *testing.T) {
			s, err := New(ctx, newTestSegmenter(t), pcmFormat, 1000)
			require.NoError(t, err)

			input := frames(pcmFormat, append(repeat(true, 20), repeat(false, 10)...)...)
			input = append(input, frames(pcmFormat, repeat(true, 15)...)...)

			// chunks are deliberately not aligned to the sample size
			for remaining := input; len(remaining) > 0; {
				n := min(len(remaining), 333)
				w, err := s.Write(remaining[:n])
				require.NoError(t, err)
				require.Equal(t, n, w)
				remaining = remaining[n:]
			}

			var segments []segmenter.SpeechSegment
			collected := make(chan struct{})
			go func() {
				defer close(collected)
				segments = collect(s)
			}()
			require.NoError(t, s.Close())
			<-collected

			require.Len(t, segments, 2, spew.Sdump(segments))
			require.Equal(t, int64(0), segments[0].Start)
			require.Equal(t, int64(20*512+960), segments[0].End())
			require.Equal(t, int64(45*512), segments[1].End())

			_, err = s.Write([]byte{0})
			require.ErrorIs(t, err, ErrClosed)
			require.ErrorIs(t, s.Close(), ErrClosed)
		})
	}
}

func TestVADStreamSmallBuffer(t *testing.T) {
	ctx := context.Background()
	cfg := segmenter.DefaultConfig()
	cfg.BufferDuration = time.Second

	var seen []float32
	model := vad.NewDummyModel(cfg.SampleRate, 16, 16, func(window []float32) float64 {
		seen = append(seen, window...)
		return 0
	})
	v, err := vad.NewModelVAD(ctx, model, cfg.Params)
	require.NoError(t, err)
	seg, err := segmenter.New(ctx, v, cfg)
	require.NoError(t, err)

	const sampleCount = 400
	pcmFormat := audio.PCMFormatS16LE
	input := make([]byte, sampleCount*2)
	expected := make([]float32, sampleCount)
	for idx := range expected {
		expected[idx] = float32(idx+1) / 1024
		pcmFormat.Encode(input[idx*2:], float64(expected[idx]))
	}

	// the writer has to wait for the consumer on almost every write
	s, err := New(ctx, seg, pcmFormat, 10)
	require.NoError(t, err)
	for remaining := input; len(remaining) > 0; {
		n := min(len(remaining), 6)
		w, err := s.Write(remaining[:n])
		require.NoError(t, err)
		require.Equal(t, n, w)
		remaining = remaining[n:]
	}
	require.NoError(t, s.Close())
	require.Empty(t, collect(s))

	require.Equal(t, expected, seen)
}

func TestVADStreamReadFrom(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, newTestSegmenter(t), audio.PCMFormatS16LE, 4096)
	require.NoError(t, err)

	input := frames(audio.PCMFormatS16LE, append(repeat(true, 20), repeat(false, 10)...)...)
	n, err := s.ReadFrom(bytes.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, int64(len(input)), n)

	segment := <-s.Segments()
	require.Equal(t, int64(20*512+960), segment.End())

	require.NoError(t, s.Close())
	_, ok := <-s.Segments()
	require.False(t, ok)
}

func TestVADStreamCancel(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	s, err := New(ctx, newTestSegmenter(t), audio.PCMFormatS16LE, 1024)
	require.NoError(t, err)

	cancelFn()
	<-s.Done()
	require.ErrorIs(t, s.Err(), context.Canceled)

	_, err = s.Write(make([]byte, 10))
	require.Error(t, err)
	_, ok := <-s.Segments()
	require.False(t, ok)
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	_, err := New(ctx, newTestSegmenter(t), audio.PCMFormatUndefined, 1024)
	require.Error(t, err)
	_, err = New(ctx, newTestSegmenter(t), audio.PCMFormatS32LE, 2)
	require.Error(t, err)
}
