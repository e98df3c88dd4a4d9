//go:build rnnoise
// +build rnnoise

package rnnoise

import (
	"context"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/noisesuppression"
)

/*
#cgo pkg-config: rnnoise
#cgo CFLAGS: -march=native
#include <rnnoise.h>
*/
import "C"

const (
	SampleRate = audio.SampleRate(48_000)
)

// RNNoise is a mono noise suppressor; the voice probability it reports
// is the maximum over the processed frames.
type RNNoise struct {
	Locker       sync.Mutex
	DenoiseState *C.DenoiseState
	Buffer       []float32
}

var _ noisesuppression.NoiseSuppression = (*RNNoise)(nil)

var frameSize int

func init() {
	frameSize = int(C.rnnoise_get_frame_size())
}

func New() (*RNNoise, error) {
	denoiseState := C.rnnoise_create(nil)
	if denoiseState == nil {
		return nil, fmt.Errorf("unable to create a denoise state")
	}
	return &RNNoise{
		DenoiseState: denoiseState,
		Buffer:       make([]float32, frameSize),
	}, nil
}

func (s *RNNoise) Close() error {
	s.Locker.Lock()
	defer s.Locker.Unlock()
	if s.DenoiseState == nil {
		return fmt.Errorf("double-free attempt")
	}
	C.rnnoise_destroy(s.DenoiseState)
	s.DenoiseState = nil
	return nil
}

func (s *RNNoise) Encoding(ctx context.Context) (audio.Encoding, error) {
	return audio.EncodingPCM{
		PCMFormat:  audio.PCMFormatFloat32Native(),
		SampleRate: SampleRate,
	}, nil
}

func (s *RNNoise) Channels(ctx context.Context) (audio.Channel, error) {
	return 1, nil
}

var floatSize = unsafe.Sizeof(float32(0))

func (s *RNNoise) ChunkSize() uint {
	return uint(frameSize) * uint(floatSize)
}

// Reset recreates the denoise state, forgetting everything observed so far.
func (s *RNNoise) Reset(ctx context.Context) error {
	logger.Tracef(ctx, "Reset")
	defer logger.Tracef(ctx, "/Reset")

	s.Locker.Lock()
	defer s.Locker.Unlock()
	if s.DenoiseState == nil {
		return fmt.Errorf("already closed")
	}
	denoiseState := C.rnnoise_create(nil)
	if denoiseState == nil {
		return fmt.Errorf("unable to create a denoise state")
	}
	C.rnnoise_destroy(s.DenoiseState)
	s.DenoiseState = denoiseState
	return nil
}

func (s *RNNoise) SuppressNoise(ctx context.Context, input []byte, outputVoice []byte) (_ret float64, _err error) {
	logger.Tracef(ctx, "SuppressNoise, len:%d", len(input))
	defer func() { logger.Tracef(ctx, "/SuppressNoise, len:%d: %v", len(input), _err) }()

	if len(input) != len(outputVoice) {
		return 0, fmt.Errorf("lengths of input and output slices are not equal: %d != %d", len(input), len(outputVoice))
	}
	if len(input) < int(s.ChunkSize()) {
		return 0, fmt.Errorf("the size of the input is too small: %d < %d", len(input), s.ChunkSize())
	}
	if len(input)%int(s.ChunkSize()) != 0 {
		return 0, fmt.Errorf("the size of the input is not a multiple of ChunkSize: %d %% %d != 0", len(input), int(s.ChunkSize()))
	}

	s.Locker.Lock()
	defer s.Locker.Unlock()
	if s.DenoiseState == nil {
		return 0, fmt.Errorf("already closed")
	}

	var maxVADProb float64
	chunkSize := int(s.ChunkSize())
	for len(input) > 0 {
		gain(s.Buffer, input[:chunkSize])
		bufPtr := (*C.float)(unsafe.Pointer(unsafe.SliceData(s.Buffer)))
		vadProb := C.rnnoise_process_frame(s.DenoiseState, bufPtr, bufPtr)
		if float64(vadProb) > maxVADProb {
			maxVADProb = float64(vadProb)
		}
		ungain(outputVoice[:chunkSize], s.Buffer)
		input = input[chunkSize:]
		outputVoice = outputVoice[chunkSize:]
	}
	return maxVADProb, nil
}

// gain converts the samples from [-1, 1] to the int16 range the library expects.
func gain(dst []float32, srcBytes []byte) {
	src := unsafe.Slice((*float32)(unsafe.Pointer(&srcBytes[0])), len(srcBytes)/4)
	for idx := range src {
		dst[idx] = src[idx] * math.MaxInt16
	}
}

func ungain(dstBytes []byte, src []float32) {
	dst := unsafe.Slice((*float32)(unsafe.Pointer(&dstBytes[0])), len(dstBytes)/4)
	for idx := range src {
		dst[idx] = src[idx] / math.MaxInt16
	}
}
