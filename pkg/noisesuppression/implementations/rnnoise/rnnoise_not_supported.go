//go:build !rnnoise
// +build !rnnoise

package rnnoise

import (
	"fmt"

	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/noisesuppression"
)

const (
	SampleRate = audio.SampleRate(48_000)
)

type RNNoise = noisesuppression.Dummy

func New() (*RNNoise, error) {
	return nil, fmt.Errorf("built without tag 'rnnoise'")
}
