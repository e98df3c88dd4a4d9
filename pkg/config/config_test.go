package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		cfg, err := Read(strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := Read(strings.NewReader(`
model: spectral
segmenter:
  sample_rate: 48000
  threshold: 0.6
  min_silence_duration: 300ms
  max_speech_duration: 15s
stream:
  buffer_size: 1024
`))
		require.NoError(t, err)

		expected := Default()
		expected.Model = "spectral"
		expected.Segmenter.SampleRate = 48000
		expected.Segmenter.Threshold = 0.6
		expected.Segmenter.MinSilenceDuration = 300 * time.Millisecond
		expected.Segmenter.MaxSpeechDuration = 15 * time.Second
		expected.Stream.BufferSize = 1024
		require.Equal(t, expected, cfg)
	})

	t.Run("unknown_field", func(t *testing.T) {
		_, err := Read(strings.NewReader("segmenter:\n  thresold: 0.6\n"))
		require.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Read(strings.NewReader("model: ''\nstream:\n  buffer_size: 0\n"))
		require.ErrorContains(t, err, "model")
		require.ErrorContains(t, err, "buffer_size")
	})
}

func TestBytes(t *testing.T) {
	cfg := Default()
	cfg.Segmenter.RelaxedMinSilenceDuration = 150 * time.Millisecond

	b, err := cfg.Bytes()
	require.NoError(t, err)

	parsed, err := Read(bytes.NewReader(b))
	require.NoError(t, err)
	require.Equal(t, cfg, parsed)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: energy\n"), 0640))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "energy", cfg.Model)

	_, err = Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
}
