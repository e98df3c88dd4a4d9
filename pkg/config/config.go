// Package config is the configuration file of the vad command.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/vad/pkg/segmenter"
	"github.com/xaionaro-go/vad/pkg/vad/registry"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Model is the name of the speech probability model, see registry.ModelNames.
	Model     string           `yaml:"model"`
	Segmenter segmenter.Config `yaml:"segmenter"`
	Stream    Stream           `yaml:"stream"`
}

type Stream struct {
	// BufferSize is the size (in bytes) of the hand-off buffer between
	// the reader of the input and the segmenter.
	BufferSize uint `yaml:"buffer_size"`
}

func Default() Config {
	return Config{
		Model:     registry.ModelNameAuto,
		Segmenter: segmenter.DefaultConfig(),
		Stream: Stream{
			BufferSize: 1 << 16,
		},
	}
}

func (cfg Config) Validate() error {
	var mErr *multierror.Error
	if cfg.Model == "" {
		mErr = multierror.Append(mErr, fmt.Errorf("model is not set"))
	}
	if err := cfg.Segmenter.Validate(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("segmenter: %w", err))
	}
	if cfg.Stream.BufferSize == 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("stream.buffer_size must be positive"))
	}
	return mErr.ErrorOrNil()
}

// Load reads the file at path over the default values.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return Config{}, fmt.Errorf("unable to load '%s': %w", path, err)
	}
	return cfg, nil
}

// Read decodes YAML from r over the default values and validates the result.
func Read(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("unable to decode YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (cfg Config) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("unable to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("unable to finalize YAML: %w", err)
	}
	return buf.Bytes(), nil
}
