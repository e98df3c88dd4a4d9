// Package source opens audio files as PCM byte streams.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xaionaro-go/vad/pkg/audio/resampler"
)

type Kind int

const (
	KindUndefined = Kind(iota)
	KindRaw
	KindWAV
	KindOggVorbis
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindRaw:
		return "raw"
	case KindWAV:
		return "wav"
	case KindOggVorbis:
		return "ogg"
	}
	return fmt.Sprintf("unknown_kind_%d", int(k))
}

// KindByPath guesses the container by the file extension; everything
// unknown (including stdin "-") is raw PCM.
func KindByPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return KindWAV
	case ".ogg", ".oga":
		return KindOggVorbis
	}
	return KindRaw
}

// Source is a reader of interleaved PCM samples in Format.
type Source struct {
	io.Reader
	Format resampler.Format
	Kind   Kind
	closer io.Closer
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open opens the file; rawFormat is used only if the file is raw PCM.
// Path "-" is stdin.
func Open(
	path string,
	rawFormat resampler.Format,
) (*Source, error) {
	var (
		f      io.ReadCloser
		closer io.Closer
	)
	if path == "-" {
		f = os.Stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("unable to open '%s': %w", path, err)
		}
		f, closer = file, file
	}

	s, err := NewSource(f, KindByPath(path), rawFormat)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("unable to read '%s': %w", path, err)
	}
	s.closer = closer
	return s, nil
}

func NewSource(
	r io.Reader,
	kind Kind,
	rawFormat resampler.Format,
) (*Source, error) {
	switch kind {
	case KindRaw:
		if err := rawFormat.Validate(); err != nil {
			return nil, fmt.Errorf("invalid format of the raw PCM: %w", err)
		}
		return &Source{
			Reader: r,
			Format: rawFormat,
			Kind:   kind,
		}, nil
	case KindWAV:
		wavReader, err := newWAVReader(r)
		if err != nil {
			return nil, err
		}
		return &Source{
			Reader: wavReader,
			Format: wavReader.Format,
			Kind:   kind,
		}, nil
	case KindOggVorbis:
		oggReader, err := newOggVorbisReader(r)
		if err != nil {
			return nil, err
		}
		return &Source{
			Reader: oggReader,
			Format: oggReader.Format,
			Kind:   kind,
		}, nil
	}
	return nil, fmt.Errorf("unsupported source kind %v", kind)
}
