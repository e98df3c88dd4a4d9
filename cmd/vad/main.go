package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/audio/resampler"
	"github.com/xaionaro-go/vad/pkg/audio/source"
	"github.com/xaionaro-go/vad/pkg/config"
	"github.com/xaionaro-go/vad/pkg/segmenter"
	"github.com/xaionaro-go/vad/pkg/vad"
	_ "github.com/xaionaro-go/vad/pkg/vad/implementations/energy"
	_ "github.com/xaionaro-go/vad/pkg/vad/implementations/fvad"
	_ "github.com/xaionaro-go/vad/pkg/vad/implementations/noisesuppression"
	_ "github.com/xaionaro-go/vad/pkg/vad/implementations/spectral"
	"github.com/xaionaro-go/vad/pkg/vad/registry"
	"github.com/xaionaro-go/vad/pkg/vadstream"
)

func main() {
	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configPath := pflag.String("config", "", "path to a YAML config file")
	modelName := pflag.String("model", "", "speech probability model (auto, or one of the registered models)")
	sampleRate := pflag.Uint32("sample-rate", 0, "the sample rate the audio is resampled to before the VAD")
	threshold := pflag.Float64("threshold", 0, "speech probability threshold")
	minSpeechDuration := pflag.Duration("min-speech-duration", 0, "minimal duration of speech to open a segment")
	minSilenceDuration := pflag.Duration("min-silence-duration", 0, "minimal duration of silence to close a segment")
	maxSpeechDuration := pflag.Duration("max-speech-duration", 0, "duration of speech after which the VAD is relaxed to cut the segment at a short pause (0 to disable)")
	rawFormat := audio.PCMFormatS16LE
	pflag.Var(&rawFormat, "raw-format", "PCM format of a raw input")
	rawSampleRate := pflag.Uint32("raw-sample-rate", 16000, "sample rate of a raw input")
	rawChannels := pflag.Uint("raw-channels", 1, "amount of channels of a raw input")
	outputDir := pflag.String("output-dir", "", "if set, each speech segment is written there as a WAV file")
	printProbabilities := pflag.Bool("print-probabilities", false, "print the raw speech probability of every window instead of segmenting")
	printConfig := pflag.Bool("print-config", false, "print the effective config and exit")
	listModels := pflag.Bool("list-models", false, "print the registered models and exit")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	pflag.Parse()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	if *listModels {
		for _, name := range registry.ModelNames() {
			fmt.Println(name)
		}
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		assertNoError(err)
	}
	flags := pflag.CommandLine
	if flags.Changed("model") {
		cfg.Model = *modelName
	}
	if flags.Changed("sample-rate") {
		cfg.Segmenter.SampleRate = audio.SampleRate(*sampleRate)
	}
	if flags.Changed("threshold") {
		cfg.Segmenter.Threshold = *threshold
	}
	if flags.Changed("min-speech-duration") {
		cfg.Segmenter.MinSpeechDuration = *minSpeechDuration
	}
	if flags.Changed("min-silence-duration") {
		cfg.Segmenter.MinSilenceDuration = *minSilenceDuration
	}
	if flags.Changed("max-speech-duration") {
		cfg.Segmenter.MaxSpeechDuration = *maxSpeechDuration
	}
	assertNoError(cfg.Validate())
	logger.Debugf(ctx, "config: %s", spew.Sdump(cfg))

	if *printConfig {
		b, err := cfg.Bytes()
		assertNoError(err)
		os.Stdout.Write(b)
		return
	}

	if pflag.NArg() != 1 {
		panic(fmt.Errorf("expected exactly one argument: <input-file> (or '-' for raw PCM from stdin)"))
	}

	src, err := source.Open(pflag.Arg(0), resampler.Format{
		Channels:   audio.Channel(*rawChannels),
		SampleRate: audio.SampleRate(*rawSampleRate),
		PCMFormat:  rawFormat,
	})
	assertNoError(err)
	defer src.Close()
	logger.Debugf(ctx, "input: %s %s", src.Kind, src.Format)

	samples, err := resampler.NewResampler(src.Format, src, resampler.Format{
		Channels:   1,
		SampleRate: cfg.Segmenter.SampleRate,
		PCMFormat:  audio.PCMFormatFloat32LE,
	})
	assertNoError(err)

	model, err := registry.NewModel(ctx, cfg.Model, cfg.Segmenter.SampleRate)
	assertNoError(err)
	defer model.Close()
	logger.Infof(ctx, "using model %T", model)

	v, err := vad.NewModelVAD(ctx, model, cfg.Segmenter.Params)
	assertNoError(err)

	seg, err := segmenter.New(ctx, v, cfg.Segmenter)
	assertNoError(err)

	if *printProbabilities {
		assertNoError(printWindowProbabilities(ctx, seg, v, samples))
		return
	}

	stream, err := vadstream.New(ctx, seg, audio.PCMFormatFloat32LE, cfg.Stream.BufferSize)
	assertNoError(err)

	wc := datacounter.NewWriterCounter(stream)
	observability.Go(ctx, func() {
		_, err := io.Copy(wc, samples)
		if err != nil {
			logger.Errorf(ctx, "unable to read the input: %v", err)
		}
		logger.Debugf(ctx, "passed %d bytes to the VAD", wc.Count())
		if err := stream.Close(); err != nil {
			logger.Errorf(ctx, "unable to close the VAD stream: %v", err)
		}
	})

	if *outputDir != "" {
		assertNoError(os.MkdirAll(*outputDir, 0750))
	}
	rate := cfg.Segmenter.SampleRate
	segmentIdx := 0
	for segment := range stream.Segments() {
		start := segment.StartTime(rate)
		end := start + segment.Duration(rate)
		fmt.Printf("%.3f -- %.3f\n", start.Seconds(), end.Seconds())
		if *outputDir != "" {
			assertNoError(writeSegment(*outputDir, segmentIdx, rate, segment))
		}
		segmentIdx++
	}
	<-stream.Done()
	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}

func printWindowProbabilities(
	ctx context.Context,
	seg *segmenter.Segmenter,
	v vad.VAD,
	samplesReader io.Reader,
) error {
	data, err := io.ReadAll(samplesReader)
	if err != nil {
		return fmt.Errorf("unable to read the input: %w", err)
	}
	samples := make([]float32, len(data)/4)
	for idx := range samples {
		samples[idx] = float32(audio.PCMFormatFloat32LE.Decode(data[idx*4:]))
	}

	rate := seg.Config().SampleRate
	windowSize, windowShift := v.WindowSize(), v.WindowShift()
	for offset := 0; offset+windowSize <= len(samples); offset += windowShift {
		prob, err := seg.Compute(ctx, samples[offset:offset+windowSize])
		if err != nil {
			return fmt.Errorf("unable to compute the probability of the window at %d: %w", offset, err)
		}
		fmt.Printf("%.3f %.3f\n", rate.DurationForSamples(int64(offset)).Seconds(), prob)
	}
	return nil
}

func writeSegment(
	dir string,
	idx int,
	sampleRate audio.SampleRate,
	segment segmenter.SpeechSegment,
) error {
	start := segment.StartTime(sampleRate).Round(time.Millisecond)
	path := filepath.Join(dir, fmt.Sprintf("segment-%04d-%dms.wav", idx, start.Milliseconds()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", path, err)
	}
	defer f.Close()
	if err := source.WriteWAV(f, sampleRate, segment.Samples); err != nil {
		return fmt.Errorf("unable to write '%s': %w", path, err)
	}
	return f.Close()
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
