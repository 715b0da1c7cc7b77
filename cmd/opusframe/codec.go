package main

import (
	"fmt"
	"io"
	"os"

	"github.com/glizzus/opusframe/internal/config"
	"github.com/glizzus/opusframe/internal/opus"
	"github.com/urfave/cli/v2"
)

// codecFlags override the OPUS_* environment defaults.
func codecFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "rate", Usage: "sample rate in Hz (8000, 12000, 16000, 24000 or 48000)"},
		&cli.IntFlag{Name: "channels", Usage: "interleaved channel count"},
		&cli.DurationFlag{Name: "frame-duration", Usage: "audio per frame, e.g. 20ms"},
		&cli.StringFlag{Name: "application", Usage: "audio, voip or lowdelay"},
		&cli.IntFlag{Name: "bitrate", Usage: "target bitrate in bits per second"},
		flushFlag(),
	}
}

func flushFlag() cli.Flag {
	return &cli.StringFlag{Name: "flush", Usage: "what to do with a trailing partial frame: drop, pad or strict"}
}

func resolveCodec(c *cli.Context) (opus.Config, opus.FlushMode, error) {
	cc, err := config.NewCodecConfigFromEnv()
	if err != nil {
		return opus.Config{}, 0, fmt.Errorf("failed to load codec config: %w", err)
	}
	if c.IsSet("rate") {
		cc.SampleRate = c.Int("rate")
	}
	if c.IsSet("channels") {
		cc.Channels = c.Int("channels")
	}
	if c.IsSet("frame-duration") {
		cc.FrameDuration = c.Duration("frame-duration")
	}
	if c.IsSet("application") {
		cc.Application = c.String("application")
	}
	if c.IsSet("bitrate") {
		cc.Bitrate = c.Int("bitrate")
	}
	if c.IsSet("flush") {
		cc.Flush = c.String("flush")
	}

	cfg, err := cc.Opus()
	if err != nil {
		return opus.Config{}, 0, err
	}
	mode, err := cc.FlushMode()
	if err != nil {
		return opus.Config{}, 0, err
	}
	return cfg, mode, nil
}

// openInput opens path for reading; "" and "-" mean stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// openOutput creates path for writing; "" and "-" mean stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
