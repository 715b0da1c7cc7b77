package config

import (
	"context"
	"time"

	"github.com/glizzus/opusframe/internal/opus"
	"github.com/sethvargo/go-envconfig"
)

// CodecConfig holds the codec defaults. Command line flags override them.
type CodecConfig struct {
	SampleRate    int           `env:"OPUS_RATE, default=48000"`
	Channels      int           `env:"OPUS_CHANNELS, default=1"`
	FrameDuration time.Duration `env:"OPUS_FRAME_DURATION, default=60ms"`
	Application   string        `env:"OPUS_APPLICATION, default=audio"`
	Bitrate       int           `env:"OPUS_BITRATE, default=0"`
	Flush         string        `env:"OPUS_FLUSH, default=drop"`
}

func NewCodecConfigFromEnv() (*CodecConfig, error) {
	var cfg CodecConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Opus converts c into a validated opus.Config.
func (c *CodecConfig) Opus() (opus.Config, error) {
	app, err := opus.ParseApplication(c.Application)
	if err != nil {
		return opus.Config{}, err
	}
	cfg := opus.Config{
		SampleRate:    c.SampleRate,
		Channels:      c.Channels,
		FrameDuration: c.FrameDuration,
		Application:   app,
		Bitrate:       c.Bitrate,
	}
	if err := cfg.Validate(); err != nil {
		return opus.Config{}, err
	}
	return cfg, nil
}

func (c *CodecConfig) FlushMode() (opus.FlushMode, error) {
	return opus.ParseFlushMode(c.Flush)
}
