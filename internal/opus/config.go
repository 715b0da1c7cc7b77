package opus

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// BytesPerSample is the size of one signed 16-bit little-endian PCM sample.
const BytesPerSample = 2

// Defaults applied to zero Config fields.
const (
	DefaultSampleRate    = 48000
	DefaultChannels      = 1
	DefaultFrameDuration = 60 * time.Millisecond
)

// MaxFrameDuration is the longest audio a single Opus packet can carry.
const MaxFrameDuration = 120 * time.Millisecond

// ValidRates are the sample rates libopus accepts.
var ValidRates = []int{8000, 12000, 16000, 24000, 48000}

var ErrInvalidConfig = errors.New("opus: invalid configuration")

// RateError reports a sample rate outside ValidRates.
type RateError struct {
	Rate int
}

func (e *RateError) Error() string {
	valid := make([]string, len(ValidRates))
	for i, r := range ValidRates {
		valid[i] = fmt.Sprint(r)
	}
	return fmt.Sprintf("opus: rate %d is not valid, valid rates are: %s", e.Rate, strings.Join(valid, ", "))
}

func (e *RateError) Is(target error) bool {
	return target == ErrInvalidConfig
}

var _ error = (*RateError)(nil)

// Config describes an encoder or decoder. Zero fields take their defaults.
type Config struct {
	SampleRate    int
	Channels      int
	FrameDuration time.Duration

	// Application is only used by encoders.
	Application Application
	// Bitrate in bits per second. Zero leaves the codec default.
	Bitrate int
	// MaxPacketSize caps a single encoded packet. Zero means twice the frame size.
	MaxPacketSize int
}

func (c Config) withDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.FrameDuration == 0 {
		c.FrameDuration = DefaultFrameDuration
	}
	if c.Application == 0 {
		c.Application = ApplicationAudio
	}
	return c
}

// Validate reports whether NewGeometry would accept c.
func (c Config) Validate() error {
	_, err := NewGeometry(c)
	return err
}

// Geometry is the frozen frame layout derived from a Config.
type Geometry struct {
	SampleRate    int
	Channels      int
	FrameDuration time.Duration

	// FrameSamples is the number of samples per channel in one frame.
	FrameSamples int
	// FrameBytes is the exact size of every PCM frame handed to the codec.
	FrameBytes int
}

// NewGeometry applies defaults to cfg, validates it and computes the frame layout.
func NewGeometry(cfg Config) (Geometry, error) {
	cfg = cfg.withDefaults()

	if !slices.Contains(ValidRates, cfg.SampleRate) {
		return Geometry{}, &RateError{Rate: cfg.SampleRate}
	}
	if cfg.Channels < 0 {
		return Geometry{}, fmt.Errorf("%w: channel count must be positive, got %d", ErrInvalidConfig, cfg.Channels)
	}
	if cfg.FrameDuration < 0 {
		return Geometry{}, fmt.Errorf("%w: frame duration must be positive, got %s", ErrInvalidConfig, cfg.FrameDuration)
	}
	if cfg.FrameDuration > MaxFrameDuration {
		return Geometry{}, fmt.Errorf("%w: frame duration %s exceeds %s", ErrInvalidConfig, cfg.FrameDuration, MaxFrameDuration)
	}
	if cfg.Application < ApplicationAudio || cfg.Application > ApplicationLowDelay {
		return Geometry{}, fmt.Errorf("%w: unknown application %d", ErrInvalidConfig, int(cfg.Application))
	}
	if cfg.Bitrate < 0 || cfg.MaxPacketSize < 0 {
		return Geometry{}, fmt.Errorf("%w: bitrate and max packet size must not be negative", ErrInvalidConfig)
	}

	scaled := int64(cfg.SampleRate) * int64(cfg.FrameDuration)
	if scaled%int64(time.Second) != 0 {
		return Geometry{}, fmt.Errorf("%w: %s at %d Hz is not a whole number of samples",
			ErrInvalidConfig, cfg.FrameDuration, cfg.SampleRate)
	}
	samples := int(scaled / int64(time.Second))

	return Geometry{
		SampleRate:    cfg.SampleRate,
		Channels:      cfg.Channels,
		FrameDuration: cfg.FrameDuration,
		FrameSamples:  samples,
		FrameBytes:    samples * BytesPerSample * cfg.Channels,
	}, nil
}

// DurationOf returns how much audio n bytes of PCM hold.
func (g Geometry) DurationOf(n int) time.Duration {
	perSecond := int64(g.SampleRate) * int64(g.Channels) * BytesPerSample
	return time.Duration(int64(n) * int64(time.Second) / perSecond)
}

// String formats the geometry for logs.
func (g Geometry) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %s (%d samples, %d bytes)",
		g.SampleRate, g.Channels, g.FrameDuration, g.FrameSamples, g.FrameBytes)
}
