package opus

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
)

// Gain limits in Q8 dB (1/256 dB steps), the range libopus accepts.
const (
	MinGain = math.MinInt16
	MaxGain = math.MaxInt16
)

// Decoder decodes packets one at a time. Packets must arrive whole and in order;
// nothing is buffered between calls. A Decoder is not safe for concurrent use.
type Decoder struct {
	geometry Geometry
	engine   FrameDecoder
	out      io.Writer
	err      error
	closed   bool

	gain   int
	factor float64
}

// NewDecoder creates a Decoder backed by libopus.
func NewDecoder(cfg Config) (*Decoder, error) {
	g, err := NewGeometry(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := NewLibopusDecoder(g)
	if err != nil {
		return nil, err
	}
	return newDecoder(g, engine), nil
}

// NewDecoderWithEngine creates a Decoder that hands packets to engine.
// The Decoder takes ownership of engine and closes it in Close.
func NewDecoderWithEngine(cfg Config, engine FrameDecoder) (*Decoder, error) {
	g, err := NewGeometry(cfg)
	if err != nil {
		return nil, err
	}
	return newDecoder(g, engine), nil
}

func newDecoder(g Geometry, engine FrameDecoder) *Decoder {
	slog.Debug("created opus decoder", "geometry", g.String())
	return &Decoder{geometry: g, engine: engine}
}

// Geometry returns the frame layout fixed at construction.
func (d *Decoder) Geometry() Geometry {
	return d.geometry
}

// SetOutput sets where Write delivers decoded PCM.
func (d *Decoder) SetOutput(w io.Writer) {
	d.out = w
}

// Accept decodes one packet. It is the same as Decode.
func (d *Decoder) Accept(packet []byte) ([]byte, error) {
	return d.Decode(packet)
}

// Decode decodes one packet and returns its interleaved little-endian PCM.
func (d *Decoder) Decode(packet []byte) ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	slog.Debug("opus decoder decode", "bytes", len(packet))

	pcm, err := d.engine.Decode(packet)
	if err != nil {
		d.err = err
		return nil, err
	}
	if d.gain != 0 {
		applyGain(pcm, d.factor)
	}
	return pcm, nil
}

// Write treats p as exactly one packet and writes its PCM to the output set by
// SetOutput.
func (d *Decoder) Write(p []byte) (int, error) {
	if d.out == nil {
		return 0, ErrNoSink
	}
	pcm, err := d.Decode(p)
	if err != nil {
		return 0, err
	}
	if _, err := d.out.Write(pcm); err != nil {
		d.err = ErrAborted
		return 0, fmt.Errorf("opus: write pcm: %w", err)
	}
	return len(p), nil
}

// SetGain scales decoded PCM by gain, given in Q8 dB like libopus
// OPUS_SET_GAIN. Zero turns scaling off. Samples saturate at the int16 limits.
func (d *Decoder) SetGain(gain int) error {
	if d.err != nil {
		return d.err
	}
	if gain < MinGain || gain > MaxGain {
		return fmt.Errorf("%w: gain %d outside [%d, %d]", ErrInvalidConfig, gain, MinGain, MaxGain)
	}
	d.gain = gain
	d.factor = math.Pow(10, float64(gain)/(20*256))
	return nil
}

// Gain returns the output gain in Q8 dB.
func (d *Decoder) Gain() int {
	return d.gain
}

func applyGain(pcm []byte, factor float64) {
	for i := 0; i+BytesPerSample <= len(pcm); i += BytesPerSample {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i:])))
		s = math.Round(s * factor)
		s = max(math.MinInt16, min(math.MaxInt16, s))
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(s)))
	}
}

// Close releases the codec.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.err = ErrClosed
	return d.engine.Close()
}
