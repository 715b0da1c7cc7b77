package opus

import (
	"fmt"
	"iter"
	"log/slog"
	"strings"
)

// FlushMode decides what happens to bytes that do not fill a whole frame when a
// stream ends.
type FlushMode int

const (
	// FlushDrop discards the partial frame.
	FlushDrop FlushMode = iota
	// FlushPad pads the partial frame with silence and encodes it.
	FlushPad
	// FlushStrict refuses to flush a partial frame.
	FlushStrict
)

// ParseFlushMode maps "drop", "pad" or "strict" to a FlushMode.
func ParseFlushMode(s string) (FlushMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return FlushDrop, nil
	case "pad":
		return FlushPad, nil
	case "strict":
		return FlushStrict, nil
	}
	return 0, fmt.Errorf("%w: unknown flush mode %q", ErrInvalidConfig, s)
}

func (m FlushMode) String() string {
	switch m {
	case FlushDrop:
		return "drop"
	case FlushPad:
		return "pad"
	case FlushStrict:
		return "strict"
	}
	return fmt.Sprintf("FlushMode(%d)", int(m))
}

// Encoder frames a PCM byte stream and encodes it one frame at a time.
//
// Bytes that do not complete a frame are kept until the next call. An Encoder is
// not safe for concurrent use. Once an engine call fails or a stream is abandoned
// mid-chunk, every later call returns that error.
type Encoder struct {
	geometry      Geometry
	engine        FrameEncoder
	maxPacketSize int
	sink          PacketSink

	// overflow never holds a full frame between calls.
	overflow []byte
	scratch  []byte
	frames   int
	err      error
	closed   bool
}

// NewEncoder creates an Encoder backed by libopus.
func NewEncoder(cfg Config) (*Encoder, error) {
	g, err := NewGeometry(cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	engine, err := NewLibopusEncoder(g, cfg.Application)
	if err != nil {
		return nil, err
	}
	return newEncoder(cfg, g, engine)
}

// NewEncoderWithEngine creates an Encoder that hands frames to engine.
// The Encoder takes ownership of engine and closes it in Close.
func NewEncoderWithEngine(cfg Config, engine FrameEncoder) (*Encoder, error) {
	g, err := NewGeometry(cfg)
	if err != nil {
		return nil, err
	}
	return newEncoder(cfg.withDefaults(), g, engine)
}

func newEncoder(cfg Config, g Geometry, engine FrameEncoder) (*Encoder, error) {
	e := &Encoder{
		geometry:      g,
		engine:        engine,
		maxPacketSize: cfg.MaxPacketSize,
		overflow:      make([]byte, 0, g.FrameBytes),
		scratch:       make([]byte, g.FrameBytes),
	}
	if cfg.Bitrate > 0 {
		if err := e.SetBitrate(cfg.Bitrate); err != nil {
			engine.Close()
			return nil, err
		}
	}

	slog.Debug("created opus encoder", "geometry", g.String(), "application", cfg.Application.String())
	return e, nil
}

// Geometry returns the frame layout fixed at construction.
func (e *Encoder) Geometry() Geometry {
	return e.geometry
}

// Pending returns the number of buffered bytes waiting for a full frame.
func (e *Encoder) Pending() int {
	return len(e.overflow)
}

// Frames returns the number of frames encoded through Accept, Write and Flush.
func (e *Encoder) Frames() int {
	return e.frames
}

// SetSink sets where Write delivers packets.
func (e *Encoder) SetSink(sink PacketSink) {
	e.sink = sink
}

// SetBitrate changes the target bitrate if the engine supports it.
func (e *Encoder) SetBitrate(bitrate int) error {
	if e.err != nil {
		return e.err
	}
	ctl, ok := e.engine.(BitrateController)
	if !ok {
		return ErrUnsupported
	}
	return ctl.SetBitrate(bitrate)
}

// Bitrate reports the engine's current target bitrate in bits per second.
func (e *Encoder) Bitrate() (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	ctl, ok := e.engine.(BitrateController)
	if !ok {
		return 0, ErrUnsupported
	}
	return ctl.Bitrate()
}

// Accept consumes chunk and yields one packet per completed frame, in order.
//
// Each frame is encoded only when the sequence asks for the next packet, and the
// chunk counts as consumed once the sequence has been ranged to the end. Breaking
// out early abandons the stream: the Encoder returns ErrAborted from then on.
// On an engine error the sequence yields that error once and stops.
func (e *Encoder) Accept(chunk []byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if e.err != nil {
			yield(nil, e.err)
			return
		}

		required := e.geometry.FrameBytes
		slog.Debug("opus encoder accept", "bytes", len(chunk), "overflow", len(e.overflow), "required", required)

		for len(e.overflow)+len(chunk) >= required {
			var frame []byte
			if len(e.overflow) > 0 {
				// Only the first frame of a call can straddle the previous one.
				n := required - len(e.overflow)
				frame = append(append(e.scratch[:0], e.overflow...), chunk[:n]...)
				chunk = chunk[n:]
				e.overflow = e.overflow[:0]
			} else {
				frame = chunk[:required]
				chunk = chunk[required:]
			}

			packet, err := e.engine.Encode(frame, e.maxPacketSize)
			if err != nil {
				e.err = err
				yield(nil, err)
				return
			}
			e.frames++
			if !yield(packet, nil) {
				e.err = ErrAborted
				return
			}
		}

		e.overflow = append(e.overflow, chunk...)
		slog.Debug("opus encoder overflow", "bytes", len(e.overflow))
	}
}

// Write runs p through Accept and hands every packet to the sink set by SetSink.
// It returns len(p) once all complete frames in p have been delivered.
func (e *Encoder) Write(p []byte) (int, error) {
	if e.sink == nil {
		return 0, ErrNoSink
	}
	for packet, err := range e.Accept(p) {
		if err != nil {
			return 0, err
		}
		if err := e.sink.WritePacket(packet); err != nil {
			return 0, fmt.Errorf("opus: write packet: %w", err)
		}
	}
	return len(p), nil
}

// Encode encodes a single frame directly, bypassing the buffered overflow.
// frame must be exactly one frame long.
func (e *Encoder) Encode(frame []byte) ([]byte, error) {
	return e.EncodeMax(frame, e.maxPacketSize)
}

// EncodeMax is Encode with an explicit packet size limit.
func (e *Encoder) EncodeMax(frame []byte, maxPacketSize int) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if len(frame) != e.geometry.FrameBytes {
		return nil, &FrameSizeError{Got: len(frame), Want: e.geometry.FrameBytes}
	}
	slog.Debug("opus encoder direct encode", "bytes", len(frame), "maxPacketSize", maxPacketSize)

	packet, err := e.engine.Encode(frame, maxPacketSize)
	if err != nil {
		e.err = err
		return nil, err
	}
	return packet, nil
}

// Flush deals with a trailing partial frame according to mode. It returns the
// padded packet for FlushPad and nil otherwise; with nothing buffered it is a no-op.
func (e *Encoder) Flush(mode FlushMode) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	pending := len(e.overflow)
	if pending == 0 {
		return nil, nil
	}

	required := e.geometry.FrameBytes
	switch mode {
	case FlushPad:
		frame := e.scratch[:required]
		copy(frame, e.overflow)
		clear(frame[pending:])
		e.overflow = e.overflow[:0]

		slog.Debug("opus encoder padding final frame", "bytes", pending, "silence", required-pending)
		packet, err := e.engine.Encode(frame, e.maxPacketSize)
		if err != nil {
			e.err = err
			return nil, err
		}
		e.frames++
		return packet, nil
	case FlushStrict:
		return nil, &PartialFrameError{Pending: pending, Required: required}
	default:
		slog.Debug("opus encoder dropping partial frame", "bytes", pending, "duration", e.geometry.DurationOf(pending))
		e.overflow = e.overflow[:0]
		return nil, nil
	}
}

// Close releases the codec. Buffered bytes that never filled a frame are dropped.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	if n := len(e.overflow); n > 0 {
		slog.Debug("opus encoder closed with partial frame", "bytes", n)
	}
	e.closed = true
	e.overflow = nil
	e.err = ErrClosed
	return e.engine.Close()
}
