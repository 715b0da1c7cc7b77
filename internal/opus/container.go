package opus

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

var ErrPacketTooLarge = errors.New("opus: packet does not fit a uint16 length prefix")

// PacketSource yields packets one at a time and returns io.EOF when exhausted.
type PacketSource interface {
	ReadFrame() ([]byte, error)
}

// PacketSink receives whole packets. A packet is never split across calls.
type PacketSink interface {
	WritePacket(packet []byte) error
}

// PacketSinkFunc adapts a function to PacketSink.
type PacketSinkFunc func(packet []byte) error

func (f PacketSinkFunc) WritePacket(packet []byte) error {
	return f(packet)
}

// FrameReader reads length-prefixed Opus frames from an io.Reader.
type FrameReader struct {
	r io.Reader
}

// NewFrameReader returns a new FrameReader that reads from r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// ReadFrame reads and returns the next raw Opus frame.
// Returns io.EOF when there are no more frames and io.ErrUnexpectedEOF when the
// stream ends inside one.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	var size uint16
	if err := binary.Read(f.r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}

	frame := make([]byte, size)
	if _, err := io.ReadFull(f.r, frame); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return frame, nil
}

var _ PacketSource = (*FrameReader)(nil)

// FrameWriter writes packets as length-prefixed frames to an io.Writer.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter returns a new FrameWriter that writes to w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

func (f *FrameWriter) WritePacket(packet []byte) error {
	if len(packet) > math.MaxUint16 {
		return ErrPacketTooLarge
	}

	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(packet)))
	if _, err := f.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := f.w.Write(packet)
	return err
}

var _ PacketSink = (*FrameWriter)(nil)
