package opus

import (
	"errors"
	"fmt"
)

// FrameEncoder turns one PCM frame into one packet.
// A zero maxPacketSize lets the implementation pick its own limit.
// Encode must not retain frame after it returns.
type FrameEncoder interface {
	Encode(frame []byte, maxPacketSize int) ([]byte, error)
	Close() error
}

// FrameDecoder turns one packet back into PCM.
type FrameDecoder interface {
	Decode(packet []byte) ([]byte, error)
	Close() error
}

// BitrateController is implemented by encoders with an adjustable target bitrate.
type BitrateController interface {
	SetBitrate(bitrate int) error
	Bitrate() (int, error)
}

var (
	ErrClosed      = errors.New("opus: closed")
	ErrAborted     = errors.New("opus: stream aborted")
	ErrUnsupported = errors.New("opus: operation not supported by codec")
	ErrNoSink      = errors.New("opus: no output configured")
)

// FrameSizeError reports a PCM frame whose length is not the configured frame size.
type FrameSizeError struct {
	Got  int
	Want int
}

func (e *FrameSizeError) Error() string {
	return fmt.Sprintf("opus: frame is %d bytes, want %d", e.Got, e.Want)
}

var _ error = (*FrameSizeError)(nil)

// PartialFrameError is returned by a strict flush when bytes short of a full
// frame are still buffered.
type PartialFrameError struct {
	Pending  int
	Required int
}

func (e *PartialFrameError) Error() string {
	return fmt.Sprintf("opus: %d bytes buffered, %d needed for a frame", e.Pending, e.Required)
}

var _ error = (*PartialFrameError)(nil)
