package opus

import (
	"encoding/binary"
	"fmt"
	"slices"
	"time"

	"layeh.com/gopus"
)

// Frame durations libopus can encode.
var libopusDurations = []time.Duration{
	2500 * time.Microsecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	20 * time.Millisecond,
	40 * time.Millisecond,
	60 * time.Millisecond,
}

// LibopusEncoder is a FrameEncoder backed by a gopus encoder.
// Each instance owns its libopus state; do not share it between streams.
type LibopusEncoder struct {
	enc      *gopus.Encoder
	geometry Geometry
}

// NewLibopusEncoder creates a libopus encoder for frames of geometry g.
func NewLibopusEncoder(g Geometry, app Application) (*LibopusEncoder, error) {
	if !slices.Contains(libopusDurations, g.FrameDuration) {
		return nil, fmt.Errorf("%w: libopus cannot encode %s frames", ErrInvalidConfig, g.FrameDuration)
	}
	enc, err := gopus.NewEncoder(g.SampleRate, g.Channels, gopusApplication(app))
	if err != nil {
		return nil, fmt.Errorf("opus: create encoder: %w", err)
	}
	return &LibopusEncoder{enc: enc, geometry: g}, nil
}

// Encode encodes exactly one frame of interleaved little-endian PCM.
func (e *LibopusEncoder) Encode(frame []byte, maxPacketSize int) ([]byte, error) {
	if e.enc == nil {
		return nil, ErrClosed
	}
	if len(frame) != e.geometry.FrameBytes {
		return nil, &FrameSizeError{Got: len(frame), Want: e.geometry.FrameBytes}
	}
	if maxPacketSize <= 0 {
		maxPacketSize = len(frame) * 2
	}
	packet, err := e.enc.Encode(bytesToInt16s(frame), e.geometry.FrameSamples, maxPacketSize)
	if err != nil {
		return nil, fmt.Errorf("opus: encode: %w", err)
	}
	return packet, nil
}

func (e *LibopusEncoder) SetBitrate(bitrate int) error {
	if e.enc == nil {
		return ErrClosed
	}
	e.enc.SetBitrate(bitrate)
	return nil
}

func (e *LibopusEncoder) Bitrate() (int, error) {
	if e.enc == nil {
		return 0, ErrClosed
	}
	return e.enc.Bitrate(), nil
}

// Close drops the encoder. gopus frees the native state once it is unreachable.
func (e *LibopusEncoder) Close() error {
	e.enc = nil
	return nil
}

var _ FrameEncoder = (*LibopusEncoder)(nil)
var _ BitrateController = (*LibopusEncoder)(nil)

// LibopusDecoder is a FrameDecoder backed by a gopus decoder.
type LibopusDecoder struct {
	dec       *gopus.Decoder
	channels  int
	maxFrames int
}

// NewLibopusDecoder creates a libopus decoder producing PCM of geometry g.
// Packets carrying more audio than g.FrameDuration still decode, up to 120ms.
func NewLibopusDecoder(g Geometry) (*LibopusDecoder, error) {
	dec, err := gopus.NewDecoder(g.SampleRate, g.Channels)
	if err != nil {
		return nil, fmt.Errorf("opus: create decoder: %w", err)
	}
	maxFrames := g.SampleRate * int(MaxFrameDuration/time.Millisecond) / 1000
	return &LibopusDecoder{dec: dec, channels: g.Channels, maxFrames: max(maxFrames, g.FrameSamples)}, nil
}

// Decode decodes one packet into interleaved little-endian PCM.
func (d *LibopusDecoder) Decode(packet []byte) ([]byte, error) {
	if d.dec == nil {
		return nil, ErrClosed
	}
	pcm, err := d.dec.Decode(packet, d.maxFrames, false)
	if err != nil {
		return nil, fmt.Errorf("opus: decode: %w", err)
	}
	return int16sToBytes(pcm), nil
}

func (d *LibopusDecoder) Close() error {
	d.dec = nil
	return nil
}

var _ FrameDecoder = (*LibopusDecoder)(nil)

func gopusApplication(app Application) gopus.Application {
	switch app {
	case ApplicationVoIP:
		return gopus.Voip
	case ApplicationLowDelay:
		return gopus.RestrictedLowDelay
	default:
		return gopus.Audio
	}
}

func int16sToBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*BytesPerSample)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(b[i*BytesPerSample:], uint16(s))
	}
	return b
}

func bytesToInt16s(b []byte) []int16 {
	pcm := make([]int16, len(b)/BytesPerSample)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(b[i*BytesPerSample:]))
	}
	return pcm
}
