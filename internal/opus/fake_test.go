package opus_test

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/glizzus/opusframe/internal/opus"
)

var errEngine = errors.New("engine failure")

// copyEngine is a lossless codec: a packet is the frame behind a one byte marker.
type copyEngine struct {
	frameBytes int
	calls      int
	failOn     int // 1-based call that fails, 0 never
	closed     bool
	bitrate    int
}

func (c *copyEngine) Encode(frame []byte, maxPacketSize int) ([]byte, error) {
	c.calls++
	if c.failOn != 0 && c.calls == c.failOn {
		return nil, errEngine
	}
	if len(frame) != c.frameBytes {
		return nil, fmt.Errorf("copyEngine: got %d bytes, want %d", len(frame), c.frameBytes)
	}
	return append([]byte{'P'}, frame...), nil
}

func (c *copyEngine) Decode(packet []byte) ([]byte, error) {
	c.calls++
	if c.failOn != 0 && c.calls == c.failOn {
		return nil, errEngine
	}
	if len(packet) == 0 || packet[0] != 'P' {
		return nil, errors.New("copyEngine: corrupted packet")
	}
	return bytes.Clone(packet[1:]), nil
}

func (c *copyEngine) SetBitrate(bitrate int) error {
	c.bitrate = bitrate
	return nil
}

func (c *copyEngine) Bitrate() (int, error) {
	return c.bitrate, nil
}

func (c *copyEngine) Close() error {
	c.closed = true
	return nil
}

var _ opus.FrameEncoder = (*copyEngine)(nil)
var _ opus.FrameDecoder = (*copyEngine)(nil)
var _ opus.BitrateController = (*copyEngine)(nil)

// slowEngine is a copyEngine that takes delay per frame, so a stream is still
// encoding when its consumer goes away.
type slowEngine struct {
	copyEngine
	delay time.Duration
}

func (s *slowEngine) Encode(frame []byte, maxPacketSize int) ([]byte, error) {
	time.Sleep(s.delay)
	return s.copyEngine.Encode(frame, maxPacketSize)
}

func newTestEncoder(cfg opus.Config) (*opus.Encoder, *copyEngine, error) {
	g, err := opus.NewGeometry(cfg)
	if err != nil {
		return nil, nil, err
	}
	engine := &copyEngine{frameBytes: g.FrameBytes}
	enc, err := opus.NewEncoderWithEngine(cfg, engine)
	return enc, engine, err
}

// collect ranges over Accept and returns every packet, stopping at the first error.
func collect(enc *opus.Encoder, chunk []byte) ([][]byte, error) {
	var packets [][]byte
	for packet, err := range enc.Accept(chunk) {
		if err != nil {
			return packets, err
		}
		packets = append(packets, packet)
	}
	return packets, nil
}

func randomPCM(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(r.IntN(256))
	}
	return b
}

// randomSplit cuts b into chunks of random length between 0 and maxChunk.
func randomSplit(r *rand.Rand, b []byte, maxChunk int) [][]byte {
	var chunks [][]byte
	for len(b) > 0 {
		n := min(r.IntN(maxChunk+1), len(b))
		chunks = append(chunks, b[:n])
		b = b[n:]
	}
	return chunks
}
