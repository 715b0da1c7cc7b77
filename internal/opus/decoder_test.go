package opus_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/glizzus/opusframe/internal/opus"
	"github.com/google/go-cmp/cmp"
)

func newTestDecoder(t *testing.T, cfg opus.Config) (*opus.Decoder, *copyEngine) {
	t.Helper()
	g, err := opus.NewGeometry(cfg)
	if err != nil {
		t.Fatalf("NewGeometry() returned error: %v", err)
	}
	engine := &copyEngine{frameBytes: g.FrameBytes}
	dec, err := opus.NewDecoderWithEngine(cfg, engine)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	return dec, engine
}

func TestDecoderRoundTrip(t *testing.T) {
	cfg := opus.Config{SampleRate: 48000, Channels: 1}
	enc, _, err := newTestEncoder(cfg)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	defer enc.Close()
	dec, engine := newTestDecoder(t, cfg)
	defer dec.Close()

	frameBytes := enc.Geometry().FrameBytes
	pcm := randomPCM(rand.New(rand.NewPCG(13, 14)), frameBytes*5)
	packets, err := collect(enc, pcm)
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}

	var decoded []byte
	for i, packet := range packets {
		frame, err := dec.Accept(packet)
		if err != nil {
			t.Fatalf("Accept(packet %d) returned error: %v", i, err)
		}
		if len(frame) != frameBytes {
			t.Errorf("frame %d is %d bytes; want %d", i, len(frame), frameBytes)
		}
		decoded = append(decoded, frame...)
	}
	if engine.calls != len(packets) {
		t.Errorf("engine called %d times for %d packets", engine.calls, len(packets))
	}
	if !bytes.Equal(decoded, pcm) {
		t.Error("decoded PCM differs from the input")
	}
}

func TestDecoderEngineErrorIsTerminal(t *testing.T) {
	dec, _ := newTestDecoder(t, opus.Config{})
	defer dec.Close()

	if _, err := dec.Decode([]byte("garbage")); err == nil {
		t.Fatal("expected error for a corrupted packet")
	}
	if _, err := dec.Decode([]byte("Pvalid")); err == nil {
		t.Error("expected the decoder to stay failed after an engine error")
	}
}

func TestDecoderWrite(t *testing.T) {
	dec, _ := newTestDecoder(t, opus.Config{SampleRate: 8000})
	defer dec.Close()

	if _, err := dec.Write([]byte("Pabc")); !errors.Is(err, opus.ErrNoSink) {
		t.Errorf("Write without output returned %v; want ErrNoSink", err)
	}

	var out bytes.Buffer
	dec.SetOutput(&out)
	for _, p := range []string{"Pabc", "Pdef"} {
		n, err := dec.Write([]byte(p))
		if err != nil {
			t.Fatalf("Write(%q) returned error: %v", p, err)
		}
		if n != len(p) {
			t.Errorf("Write(%q) returned %d; want %d", p, n, len(p))
		}
	}
	if got := out.String(); got != "abcdef" {
		t.Errorf("output = %q; want %q", got, "abcdef")
	}
}

func pcmOf(samples ...int16) []byte {
	b := make([]byte, len(samples)*opus.BytesPerSample)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(b[i*opus.BytesPerSample:], uint16(v))
	}
	return b
}

func TestDecoderGain(t *testing.T) {
	cfg := opus.Config{SampleRate: 8000, FrameDuration: 2500 * time.Microsecond}

	tc := []struct {
		name string
		gain int
		in   []int16
		want []int16
	}{
		{
			name: "unity",
			gain: 0,
			in:   []int16{1000, -1000, 32767},
			want: []int16{1000, -1000, 32767},
		},
		{
			name: "about +6 dB doubles",
			gain: 1541,
			in:   []int16{1000, -1000, 0},
			want: []int16{2000, -2000, 0},
		},
		{
			name: "-20 dB",
			gain: -5120,
			in:   []int16{1000, -1000, 7},
			want: []int16{100, -100, 1},
		},
		{
			name: "saturates",
			gain: 1541,
			in:   []int16{20000, -20000},
			want: []int16{32767, -32768},
		},
	}

	for _, test := range tc {
		t.Run(test.name, func(t *testing.T) {
			dec, _ := newTestDecoder(t, cfg)
			defer dec.Close()

			if err := dec.SetGain(test.gain); err != nil {
				t.Fatalf("SetGain returned error: %v", err)
			}
			if dec.Gain() != test.gain {
				t.Errorf("Gain() = %d; want %d", dec.Gain(), test.gain)
			}

			got, err := dec.Decode(append([]byte{'P'}, pcmOf(test.in...)...))
			if err != nil {
				t.Fatalf("Decode returned error: %v", err)
			}
			if diff := cmp.Diff(pcmOf(test.want...), got); diff != "" {
				t.Errorf("decoded PCM mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecoderGainOutOfRange(t *testing.T) {
	dec, _ := newTestDecoder(t, opus.Config{})
	defer dec.Close()

	for _, gain := range []int{opus.MinGain - 1, opus.MaxGain + 1} {
		if err := dec.SetGain(gain); !errors.Is(err, opus.ErrInvalidConfig) {
			t.Errorf("SetGain(%d) returned %v; want ErrInvalidConfig", gain, err)
		}
	}
	if dec.Gain() != 0 {
		t.Errorf("Gain() = %d after rejected values; want 0", dec.Gain())
	}
}

func TestDecoderClose(t *testing.T) {
	dec, engine := newTestDecoder(t, opus.Config{})
	if err := dec.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !engine.closed {
		t.Error("Close did not release the engine")
	}
	if _, err := dec.Decode([]byte("Pabc")); !errors.Is(err, opus.ErrClosed) {
		t.Errorf("Decode after Close returned %v; want ErrClosed", err)
	}
}
