package opus

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/discordgo"
)

var ErrVoiceConnClosed = errors.New("voice connection send timeout")

// VoiceSendTimeout bounds how long StreamToVoice waits for Discord to take a packet.
const VoiceSendTimeout = time.Minute

// EncodeStream reads PCM from r in chunks of at most chunkSize bytes and writes
// each one through enc, which must have a sink. A chunk is read only after the
// previous one has been fully encoded and delivered. It returns nil at EOF
// without flushing; call enc.Flush afterwards to handle a trailing partial frame.
//
// ctx is checked between chunks; a Read already blocked on r is not interrupted.
func EncodeStream(ctx context.Context, enc *Encoder, r io.Reader, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = enc.Geometry().FrameBytes
	}
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := enc.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// EncodeReader takes PCM as an io.Reader, runs it through enc and returns an
// io.ReadCloser that produces length-prefixed Opus frames. At the end of r the
// trailing partial frame is handled according to mode.
//
// enc belongs to the returned reader until it reports EOF or is closed. Close
// waits for the encoding goroutine to stop, so enc may be closed right after;
// a Read already blocked on r delays it until that Read returns. Closing early
// leaves enc terminal with ErrAborted.
func EncodeReader(enc *Encoder, r io.Reader, mode FlushMode) io.ReadCloser {
	pr, pw := io.Pipe()
	sink := NewFrameWriter(pw)
	enc.SetSink(sink)

	done := make(chan struct{})
	go func() {
		defer close(done)

		if _, err := io.Copy(enc, r); err != nil {
			pw.CloseWithError(err)
			return
		}

		packet, err := enc.Flush(mode)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if packet != nil {
			if err := sink.WritePacket(packet); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.Close()
	}()

	return &encodeReader{PipeReader: pr, done: done}
}

type encodeReader struct {
	*io.PipeReader
	done chan struct{}
}

func (e *encodeReader) Close() error {
	err := e.PipeReader.Close()
	<-e.done
	return err
}

// DecodeStream reads packets from source, decodes them with dec and writes the PCM
// to w. Returns nil on clean EOF.
func DecodeStream(ctx context.Context, dec *Decoder, source PacketSource, w io.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		packet, err := source.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		pcm, err := dec.Decode(packet)
		if err != nil {
			return err
		}
		if _, err := w.Write(pcm); err != nil {
			return err
		}
	}
}

// SendPackets reads packets from source and sends them on out, waiting at most
// timeout for each one to be taken. Returns nil on clean EOF; a truncated
// stream is reported as io.ErrUnexpectedEOF after the complete packets went out.
func SendPackets(ctx context.Context, source PacketSource, out chan<- []byte, timeout time.Duration) error {
	for {
		packet, err := source.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		timer := time.NewTimer(timeout)
		select {
		case out <- packet:
			timer.Stop()
		case <-timer.C:
			return ErrVoiceConnClosed
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// StreamToVoice reads Opus frames from source and sends them to the Discord
// voice connection. It blocks until all frames are sent or an error occurs.
// Discord expects 48 kHz stereo packets of 20 ms.
func StreamToVoice(ctx context.Context, source PacketSource, vc *discordgo.VoiceConnection) error {
	return SendPackets(ctx, source, vc.OpusSend, VoiceSendTimeout)
}

// DiscordVoiceConfig is the layout Discord voice connections expect.
func DiscordVoiceConfig() Config {
	return Config{
		SampleRate:    48000,
		Channels:      2,
		FrameDuration: 20 * time.Millisecond,
		Application:   ApplicationAudio,
	}
}
