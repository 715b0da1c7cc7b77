// Package opus adapts the Opus codec to byte streams.
//
// An Encoder accepts interleaved signed 16-bit little-endian PCM in chunks of any
// size and emits one packet per complete codec frame, carrying the bytes that do
// not yet fill a frame over to the next write. A Decoder turns each packet back
// into a PCM frame; packets are already delimited by whatever carried them, so it
// does no reframing.
//
// Packets are stored in a minimal binary format: concatenated length-prefixed
// frames ([uint16 LE length][opus bytes]). No headers, no metadata. FrameWriter
// and FrameReader produce and consume it.
//
// The codec itself sits behind FrameEncoder and FrameDecoder. NewEncoder and
// NewDecoder use libopus; NewEncoderWithEngine and NewDecoderWithEngine accept any
// implementation.
package opus
