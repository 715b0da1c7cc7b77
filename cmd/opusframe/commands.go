package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/opusframe/internal/config"
	"github.com/glizzus/opusframe/internal/datalayer"
	"github.com/glizzus/opusframe/internal/generator"
	"github.com/glizzus/opusframe/internal/opus"
	"github.com/glizzus/opusframe/internal/voice"
	"github.com/urfave/cli/v2"
)

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "Encode PCM into a length-prefixed Opus packet stream",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "PCM input file (default stdin)"},
			&cli.StringFlag{Name: "out", Usage: "packet stream output file (default stdout)"},
			&cli.IntFlag{Name: "chunk", Usage: "bytes read per chunk (default one frame)"},
			&cli.BoolFlag{Name: "upload", Usage: "store the packet stream in MinIO and print its key"},
			&cli.StringFlag{Name: "prefix", Value: "packets", Usage: "object key prefix used with --upload"},
		}, codecFlags()...),
		Action: func(c *cli.Context) error {
			cfg, mode, err := resolveCodec(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			in, err := openInput(c.String("in"))
			if err != nil {
				return cli.Exit("Failed to open input: "+err.Error(), 1)
			}
			defer in.Close()

			enc, err := opus.NewEncoder(cfg)
			if err != nil {
				return cli.Exit("Failed to create encoder: "+err.Error(), 1)
			}
			defer enc.Close()
			slog.Debug("encoding", "geometry", enc.Geometry().String(), "flush", mode.String())

			if c.Bool("upload") {
				return uploadPackets(c, enc, in, mode)
			}

			out, err := openOutput(c.String("out"))
			if err != nil {
				return cli.Exit("Failed to open output: "+err.Error(), 1)
			}
			defer out.Close()

			bw := bufio.NewWriter(out)
			sink := opus.NewFrameWriter(bw)
			enc.SetSink(sink)

			if err := opus.EncodeStream(c.Context, enc, in, c.Int("chunk")); err != nil {
				return cli.Exit("Failed to encode: "+err.Error(), 1)
			}
			packet, err := enc.Flush(mode)
			if err != nil {
				return cli.Exit("Failed to flush: "+err.Error(), 1)
			}
			if packet != nil {
				if err := sink.WritePacket(packet); err != nil {
					return cli.Exit("Failed to write packet: "+err.Error(), 1)
				}
			}
			if err := bw.Flush(); err != nil {
				return cli.Exit("Failed to write output: "+err.Error(), 1)
			}

			slog.Info("encoded", "frames", enc.Frames())
			return nil
		},
	}
}

func uploadPackets(c *cli.Context, enc *opus.Encoder, in io.Reader, mode opus.FlushMode) error {
	storage, err := datalayer.NewMinioStorageFromEnv()
	if err != nil {
		return cli.Exit("Failed to create minio storage: "+err.Error(), 1)
	}
	if err := storage.EnsureBucket(c.Context); err != nil {
		return cli.Exit("Failed to ensure minio bucket: "+err.Error(), 1)
	}

	packets := opus.EncodeReader(enc, in, mode)
	defer packets.Close()

	keys := &generator.ObjectKeyGenerator{Prefix: c.String("prefix")}
	key, err := datalayer.StorePacketStream(c.Context, storage, keys, packets)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintln(c.App.Writer, key)
	return nil
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "decode",
		Usage: "Decode a length-prefixed Opus packet stream into PCM",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "packet stream input file (default stdin)"},
			&cli.StringFlag{Name: "object", Usage: "read the packet stream from this MinIO key instead of --in"},
			&cli.StringFlag{Name: "out", Usage: "PCM output file (default stdout)"},
		}, codecFlags()...),
		Action: func(c *cli.Context) error {
			cfg, _, err := resolveCodec(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			var src io.ReadCloser
			if key := c.String("object"); key != "" {
				storage, err := datalayer.NewMinioStorageFromEnv()
				if err != nil {
					return cli.Exit("Failed to create minio storage: "+err.Error(), 1)
				}
				src, err = storage.Get(c.Context, key)
				if err != nil {
					return cli.Exit("Failed to fetch "+key+": "+err.Error(), 1)
				}
			} else {
				src, err = openInput(c.String("in"))
				if err != nil {
					return cli.Exit("Failed to open input: "+err.Error(), 1)
				}
			}
			defer src.Close()

			dec, err := opus.NewDecoder(cfg)
			if err != nil {
				return cli.Exit("Failed to create decoder: "+err.Error(), 1)
			}
			defer dec.Close()

			out, err := openOutput(c.String("out"))
			if err != nil {
				return cli.Exit("Failed to open output: "+err.Error(), 1)
			}
			defer out.Close()

			bw := bufio.NewWriter(out)
			if err := opus.DecodeStream(c.Context, dec, opus.NewFrameReader(src), bw); err != nil {
				return cli.Exit("Failed to decode: "+err.Error(), 1)
			}
			if err := bw.Flush(); err != nil {
				return cli.Exit("Failed to write output: "+err.Error(), 1)
			}
			return nil
		},
	}
}

func voiceCommand() *cli.Command {
	return &cli.Command{
		Name:  "voice",
		Usage: "Play 48 kHz stereo PCM into a Discord voice channel",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "PCM input file (default stdin)"},
			&cli.StringFlag{Name: "channel", Usage: "voice channel name (default the busiest one)"},
			flushFlag(),
		},
		Action: func(c *cli.Context) error {
			mode := opus.FlushPad
			if c.IsSet("flush") {
				m, err := opus.ParseFlushMode(c.String("flush"))
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				mode = m
			}

			dc, err := config.NewDiscordConfigFromEnv()
			if err != nil {
				return cli.Exit("Failed to load discord config: "+err.Error(), 1)
			}

			in, err := openInput(c.String("in"))
			if err != nil {
				return cli.Exit("Failed to open input: "+err.Error(), 1)
			}
			defer in.Close()

			session, err := voice.NewSession(dc.Token)
			if err != nil {
				return cli.Exit("Failed to create session: "+err.Error(), 1)
			}
			if err := session.Open(); err != nil {
				return cli.Exit("Failed to open session: "+err.Error(), 1)
			}
			defer func() {
				if err := session.Close(); err != nil {
					slog.Warn("failed to close session", "error", err)
				}
			}()

			channels, err := session.GuildChannels(dc.GuildID)
			if err != nil {
				return cli.Exit("Failed to get guild channels: "+err.Error(), 1)
			}
			guild, err := session.State.Guild(dc.GuildID)
			if err != nil {
				slog.Debug("guild not cached yet, treating every channel as empty", "error", err)
			}
			channel, err := voice.PickChannel(channels, voice.Attendance(guild), c.String("channel"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			enc, err := opus.NewEncoder(opus.DiscordVoiceConfig())
			if err != nil {
				return cli.Exit("Failed to create encoder: "+err.Error(), 1)
			}
			defer enc.Close()

			err = voice.WithVoiceChannel(session, dc.GuildID, channel.ID, func(s *discordgo.Session, vc *discordgo.VoiceConnection) error {
				packets := opus.EncodeReader(enc, in, mode)
				defer packets.Close()
				return opus.StreamToVoice(c.Context, opus.NewFrameReader(packets), vc)
			})
			if err != nil {
				return cli.Exit("Failed to play: "+err.Error(), 1)
			}
			return nil
		},
	}
}

func geometryCommand() *cli.Command {
	return &cli.Command{
		Name:  "geometry",
		Usage: "Print the frame geometry for the codec settings",
		Flags: codecFlags(),
		Action: func(c *cli.Context) error {
			cfg, _, err := resolveCodec(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			g, err := opus.NewGeometry(cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Fprintf(c.App.Writer, "sample rate:    %d Hz\n", g.SampleRate)
			fmt.Fprintf(c.App.Writer, "channels:       %d\n", g.Channels)
			fmt.Fprintf(c.App.Writer, "frame duration: %s\n", g.FrameDuration)
			fmt.Fprintf(c.App.Writer, "frame samples:  %d\n", g.FrameSamples)
			fmt.Fprintf(c.App.Writer, "frame bytes:    %d\n", g.FrameBytes)
			return nil
		},
	}
}
