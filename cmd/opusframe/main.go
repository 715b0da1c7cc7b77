package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/glizzus/opusframe/internal/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No .env file found, continuing without it")
		} else {
			log.Fatalf("Failed to load .env file: %v", err)
		}
	}

	app := &cli.App{
		Name:        "opusframe",
		Usage:       "Frame raw PCM into Opus packets and back",
		Description: "Reads signed 16-bit little-endian PCM in chunks of any size and emits one Opus packet per complete frame.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log at debug level",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			return nil
		},
		Commands: []*cli.Command{
			encodeCommand(),
			decodeCommand(),
			voiceCommand(),
			geometryCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
