package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glizzus/opusframe/internal/config"
	"github.com/glizzus/opusframe/internal/opus"
	"github.com/google/go-cmp/cmp"
)

func TestNewCodecConfigFromEnvDefaults(t *testing.T) {
	cfg, err := config.NewCodecConfigFromEnv()
	if err != nil {
		t.Fatalf("NewCodecConfigFromEnv() returned error: %v", err)
	}

	want := &config.CodecConfig{
		SampleRate:    48000,
		Channels:      1,
		FrameDuration: 60 * time.Millisecond,
		Application:   "audio",
		Flush:         "drop",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("NewCodecConfigFromEnv() mismatch (-want +got):\n%s", diff)
	}

	got, err := cfg.Opus()
	if err != nil {
		t.Fatalf("Opus() returned error: %v", err)
	}
	wantOpus := opus.Config{
		SampleRate:    48000,
		Channels:      1,
		FrameDuration: 60 * time.Millisecond,
		Application:   opus.ApplicationAudio,
	}
	if diff := cmp.Diff(wantOpus, got); diff != "" {
		t.Errorf("Opus() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewCodecConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("OPUS_RATE", "16000")
	t.Setenv("OPUS_CHANNELS", "2")
	t.Setenv("OPUS_FRAME_DURATION", "20ms")
	t.Setenv("OPUS_APPLICATION", "voip")
	t.Setenv("OPUS_BITRATE", "32000")
	t.Setenv("OPUS_FLUSH", "pad")

	cfg, err := config.NewCodecConfigFromEnv()
	if err != nil {
		t.Fatalf("NewCodecConfigFromEnv() returned error: %v", err)
	}
	got, err := cfg.Opus()
	if err != nil {
		t.Fatalf("Opus() returned error: %v", err)
	}
	want := opus.Config{
		SampleRate:    16000,
		Channels:      2,
		FrameDuration: 20 * time.Millisecond,
		Application:   opus.ApplicationVoIP,
		Bitrate:       32000,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Opus() mismatch (-want +got):\n%s", diff)
	}

	mode, err := cfg.FlushMode()
	if err != nil || mode != opus.FlushPad {
		t.Errorf("FlushMode() = (%v, %v); want (pad, nil)", mode, err)
	}
}

func TestCodecConfigOpusRejectsInvalidRate(t *testing.T) {
	t.Setenv("OPUS_RATE", "44100")

	cfg, err := config.NewCodecConfigFromEnv()
	if err != nil {
		t.Fatalf("NewCodecConfigFromEnv() returned error: %v", err)
	}
	if _, err := cfg.Opus(); !errors.Is(err, opus.ErrInvalidConfig) {
		t.Errorf("Opus() returned %v; want ErrInvalidConfig", err)
	}
}

func TestNewDiscordConfigFromEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	if _, err := config.NewDiscordConfigFromEnv(); err == nil {
		t.Error("expected error without DISCORD_GUILD_ID")
	}

	t.Setenv("DISCORD_GUILD_ID", "517907971481534467")
	cfg, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		t.Fatalf("NewDiscordConfigFromEnv() returned error: %v", err)
	}
	if cfg.Token != "token" || cfg.GuildID != "517907971481534467" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	if err := config.LoadEnv(filepath.Join(dir, ".env")); !os.IsNotExist(err) {
		t.Errorf("LoadEnv on a missing file returned %v; want a not-exist error", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("OPUS_FLUSH=strict\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("OPUS_FLUSH", "")
	os.Unsetenv("OPUS_FLUSH")

	if err := config.LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv returned error: %v", err)
	}
	if got := os.Getenv("OPUS_FLUSH"); got != "strict" {
		t.Errorf("OPUS_FLUSH = %q; want %q", got, "strict")
	}
}
