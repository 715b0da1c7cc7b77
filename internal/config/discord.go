package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type DiscordConfig struct {
	Token   string `env:"DISCORD_TOKEN, required"`
	GuildID string `env:"DISCORD_GUILD_ID"`
}

func NewDiscordConfigFromEnv() (*DiscordConfig, error) {
	var cfg DiscordConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.GuildID == "" {
		return nil, fmt.Errorf("refusing to join a voice channel without DISCORD_GUILD_ID")
	}

	return &cfg, nil
}
