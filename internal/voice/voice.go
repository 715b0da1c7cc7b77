package voice

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/opusframe/internal/util"
)

var ErrNoVoiceChannel = errors.New("no voice channel available")

// Attendance counts the members present in each voice channel of a guild.
func Attendance(guild *discordgo.Guild) map[string]int {
	counts := make(map[string]int)
	if guild == nil {
		return counts
	}
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != "" {
			counts[vs.ChannelID]++
		}
	}
	return counts
}

// MaxAttendedChannel returns the voice channel with the most members in it.
// Ties go to the channel listed first. It returns nil if channels holds no
// voice channel.
func MaxAttendedChannel(channels []*discordgo.Channel, attendance map[string]int) *discordgo.Channel {
	var best *discordgo.Channel
	bestCount := -1

	for _, channel := range channels {
		if channel.Type != discordgo.ChannelTypeGuildVoice {
			continue
		}
		if n := attendance[channel.ID]; n > bestCount {
			best = channel
			bestCount = n
		}
	}

	return best
}

// PickChannel selects the voice channel called name, or the busiest one when
// name is empty.
func PickChannel(channels []*discordgo.Channel, attendance map[string]int, name string) (*discordgo.Channel, error) {
	if name == "" {
		if ch := MaxAttendedChannel(channels, attendance); ch != nil {
			return ch, nil
		}
		return nil, ErrNoVoiceChannel
	}

	ch, ok := util.FindFirst(channels, func(c *discordgo.Channel) bool {
		return c.Type == discordgo.ChannelTypeGuildVoice && c.Name == name
	})
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoVoiceChannel, name)
	}
	return ch, nil
}

type VoiceChannelFunc func(*discordgo.Session, *discordgo.VoiceConnection) error

// WithVoiceChannel joins a voice channel, marks the bot as speaking and runs
// callback. The connection is released when callback returns.
func WithVoiceChannel(s *discordgo.Session, guildID, channelID string, callback VoiceChannelFunc) error {
	slog.Debug("joining voice channel", "guild", guildID, "channel", channelID)
	voiceConn, err := s.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("unable to join the voice channel: %w", err)
	}

	if err := voiceConn.Speaking(true); err != nil {
		return fmt.Errorf("error setting speaking state to 'true': %w", err)
	}
	defer func() {
		if err := voiceConn.Speaking(false); err != nil {
			slog.Error("failed to stop speaking", "error", err)
		}

		if err := voiceConn.Disconnect(); err != nil {
			slog.Error("failed to disconnect", "error", err)
		}
	}()

	if err = callback(s, voiceConn); err != nil {
		return fmt.Errorf("error executing callback: %w", err)
	}

	return nil
}
