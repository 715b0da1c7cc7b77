package voice

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

func readyLog(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("Bot is ready", "username", r.User.Username, "userID", r.User.ID)
}

// NewSession creates a bot session that tracks guild voice states. The
// session still has to be opened.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	s.AddHandler(readyLog)

	return s, nil
}
