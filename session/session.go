// Package session constructs the bot's Discord session.
package session

import (
	"github.com/bwmarrin/discordgo"
)

// NewSession creates a Discord session with the gateway intents the bot
// needs: guild messages for read-aloud ingestion and voice states for
// connection housekeeping.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent
	return s, nil
}
