// Package events wires Discord gateway events into the bot: message
// ingestion for read-aloud, slash-command interactions, and voice-state
// housekeeping.
package events

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hazuki-dev/yomiko/commands"
	"github.com/hazuki-dev/yomiko/dispatch"
	logger "github.com/hazuki-dev/yomiko/log"
	"github.com/hazuki-dev/yomiko/playback"
)

// Handler receives gateway events and forwards them to the right subsystem.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	commands   *commands.Handler
	queue      *playback.Manager
}

// NewHandler creates an event handler.
func NewHandler(dispatcher *dispatch.Dispatcher, cmds *commands.Handler, queue *playback.Manager) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		commands:   cmds,
		queue:      queue,
	}
}

// Ready logs the gateway handshake.
func (h *Handler) Ready(s *discordgo.Session, r *discordgo.Ready) {
	logger.Info(fmt.Sprintf("Logged in as %s#%s (%d guilds)", r.User.Username, r.User.Discriminator, len(r.Guilds)))
}

// MessageCreate feeds qualifying messages into the read-aloud pipeline.
func (h *Handler) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	h.dispatcher.HandleMessage(dispatch.Message{
		GuildID:   m.GuildID,
		UserID:    m.Author.ID,
		ChannelID: m.ChannelID,
		Text:      m.Content,
		Bot:       m.Author.Bot,
	})
}

// InteractionCreate routes slash commands.
func (h *Handler) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.commands.HandleInteraction(s, i)
}

// VoiceStateUpdate leaves the voice channel when the bot is the last
// occupant; reading to an empty room is pointless.
func (h *Handler) VoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.GuildID == "" || v.UserID == s.State.User.ID {
		return
	}

	s.RLock()
	vc := s.VoiceConnections[v.GuildID]
	s.RUnlock()
	if vc == nil {
		return
	}
	vc.RLock()
	botChannelID := vc.ChannelID
	vc.RUnlock()

	guild, err := s.State.Guild(v.GuildID)
	if err != nil {
		return
	}

	s.State.RLock()
	occupants := 0
	for _, state := range guild.VoiceStates {
		if state.ChannelID == botChannelID && state.UserID != s.State.User.ID {
			occupants++
		}
	}
	s.State.RUnlock()

	if occupants == 0 {
		h.queue.Clear(v.GuildID)
		if err := vc.Disconnect(); err != nil {
			logger.Error(fmt.Sprintf("auto-disconnecting from guild %s", v.GuildID), err)
		} else {
			logger.Info(fmt.Sprintf("Left empty voice channel in guild %s", v.GuildID))
		}
	}
}
