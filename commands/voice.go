package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// handleJoin connects the bot to the invoker's voice channel and marks the
// invoking text channel as the read-aloud target.
func (h *Handler) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		h.respond(s, i, "❌ サーバー内でのみ使用できます。")
		return
	}

	voiceState, err := s.State.VoiceState(i.GuildID, invokerID(i))
	if err != nil || voiceState == nil || voiceState.ChannelID == "" {
		h.respond(s, i, "❌ 先にボイスチャンネルに参加してください。")
		return
	}

	if _, err := s.ChannelVoiceJoin(i.GuildID, voiceState.ChannelID, false, true); err != nil {
		h.respond(s, i, fmt.Sprintf("❌ 接続に失敗しました: %v", err))
		return
	}

	if err := h.store.SetGuildOption(i.GuildID, "target_channel", i.ChannelID); err != nil {
		h.respond(s, i, fmt.Sprintf("❌ 設定に失敗しました: %v", err))
		return
	}
	h.respond(s, i, "✅ 接続しました。このチャンネルのメッセージを読み上げます。")
}

// handleLeave disconnects from the guild's voice channel and drops any
// pending utterances.
func (h *Handler) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		h.respond(s, i, "❌ サーバー内でのみ使用できます。")
		return
	}

	h.queue.Clear(i.GuildID)

	s.RLock()
	vc := s.VoiceConnections[i.GuildID]
	s.RUnlock()
	if vc == nil {
		h.respond(s, i, "❌ ボイスチャンネルに接続していません。")
		return
	}
	if err := vc.Disconnect(); err != nil {
		h.respond(s, i, fmt.Sprintf("❌ 切断に失敗しました: %v", err))
		return
	}
	h.respond(s, i, "👋 切断しました。")
}
