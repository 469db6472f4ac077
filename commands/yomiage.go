package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/hazuki-dev/yomiko/settings"
)

// resolveVoice looks up the voice id for a speaker/style interaction pair.
func (h *Handler) resolveVoice(data discordgo.ApplicationCommandInteractionData) (voiceID, label string, ok bool) {
	opts := optionMap(data.Options)
	speaker := opts["speaker"].StringValue()
	style := ""
	if opt, present := opts["style"]; present {
		style = opt.StringValue()
	}

	voiceID, ok = h.voicebox.ResolveVoiceID(speaker, style)
	if !ok {
		return "", "", false
	}
	styleName, _ := h.voicebox.ResolveStyleName(voiceID)
	return voiceID, fmt.Sprintf("%s (%s)", speaker, styleName), true
}

// handleVoice sets the invoker's personal voice override.
func (h *Handler) handleVoice(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !h.voicebox.Ready() {
		h.respond(s, i, "❌ 話者カタログが読み込めていないため、ボイスを設定できません。")
		return
	}

	voiceID, label, ok := h.resolveVoice(data)
	if !ok {
		h.respond(s, i, "❌ その話者またはスタイルは見つかりませんでした。")
		return
	}

	h.store.SetUserVoice(invokerID(i), voiceID)
	h.respond(s, i, fmt.Sprintf("✅ あなたのボイスを %s に設定しました。", label))
}

// handleServerVoice sets the guild's default voice.
func (h *Handler) handleServerVoice(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if i.GuildID == "" {
		h.respond(s, i, "❌ サーバー内でのみ使用できます。")
		return
	}
	if !h.voicebox.Ready() {
		h.respond(s, i, "❌ 話者カタログが読み込めていないため、ボイスを設定できません。")
		return
	}

	voiceID, label, ok := h.resolveVoice(data)
	if !ok {
		h.respond(s, i, "❌ その話者またはスタイルは見つかりませんでした。")
		return
	}

	if err := h.store.SetGuildOption(i.GuildID, "default_voice_id", voiceID); err != nil {
		h.respond(s, i, fmt.Sprintf("❌ 設定に失敗しました: %v", err))
		return
	}
	h.respond(s, i, fmt.Sprintf("✅ サーバーの既定ボイスを %s に設定しました。", label))
}

// handleSpeed sets the guild's playback speed.
func (h *Handler) handleSpeed(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if i.GuildID == "" {
		h.respond(s, i, "❌ サーバー内でのみ使用できます。")
		return
	}

	value := optionMap(data.Options)["value"].FloatValue()
	err := h.store.SetGuildOption(i.GuildID, "speed", strconv.FormatFloat(value, 'f', -1, 64))
	if errors.Is(err, settings.ErrInvalidValue) {
		h.respond(s, i, "❌ 速度は正の数で指定してください。")
		return
	}
	if err != nil {
		h.respond(s, i, fmt.Sprintf("❌ 設定に失敗しました: %v", err))
		return
	}
	h.respond(s, i, fmt.Sprintf("✅ 読み上げ速度を %.2g に設定しました。", value))
}

// handleDictionary manages the guild's substitution dictionary.
func (h *Handler) handleDictionary(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if i.GuildID == "" {
		h.respond(s, i, "❌ サーバー内でのみ使用できます。")
		return
	}

	sub := data.Options[0]
	switch sub.Name {
	case "add":
		opts := optionMap(sub.Options)
		word := opts["word"].StringValue()
		reading := opts["reading"].StringValue()
		err := h.store.SetGuildOption(i.GuildID, "dictionary_entry", word+"="+reading)
		if err != nil {
			h.respond(s, i, fmt.Sprintf("❌ 登録に失敗しました: %v", err))
			return
		}
		h.respond(s, i, fmt.Sprintf("✅ 「%s」を「%s」と読みます。", word, reading))
	case "remove":
		word := optionMap(sub.Options)["word"].StringValue()
		if !h.store.RemoveDictionaryEntry(i.GuildID, word) {
			h.respond(s, i, fmt.Sprintf("❌ 「%s」は登録されていません。", word))
			return
		}
		h.respond(s, i, fmt.Sprintf("✅ 「%s」を削除しました。", word))
	case "list":
		entries := h.store.Guild(i.GuildID).Dictionary
		if len(entries) == 0 {
			h.respond(s, i, "辞書は空です。")
			return
		}
		var b strings.Builder
		b.WriteString("**読み上げ辞書**\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "- %s → %s\n", e.Raw, e.Replacement)
		}
		h.respond(s, i, b.String())
	}
}

// handleYomiage toggles and resets the read-aloud feature.
func (h *Handler) handleYomiage(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if i.GuildID == "" {
		h.respond(s, i, "❌ サーバー内でのみ使用できます。")
		return
	}

	switch data.Options[0].Name {
	case "enable":
		if err := h.store.SetGuildOption(i.GuildID, "enabled", "true"); err != nil {
			h.respond(s, i, fmt.Sprintf("❌ 設定に失敗しました: %v", err))
			return
		}
		h.respond(s, i, "✅ 読み上げを有効にしました。")
	case "disable":
		if err := h.store.SetGuildOption(i.GuildID, "enabled", "false"); err != nil {
			h.respond(s, i, fmt.Sprintf("❌ 設定に失敗しました: %v", err))
			return
		}
		h.respond(s, i, "✅ 読み上げを無効にしました。")
	case "channel":
		if err := h.store.SetGuildOption(i.GuildID, "target_channel", i.ChannelID); err != nil {
			h.respond(s, i, fmt.Sprintf("❌ 設定に失敗しました: %v", err))
			return
		}
		h.respond(s, i, "✅ このチャンネルを読み上げ対象にしました。")
	case "reset":
		h.store.ResetGuild(i.GuildID)
		h.respond(s, i, "✅ サーバー設定を初期化しました。")
	case "skip":
		h.queue.Clear(i.GuildID)
		h.respond(s, i, "⏭️ 読み上げ待ちを破棄しました。")
	}
}
