// Package commands implements the bot's slash-command surface: voice channel
// membership, read-aloud configuration, and the umigame game. Command
// handlers are thin; they route into the settings store, the playback
// manager, and the game manager.
package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hazuki-dev/yomiko/config"
	logger "github.com/hazuki-dev/yomiko/log"
	"github.com/hazuki-dev/yomiko/playback"
	"github.com/hazuki-dev/yomiko/settings"
	"github.com/hazuki-dev/yomiko/umigame"
	"github.com/hazuki-dev/yomiko/voicebox"
)

// Handler routes slash-command interactions.
type Handler struct {
	config   *config.DiscordConfig
	store    *settings.Store
	queue    *playback.Manager
	voicebox *voicebox.Client
	games    *umigame.Manager
}

// NewHandler creates a command handler.
func NewHandler(cfg *config.DiscordConfig, store *settings.Store, queue *playback.Manager, vb *voicebox.Client, games *umigame.Manager) *Handler {
	return &Handler{
		config:   cfg,
		store:    store,
		queue:    queue,
		voicebox: vb,
		games:    games,
	}
}

// Definitions returns the application commands the bot registers on startup.
func (h *Handler) Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "join",
			Description: "ボイスチャンネルに接続して読み上げを開始します",
		},
		{
			Name:        "leave",
			Description: "ボイスチャンネルから切断します",
		},
		{
			Name:        "voice",
			Description: "自分の読み上げボイスを設定します",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "speaker", Description: "話者名", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "style", Description: "スタイル名 (省略時はノーマル)"},
			},
		},
		{
			Name:        "server-voice",
			Description: "サーバーの既定ボイスを設定します",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "speaker", Description: "話者名", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "style", Description: "スタイル名 (省略時はノーマル)"},
			},
		},
		{
			Name:        "speed",
			Description: "読み上げ速度を設定します",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionNumber, Name: "value", Description: "速度 (例: 1.2)", Required: true},
			},
		},
		{
			Name:        "dictionary",
			Description: "読み上げ辞書を管理します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type: discordgo.ApplicationCommandOptionSubCommand, Name: "add", Description: "置換を登録します",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "word", Description: "置換前", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "reading", Description: "置換後", Required: true},
					},
				},
				{
					Type: discordgo.ApplicationCommandOptionSubCommand, Name: "remove", Description: "置換を削除します",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "word", Description: "置換前", Required: true},
					},
				},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "list", Description: "登録済みの置換を表示します"},
			},
		},
		{
			Name:        "yomiage",
			Description: "読み上げ機能を設定します",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "enable", Description: "読み上げを有効にします"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "disable", Description: "読み上げを無効にします"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "channel", Description: "このチャンネルを読み上げ対象にします"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "reset", Description: "サーバー設定を初期化します"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "skip", Description: "読み上げ待ちをすべて破棄します"},
			},
		},
		{
			Name:        "umigame",
			Description: "ウミガメのスープで遊びます",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type: discordgo.ApplicationCommandOptionSubCommand, Name: "start", Description: "新しい問題を出題します",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "topic", Description: "お題", Required: true},
					},
				},
				{
					Type: discordgo.ApplicationCommandOptionSubCommand, Name: "question", Description: "はい/いいえで答えられる質問をします",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "text", Description: "質問", Required: true},
					},
				},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "hint", Description: "ヒントを1つ表示します"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "giveup", Description: "降参して真相を表示します"},
			},
		},
		{
			Name:        "status",
			Description: "ボットの状態を表示します",
		},
	}
}

// Register creates the application commands.
func (h *Handler) Register(s *discordgo.Session, appID string) error {
	for _, cmd := range h.Definitions() {
		if _, err := s.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return fmt.Errorf("could not register command /%s: %w", cmd.Name, err)
		}
	}
	return nil
}

// HandleInteraction routes one slash-command invocation.
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	switch data.Name {
	case "join":
		h.handleJoin(s, i)
	case "leave":
		h.handleLeave(s, i)
	case "voice":
		h.handleVoice(s, i, data)
	case "server-voice":
		h.handleServerVoice(s, i, data)
	case "speed":
		h.handleSpeed(s, i, data)
	case "dictionary":
		h.handleDictionary(s, i, data)
	case "yomiage":
		h.handleYomiage(s, i, data)
	case "umigame":
		h.handleUmigame(s, i, data)
	case "status":
		h.handleStatus(s, i)
	}
}

// respond sends an immediate text reply to an interaction.
func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		logger.Error("responding to interaction", err)
	}
}

// deferResponse acknowledges an interaction whose work takes longer than the
// 3-second response window.
func (h *Handler) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// followUp completes a deferred interaction.
func (h *Handler) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content}); err != nil {
		logger.Error("sending interaction follow-up", err)
	}
}

// optionMap indexes interaction options by name.
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// invokerID returns the id of the user who invoked the interaction.
func invokerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
