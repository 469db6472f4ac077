package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	logger "github.com/hazuki-dev/yomiko/log"
)

const gameRequestTimeout = 60 * time.Second

// handleUmigame routes the game subcommands. Problem generation and judging
// call the generative backend, so those paths defer the interaction response.
func (h *Handler) handleUmigame(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if i.GuildID == "" {
		h.respond(s, i, "❌ サーバー内でのみ使用できます。")
		return
	}

	sub := data.Options[0]
	switch sub.Name {
	case "start":
		h.handleGameStart(s, i, optionMap(sub.Options)["topic"].StringValue())
	case "question":
		h.handleGameQuestion(s, i, optionMap(sub.Options)["text"].StringValue())
	case "hint":
		h.handleGameHint(s, i)
	case "giveup":
		h.handleGameGiveup(s, i)
	}
}

func (h *Handler) handleGameStart(s *discordgo.Session, i *discordgo.InteractionCreate, topic string) {
	if err := h.deferResponse(s, i); err != nil {
		logger.Error("deferring umigame start response", err)
		return
	}

	session := h.games.Start(i.GuildID)
	ctx, cancel := context.WithTimeout(context.Background(), gameRequestTimeout)
	defer cancel()

	problem, err := session.GenerateProblem(ctx, topic)
	if err != nil {
		logger.Error(fmt.Sprintf("generating problem for guild %s", i.GuildID), err)
		h.games.End(i.GuildID)
		h.followUp(s, i, "❌ 問題の生成に失敗しました。もう一度お試しください。")
		return
	}
	if problem == "" {
		h.games.End(i.GuildID)
		h.followUp(s, i, "❌ 問題の生成に失敗しました。もう一度お試しください。")
		return
	}

	h.followUp(s, i, fmt.Sprintf("🐢 **ウミガメのスープ** (お題: %s)\n\n%s\n\n`/umigame question` で質問してください。", topic, problem))
}

func (h *Handler) handleGameQuestion(s *discordgo.Session, i *discordgo.InteractionCreate, question string) {
	session, ok := h.games.Get(i.GuildID)
	if !ok {
		h.respond(s, i, "❌ 進行中のゲームがありません。`/umigame start` で始めてください。")
		return
	}

	if err := h.deferResponse(s, i); err != nil {
		logger.Error("deferring umigame question response", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), gameRequestTimeout)
	defer cancel()

	correct, verdict, err := session.AnswerQuestion(ctx, question)
	if err != nil {
		logger.Error(fmt.Sprintf("judging question for guild %s", i.GuildID), err)
		h.followUp(s, i, "❌ 回答の判定に失敗しました。もう一度質問してください。")
		return
	}

	if correct {
		h.games.End(i.GuildID)
		h.followUp(s, i, fmt.Sprintf("🎉 **正解！**\n\n真相: %s", session.Reveal()))
		return
	}
	h.followUp(s, i, fmt.Sprintf("Q: %s\nA: **%s**", question, verdict))
}

func (h *Handler) handleGameHint(s *discordgo.Session, i *discordgo.InteractionCreate) {
	session, ok := h.games.Get(i.GuildID)
	if !ok {
		h.respond(s, i, "❌ 進行中のゲームがありません。`/umigame start` で始めてください。")
		return
	}

	hint, ok := session.Hint()
	if !ok {
		h.respond(s, i, "💡 これ以上ヒントはありません。")
		return
	}
	h.respond(s, i, fmt.Sprintf("💡 ヒント: %s", hint))
}

func (h *Handler) handleGameGiveup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	session, ok := h.games.Get(i.GuildID)
	if !ok {
		h.respond(s, i, "❌ 進行中のゲームがありません。")
		return
	}

	h.games.End(i.GuildID)
	h.respond(s, i, fmt.Sprintf("🏳️ 真相: %s", session.Reveal()))
}
