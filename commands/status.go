package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/hazuki-dev/yomiko/system"
)

// handleStatus reports system health and this guild's read-aloud state.
func (h *Handler) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cpuUsage, _ := system.GetCPUUsage()
	memUsage, _ := system.GetMemoryUsage()

	catalogStatus := "❌ 未読込"
	if h.voicebox.Ready() {
		catalogStatus = fmt.Sprintf("✅ 話者 %d 件", len(h.voicebox.Speakers()))
	}

	fields := []string{
		"**システム**",
		fmt.Sprintf("💻 CPU: `%.2f%%`", cpuUsage),
		fmt.Sprintf("🧠 メモリ: `%.2f%%`", memUsage),
		"",
		"**読み上げ**",
		fmt.Sprintf("📚 カタログ: %s", catalogStatus),
	}

	if i.GuildID != "" {
		gs := h.store.Guild(i.GuildID)
		enabled := "無効"
		if gs.Enabled {
			enabled = "有効"
		}
		fields = append(fields,
			fmt.Sprintf("🔈 状態: %s / 速度 %.2g", enabled, gs.Speed),
			fmt.Sprintf("⏳ 待ち: %d 件", h.queue.Pending(i.GuildID)),
		)
	}

	h.respond(s, i, strings.Join(fields, "\n"))
}
