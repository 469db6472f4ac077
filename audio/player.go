// Package audio converts the speech engine's WAV payloads into Opus frames
// and plays them on a guild's Discord voice connection.
package audio

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"

	"github.com/hazuki-dev/yomiko/playback"
)

const (
	FrameSize  = 960 // 20ms at 48kHz
	Channels   = 2   // Stereo
	SampleRate = 48000

	maxOpusBytes = 4000
)

// Player implements playback.Player on top of a discordgo session. One
// playback call owns the guild's voice connection for its duration; the
// playback manager guarantees calls never overlap within a guild.
type Player struct {
	session *discordgo.Session
}

// NewPlayer creates a Player.
func NewPlayer(session *discordgo.Session) *Player {
	return &Player{session: session}
}

// voiceConnection returns the guild's ready voice connection, if any.
func (p *Player) voiceConnection(guildID string) *discordgo.VoiceConnection {
	p.session.RLock()
	vc := p.session.VoiceConnections[guildID]
	p.session.RUnlock()
	if vc == nil {
		return nil
	}
	vc.RLock()
	ready := vc.Ready
	vc.RUnlock()
	if !ready {
		return nil
	}
	return vc
}

// Play decodes wavData and streams it as Opus until done, ctx expiry, or the
// connection drops. Returns playback.ErrNoVoiceConnection when the guild has
// no ready voice connection.
func (p *Player) Play(ctx context.Context, guildID string, wavData []byte) error {
	vc := p.voiceConnection(guildID)
	if vc == nil {
		return playback.ErrNoVoiceConnection
	}

	wav, err := ParseWAV(wavData)
	if err != nil {
		return fmt.Errorf("decoding synthesized audio: %w", err)
	}
	pcm := wav.ToStereo48k()

	encoder, err := gopus.NewEncoder(SampleRate, Channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("creating opus encoder: %w", err)
	}

	if err := vc.Speaking(true); err != nil {
		return fmt.Errorf("setting speaking state: %w", err)
	}
	defer func() { _ = vc.Speaking(false) }()

	frameSamples := FrameSize * Channels
	for start := 0; start < len(pcm); start += frameSamples {
		end := start + frameSamples
		if end > len(pcm) {
			// Pad the tail frame with silence; Opus frames are fixed-size.
			tail := make([]int16, frameSamples)
			copy(tail, pcm[start:])
			pcm = append(pcm[:start], tail...)
			end = start + frameSamples
		}

		opus, err := encoder.Encode(pcm[start:end], FrameSize, maxOpusBytes)
		if err != nil {
			return fmt.Errorf("encoding opus frame: %w", err)
		}

		select {
		case vc.OpusSend <- opus:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
