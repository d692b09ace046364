package normalize

import (
	"fmt"
	"strings"

	"github.com/example/guildlog/internal/event"
	"github.com/example/guildlog/internal/routes"
)

func (b *builder) voiceState(e event.VoiceStateUpdate) {
	if e.Member.Automated {
		return
	}
	who := actor(e.Member)
	before, after := e.Before, e.After

	switch {
	case before.ChannelID == "" && after.ChannelID != "":
		b.emit(routes.CategoryVoice, "VOICE JOIN",
			fmt.Sprintf("👤 %s joined voice channel **%s**", who, voiceChannelName(after)))
	case before.ChannelID != "" && after.ChannelID == "":
		b.emit(routes.CategoryVoice, "VOICE LEAVE",
			fmt.Sprintf("👤 %s left voice channel **%s**", who, voiceChannelName(before)))
	case before.ChannelID != "" && before.ChannelID != after.ChannelID:
		b.emit(routes.CategoryVoice, "VOICE MOVE",
			fmt.Sprintf("👤 %s moved from **%s** to **%s**", who, voiceChannelName(before), voiceChannelName(after)))
	}

	where := voiceChannelName(after)
	if after.ChannelID == "" {
		where = voiceChannelName(before)
	}

	if before.Mute != after.Mute {
		s := status(after.Mute, "muted", "unmuted")
		b.emit(routes.CategoryVoice, "VOICE "+strings.ToUpper(s),
			fmt.Sprintf("👤 %s was server %s in **%s**", who, s, where))
	}
	if before.SelfMute != after.SelfMute {
		s := status(after.SelfMute, "self-muted", "self-unmuted")
		b.emit(routes.CategoryVoice, "VOICE "+strings.ToUpper(s),
			fmt.Sprintf("👤 %s %s in **%s**", who, s, where))
	}
	if before.Deaf != after.Deaf {
		s := status(after.Deaf, "deafened", "undeafened")
		b.emit(routes.CategoryVoice, "VOICE "+strings.ToUpper(s),
			fmt.Sprintf("👤 %s was server %s in **%s**", who, s, where))
	}
	if before.SelfDeaf != after.SelfDeaf {
		s := status(after.SelfDeaf, "self-deafened", "self-undeafened")
		b.emit(routes.CategoryVoice, "VOICE "+strings.ToUpper(s),
			fmt.Sprintf("👤 %s %s in **%s**", who, s, where))
	}
}

func voiceChannelName(vs event.VoiceState) string {
	switch {
	case vs.ChannelName != "":
		return vs.ChannelName
	case vs.ChannelID != "":
		return vs.ChannelID
	default:
		return "no channel"
	}
}
