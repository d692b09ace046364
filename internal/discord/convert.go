package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/example/guildlog/internal/event"
)

type permission struct {
	bit  int64
	name string
}

// Bit order, which is also the order names are listed in role updates.
var permissionNames = []permission{
	{1 << 0, "create_instant_invite"},
	{1 << 1, "kick_members"},
	{1 << 2, "ban_members"},
	{1 << 3, "administrator"},
	{1 << 4, "manage_channels"},
	{1 << 5, "manage_guild"},
	{1 << 6, "add_reactions"},
	{1 << 7, "view_audit_log"},
	{1 << 8, "priority_speaker"},
	{1 << 9, "stream"},
	{1 << 10, "view_channel"},
	{1 << 11, "send_messages"},
	{1 << 12, "send_tts_messages"},
	{1 << 13, "manage_messages"},
	{1 << 14, "embed_links"},
	{1 << 15, "attach_files"},
	{1 << 16, "read_message_history"},
	{1 << 17, "mention_everyone"},
	{1 << 18, "use_external_emojis"},
	{1 << 19, "view_guild_insights"},
	{1 << 20, "connect"},
	{1 << 21, "speak"},
	{1 << 22, "mute_members"},
	{1 << 23, "deafen_members"},
	{1 << 24, "move_members"},
	{1 << 25, "use_voice_activation"},
	{1 << 26, "change_nickname"},
	{1 << 27, "manage_nicknames"},
	{1 << 28, "manage_roles"},
	{1 << 29, "manage_webhooks"},
	{1 << 30, "manage_expressions"},
	{1 << 31, "use_application_commands"},
	{1 << 32, "request_to_speak"},
	{1 << 33, "manage_events"},
	{1 << 34, "manage_threads"},
	{1 << 35, "create_public_threads"},
	{1 << 36, "create_private_threads"},
	{1 << 37, "use_external_stickers"},
	{1 << 38, "send_messages_in_threads"},
	{1 << 39, "use_embedded_activities"},
	{1 << 40, "moderate_members"},
}

func permissionList(bits int64) []string {
	var out []string
	for _, p := range permissionNames {
		if bits&p.bit != 0 {
			out = append(out, p.name)
		}
	}
	return out
}

func channelTypeName(t discordgo.ChannelType) string {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return "text"
	case discordgo.ChannelTypeDM:
		return "private"
	case discordgo.ChannelTypeGuildVoice:
		return "voice"
	case discordgo.ChannelTypeGroupDM:
		return "group"
	case discordgo.ChannelTypeGuildCategory:
		return "category"
	case discordgo.ChannelTypeGuildNews:
		return "news"
	case discordgo.ChannelTypeGuildNewsThread:
		return "news_thread"
	case discordgo.ChannelTypeGuildPublicThread:
		return "public_thread"
	case discordgo.ChannelTypeGuildPrivateThread:
		return "private_thread"
	case discordgo.ChannelTypeGuildStageVoice:
		return "stage_voice"
	case discordgo.ChannelTypeGuildForum:
		return "forum"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Only these container types carry a topic.
func hasTopic(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildForum, discordgo.ChannelTypeGuildStageVoice:
		return true
	}
	return false
}

func toUser(u *discordgo.User) event.User {
	if u == nil {
		return event.User{}
	}
	out := event.User{
		ID:          u.ID,
		Name:        u.Username,
		DisplayName: u.GlobalName,
		Automated:   u.Bot,
	}
	if created, err := discordgo.SnowflakeTimestamp(u.ID); err == nil {
		out.CreatedAt = created
	}
	return out
}

func toRole(r *discordgo.Role, guildID string) event.Role {
	if r == nil {
		return event.Role{}
	}
	return event.Role{
		ID:          r.ID,
		Name:        r.Name,
		Color:       r.Color,
		Permissions: permissionList(r.Permissions),
		Default:     r.ID == guildID,
	}
}

func toContainer(c *discordgo.Channel) event.Container {
	if c == nil {
		return event.Container{}
	}
	out := event.Container{ID: c.ID, Name: c.Name, Type: channelTypeName(c.Type)}
	if hasTopic(c.Type) {
		topic := c.Topic
		out.Topic = &topic
	}
	return out
}

func toAttachments(in []*discordgo.MessageAttachment) []event.Attachment {
	out := make([]event.Attachment, 0, len(in))
	for _, a := range in {
		if a == nil {
			continue
		}
		out = append(out, event.Attachment{URL: a.URL, Filename: a.Filename})
	}
	return out
}

func toMessage(m *discordgo.Message) event.Message {
	if m == nil {
		return event.Message{}
	}
	out := event.Message{
		ID:          m.ID,
		TenantID:    m.GuildID,
		ChannelID:   m.ChannelID,
		Author:      toUser(m.Author),
		Content:     m.Content,
		Attachments: toAttachments(m.Attachments),
	}
	if m.Member != nil && m.Member.Nick != "" {
		out.Author.DisplayName = m.Member.Nick
	}
	return out
}

// roleLookup resolves a role id to its definition; the second result is
// false when the role is unknown.
type roleLookup func(guildID, roleID string) (*discordgo.Role, bool)

func toMember(m *discordgo.Member, guildID string, lookup roleLookup) event.Member {
	if m == nil {
		return event.Member{}
	}
	out := event.Member{User: toUser(m.User)}
	if m.Nick != "" {
		out.DisplayName = m.Nick
	}
	if !m.JoinedAt.IsZero() {
		joined := m.JoinedAt
		out.JoinedAt = &joined
	}
	if m.CommunicationDisabledUntil != nil {
		until := *m.CommunicationDisabledUntil
		out.TimedOutUntil = &until
	}
	for _, id := range m.Roles {
		role := event.Role{ID: id, Name: id}
		if lookup != nil {
			if r, ok := lookup(guildID, id); ok {
				role = toRole(r, guildID)
			}
		}
		out.Roles = append(out.Roles, role)
	}
	return out
}

func toVoiceState(vs *discordgo.VoiceState, channelName func(string) string) event.VoiceState {
	if vs == nil {
		return event.VoiceState{}
	}
	out := event.VoiceState{
		ChannelID: vs.ChannelID,
		Mute:      vs.Mute,
		SelfMute:  vs.SelfMute,
		Deaf:      vs.Deaf,
		SelfDeaf:  vs.SelfDeaf,
	}
	if vs.ChannelID != "" && channelName != nil {
		out.ChannelName = channelName(vs.ChannelID)
	}
	return out
}
