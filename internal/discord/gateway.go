package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/example/guildlog/internal/event"
)

// Submitter is satisfied by *pipeline.Pipeline.
type Submitter interface {
	Submit(ctx context.Context, ev event.Event) bool
}

func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsAll
	// Message snapshots are what edit and delete events are diffed against.
	s.State.MaxMessageCount = 1000
	return s, nil
}

// Gateway translates platform events into event variants and submits them.
type Gateway struct {
	session  *discordgo.Session
	pipeline Submitter
	commands *Commands
	logger   zerolog.Logger
	snaps    *snapshots
}

func NewGateway(s *discordgo.Session, pipeline Submitter, commands *Commands, logger zerolog.Logger) *Gateway {
	g := &Gateway{
		session:  s,
		pipeline: pipeline,
		commands: commands,
		logger:   logger,
		snaps:    newSnapshots(),
	}
	s.AddHandler(g.onReady)
	s.AddHandler(g.onGuildCreate)
	s.AddHandler(g.onGuildDelete)
	s.AddHandler(g.onVoiceStateUpdate)
	s.AddHandler(g.onMessageCreate)
	s.AddHandler(g.onMessageUpdate)
	s.AddHandler(g.onMessageDelete)
	s.AddHandler(g.onGuildBanAdd)
	s.AddHandler(g.onGuildBanRemove)
	s.AddHandler(g.onGuildMemberUpdate)
	s.AddHandler(g.onGuildRoleCreate)
	s.AddHandler(g.onGuildRoleUpdate)
	s.AddHandler(g.onGuildRoleDelete)
	s.AddHandler(g.onChannelCreate)
	s.AddHandler(g.onChannelUpdate)
	s.AddHandler(g.onChannelDelete)
	s.AddHandler(g.onGuildMemberAdd)
	s.AddHandler(g.onGuildMemberRemove)
	if commands != nil {
		s.AddHandler(commands.Handle)
	}
	return g
}

// Open connects the session, retrying with exponential backoff until
// maxElapsed passes or ctx is done.
func (g *Gateway) Open(ctx context.Context, maxElapsed time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxElapsed
	return backoff.RetryNotify(g.session.Open, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		g.logger.Warn().Err(err).Dur("retry_in", wait).Msg("gateway connect failed")
	})
}

func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) submit(ev event.Event) {
	g.pipeline.Submit(context.Background(), ev)
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	g.logger.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("connected to gateway")
	if g.commands == nil {
		return
	}
	if err := g.commands.Register(s, r.User.ID); err != nil {
		g.logger.Error().Err(err).Msg("failed to register commands")
	}
}

func (g *Gateway) onGuildCreate(_ *discordgo.Session, e *discordgo.GuildCreate) {
	g.snaps.seedGuild(e.Guild)
}

func (g *Gateway) onGuildDelete(_ *discordgo.Session, e *discordgo.GuildDelete) {
	if e.Guild != nil {
		g.snaps.forgetGuild(e.ID)
	}
}

func (g *Gateway) onVoiceStateUpdate(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if e.VoiceState == nil || e.GuildID == "" {
		return
	}
	var user *discordgo.User
	if e.Member != nil {
		user = e.Member.User
	}
	if user == nil {
		if m, err := s.State.Member(e.GuildID, e.UserID); err == nil {
			user = m.User
		}
	}
	member := toUser(user)
	if member.ID == "" {
		member.ID = e.UserID
	}
	if e.Member != nil && e.Member.Nick != "" {
		member.DisplayName = e.Member.Nick
	}
	name := g.channelName(s)
	g.submit(event.VoiceStateUpdate{
		TenantID: e.GuildID,
		Member:   member,
		Before:   toVoiceState(e.BeforeUpdate, name),
		After:    toVoiceState(e.VoiceState, name),
	})
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, e *discordgo.MessageCreate) {
	if e.Message == nil {
		return
	}
	g.submit(event.MessageCreate{Message: toMessage(e.Message)})
}

func (g *Gateway) onMessageUpdate(s *discordgo.Session, e *discordgo.MessageUpdate) {
	// Without a cached copy there is nothing to diff against.
	if e.Message == nil || e.BeforeUpdate == nil {
		return
	}
	after := e.Message
	if after.Author == nil {
		merged, err := s.State.Message(e.ChannelID, e.ID)
		if err != nil {
			return
		}
		after = merged
	}
	before := toMessage(e.BeforeUpdate)
	next := toMessage(after)
	if next.TenantID == "" {
		next.TenantID = e.GuildID
	}
	if before.TenantID == "" {
		before.TenantID = next.TenantID
	}
	g.submit(event.MessageEdit{Before: before, After: next})
}

func (g *Gateway) onMessageDelete(_ *discordgo.Session, e *discordgo.MessageDelete) {
	if e.Message == nil || e.BeforeDelete == nil {
		return
	}
	m := toMessage(e.BeforeDelete)
	if m.TenantID == "" {
		m.TenantID = e.GuildID
	}
	g.submit(event.MessageDelete{Message: m})
}

func (g *Gateway) onGuildBanAdd(_ *discordgo.Session, e *discordgo.GuildBanAdd) {
	g.submit(event.MemberBan{TenantID: e.GuildID, User: toUser(e.User)})
}

func (g *Gateway) onGuildBanRemove(_ *discordgo.Session, e *discordgo.GuildBanRemove) {
	g.submit(event.MemberUnban{TenantID: e.GuildID, User: toUser(e.User)})
}

func (g *Gateway) onGuildMemberUpdate(s *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	if e.Member == nil {
		return
	}
	prev, had := g.snaps.putMember(e.GuildID, e.Member)
	before := e.BeforeUpdate
	if before == nil && had {
		before = prev
	}
	if before == nil {
		return
	}
	lookup := g.roleLookup(s)
	g.submit(event.MemberUpdate{
		TenantID: e.GuildID,
		Before:   toMember(before, e.GuildID, lookup),
		After:    toMember(e.Member, e.GuildID, lookup),
	})
}

func (g *Gateway) onGuildRoleCreate(_ *discordgo.Session, e *discordgo.GuildRoleCreate) {
	if e.GuildRole == nil || e.Role == nil {
		return
	}
	g.snaps.putRole(e.GuildID, e.Role)
	g.submit(event.RoleCreate{TenantID: e.GuildID, Role: toRole(e.Role, e.GuildID)})
}

func (g *Gateway) onGuildRoleUpdate(_ *discordgo.Session, e *discordgo.GuildRoleUpdate) {
	if e.GuildRole == nil || e.Role == nil {
		return
	}
	prev, had := g.snaps.putRole(e.GuildID, e.Role)
	if !had {
		return
	}
	g.submit(event.RoleUpdate{
		TenantID: e.GuildID,
		Before:   toRole(prev, e.GuildID),
		After:    toRole(e.Role, e.GuildID),
	})
}

func (g *Gateway) onGuildRoleDelete(_ *discordgo.Session, e *discordgo.GuildRoleDelete) {
	role := event.Role{ID: e.RoleID}
	if prev, had := g.snaps.removeRole(e.GuildID, e.RoleID); had {
		role = toRole(prev, e.GuildID)
	}
	g.submit(event.RoleDelete{TenantID: e.GuildID, Role: role})
}

func (g *Gateway) onChannelCreate(_ *discordgo.Session, e *discordgo.ChannelCreate) {
	if e.Channel == nil || e.GuildID == "" {
		return
	}
	g.snaps.putChannel(e.Channel)
	g.submit(event.ChannelCreate{TenantID: e.GuildID, Channel: toContainer(e.Channel)})
}

func (g *Gateway) onChannelUpdate(_ *discordgo.Session, e *discordgo.ChannelUpdate) {
	if e.Channel == nil || e.GuildID == "" {
		return
	}
	prev, had := g.snaps.putChannel(e.Channel)
	if !had {
		return
	}
	g.submit(event.ChannelUpdate{
		TenantID: e.GuildID,
		Before:   toContainer(prev),
		After:    toContainer(e.Channel),
	})
}

func (g *Gateway) onChannelDelete(_ *discordgo.Session, e *discordgo.ChannelDelete) {
	if e.Channel == nil || e.GuildID == "" {
		return
	}
	g.snaps.removeChannel(e.ID)
	g.submit(event.ChannelDelete{TenantID: e.GuildID, Channel: toContainer(e.Channel)})
}

func (g *Gateway) onGuildMemberAdd(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if e.Member == nil {
		return
	}
	g.snaps.putMember(e.GuildID, e.Member)
	g.submit(event.MemberJoin{
		TenantID:    e.GuildID,
		Member:      toMember(e.Member, e.GuildID, g.roleLookup(s)),
		MemberCount: memberCount(s, e.GuildID),
	})
}

func (g *Gateway) onGuildMemberRemove(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	if e.Member == nil {
		return
	}
	m := e.Member
	if m.User != nil {
		// The removal payload only carries the user; roles and join time
		// come from the last snapshot.
		if prev, had := g.snaps.removeMember(e.GuildID, m.User.ID); had {
			m = prev
		}
	}
	g.submit(event.MemberLeave{
		TenantID:    e.GuildID,
		Member:      toMember(m, e.GuildID, g.roleLookup(s)),
		MemberCount: memberCount(s, e.GuildID),
	})
}

func (g *Gateway) roleLookup(s *discordgo.Session) roleLookup {
	return func(guildID, roleID string) (*discordgo.Role, bool) {
		if r, ok := g.snaps.role(guildID, roleID); ok {
			return r, true
		}
		if s.State == nil {
			return nil, false
		}
		r, err := s.State.Role(guildID, roleID)
		return r, err == nil
	}
}

func (g *Gateway) channelName(s *discordgo.Session) func(string) string {
	return func(channelID string) string {
		if s.State != nil {
			if c, err := s.State.Channel(channelID); err == nil {
				return c.Name
			}
		}
		return ""
	}
}

func memberCount(s *discordgo.Session, guildID string) int {
	if s.State == nil {
		return 0
	}
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return 0
	}
	return guild.MemberCount
}
