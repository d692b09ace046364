package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// snapshots keeps the last seen copy of roles, channels and members so that
// update and removal events can be diffed against what came before. The
// library state cache is updated before handlers run, so it cannot serve here.
type snapshots struct {
	mu       sync.Mutex
	roles    map[string]map[string]discordgo.Role
	channels map[string]discordgo.Channel
	members  map[string]map[string]discordgo.Member
}

func newSnapshots() *snapshots {
	return &snapshots{
		roles:    make(map[string]map[string]discordgo.Role),
		channels: make(map[string]discordgo.Channel),
		members:  make(map[string]map[string]discordgo.Member),
	}
}

func (s *snapshots) seedGuild(g *discordgo.Guild) {
	if g == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	roles := make(map[string]discordgo.Role, len(g.Roles))
	for _, r := range g.Roles {
		if r != nil {
			roles[r.ID] = *r
		}
	}
	s.roles[g.ID] = roles
	for _, c := range g.Channels {
		if c != nil {
			cp := *c
			cp.GuildID = g.ID
			s.channels[c.ID] = cp
		}
	}
	members := make(map[string]discordgo.Member, len(g.Members))
	for _, m := range g.Members {
		if m != nil && m.User != nil {
			members[m.User.ID] = *m
		}
	}
	s.members[g.ID] = members
}

func (s *snapshots) forgetGuild(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, guildID)
	delete(s.members, guildID)
	for id, c := range s.channels {
		if c.GuildID == guildID {
			delete(s.channels, id)
		}
	}
}

// putRole stores r and returns the copy it replaced, if any.
func (s *snapshots) putRole(guildID string, r *discordgo.Role) (*discordgo.Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roles, ok := s.roles[guildID]
	if !ok {
		roles = make(map[string]discordgo.Role)
		s.roles[guildID] = roles
	}
	prev, had := roles[r.ID]
	roles[r.ID] = *r
	return &prev, had
}

func (s *snapshots) removeRole(guildID, roleID string) (*discordgo.Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.roles[guildID][roleID]
	delete(s.roles[guildID], roleID)
	return &prev, had
}

func (s *snapshots) role(guildID, roleID string) (*discordgo.Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[guildID][roleID]
	return &r, ok
}

func (s *snapshots) putChannel(c *discordgo.Channel) (*discordgo.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.channels[c.ID]
	s.channels[c.ID] = *c
	return &prev, had
}

func (s *snapshots) removeChannel(channelID string) (*discordgo.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.channels[channelID]
	delete(s.channels, channelID)
	return &prev, had
}

func (s *snapshots) putMember(guildID string, m *discordgo.Member) (*discordgo.Member, bool) {
	if m.User == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.members[guildID]
	if !ok {
		members = make(map[string]discordgo.Member)
		s.members[guildID] = members
	}
	prev, had := members[m.User.ID]
	members[m.User.ID] = *m
	return &prev, had
}

func (s *snapshots) removeMember(guildID, userID string) (*discordgo.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.members[guildID][userID]
	delete(s.members[guildID], userID)
	return &prev, had
}
