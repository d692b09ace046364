package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/guildlog/internal/event"
	"github.com/example/guildlog/internal/routes"
)

var captured = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newNormalizer() *Normalizer {
	return &Normalizer{Now: func() time.Time { return captured }}
}

var alice = event.User{ID: "u1", Name: "alice", DisplayName: "Alice"}

func labels(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Label)
	}
	return out
}

func TestVoiceState(t *testing.T) {
	general := event.VoiceState{ChannelID: "c1", ChannelName: "General"}
	gaming := event.VoiceState{ChannelID: "c2", ChannelName: "Gaming"}
	muted := general
	muted.SelfMute = true

	tests := []struct {
		name   string
		before event.VoiceState
		after  event.VoiceState
		want   []string
	}{
		{name: "join", after: general, want: []string{"VOICE JOIN"}},
		{name: "leave", before: general, want: []string{"VOICE LEAVE"}},
		{name: "move", before: general, after: gaming, want: []string{"VOICE MOVE"}},
		{name: "no change", before: general, after: general, want: []string{}},
		{name: "self mute", before: general, after: muted, want: []string{"VOICE SELF-MUTED"}},
		{name: "self unmute", before: muted, after: general, want: []string{"VOICE SELF-UNMUTED"}},
		{
			name:   "move then self mute",
			before: general,
			after:  event.VoiceState{ChannelID: "c2", ChannelName: "Gaming", SelfMute: true},
			want:   []string{"VOICE MOVE", "VOICE SELF-MUTED"},
		},
		{
			name:   "every toggle at once",
			before: general,
			after:  event.VoiceState{ChannelID: "c1", ChannelName: "General", Mute: true, SelfMute: true, Deaf: true, SelfDeaf: true},
			want:   []string{"VOICE MUTED", "VOICE SELF-MUTED", "VOICE DEAFENED", "VOICE SELF-DEAFENED"},
		},
		{
			name:   "server undeafen on leave",
			before: event.VoiceState{ChannelID: "c1", ChannelName: "General", Deaf: true},
			want:   []string{"VOICE LEAVE", "VOICE UNDEAFENED"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries := newNormalizer().Normalize(event.VoiceStateUpdate{
				TenantID: "g1", Member: alice, Before: tc.before, After: tc.after,
			})
			assert.Equal(t, tc.want, labels(entries))
			for _, e := range entries {
				assert.Equal(t, routes.CategoryVoice, e.Category)
				assert.Equal(t, "g1", e.TenantID)
				assert.Equal(t, captured, e.Timestamp)
			}
		})
	}
}

func TestVoiceBodies(t *testing.T) {
	entries := newNormalizer().Normalize(event.VoiceStateUpdate{
		TenantID: "g1",
		Member:   alice,
		Before:   event.VoiceState{ChannelID: "c1", ChannelName: "General"},
		After:    event.VoiceState{ChannelID: "c2", ChannelName: "Gaming", Mute: true},
	})
	require.Len(t, entries, 2)
	assert.Equal(t, "👤 **Alice** (`u1`) moved from **General** to **Gaming**", entries[0].Body)
	assert.Equal(t, "👤 **Alice** (`u1`) was server muted in **Gaming**", entries[1].Body)

	// Leaving while unmuting reports the channel that was left.
	entries = newNormalizer().Normalize(event.VoiceStateUpdate{
		TenantID: "g1",
		Member:   alice,
		Before:   event.VoiceState{ChannelID: "c1", ChannelName: "General", SelfMute: true},
	})
	require.Len(t, entries, 2)
	assert.Equal(t, "👤 **Alice** (`u1`) self-unmuted in **General**", entries[1].Body)
}

func TestAutomatedActorsDropped(t *testing.T) {
	bot := event.User{ID: "b1", Name: "helper", Automated: true}
	botMember := event.Member{User: bot}
	until := captured.Add(time.Hour)
	timedOutBot := event.Member{User: bot, TimedOutUntil: &until}

	events := []event.Event{
		event.VoiceStateUpdate{TenantID: "g", Member: bot, After: event.VoiceState{ChannelID: "c"}},
		event.MessageCreate{Message: event.Message{TenantID: "g", Author: bot, Content: "hi"}},
		event.MessageEdit{
			Before: event.Message{TenantID: "g", Author: bot, Content: "a"},
			After:  event.Message{TenantID: "g", Author: bot, Content: "b"},
		},
		event.MessageDelete{Message: event.Message{TenantID: "g", Author: bot, Content: "hi"}},
		event.MemberUpdate{TenantID: "g", Before: botMember, After: timedOutBot},
		event.MemberJoin{TenantID: "g", Member: botMember},
		event.MemberLeave{TenantID: "g", Member: botMember},
	}
	for _, ev := range events {
		assert.Empty(t, newNormalizer().Normalize(ev), ev.Kind())
	}
}

func TestMessageCreate(t *testing.T) {
	entries := newNormalizer().Normalize(event.MessageCreate{Message: event.Message{
		ID: "m1", TenantID: "g1", ChannelID: "c9", Author: alice, Content: "hello",
		Attachments: []event.Attachment{{URL: "https://cdn/a.png"}, {URL: "https://cdn/b.txt"}},
	}})
	require.Len(t, entries, 1)
	assert.Equal(t, "MESSAGE SENT", entries[0].Label)
	assert.Equal(t, routes.CategoryMessage, entries[0].Category)
	assert.Equal(t,
		"👤 **Alice** (`u1`) in <#c9>\n📝 **Content:** hello\n📎 **Attachments:** [Attachment 1](https://cdn/a.png), [Attachment 2](https://cdn/b.txt)",
		entries[0].Body)
}

func TestDirectMessagesDropped(t *testing.T) {
	dm := event.Message{ID: "m1", ChannelID: "dm", Author: alice, Content: "hi"}
	edited := dm
	edited.Content = "hello"

	n := newNormalizer()
	assert.Empty(t, n.Normalize(event.MessageCreate{Message: dm}))
	assert.Empty(t, n.Normalize(event.MessageEdit{Before: dm, After: edited}))
	assert.Empty(t, n.Normalize(event.MessageDelete{Message: dm}))
}

func TestMessageEdit(t *testing.T) {
	before := event.Message{ID: "m1", TenantID: "g1", ChannelID: "c9", Author: alice, Content: "helo"}
	after := before
	after.Content = "hello"

	entries := newNormalizer().Normalize(event.MessageEdit{Before: before, After: after})
	require.Len(t, entries, 1)
	assert.Equal(t, "MESSAGE EDIT", entries[0].Label)
	assert.Equal(t, "👤 **Alice** (`u1`) in <#c9>\n📝 **Before:** helo\n📝 **After:** hello", entries[0].Body)

	rerender := before
	rerender.Attachments = []event.Attachment{{URL: "https://embed"}}
	assert.Empty(t, newNormalizer().Normalize(event.MessageEdit{Before: before, After: rerender}))
}

func TestMessageDelete(t *testing.T) {
	entries := newNormalizer().Normalize(event.MessageDelete{Message: event.Message{
		ID: "m1", TenantID: "g1", ChannelID: "c9", Author: alice,
		Attachments: []event.Attachment{{URL: "https://cdn/a.png"}},
	}})
	require.Len(t, entries, 1)
	assert.Equal(t, "MESSAGE DELETE", entries[0].Label)
	assert.Equal(t, "👤 **Alice** (`u1`) in <#c9>\n📝 **Deleted Content:** (empty)\n📎 **Attachments:** [Attachment 1](https://cdn/a.png)", entries[0].Body)
}

func TestBanUnban(t *testing.T) {
	n := newNormalizer()
	ban := n.Normalize(event.MemberBan{TenantID: "g1", User: alice})
	require.Len(t, ban, 1)
	assert.Equal(t, "MEMBER BANNED", ban[0].Label)
	assert.Equal(t, routes.CategoryModeration, ban[0].Category)
	assert.Equal(t, "🔨 **alice** (`u1`) was banned from the server", ban[0].Body)

	unban := n.Normalize(event.MemberUnban{TenantID: "g1", User: alice})
	require.Len(t, unban, 1)
	assert.Equal(t, "MEMBER UNBANNED", unban[0].Label)
}

func TestTimeout(t *testing.T) {
	until := captured.Add(90*time.Minute + 30*time.Second)
	expired := captured.Add(-time.Minute)
	free := event.Member{User: alice}
	timedOut := event.Member{User: alice, TimedOutUntil: &until}
	stale := event.Member{User: alice, TimedOutUntil: &expired}

	tests := []struct {
		name   string
		before event.Member
		after  event.Member
		want   []string
		body   string
	}{
		{
			name: "timed out", before: free, after: timedOut,
			want: []string{"MEMBER TIMED OUT"},
			body: "⏱️ **Alice** (`u1`) was timed out\n⌛ **Duration:** 90 minutes",
		},
		{
			name: "stale expiry counts as not timed out", before: stale, after: timedOut,
			want: []string{"MEMBER TIMED OUT"},
		},
		{
			name: "removed", before: timedOut, after: free,
			want: []string{"TIMEOUT REMOVED"},
			body: "⏱️ **Alice** (`u1`) had their timeout removed",
		},
		{name: "unchanged", before: timedOut, after: timedOut, want: []string{}},
		{name: "never timed out", before: free, after: stale, want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries := newNormalizer().Normalize(event.MemberUpdate{TenantID: "g1", Before: tc.before, After: tc.after})
			assert.Equal(t, tc.want, labels(entries))
			if tc.body != "" {
				require.Len(t, entries, 1)
				assert.Equal(t, tc.body, entries[0].Body)
				assert.Equal(t, routes.CategoryModeration, entries[0].Category)
			}
		})
	}
}

func TestRoleAssignment(t *testing.T) {
	mods := event.Role{ID: "r1", Name: "Mods"}
	vip := event.Role{ID: "r2", Name: "VIP"}
	artists := event.Role{ID: "r3", Name: "Artists"}

	before := event.Member{User: alice, Roles: []event.Role{mods, artists}}
	after := event.Member{User: alice, Roles: []event.Role{vip, artists, {ID: "r4", Name: "Helpers"}}}

	entries := newNormalizer().Normalize(event.MemberUpdate{TenantID: "g1", Before: before, After: after})
	require.Equal(t, []string{"ROLES ADDED", "ROLES REMOVED"}, labels(entries))
	assert.Equal(t, "👤 **Alice** (`u1`) was given the following role(s): **VIP**, **Helpers**", entries[0].Body)
	assert.Equal(t, "👤 **Alice** (`u1`) had the following role(s) removed: **Mods**", entries[1].Body)
	for _, e := range entries {
		assert.Equal(t, routes.CategoryRole, e.Category)
	}

	assert.Empty(t, newNormalizer().Normalize(event.MemberUpdate{TenantID: "g1", Before: before, After: before}))
}

func TestMemberUpdateTimeoutAndRolesTogether(t *testing.T) {
	until := captured.Add(10 * time.Minute)
	before := event.Member{User: alice}
	after := event.Member{User: alice, TimedOutUntil: &until, Roles: []event.Role{{ID: "r9", Name: "Muted"}}}

	entries := newNormalizer().Normalize(event.MemberUpdate{TenantID: "g1", Before: before, After: after})
	assert.Equal(t, []string{"MEMBER TIMED OUT", "ROLES ADDED"}, labels(entries))
}

func TestRoleLifecycle(t *testing.T) {
	role := event.Role{ID: "r1", Name: "Mods"}
	n := newNormalizer()

	created := n.Normalize(event.RoleCreate{TenantID: "g1", Role: role})
	require.Len(t, created, 1)
	assert.Equal(t, "ROLE CREATED", created[0].Label)
	assert.Equal(t, "🎭 Role **Mods** (`r1`) was created", created[0].Body)

	deleted := n.Normalize(event.RoleDelete{TenantID: "g1", Role: role})
	require.Len(t, deleted, 1)
	assert.Equal(t, "ROLE DELETED", deleted[0].Label)
}

func TestRoleUpdate(t *testing.T) {
	base := event.Role{ID: "r1", Name: "Mods", Color: 0x3498db, Permissions: []string{"kick_members", "send_messages"}}

	tests := []struct {
		name  string
		after func(r event.Role) event.Role
		want  string
	}{
		{
			name: "permission added only",
			after: func(r event.Role) event.Role {
				r.Permissions = []string{"kick_members", "manage_channels", "send_messages"}
				return r
			},
			want: "🎭 Role **Mods** (`r1`) was updated\n**Added Permissions:** manage_channels",
		},
		{
			name: "permission removed",
			after: func(r event.Role) event.Role {
				r.Permissions = []string{"send_messages"}
				return r
			},
			want: "🎭 Role **Mods** (`r1`) was updated\n**Removed Permissions:** kick_members",
		},
		{
			name: "name and color",
			after: func(r event.Role) event.Role {
				r.Name = "Moderators"
				r.Color = 0xff0000
				return r
			},
			want: "🎭 Role **Moderators** (`r1`) was updated\n**Name:** 'Mods' → 'Moderators'\n**Color:** #3498db → #ff0000",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries := newNormalizer().Normalize(event.RoleUpdate{TenantID: "g1", Before: base, After: tc.after(base)})
			require.Len(t, entries, 1)
			assert.Equal(t, "ROLE UPDATED", entries[0].Label)
			assert.Equal(t, tc.want, entries[0].Body)
		})
	}

	reordered := base
	reordered.Permissions = []string{"send_messages", "kick_members"}
	assert.Empty(t, newNormalizer().Normalize(event.RoleUpdate{TenantID: "g1", Before: base, After: reordered}))
}

func TestChannelLifecycle(t *testing.T) {
	c := event.Container{ID: "c1", Name: "general", Type: "text"}
	n := newNormalizer()

	created := n.Normalize(event.ChannelCreate{TenantID: "g1", Channel: c})
	require.Len(t, created, 1)
	assert.Equal(t, "CHANNEL CREATED", created[0].Label)
	assert.Equal(t, routes.CategoryChannel, created[0].Category)
	assert.Equal(t, "📁 Channel **general** (`c1`) was created\n**Type:** text", created[0].Body)

	deleted := n.Normalize(event.ChannelDelete{TenantID: "g1", Channel: event.Container{ID: "c2", Name: "old"}})
	require.Len(t, deleted, 1)
	assert.Equal(t, "🗑️ Channel **old** (`c2`) was deleted\n**Type:** unknown", deleted[0].Body)
}

func TestChannelUpdate(t *testing.T) {
	empty, rules := "", "Be nice"
	text := event.Container{ID: "c1", Name: "general", Type: "text", Topic: &empty}
	withTopic := text
	withTopic.Topic = &rules
	renamed := text
	renamed.Name = "lobby"
	voice := event.Container{ID: "c1", Name: "general", Type: "voice"}

	tests := []struct {
		name   string
		before event.Container
		after  event.Container
		want   string
	}{
		{
			name: "topic set", before: text, after: withTopic,
			want: "📁 Channel **general** (`c1`) was updated\n**Topic:** '(none)' → 'Be nice'",
		},
		{
			name: "renamed", before: text, after: renamed,
			want: "📁 Channel **lobby** (`c1`) was updated\n**Name:** 'general' → 'lobby'",
		},
		{
			name: "type change ignores topic", before: withTopic, after: voice,
			want: "📁 Channel **general** (`c1`) was updated\n**Type:** text → voice",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries := newNormalizer().Normalize(event.ChannelUpdate{TenantID: "g1", Before: tc.before, After: tc.after})
			require.Len(t, entries, 1)
			assert.Equal(t, "CHANNEL UPDATED", entries[0].Label)
			assert.Equal(t, tc.want, entries[0].Body)
		})
	}

	assert.Empty(t, newNormalizer().Normalize(event.ChannelUpdate{TenantID: "g1", Before: text, After: text}))
}

func TestMemberJoin(t *testing.T) {
	created := captured.Add(-(400*24*time.Hour + 3*time.Hour))
	m := event.Member{User: event.User{ID: "u1", Name: "alice", CreatedAt: created}}

	entries := newNormalizer().Normalize(event.MemberJoin{TenantID: "g1", Member: m, MemberCount: 42})
	require.Len(t, entries, 1)
	assert.Equal(t, "MEMBER JOINED", entries[0].Label)
	assert.Equal(t, routes.CategoryMember, entries[0].Category)
	assert.Equal(t,
		"📥 **alice** (`u1`) joined the server\n📅 **Account created:** 2023-04-28 09:00:00 (400 days, 3 hours ago)\n👥 **Member count:** 42",
		entries[0].Body)
}

func TestAccountAge(t *testing.T) {
	created := captured.Add(-(400*24*time.Hour + 3*time.Hour + 59*time.Minute))
	assert.Equal(t, "400 days, 3 hours", accountAge(created, captured))
	assert.Equal(t, "0 days, 0 hours", accountAge(captured.Add(time.Hour), captured))
}

func TestMemberLeave(t *testing.T) {
	joined := time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC)
	m := event.Member{
		User:     alice,
		JoinedAt: &joined,
		Roles: []event.Role{
			{ID: "g1", Name: "@everyone", Default: true},
			{ID: "r1", Name: "Mods"},
			{ID: "r2", Name: "VIP"},
		},
	}

	entries := newNormalizer().Normalize(event.MemberLeave{TenantID: "g1", Member: m, MemberCount: 41})
	require.Len(t, entries, 1)
	assert.Equal(t, "MEMBER LEFT", entries[0].Label)
	assert.Equal(t,
		"📤 **Alice** (`u1`) left the server\n📅 **Joined at:** 2022-01-02 03:04:05\n🎭 **Roles:** <@&r1>, <@&r2>\n👥 **Member count:** 41",
		entries[0].Body)
}

func TestMemberLeavePlaceholders(t *testing.T) {
	m := event.Member{User: alice, Roles: []event.Role{{ID: "g1", Default: true}}}

	entries := newNormalizer().Normalize(event.MemberLeave{TenantID: "g1", Member: m})
	require.Len(t, entries, 1)
	assert.Equal(t,
		"📤 **Alice** (`u1`) left the server\n📅 **Joined at:** unknown\n🎭 **Roles:** none\n👥 **Member count:** unknown",
		entries[0].Body)
}

func TestNormalizeNil(t *testing.T) {
	assert.Empty(t, newNormalizer().Normalize(nil))

	entries := (&Normalizer{}).Normalize(event.MemberBan{TenantID: "g"})
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Timestamp.IsZero())
}
