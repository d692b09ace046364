package normalize

import (
	"time"

	"github.com/example/guildlog/internal/event"
	"github.com/example/guildlog/internal/routes"
)

// Entry is one log line produced from an observed event.
type Entry struct {
	TenantID  string
	Category  routes.Category
	Label     string
	Body      string
	Timestamp time.Time
}

type Normalizer struct {
	// Now supplies the capture time; defaults to time.Now.
	Now func() time.Time
}

func New() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize returns the entries for ev in emission order. Events from
// automated actors, direct messages and no-op updates yield no entries.
func (n *Normalizer) Normalize(ev event.Event) []Entry {
	if ev == nil {
		return nil
	}
	b := &builder{tenant: ev.Tenant(), now: n.now()}
	switch e := ev.(type) {
	case event.VoiceStateUpdate:
		b.voiceState(e)
	case event.MessageCreate:
		b.messageCreate(e)
	case event.MessageEdit:
		b.messageEdit(e)
	case event.MessageDelete:
		b.messageDelete(e)
	case event.MemberBan:
		b.memberBan(e)
	case event.MemberUnban:
		b.memberUnban(e)
	case event.MemberUpdate:
		// Timeout and role assignment are independent rules on the same update.
		b.memberTimeout(e)
		b.roleAssignment(e)
	case event.RoleCreate:
		b.roleCreate(e)
	case event.RoleDelete:
		b.roleDelete(e)
	case event.RoleUpdate:
		b.roleUpdate(e)
	case event.ChannelCreate:
		b.channelCreate(e)
	case event.ChannelDelete:
		b.channelDelete(e)
	case event.ChannelUpdate:
		b.channelUpdate(e)
	case event.MemberJoin:
		b.memberJoin(e)
	case event.MemberLeave:
		b.memberLeave(e)
	}
	return b.entries
}

func (n *Normalizer) now() time.Time {
	if n == nil || n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

type builder struct {
	tenant  string
	now     time.Time
	entries []Entry
}

func (b *builder) emit(category routes.Category, label, body string) {
	b.entries = append(b.entries, Entry{
		TenantID:  b.tenant,
		Category:  category,
		Label:     label,
		Body:      body,
		Timestamp: b.now,
	})
}
