package normalize

import (
	"fmt"
	"strings"

	"github.com/example/guildlog/internal/event"
	"github.com/example/guildlog/internal/routes"
)

func (b *builder) memberJoin(e event.MemberJoin) {
	m := e.Member
	if m.Automated {
		return
	}
	created, age := placeholderUnknown, placeholderUnknown
	if !m.CreatedAt.IsZero() {
		created = stamp(m.CreatedAt, b.now.Location())
		age = accountAge(m.CreatedAt, b.now)
	}
	body := fmt.Sprintf("📥 %s joined the server\n📅 **Account created:** %s (%s ago)\n👥 **Member count:** %s",
		actor(m.User), created, age, memberCount(e.MemberCount))
	b.emit(routes.CategoryMember, "MEMBER JOINED", body)
}

func (b *builder) memberLeave(e event.MemberLeave) {
	m := e.Member
	if m.Automated {
		return
	}
	joined := placeholderUnknown
	if m.JoinedAt != nil {
		joined = stamp(*m.JoinedAt, b.now.Location())
	}
	var mentions []string
	for _, r := range m.Roles {
		if r.Default {
			continue
		}
		mentions = append(mentions, roleMention(r.ID))
	}
	roles := "none"
	if len(mentions) > 0 {
		roles = strings.Join(mentions, ", ")
	}
	body := fmt.Sprintf("📤 %s left the server\n📅 **Joined at:** %s\n🎭 **Roles:** %s\n👥 **Member count:** %s",
		actor(m.User), joined, roles, memberCount(e.MemberCount))
	b.emit(routes.CategoryMember, "MEMBER LEFT", body)
}
