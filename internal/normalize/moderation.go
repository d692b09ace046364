package normalize

import (
	"fmt"
	"time"

	"github.com/example/guildlog/internal/event"
	"github.com/example/guildlog/internal/routes"
)

func (b *builder) memberBan(e event.MemberBan) {
	b.emit(routes.CategoryModeration, "MEMBER BANNED",
		fmt.Sprintf("🔨 **%s** (`%s`) was banned from the server", orUnknown(e.User.Name), e.User.ID))
}

func (b *builder) memberUnban(e event.MemberUnban) {
	b.emit(routes.CategoryModeration, "MEMBER UNBANNED",
		fmt.Sprintf("🔓 **%s** (`%s`) was unbanned from the server", orUnknown(e.User.Name), e.User.ID))
}

func (b *builder) memberTimeout(e event.MemberUpdate) {
	if e.Before.Automated || e.After.Automated {
		return
	}
	was := timedOut(e.Before, b.now)
	is := timedOut(e.After, b.now)
	who := actor(e.After.User)

	switch {
	case !was && is:
		minutes := int(e.After.TimedOutUntil.Sub(b.now) / time.Minute)
		b.emit(routes.CategoryModeration, "MEMBER TIMED OUT",
			fmt.Sprintf("⏱️ %s was timed out\n⌛ **Duration:** %d minutes", who, minutes))
	case was && !is:
		b.emit(routes.CategoryModeration, "TIMEOUT REMOVED",
			fmt.Sprintf("⏱️ %s had their timeout removed", who))
	}
}

// A timeout whose expiry has already passed no longer counts.
func timedOut(m event.Member, now time.Time) bool {
	return m.TimedOutUntil != nil && m.TimedOutUntil.After(now)
}
