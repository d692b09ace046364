package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/guildlog/internal/event"
	"github.com/example/guildlog/internal/format"
)

const (
	placeholderNone    = "(none)"
	placeholderEmpty   = "(empty)"
	placeholderUnknown = "unknown"
)

func actor(u event.User) string {
	return fmt.Sprintf("**%s** (`%s`)", orUnknown(u.Display()), u.ID)
}

func orUnknown(s string) string {
	if s == "" {
		return placeholderUnknown
	}
	return s
}

func channelMention(id string) string {
	if id == "" {
		return "an unknown channel"
	}
	return "<#" + id + ">"
}

func roleMention(id string) string {
	return "<@&" + id + ">"
}

func contentOrEmpty(s string) string {
	if s == "" {
		return placeholderEmpty
	}
	return s
}

func attachmentLinks(attachments []event.Attachment) string {
	links := make([]string, 0, len(attachments))
	for i, a := range attachments {
		links = append(links, fmt.Sprintf("[Attachment %d](%s)", i+1, a.URL))
	}
	return strings.Join(links, ", ")
}

func stamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return placeholderUnknown
	}
	return t.In(loc).Format(format.TimestampLayout)
}

func accountAge(created, now time.Time) string {
	d := now.Sub(created)
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)
	return fmt.Sprintf("%d days, %d hours", days, hours)
}

func memberCount(n int) string {
	if n <= 0 {
		return placeholderUnknown
	}
	return fmt.Sprintf("%d", n)
}

func color(c int) string {
	return fmt.Sprintf("#%06x", c)
}

func status(on bool, yes, no string) string {
	if on {
		return yes
	}
	return no
}
