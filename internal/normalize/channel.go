package normalize

import (
	"fmt"
	"strings"

	"github.com/example/guildlog/internal/event"
	"github.com/example/guildlog/internal/routes"
)

func (b *builder) channelCreate(e event.ChannelCreate) {
	c := e.Channel
	b.emit(routes.CategoryChannel, "CHANNEL CREATED",
		fmt.Sprintf("📁 Channel **%s** (`%s`) was created\n**Type:** %s", orUnknown(c.Name), c.ID, orUnknown(c.Type)))
}

func (b *builder) channelDelete(e event.ChannelDelete) {
	c := e.Channel
	b.emit(routes.CategoryChannel, "CHANNEL DELETED",
		fmt.Sprintf("🗑️ Channel **%s** (`%s`) was deleted\n**Type:** %s", orUnknown(c.Name), c.ID, orUnknown(c.Type)))
}

func (b *builder) channelUpdate(e event.ChannelUpdate) {
	before, after := e.Before, e.After
	var changes []string

	if before.Name != after.Name {
		changes = append(changes, fmt.Sprintf("**Name:** '%s' → '%s'", before.Name, after.Name))
	}
	// Topic only applies when both sides are container types that carry one.
	if before.Topic != nil && after.Topic != nil && *before.Topic != *after.Topic {
		changes = append(changes, fmt.Sprintf("**Topic:** '%s' → '%s'", topic(before.Topic), topic(after.Topic)))
	}
	if before.Type != after.Type {
		changes = append(changes, fmt.Sprintf("**Type:** %s → %s", orUnknown(before.Type), orUnknown(after.Type)))
	}

	if len(changes) == 0 {
		return
	}
	body := fmt.Sprintf("📁 Channel **%s** (`%s`) was updated\n", orUnknown(after.Name), after.ID) + strings.Join(changes, "\n")
	b.emit(routes.CategoryChannel, "CHANNEL UPDATED", body)
}

func topic(t *string) string {
	if t == nil || *t == "" {
		return placeholderNone
	}
	return *t
}
