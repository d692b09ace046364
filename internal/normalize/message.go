package normalize

import (
	"fmt"

	"github.com/example/guildlog/internal/event"
	"github.com/example/guildlog/internal/routes"
)

func (b *builder) messageCreate(e event.MessageCreate) {
	m := e.Message
	if m.Author.Automated || m.TenantID == "" {
		return
	}
	body := fmt.Sprintf("👤 %s in %s\n📝 **Content:** %s",
		actor(m.Author), channelMention(m.ChannelID), contentOrEmpty(m.Content))
	if len(m.Attachments) > 0 {
		body += "\n📎 **Attachments:** " + attachmentLinks(m.Attachments)
	}
	b.emit(routes.CategoryMessage, "MESSAGE SENT", body)
}

// Embed unfurls and other re-renders arrive as edits with unchanged text.
func (b *builder) messageEdit(e event.MessageEdit) {
	if e.Before.Author.Automated || e.After.Author.Automated || e.After.TenantID == "" {
		return
	}
	if e.Before.Content == e.After.Content {
		return
	}
	author := e.Before.Author
	if author.ID == "" {
		author = e.After.Author
	}
	channelID := e.After.ChannelID
	if channelID == "" {
		channelID = e.Before.ChannelID
	}
	body := fmt.Sprintf("👤 %s in %s\n📝 **Before:** %s\n📝 **After:** %s",
		actor(author), channelMention(channelID), contentOrEmpty(e.Before.Content), contentOrEmpty(e.After.Content))
	b.emit(routes.CategoryMessage, "MESSAGE EDIT", body)
}

func (b *builder) messageDelete(e event.MessageDelete) {
	m := e.Message
	if m.Author.Automated || m.TenantID == "" {
		return
	}
	body := fmt.Sprintf("👤 %s in %s\n📝 **Deleted Content:** %s",
		actor(m.Author), channelMention(m.ChannelID), contentOrEmpty(m.Content))
	if len(m.Attachments) > 0 {
		body += "\n📎 **Attachments:** " + attachmentLinks(m.Attachments)
	}
	b.emit(routes.CategoryMessage, "MESSAGE DELETE", body)
}
