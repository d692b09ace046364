package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/example/guildlog/internal/admin"
	"github.com/example/guildlog/internal/routes"
)

const (
	optionCategory = "category"
	optionChannel  = "channel"
)

// Commands exposes the admin handler as slash commands.
type Commands struct {
	Admin   *admin.Handler
	Logger  zerolog.Logger
	Timeout time.Duration
}

func Definitions() []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)
	guildOnly := false

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(routes.Categories()))
	for _, c := range routes.Categories() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: plainName(c), Value: string(c)})
	}
	category := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optionCategory,
		Description: "Log category",
		Required:    true,
		Choices:     choices,
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:                     admin.CommandSetRoute,
			Description:              "Set the channel a log category is posted to",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				category,
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         optionChannel,
					Description:  "Channel to send logs to",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
			},
		},
		{
			Name:                     admin.CommandListRoutes,
			Description:              "Show the configured log channels",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &guildOnly,
		},
		{
			Name:                     admin.CommandRemoveRoute,
			Description:              "Stop posting a log category",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &guildOnly,
			Options:                  []*discordgo.ApplicationCommandOption{category},
		},
	}
}

func (c *Commands) Register(s *discordgo.Session, appID string) error {
	if _, err := s.ApplicationCommandBulkOverwrite(appID, "", Definitions()); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	return nil
}

// Handle answers with a deferred ephemeral response first, since setting a
// route posts a confirmation before the reply is known.
func (c *Commands) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || i.GuildID == "" || i.Member == nil {
		return
	}
	data := i.ApplicationCommandData()
	inv := admin.Invocation{
		TenantID:   i.GuildID,
		Privileged: i.Member.Permissions&discordgo.PermissionAdministrator != 0,
	}
	if i.Member.User != nil {
		inv.InvokerID = i.Member.User.ID
	}
	logger := c.Logger.With().Str("command", data.Name).Str("tenant_id", inv.TenantID).Logger()

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to acknowledge command")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout())
	defer cancel()
	reply := c.execute(ctx, inv, data)

	content := reply.Content
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		logger.Error().Err(err).Msg("failed to send command reply")
		return
	}
	if reply.Warning == "" {
		return
	}
	if _, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: reply.Warning,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		logger.Warn().Err(err).Msg("failed to send command warning")
	}
}

func (c *Commands) execute(ctx context.Context, inv admin.Invocation, data discordgo.ApplicationCommandInteractionData) admin.Reply {
	opts := options(data.Options)
	var (
		reply admin.Reply
		err   error
	)
	switch data.Name {
	case admin.CommandSetRoute:
		reply, err = c.Admin.SetRoute(ctx, inv, opts[optionCategory], opts[optionChannel])
	case admin.CommandListRoutes:
		reply, err = c.Admin.ListRoutes(ctx, inv)
	case admin.CommandRemoveRoute:
		reply, err = c.Admin.RemoveRoute(ctx, inv, opts[optionCategory])
	default:
		err = fmt.Errorf("unknown command %q", data.Name)
	}
	if err != nil {
		return admin.ErrorReply(err)
	}
	return reply
}

func (c *Commands) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 3 * defaultSendTimeout
	}
	return c.Timeout
}

// options flattens string and channel option values by name. Channel
// options carry the channel id as their value.
func options(in []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	out := make(map[string]string, len(in))
	for _, opt := range in {
		if opt == nil {
			continue
		}
		if v, ok := opt.Value.(string); ok {
			out[opt.Name] = v
		}
	}
	return out
}

// plainName is the display name without its leading emoji.
func plainName(c routes.Category) string {
	name := c.DisplayName()
	for i, r := range name {
		if r == ' ' {
			return name[i+1:]
		}
	}
	return name
}
