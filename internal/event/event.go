// Package event defines the platform events the router understands. Each
// variant is its own struct; Event is a closed union over them.
package event

import "time"

type Kind string

const (
	KindVoiceStateUpdate Kind = "voice_state_update"
	KindMessageCreate    Kind = "message_create"
	KindMessageEdit      Kind = "message_edit"
	KindMessageDelete    Kind = "message_delete"
	KindMemberBan        Kind = "member_ban"
	KindMemberUnban      Kind = "member_unban"
	KindMemberUpdate     Kind = "member_update"
	KindRoleCreate       Kind = "role_create"
	KindRoleDelete       Kind = "role_delete"
	KindRoleUpdate       Kind = "role_update"
	KindChannelCreate    Kind = "channel_create"
	KindChannelDelete    Kind = "channel_delete"
	KindChannelUpdate    Kind = "channel_update"
	KindMemberJoin       Kind = "member_join"
	KindMemberLeave      Kind = "member_leave"
)

type Event interface {
	Kind() Kind
	Tenant() string
	isEvent()
}

type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name,omitempty"`
	Automated   bool      `json:"automated,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

func (u User) Display() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Color       int      `json:"color"`
	Permissions []string `json:"permissions,omitempty"`
	// Default marks the implicit role every member holds.
	Default bool `json:"default,omitempty"`
}

type Member struct {
	User
	JoinedAt      *time.Time `json:"joined_at,omitempty"`
	Roles         []Role     `json:"roles,omitempty"`
	TimedOutUntil *time.Time `json:"timed_out_until,omitempty"`
}

// VoiceState is one side of a voice presence change. An empty ChannelID
// means the member is not in a voice channel.
type VoiceState struct {
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelName string `json:"channel_name,omitempty"`
	Mute        bool   `json:"mute,omitempty"`
	SelfMute    bool   `json:"self_mute,omitempty"`
	Deaf        bool   `json:"deaf,omitempty"`
	SelfDeaf    bool   `json:"self_deaf,omitempty"`
}

type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// Message is a chat message snapshot. TenantID is empty for direct messages.
type Message struct {
	ID          string       `json:"id"`
	TenantID    string       `json:"tenant_id,omitempty"`
	ChannelID   string       `json:"channel_id"`
	Author      User         `json:"author"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Container is a channel or category. Topic is nil for container types that
// have no topic.
type Container struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Topic *string `json:"topic,omitempty"`
}

type VoiceStateUpdate struct {
	TenantID string     `json:"tenant_id"`
	Member   User       `json:"member"`
	Before   VoiceState `json:"before"`
	After    VoiceState `json:"after"`
}

type MessageCreate struct {
	Message Message `json:"message"`
}

type MessageEdit struct {
	Before Message `json:"before"`
	After  Message `json:"after"`
}

type MessageDelete struct {
	Message Message `json:"message"`
}

type MemberBan struct {
	TenantID string `json:"tenant_id"`
	User     User   `json:"user"`
}

type MemberUnban struct {
	TenantID string `json:"tenant_id"`
	User     User   `json:"user"`
}

type MemberUpdate struct {
	TenantID string `json:"tenant_id"`
	Before   Member `json:"before"`
	After    Member `json:"after"`
}

type RoleCreate struct {
	TenantID string `json:"tenant_id"`
	Role     Role   `json:"role"`
}

type RoleDelete struct {
	TenantID string `json:"tenant_id"`
	Role     Role   `json:"role"`
}

type RoleUpdate struct {
	TenantID string `json:"tenant_id"`
	Before   Role   `json:"before"`
	After    Role   `json:"after"`
}

type ChannelCreate struct {
	TenantID string    `json:"tenant_id"`
	Channel  Container `json:"channel"`
}

type ChannelDelete struct {
	TenantID string    `json:"tenant_id"`
	Channel  Container `json:"channel"`
}

type ChannelUpdate struct {
	TenantID string    `json:"tenant_id"`
	Before   Container `json:"before"`
	After    Container `json:"after"`
}

// MemberJoin and MemberLeave carry the tenant member count observed after
// the change; zero means the count is unknown.
type MemberJoin struct {
	TenantID    string `json:"tenant_id"`
	Member      Member `json:"member"`
	MemberCount int    `json:"member_count,omitempty"`
}

type MemberLeave struct {
	TenantID    string `json:"tenant_id"`
	Member      Member `json:"member"`
	MemberCount int    `json:"member_count,omitempty"`
}

func (VoiceStateUpdate) Kind() Kind { return KindVoiceStateUpdate }
func (MessageCreate) Kind() Kind    { return KindMessageCreate }
func (MessageEdit) Kind() Kind      { return KindMessageEdit }
func (MessageDelete) Kind() Kind    { return KindMessageDelete }
func (MemberBan) Kind() Kind        { return KindMemberBan }
func (MemberUnban) Kind() Kind      { return KindMemberUnban }
func (MemberUpdate) Kind() Kind     { return KindMemberUpdate }
func (RoleCreate) Kind() Kind       { return KindRoleCreate }
func (RoleDelete) Kind() Kind       { return KindRoleDelete }
func (RoleUpdate) Kind() Kind       { return KindRoleUpdate }
func (ChannelCreate) Kind() Kind    { return KindChannelCreate }
func (ChannelDelete) Kind() Kind    { return KindChannelDelete }
func (ChannelUpdate) Kind() Kind    { return KindChannelUpdate }
func (MemberJoin) Kind() Kind       { return KindMemberJoin }
func (MemberLeave) Kind() Kind      { return KindMemberLeave }

func (e VoiceStateUpdate) Tenant() string { return e.TenantID }
func (e MessageCreate) Tenant() string    { return e.Message.TenantID }
func (e MessageEdit) Tenant() string      { return e.After.TenantID }
func (e MessageDelete) Tenant() string    { return e.Message.TenantID }
func (e MemberBan) Tenant() string        { return e.TenantID }
func (e MemberUnban) Tenant() string      { return e.TenantID }
func (e MemberUpdate) Tenant() string     { return e.TenantID }
func (e RoleCreate) Tenant() string       { return e.TenantID }
func (e RoleDelete) Tenant() string       { return e.TenantID }
func (e RoleUpdate) Tenant() string       { return e.TenantID }
func (e ChannelCreate) Tenant() string    { return e.TenantID }
func (e ChannelDelete) Tenant() string    { return e.TenantID }
func (e ChannelUpdate) Tenant() string    { return e.TenantID }
func (e MemberJoin) Tenant() string       { return e.TenantID }
func (e MemberLeave) Tenant() string      { return e.TenantID }

func (VoiceStateUpdate) isEvent() {}
func (MessageCreate) isEvent()    {}
func (MessageEdit) isEvent()      {}
func (MessageDelete) isEvent()    {}
func (MemberBan) isEvent()        {}
func (MemberUnban) isEvent()      {}
func (MemberUpdate) isEvent()     {}
func (RoleCreate) isEvent()       {}
func (RoleDelete) isEvent()       {}
func (RoleUpdate) isEvent()       {}
func (ChannelCreate) isEvent()    {}
func (ChannelDelete) isEvent()    {}
func (ChannelUpdate) isEvent()    {}
func (MemberJoin) isEvent()       {}
func (MemberLeave) isEvent()      {}
