package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownKind   = errors.New("unknown event kind")
	ErrMissingTenant = errors.New("event tenant_id missing")
)

// Envelope is the wire form used by the Kafka and HTTP feeds.
type Envelope struct {
	Kind  Kind            `json:"kind"`
	Event json.RawMessage `json:"event"`
}

var decoders = map[Kind]func([]byte) (Event, error){
	KindVoiceStateUpdate: decodeAs[VoiceStateUpdate],
	KindMessageCreate:    decodeAs[MessageCreate],
	KindMessageEdit:      decodeAs[MessageEdit],
	KindMessageDelete:    decodeAs[MessageDelete],
	KindMemberBan:        decodeAs[MemberBan],
	KindMemberUnban:      decodeAs[MemberUnban],
	KindMemberUpdate:     decodeAs[MemberUpdate],
	KindRoleCreate:       decodeAs[RoleCreate],
	KindRoleDelete:       decodeAs[RoleDelete],
	KindRoleUpdate:       decodeAs[RoleUpdate],
	KindChannelCreate:    decodeAs[ChannelCreate],
	KindChannelDelete:    decodeAs[ChannelDelete],
	KindChannelUpdate:    decodeAs[ChannelUpdate],
	KindMemberJoin:       decodeAs[MemberJoin],
	KindMemberLeave:      decodeAs[MemberLeave],
}

func decodeAs[T Event](raw []byte) (Event, error) {
	var ev T
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func Encode(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.Kind(), err)
	}
	return json.Marshal(Envelope{Kind: ev.Kind(), Event: body})
}

func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	decode, ok := decoders[env.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if len(env.Event) == 0 {
		return nil, fmt.Errorf("decode %s: event body missing", env.Kind)
	}
	ev, err := decode(env.Event)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	// Messages without a tenant are direct messages; the normalizer drops them.
	if ev.Tenant() == "" && !isMessageKind(env.Kind) {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, ErrMissingTenant)
	}
	return ev, nil
}

func isMessageKind(k Kind) bool {
	return k == KindMessageCreate || k == KindMessageEdit || k == KindMessageDelete
}
