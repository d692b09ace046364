package routes

import (
	"errors"
	"fmt"
)

type Category string

const (
	CategoryVoice      Category = "voice"
	CategoryMessage    Category = "message"
	CategoryModeration Category = "moderation"
	CategoryRole       Category = "role"
	CategoryChannel    Category = "channel"
	CategoryMember     Category = "member"
)

var ErrInvalidCategory = errors.New("invalid log category")

// Declaration order is the display order everywhere routes are listed.
var categories = []Category{
	CategoryVoice,
	CategoryMessage,
	CategoryModeration,
	CategoryRole,
	CategoryChannel,
	CategoryMember,
}

var displayNames = map[Category]string{
	CategoryVoice:      "🗣️ Voice Logs",
	CategoryMessage:    "💬 Message Logs",
	CategoryModeration: "🛠️ Moderation Logs",
	CategoryRole:       "🎭 Role Logs",
	CategoryChannel:    "📦 Channel Logs",
	CategoryMember:     "🚪 Member Logs",
}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := displayNames[c]
	return ok
}

func (c Category) DisplayName() string {
	if name, ok := displayNames[c]; ok {
		return name
	}
	return string(c)
}
