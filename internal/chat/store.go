package chat

import (
	"context"

	"github.com/matthewbaird/leadpilot/internal/settings"
)

// SettingsPersister stores conversation state in the settings service. The
// conversation with id DefaultConversationID uses the bare chat state key;
// others get the id appended. Chat state writes are not published as
// setting_changed events.
type SettingsPersister struct {
	svc *settings.Service
}

// DefaultConversationID names the single local conversation of the CLI.
const DefaultConversationID = "local"

func NewSettingsPersister(svc *settings.Service) *SettingsPersister {
	return &SettingsPersister{svc: svc.WithoutEvents()}
}

// StateKey returns the storage key for a conversation.
func StateKey(conversationID string) string {
	if conversationID == DefaultConversationID {
		return settings.KeyChatState
	}
	return settings.KeyChatState + "-" + conversationID
}

func (p *SettingsPersister) SaveChatState(ctx context.Context, conversationID string, state State) error {
	return p.svc.SetJSON(ctx, StateKey(conversationID), state)
}

// LoadChatState returns the stored state, or nil when nothing is stored or
// the stored value cannot be decoded. A nil state starts a fresh
// conversation.
func (p *SettingsPersister) LoadChatState(ctx context.Context, conversationID string) *State {
	var s State
	if err := p.svc.GetJSON(ctx, StateKey(conversationID), &s); err != nil {
		return nil
	}
	return &s
}

// DeleteChatState removes the stored state. A missing key is not an error.
func (p *SettingsPersister) DeleteChatState(ctx context.Context, conversationID string) error {
	return p.svc.Delete(ctx, StateKey(conversationID))
}
