// Package history keeps the recent conversation of each chat so follow-up
// questions can be answered in context.
package history

import (
	"context"
	"sync"
	"time"
)

// Role identifies who wrote a message.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat's conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists per-chat conversation history, oldest message first.
type Store interface {
	// Get returns the stored messages for chatID. Unknown chats have none.
	Get(ctx context.Context, chatID string) ([]Message, error)
	// Append adds msgs and keeps only the newest limit messages.
	Append(ctx context.Context, chatID string, limit int, msgs ...Message) error
	// Clear forgets the conversation of chatID.
	Clear(ctx context.Context, chatID string) error
}

// LastHuman returns the most recent human message in msgs.
func LastHuman(msgs []Message) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleHuman {
			return msgs[i], true
		}
	}
	return Message{}, false
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[string][]Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats: make(map[string][]Message),
	}
}

// Get returns a copy of the chat's messages.
func (s *MemoryStore) Get(_ context.Context, chatID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.chats[chatID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Append adds messages and trims the chat to limit entries.
func (s *MemoryStore) Append(_ context.Context, chatID string, limit int, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := append(s.chats[chatID], msgs...)
	if limit > 0 && len(merged) > limit {
		merged = append([]Message(nil), merged[len(merged)-limit:]...)
	}
	s.chats[chatID] = merged
	return nil
}

// Clear removes the chat's messages.
func (s *MemoryStore) Clear(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chats, chatID)
	return nil
}
