package testsupport

import (
	"context"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewConversation creates a conversation for tests using the provided store.
func NewConversation(t testing.TB, store *ledger.Store, userID, seedPrompt string) *ledger.Conversation {
	t.Helper()

	conversation, err := store.CreateConversation(context.Background(), userID, "", seedPrompt)
	if err != nil {
		t.Fatalf("store.CreateConversation: %v", err)
	}
	return conversation
}
