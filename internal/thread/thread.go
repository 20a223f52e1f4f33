// Package thread owns per-conversation message history. A thread is the
// append-only, ordered message log for one thread id; the orchestrator
// resolves the id from the authenticated user (or an anonymous sentinel).
package thread

import (
	"context"
	"time"
)

// Role discriminates message authorship. Messages are a tagged variant, not
// a runtime type switch.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists threads. Backends differ only in durability across restarts;
// the orchestrator behaves identically against any of them.
type Store interface {
	// Append adds one message to the end of the thread, creating the thread
	// on first use.
	Append(ctx context.Context, threadID string, msg Message) error
	// Load returns the full ordered message log; an unknown thread id yields
	// an empty log, not an error.
	Load(ctx context.Context, threadID string) ([]Message, error)
	// Clear deletes the thread outright.
	Clear(ctx context.Context, threadID string) error
	// Kind names the backend for health reporting.
	Kind() string
}
