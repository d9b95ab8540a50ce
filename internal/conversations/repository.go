package conversations

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a conversation id does not resolve.
	ErrNotFound = errors.New("conversations: not found")

	// ErrAlreadyFinal is returned when a terminal write targets a
	// conversation that already holds a terminal status.
	ErrAlreadyFinal = errors.New("conversations: already finalized")
)

// Repository is the persistence contract for the transcript store.
//
// Each method touches exactly one row; implementations must provide per-row
// atomicity but no cross-row transactions are required.
//
// Append-only posture: no method deletes rows, and Finalize is the only way
// to leave in_progress.

type Repository interface {
	// Create inserts a new conversation. If ProviderCallID is set and a row
	// with the same provider call id already exists, the existing row is
	// returned instead of inserting a duplicate (webhook retries are safe).
	Create(ctx context.Context, c Conversation) (Conversation, error)

	Get(ctx context.Context, id string) (Conversation, error)

	// List returns conversations ordered by created_at descending, newest
	// first, at most limit rows.
	List(ctx context.Context, limit int) ([]Conversation, error)

	// ListByRange returns conversations created within [from, to), any order.
	ListByRange(ctx context.Context, from, to time.Time) ([]Conversation, error)

	// AppendMessage inserts a message row. The conversation must exist
	// (ErrNotFound otherwise); CreatedAt is assigned by the store.
	AppendMessage(ctx context.Context, m Message) (Message, error)

	// ListMessages returns a conversation's messages ordered by created_at
	// ascending.
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)

	// UpdateSummary updates the denormalized transcript summary and/or
	// customer name. Empty arguments leave the current value untouched.
	// Status and duration are never modified here.
	UpdateSummary(ctx context.Context, id, transcript, customerName string) error

	// Finalize sets a terminal status and the final duration in one atomic
	// write, guarded on status = in_progress. ErrAlreadyFinal if the row is
	// already terminal, ErrNotFound if it does not exist.
	Finalize(ctx context.Context, id string, status Status, durationSeconds int) error
}
