package conversations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory transcript store for tests and early development.
// It mirrors the Postgres implementation's contracts: insert-if-absent on
// provider_call_id, server-assigned non-decreasing message timestamps, and a
// monotonic terminal write.

type MemoryRepo struct {
	mu sync.Mutex

	convs    map[string]Conversation
	messages map[string][]Message // keyed by conversation id, append order

	// Clock is injectable for deterministic tests; defaults to time.Now.
	Clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		convs:    map[string]Conversation{},
		messages: map[string][]Message{},
	}
}

func (r *MemoryRepo) now() time.Time {
	if r.Clock != nil {
		return r.Clock().UTC()
	}
	return time.Now().UTC()
}

func (r *MemoryRepo) Create(ctx context.Context, c Conversation) (Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ProviderCallID != "" {
		for _, existing := range r.convs {
			if existing.ProviderCallID == c.ProviderCallID {
				return existing, nil
			}
		}
	}

	c.CreatedAt = r.now()
	r.convs[c.ID] = c
	return c, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) List(ctx context.Context, limit int) ([]Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Conversation, 0, len(r.convs))
	for _, c := range r.convs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ListByRange(ctx context.Context, from, to time.Time) ([]Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Conversation, 0)
	for _, c := range r.convs {
		if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) AppendMessage(ctx context.Context, m Message) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.convs[m.ConversationID]; !ok {
		return Message{}, ErrNotFound
	}

	m.CreatedAt = r.now()
	// Keep per-conversation timestamps non-decreasing even with a coarse or
	// frozen clock.
	if existing := r.messages[m.ConversationID]; len(existing) > 0 {
		if last := existing[len(existing)-1].CreatedAt; m.CreatedAt.Before(last) {
			m.CreatedAt = last
		}
	}
	r.messages[m.ConversationID] = append(r.messages[m.ConversationID], m)
	return m, nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src := r.messages[conversationID]
	out := make([]Message, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) UpdateSummary(ctx context.Context, id, transcript, customerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.convs[id]
	if !ok {
		return ErrNotFound
	}
	if transcript != "" {
		c.Transcript = transcript
	}
	if customerName != "" {
		c.CustomerName = customerName
	}
	r.convs[id] = c
	return nil
}

func (r *MemoryRepo) Finalize(ctx context.Context, id string, status Status, durationSeconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.convs[id]
	if !ok {
		return ErrNotFound
	}
	if c.Status != StatusInProgress {
		return ErrAlreadyFinal
	}
	c.Status = status
	c.DurationSeconds = durationSeconds
	r.convs[id] = c
	return nil
}
