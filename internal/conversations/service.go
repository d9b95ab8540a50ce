package conversations

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("conversations: invalid input")

const (
	// DefaultListLimit matches the dashboard's recent-calls page size.
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// Service owns the conversation lifecycle: creation at first webhook receipt,
// ordered message appends, denormalized summary updates, and the single
// terminal transition.

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type StartCallInput struct {
	CustomerPhone  string
	ProviderCallID string
}

// StartCall records a new in-progress conversation for an inbound call.
// Retried webhooks carrying the same provider call id resolve to the same
// conversation.
func (s *Service) StartCall(ctx context.Context, in StartCallInput) (Conversation, error) {
	if in.CustomerPhone == "" {
		return Conversation{}, ErrInvalidInput
	}
	return s.repo.Create(ctx, Conversation{
		ID:              uuid.NewString(),
		ProviderCallID:  in.ProviderCallID,
		CustomerPhone:   in.CustomerPhone,
		Transcript:      TranscriptPlaceholder,
		DurationSeconds: 0,
		Status:          StatusInProgress,
	})
}

type AppendMessageInput struct {
	ConversationID string
	Speaker        Speaker
	MessageText    string

	// Optional denormalized updates carried alongside the message event.
	TranscriptSummary string
	CustomerName      string
}

// AppendMessage appends one utterance to an existing conversation. The
// conversation must already exist; message events never create one. Appends
// are accepted after a terminal status (late transcript lines are fine), they
// just can never move the status back.
func (s *Service) AppendMessage(ctx context.Context, in AppendMessageInput) (Message, error) {
	if in.ConversationID == "" || in.MessageText == "" || !in.Speaker.Valid() {
		return Message{}, ErrInvalidInput
	}

	m, err := s.repo.AppendMessage(ctx, Message{
		ID:             uuid.NewString(),
		ConversationID: in.ConversationID,
		Speaker:        in.Speaker,
		MessageText:    in.MessageText,
	})
	if err != nil {
		return Message{}, err
	}

	if in.TranscriptSummary != "" || in.CustomerName != "" {
		// Summary is advisory; the message row above is the ground truth and
		// has already landed, so a summary failure is surfaced but does not
		// undo the append.
		if err := s.repo.UpdateSummary(ctx, in.ConversationID, in.TranscriptSummary, in.CustomerName); err != nil {
			return m, err
		}
	}
	return m, nil
}

type FinalizeInput struct {
	ConversationID  string
	Status          Status
	DurationSeconds int
}

// Finalize applies the terminal transition. Status and duration land in one
// write; a conversation that is already terminal rejects the report with
// ErrAlreadyFinal rather than regressing.
func (s *Service) Finalize(ctx context.Context, in FinalizeInput) error {
	if in.ConversationID == "" || !in.Status.Terminal() || in.DurationSeconds < 0 {
		return ErrInvalidInput
	}
	return s.repo.Finalize(ctx, in.ConversationID, in.Status, in.DurationSeconds)
}

// Recent returns conversations newest-first with a bounded page size.
func (s *Service) Recent(ctx context.Context, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}

// Messages returns a conversation's transcript in creation order.
func (s *Service) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	if conversationID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.repo.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, conversationID)
}

// Get resolves a single conversation by id.
func (s *Service) Get(ctx context.Context, id string) (Conversation, error) {
	if id == "" {
		return Conversation{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}
