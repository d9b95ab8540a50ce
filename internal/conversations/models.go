package conversations

import "time"

// Conversation is the lifecycle record for one inbound phone call.
//
// Invariants:
// - CustomerPhone and CreatedAt are immutable after creation.
// - Status is monotonic: once terminal it never returns to in_progress.
// - DurationSeconds stays 0 while in_progress; the terminal write is the only
//   place it is set, atomically with Status.
// - Transcript is a denormalized rolling summary for list views. The Message
//   sequence is the source of truth for full-transcript reconstruction.

type Conversation struct {
	ID string `json:"id" db:"id"`

	// ProviderCallID is the telephony provider's call identifier (Twilio
	// CallSid). It is the natural dedup key for webhook retries.
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	CustomerPhone string `json:"customer_phone" db:"customer_phone"`
	CustomerName  string `json:"customer_name,omitempty" db:"customer_name"`

	Transcript string `json:"transcript" db:"transcript"`

	DurationSeconds int    `json:"duration_seconds" db:"duration_seconds"`
	Status          Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusEscalated  Status = "escalated"
	StatusNoAction   Status = "no_action"
)

// Terminal reports whether no further status transition is permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusEscalated, StatusNoAction:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusInProgress || s.Terminal()
}

// Message is one utterance in a conversation's transcript.
//
// CreatedAt is server-assigned at append time and is the ordering key for
// transcript reconstruction: non-decreasing per conversation in append order.

type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Speaker        Speaker   `json:"speaker" db:"speaker"`
	MessageText    string    `json:"message_text" db:"message_text"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type Speaker string

const (
	SpeakerAI       Speaker = "ai"
	SpeakerCustomer Speaker = "customer"
)

func (sp Speaker) Valid() bool {
	return sp == SpeakerAI || sp == SpeakerCustomer
}

// TranscriptPlaceholder is the Transcript value set at creation, before the
// voice-agent session has produced a summary.
const TranscriptPlaceholder = "Call in progress..."
