package conversations

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStartCall_CreatesInProgress(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	c, err := svc.StartCall(context.Background(), StartCallInput{CustomerPhone: "+441234567890", ProviderCallID: "CA123"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.ID == "" {
		t.Fatalf("expected id assigned")
	}
	if c.Status != StatusInProgress {
		t.Fatalf("expected in_progress, got %q", c.Status)
	}
	if c.DurationSeconds != 0 {
		t.Fatalf("expected duration 0, got %d", c.DurationSeconds)
	}
	if c.Transcript != TranscriptPlaceholder {
		t.Fatalf("expected placeholder transcript, got %q", c.Transcript)
	}
}

func TestStartCall_DedupsOnProviderCallID(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	first, err := svc.StartCall(ctx, StartCallInput{CustomerPhone: "+441234567890", ProviderCallID: "CA123"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := svc.StartCall(ctx, StartCallInput{CustomerPhone: "+441234567890", ProviderCallID: "CA123"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected retried webhook to resolve to same conversation, got %q and %q", first.ID, second.ID)
	}
}

func TestAppendMessage_PreservesOrder(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c, _ := svc.StartCall(ctx, StartCallInput{CustomerPhone: "+441234567890"})

	texts := []string{"I'd like an appointment", "Certainly, what day?", "Tuesday please"}
	speakers := []Speaker{SpeakerCustomer, SpeakerAI, SpeakerCustomer}
	for i := range texts {
		if _, err := svc.AppendMessage(ctx, AppendMessageInput{
			ConversationID: c.ID, Speaker: speakers[i], MessageText: texts[i],
		}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	msgs, err := svc.Messages(ctx, c.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(msgs) != len(texts) {
		t.Fatalf("expected %d messages, got %d", len(texts), len(msgs))
	}
	for i, m := range msgs {
		if m.MessageText != texts[i] {
			t.Fatalf("message %d out of order: got %q want %q", i, m.MessageText, texts[i])
		}
		if i > 0 && m.CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("created_at regressed at message %d", i)
		}
	}
}

func TestAppendMessage_FrozenClockStaysOrdered(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Clock = func() time.Time { return now }
	svc := NewService(repo)
	ctx := context.Background()

	c, _ := svc.StartCall(ctx, StartCallInput{CustomerPhone: "+441234567890"})
	for _, txt := range []string{"one", "two", "three"} {
		if _, err := svc.AppendMessage(ctx, AppendMessageInput{ConversationID: c.ID, Speaker: SpeakerAI, MessageText: txt}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	msgs, _ := svc.Messages(ctx, c.ID)
	if msgs[0].MessageText != "one" || msgs[1].MessageText != "two" || msgs[2].MessageText != "three" {
		t.Fatalf("expected stable append order with equal timestamps, got %+v", msgs)
	}
}

func TestAppendMessage_UnknownConversationRejected(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.AppendMessage(context.Background(), AppendMessageInput{
		ConversationID: "missing", Speaker: SpeakerCustomer, MessageText: "hello",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendMessage_RejectsInvalidPayload(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	c, _ := svc.StartCall(ctx, StartCallInput{CustomerPhone: "+441234567890"})

	cases := []AppendMessageInput{
		{ConversationID: c.ID, Speaker: "robot", MessageText: "hi"},
		{ConversationID: c.ID, Speaker: SpeakerAI, MessageText: ""},
		{ConversationID: "", Speaker: SpeakerAI, MessageText: "hi"},
	}
	for i, in := range cases {
		if _, err := svc.AppendMessage(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
	if msgs, _ := svc.Messages(ctx, c.ID); len(msgs) != 0 {
		t.Fatalf("expected no message rows after rejected events, got %d", len(msgs))
	}
}

func TestAppendMessage_UpdatesSummaryFields(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()
	c, _ := svc.StartCall(ctx, StartCallInput{CustomerPhone: "+441234567890"})

	_, err := svc.AppendMessage(ctx, AppendMessageInput{
		ConversationID:    c.ID,
		Speaker:           SpeakerCustomer,
		MessageText:       "It's Dave, about the boiler",
		TranscriptSummary: "Boiler repair enquiry",
		CustomerName:      "Dave",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, _ := svc.Get(ctx, c.ID)
	if got.Transcript != "Boiler repair enquiry" {
		t.Fatalf("expected summary updated, got %q", got.Transcript)
	}
	if got.CustomerName != "Dave" {
		t.Fatalf("expected customer name updated, got %q", got.CustomerName)
	}
	if got.Status != StatusInProgress {
		t.Fatalf("summary update must not touch status, got %q", got.Status)
	}
}

func TestFinalize_SetsStatusAndDurationOnce(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()
	c, _ := svc.StartCall(ctx, StartCallInput{CustomerPhone: "+441234567890"})

	err := svc.Finalize(ctx, FinalizeInput{ConversationID: c.ID, Status: StatusCompleted, DurationSeconds: 142})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, _ := svc.Get(ctx, c.ID)
	if got.Status != StatusCompleted || got.DurationSeconds != 142 {
		t.Fatalf("expected completed/142, got %q/%d", got.Status, got.DurationSeconds)
	}

	// A second terminal report must not regress anything.
	err = svc.Finalize(ctx, FinalizeInput{ConversationID: c.ID, Status: StatusNoAction, DurationSeconds: 5})
	if !errors.Is(err, ErrAlreadyFinal) {
		t.Fatalf("expected ErrAlreadyFinal, got %v", err)
	}
	got, _ = svc.Get(ctx, c.ID)
	if got.Status != StatusCompleted || got.DurationSeconds != 142 {
		t.Fatalf("terminal state regressed: %q/%d", got.Status, got.DurationSeconds)
	}
}

func TestFinalize_RejectsNonTerminalStatus(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()
	c, _ := svc.StartCall(ctx, StartCallInput{CustomerPhone: "+441234567890"})

	err := svc.Finalize(ctx, FinalizeInput{ConversationID: c.ID, Status: StatusInProgress, DurationSeconds: 10})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for in_progress report, got %v", err)
	}
	err = svc.Finalize(ctx, FinalizeInput{ConversationID: c.ID, Status: StatusCompleted, DurationSeconds: -1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative duration, got %v", err)
	}
}

func TestAppendMessage_AcceptedAfterTerminal(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()
	c, _ := svc.StartCall(ctx, StartCallInput{CustomerPhone: "+441234567890"})

	_ = svc.Finalize(ctx, FinalizeInput{ConversationID: c.ID, Status: StatusEscalated, DurationSeconds: 30})

	if _, err := svc.AppendMessage(ctx, AppendMessageInput{
		ConversationID: c.ID, Speaker: SpeakerAI, MessageText: "late line",
	}); err != nil {
		t.Fatalf("late append should succeed: %v", err)
	}
	got, _ := svc.Get(ctx, c.ID)
	if got.Status != StatusEscalated {
		t.Fatalf("late append must not change status, got %q", got.Status)
	}
}

func TestRecent_NewestFirstAndBounded(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Unix(1700000000, 0).UTC()
	tick := 0
	repo.Clock = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	svc := NewService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.StartCall(ctx, StartCallInput{CustomerPhone: "+44123456789" + string(rune('0'+i))}); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
	}

	out, err := svc.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].CreatedAt.After(out[i-1].CreatedAt) {
			t.Fatalf("expected created_at descending")
		}
	}

	out, _ = svc.Recent(ctx, 0)
	if len(out) != 5 {
		t.Fatalf("expected default limit to cover 5 rows, got %d", len(out))
	}
}
