package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"receptionist-platform/internal/conversations"
)

func seedRepo(t *testing.T, base time.Time) *conversations.MemoryRepo {
	t.Helper()
	repo := conversations.NewMemoryRepo()
	tick := 0
	repo.Clock = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	svc := conversations.NewService(repo)
	ctx := context.Background()

	a, _ := svc.StartCall(ctx, conversations.StartCallInput{CustomerPhone: "+441"})
	b, _ := svc.StartCall(ctx, conversations.StartCallInput{CustomerPhone: "+442"})
	c, _ := svc.StartCall(ctx, conversations.StartCallInput{CustomerPhone: "+443"})
	_, _ = svc.StartCall(ctx, conversations.StartCallInput{CustomerPhone: "+444"})

	_ = svc.Finalize(ctx, conversations.FinalizeInput{ConversationID: a.ID, Status: conversations.StatusCompleted, DurationSeconds: 120})
	_ = svc.Finalize(ctx, conversations.FinalizeInput{ConversationID: b.ID, Status: conversations.StatusEscalated, DurationSeconds: 300})
	_ = svc.Finalize(ctx, conversations.FinalizeInput{ConversationID: c.ID, Status: conversations.StatusNoAction, DurationSeconds: 0})
	return repo
}

func TestCallsSummary_CountsByStatus(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	svc := NewService(seedRepo(t, base))

	out, err := svc.CallsSummary(context.Background(), SummaryRequest{
		Range: TimeRange{From: base, To: base.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 4 {
		t.Fatalf("expected 4 calls, got %d", out.TotalCalls)
	}
	if out.CompletedCalls != 1 || out.EscalatedCalls != 1 || out.NoActionCalls != 1 || out.InProgressCalls != 1 {
		t.Fatalf("unexpected status counts: %+v", out)
	}
	if out.TotalDurationSeconds != 420 {
		t.Fatalf("expected 420s total, got %d", out.TotalDurationSeconds)
	}
	if out.AverageDurationSeconds != 140 {
		t.Fatalf("expected 140s average over terminal calls, got %d", out.AverageDurationSeconds)
	}
}

func TestCallsSummary_WindowFiltering(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	svc := NewService(seedRepo(t, base))

	// Window before any rows were created.
	out, err := svc.CallsSummary(context.Background(), SummaryRequest{
		Range: TimeRange{From: base.Add(-2 * time.Hour), To: base.Add(-time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 0 {
		t.Fatalf("expected empty window, got %d calls", out.TotalCalls)
	}
}

func TestCallsSummary_RejectsInvalidRange(t *testing.T) {
	svc := NewService(conversations.NewMemoryRepo())
	base := time.Unix(1700000000, 0).UTC()

	cases := []TimeRange{
		{},
		{From: base},
		{From: base, To: base},
		{From: base.Add(time.Hour), To: base},
	}
	for i, rng := range cases {
		_, err := svc.CallsSummary(context.Background(), SummaryRequest{Range: rng})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("case %d: expected ErrInvalidRequest, got %v", i, err)
		}
	}
}
