package reporting

import (
	"context"
	"errors"
	"time"

	"receptionist-platform/internal/conversations"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts read access to the transcript store for aggregation.
// conversations.PostgresRepo and conversations.MemoryRepo both satisfy it.
type Repository interface {
	ListByRange(ctx context.Context, from, to time.Time) ([]conversations.Conversation, error)
}

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type SummaryRequest struct {
	Range TimeRange `json:"range"`
}

// Summary backs the dashboard stat cards: call counts by outcome plus
// duration aggregates. Durations count terminal conversations only, since an
// in_progress row always carries duration 0.
type Summary struct {
	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	EscalatedCalls  int `json:"escalated_calls"`
	NoActionCalls   int `json:"no_action_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CallsSummary(ctx context.Context, req SummaryRequest) (Summary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return Summary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return Summary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListByRange(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return Summary{}, err
	}

	var out Summary
	finalized := 0
	for _, c := range rows {
		out.TotalCalls++
		switch c.Status {
		case conversations.StatusCompleted:
			out.CompletedCalls++
		case conversations.StatusEscalated:
			out.EscalatedCalls++
		case conversations.StatusNoAction:
			out.NoActionCalls++
		case conversations.StatusInProgress:
			out.InProgressCalls++
		}
		if c.Status.Terminal() {
			finalized++
			out.TotalDurationSeconds += c.DurationSeconds
		}
	}
	if finalized > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / finalized
	}
	return out, nil
}
