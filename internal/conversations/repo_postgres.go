package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresRepo persists conversations and messages via database/sql (pgx
// stdlib driver). Schema lives in db/schema.sql.
//
// Write timestamps are assigned by the database (now()) so that append order
// within a conversation maps to a non-decreasing created_at without any
// client clock assumptions.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, c Conversation) (Conversation, error) {
	// Insert-if-absent on provider_call_id so provider webhook retries do not
	// create duplicate rows. NULLIF keeps the unique index out of play when
	// no provider id was supplied.
	const insert = `
		INSERT INTO conversations
			(id, provider_call_id, customer_phone, customer_name, transcript, duration_seconds, status)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
		ON CONFLICT (provider_call_id) WHERE provider_call_id IS NOT NULL DO NOTHING
		RETURNING id, created_at`

	row := r.db.QueryRowContext(ctx, insert,
		c.ID, c.ProviderCallID, c.CustomerPhone, c.CustomerName,
		c.Transcript, c.DurationSeconds, c.Status,
	)
	err := row.Scan(&c.ID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict on provider_call_id: hand back the existing row.
		return r.getByProviderCallID(ctx, c.ProviderCallID)
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

func (r *PostgresRepo) getByProviderCallID(ctx context.Context, providerCallID string) (Conversation, error) {
	const q = selectConversation + ` WHERE provider_call_id = $1`
	c, err := scanConversation(r.db.QueryRowContext(ctx, q, providerCallID))
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Conversation, error) {
	const q = selectConversation + ` WHERE id = $1`
	c, err := scanConversation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Conversation, error) {
	const q = selectConversation + ` ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()
	return collectConversations(rows)
}

func (r *PostgresRepo) ListByRange(ctx context.Context, from, to time.Time) ([]Conversation, error) {
	const q = selectConversation + ` WHERE created_at >= $1 AND created_at < $2`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("list conversations by range: %w", err)
	}
	defer rows.Close()
	return collectConversations(rows)
}

func (r *PostgresRepo) AppendMessage(ctx context.Context, m Message) (Message, error) {
	// Referential integrity at write time: the FK rejects messages for
	// unknown conversations, but we resolve the conversation first so the
	// caller gets a clean ErrNotFound instead of a constraint error.
	if _, err := r.Get(ctx, m.ConversationID); err != nil {
		return Message{}, err
	}

	const insert = `
		INSERT INTO messages (id, conversation_id, speaker, message_text)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, insert,
		m.ID, m.ConversationID, m.Speaker, m.MessageText,
	).Scan(&m.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (r *PostgresRepo) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	// id is a tiebreak for equal timestamps; created_at carries the order.
	const q = `
		SELECT id, conversation_id, speaker, message_text, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Speaker, &m.MessageText, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateSummary(ctx context.Context, id, transcript, customerName string) error {
	// Never touches status or duration_seconds, so a late summary update
	// cannot race the terminal write into corruption.
	const q = `
		UPDATE conversations
		SET transcript    = COALESCE(NULLIF($2, ''), transcript),
		    customer_name = COALESCE(NULLIF($3, ''), customer_name)
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id, transcript, customerName)
	if err != nil {
		return fmt.Errorf("update summary: %w", err)
	}
	return checkAffected(res)
}

func (r *PostgresRepo) Finalize(ctx context.Context, id string, status Status, durationSeconds int) error {
	// Guarding on in_progress makes the status monotonic: a second terminal
	// report matches zero rows.
	const q = `
		UPDATE conversations
		SET status = $2, duration_seconds = $3
		WHERE id = $1 AND status = $4`

	res, err := r.db.ExecContext(ctx, q, id, status, durationSeconds, StatusInProgress)
	if err != nil {
		return fmt.Errorf("finalize conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyFinal
	}
	return nil
}

const selectConversation = `
	SELECT id, COALESCE(provider_call_id, ''), customer_phone, COALESCE(customer_name, ''),
	       transcript, duration_seconds, status, created_at
	FROM conversations`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (Conversation, error) {
	var c Conversation
	err := row.Scan(
		&c.ID, &c.ProviderCallID, &c.CustomerPhone, &c.CustomerName,
		&c.Transcript, &c.DurationSeconds, &c.Status, &c.CreatedAt,
	)
	return c, err
}

func collectConversations(rows *sql.Rows) ([]Conversation, error) {
	out := make([]Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
