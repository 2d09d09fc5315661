package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chris/flightai/internal/llm"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	ID        string    `json:"id"`
	Demo      string    `json:"demo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  int       `json:"messages"`
}

// CreateSession starts a session for a demo and stores its initial messages.
func (d *DB) CreateSession(ctx context.Context, demo string, messages []llm.Message) (string, error) {
	id := uuid.NewString()
	now := d.now().UnixMilli()

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (id, demo, created_at, updated_at) VALUES (?, ?, ?, ?)",
		id, demo, now, now,
	); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	if err := insertMessages(ctx, tx, id, messages); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// SaveConversation replaces the stored messages of a session.
func (d *DB) SaveConversation(ctx context.Context, id string, messages []llm.Message) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", d.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}
	if err := insertMessages(ctx, tx, id, messages); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}
	return nil
}

func insertMessages(ctx context.Context, tx *sql.Tx, id string, messages []llm.Message) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (session_id, seq, role, content, tool_calls, tool_call_id) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("preparing message insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range messages {
		var calls any
		if len(m.ToolCalls) > 0 {
			b, err := json.Marshal(m.ToolCalls)
			if err != nil {
				return fmt.Errorf("encoding tool calls: %w", err)
			}
			calls = string(b)
		}
		if _, err := stmt.ExecContext(ctx, id, i, m.Role, m.Content, calls, nullStr(m.ToolCallID)); err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}
	return nil
}

// LoadConversation returns a session's messages in order.
func (d *DB) LoadConversation(ctx context.Context, id string) ([]llm.Message, error) {
	var exists int
	err := d.conn.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	rows, err := d.conn.QueryContext(ctx,
		"SELECT role, content, tool_calls, tool_call_id FROM messages WHERE session_id = ? ORDER BY seq",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	defer rows.Close()

	var out []llm.Message
	for rows.Next() {
		var m llm.Message
		var calls, callID sql.NullString
		if err := rows.Scan(&m.Role, &m.Content, &calls, &callID); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if calls.Valid {
			if err := json.Unmarshal([]byte(calls.String), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("decoding tool calls: %w", err)
			}
		}
		m.ToolCallID = callID.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its messages.
func (d *DB) DeleteSession(ctx context.Context, id string) error {
	res, err := d.conn.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// PruneIdle deletes sessions not updated within olderThan and returns how
// many were removed.
func (d *DB) PruneIdle(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := d.now().Add(-olderThan).UnixMilli()
	res, err := d.conn.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return res.RowsAffected()
}

// ListSessions returns sessions, most recently used first. An empty demo
// lists every demo.
func (d *DB) ListSessions(ctx context.Context, demo string) ([]Session, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT s.id, s.demo, s.created_at, s.updated_at, COUNT(m.seq)
		FROM sessions s LEFT JOIN messages m ON m.session_id = s.id
		WHERE ? = '' OR s.demo = ?
		GROUP BY s.id
		ORDER BY s.updated_at DESC, s.id`,
		demo, demo,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var created, updated int64
		if err := rows.Scan(&s.ID, &s.Demo, &created, &updated, &s.Messages); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.CreatedAt = time.UnixMilli(created)
		s.UpdatedAt = time.UnixMilli(updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
