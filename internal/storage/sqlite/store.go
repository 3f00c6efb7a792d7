// Package sqlite is a Store backed by an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/gd03champ/swiggy-ai-agent/internal/storage"
)

type Store struct {
	db *sqlx.DB
}

var _ storage.Store = (*Store)(nil)

// New opens or creates the database at dsn and initializes the schema.
// A dsn containing :memory: is pinned to a single connection, since each
// SQLite in-memory connection is its own database.
func New(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateConversation(ctx context.Context, conv *storage.Conversation) error {
	now := time.Now()

	var exists int
	err := s.db.GetContext(ctx, &exists,
		`SELECT COUNT(*) FROM conversations WHERE session_id = ?`, conv.SessionID)
	if err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("conversation %s: %w", conv.SessionID, storage.ErrExists)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (session_id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		conv.SessionID, conv.UserID, now, now)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, sessionID string, msg *storage.Message) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE session_id = ?`, time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("conversation %s: %w", sessionID, storage.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, timestamp) VALUES (?, ?, ?, ?)`,
		sessionID, msg.Role, msg.Content, ts)
	if err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	return tx.Commit()
}

func (s *Store) GetConversation(ctx context.Context, sessionID string) (*storage.Conversation, error) {
	var conv storage.Conversation
	err := s.db.GetContext(ctx, &conv,
		`SELECT session_id, user_id, created_at, updated_at FROM conversations WHERE session_id = ?`,
		sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", sessionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	if err := s.db.SelectContext(ctx, &conv.Messages,
		`SELECT role, content, timestamp FROM messages WHERE session_id = ? ORDER BY timestamp ASC, id ASC`,
		sessionID); err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return &conv, nil
}

func (s *Store) ListConversations(ctx context.Context, opts storage.ListOptions) ([]*storage.Conversation, int, error) {
	where := ""
	args := []any{}
	if opts.UserID != "" {
		where = " WHERE user_id = ?"
		args = append(args, opts.UserID)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM conversations`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	order := "DESC"
	if opts.SortOrder == 1 {
		order = "ASC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = total
	}

	query := `SELECT session_id, user_id, created_at, updated_at FROM conversations` + where +
		` ORDER BY updated_at ` + order + ` LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	var page []*storage.Conversation
	if err := s.db.SelectContext(ctx, &page, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}

	for _, conv := range page {
		if err := s.db.SelectContext(ctx, &conv.Messages,
			`SELECT role, content, timestamp FROM messages WHERE session_id = ? ORDER BY timestamp ASC, id ASC`,
			conv.SessionID); err != nil {
			return nil, 0, fmt.Errorf("failed to load messages: %w", err)
		}
	}
	return page, total, nil
}

func (s *Store) DeleteConversation(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("conversation %s: %w", sessionID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}
