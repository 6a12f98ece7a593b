package devserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ccai-examples/ccai-demo/pkg/wire"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a chat does not exist or belongs to someone
// else.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	end_user_id          TEXT NOT NULL,
	menu_id              INTEGER NOT NULL,
	menu_name            TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL,
	language             TEXT NOT NULL DEFAULT '',
	screen_shareable     INTEGER NOT NULL DEFAULT 0,
	support_screen_share INTEGER,
	agent_id             TEXT,
	agent_name           TEXT,
	created_at           INTEGER NOT NULL,
	updated_at           INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS chats_end_user ON chats (end_user_id, updated_at);

CREATE TABLE IF NOT EXISTS messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	chat_id    INTEGER NOT NULL REFERENCES chats (id),
	author     TEXT,
	type       TEXT NOT NULL,
	content    TEXT,
	event      TEXT NOT NULL DEFAULT '',
	payload    TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_chat ON messages (chat_id, seq);
`

// inProgress lists the statuses a chat can still be resumed from.
var inProgress = []string{"queued", "assigned", "switching"}

// Store persists chats and messages in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// OpenStore opens (or creates) the database at path. ":memory:" keeps
// everything in memory.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const chatColumns = `id, end_user_id, menu_id, menu_name, status, support_screen_share,
	agent_id, agent_name, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (*wire.Chat, error) {
	var (
		c         wire.Chat
		menuID    int
		menuName  string
		supports  sql.NullBool
		agentID   sql.NullString
		agentName sql.NullString
	)
	err := row.Scan(&c.ID, &c.EndUserID, &menuID, &menuName, &c.Status, &supports,
		&agentID, &agentName, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Menus = []wire.Menu{{ID: menuID, Name: menuName}}
	if supports.Valid {
		v := supports.Bool
		c.SupportScreenShare = &v
	}
	if agentID.Valid && agentID.String != "" {
		c.CurrentAgent = &wire.Agent{ID: agentID.String, DisplayName: agentName.String}
	}
	return &c, nil
}

// CreateChat opens a queued chat for endUserID.
func (s *Store) CreateChat(ctx context.Context, endUserID string, req wire.StartChatRequest) (*wire.Chat, error) {
	now := s.now().UnixMilli()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (end_user_id, menu_id, status, language, screen_shareable, created_at, updated_at)
		VALUES (?, ?, 'queued', ?, ?, ?, ?)`,
		endUserID, req.MenuID, req.Language, req.ScreenShareable, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.Chat(ctx, int(id))
}

// Chat loads a chat by id.
func (s *Store) Chat(ctx context.Context, id int) (*wire.Chat, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = ?`, id)
	return scanChat(row)
}

// OwnedChat loads a chat and checks it belongs to endUserID.
func (s *Store) OwnedChat(ctx context.Context, id int, endUserID string) (*wire.Chat, error) {
	c, err := s.Chat(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.EndUserID != endUserID {
		return nil, ErrNotFound
	}
	return c, nil
}

// LastInProgress returns the most recently updated resumable chat of
// endUserID.
func (s *Store) LastInProgress(ctx context.Context, endUserID string) (*wire.Chat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+chatColumns+` FROM chats
		WHERE end_user_id = ? AND status IN (?, ?, ?)
		ORDER BY updated_at DESC, id DESC LIMIT 1`,
		endUserID, inProgress[0], inProgress[1], inProgress[2])
	return scanChat(row)
}

// AssignAgent puts an agent on the chat and marks it assigned.
func (s *Store) AssignAgent(ctx context.Context, id int, agent wire.Agent, supportsScreenShare bool) (*wire.Chat, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chats SET status = 'assigned', agent_id = ?, agent_name = ?,
			support_screen_share = ?, updated_at = ?
		WHERE id = ?`,
		agent.ID, agent.DisplayName, supportsScreenShare, s.now().UnixMilli(), id)
	if err := checkUpdated(res, err); err != nil {
		return nil, err
	}
	return s.Chat(ctx, id)
}

// SetStatus changes the chat status.
func (s *Store) SetStatus(ctx context.Context, id int, status string) (*wire.Chat, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE chats SET status = ?, updated_at = ? WHERE id = ?`,
		status, s.now().UnixMilli(), id)
	if err := checkUpdated(res, err); err != nil {
		return nil, err
	}
	return s.Chat(ctx, id)
}

func checkUpdated(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMessage stores m, assigning its id and timestamp.
func (s *Store) AddMessage(ctx context.Context, m wire.Message) (*wire.Message, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = s.now().UnixMilli()

	var payload sql.NullString
	if len(m.Payload) > 0 {
		if !json.Valid(m.Payload) {
			return nil, fmt.Errorf("payload is not valid JSON")
		}
		payload = sql.NullString{String: string(m.Payload), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, author, type, content, event, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ChatID, m.Author, m.Type, m.Content, m.Event, payload, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE chats SET updated_at = ? WHERE id = ?`, m.CreatedAt, m.ChatID); err != nil {
		return nil, fmt.Errorf("touch chat: %w", err)
	}
	return &m, nil
}

// History returns page (1 = newest) of chatID's messages, oldest first
// within the page. nextPage is -1 when no older messages remain.
func (s *Store) History(ctx context.Context, chatID, page, pageSize int) (msgs []wire.Message, nextPage int, err error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, author, type, content, event, payload, created_at
		FROM messages WHERE chat_id = ?
		ORDER BY seq DESC LIMIT ? OFFSET ?`,
		chatID, pageSize+1, offset)
	if err != nil {
		return nil, -1, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m       wire.Message
			author  sql.NullString
			content sql.NullString
			payload sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.ChatID, &author, &m.Type, &content, &m.Event, &payload, &m.CreatedAt); err != nil {
			return nil, -1, err
		}
		if author.Valid {
			m.Author = &author.String
		}
		if content.Valid {
			m.Content = &content.String
		}
		if payload.Valid {
			m.Payload = json.RawMessage(payload.String)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, -1, err
	}

	nextPage = -1
	if len(msgs) > pageSize {
		msgs = msgs[:pageSize]
		nextPage = page + 1
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nextPage, nil
}
