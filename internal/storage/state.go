// Package storage persists ragline's client-side state: the session
// snapshot, one-shot key/value entries, session cookies, and a cache of
// the last server-confirmed conversations for offline display and search.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ragline/ragline/internal/models"
)

// KeyAuthRedirect is the one-shot entry holding the view to return to
// after the external OAuth round trip.
const KeyAuthRedirect = "auth_redirect"

// StateStore is the durable client state, backed by SQLite.
type StateStore struct {
	writeDB *sql.DB // single connection for writes
	readDB  *sql.DB // pool of connections for reads
	path    string
}

// NewStateStore opens (creating if needed) the state database at path.
func NewStateStore(path string) (*StateStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".ragline", "state.db")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	writeDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open write database: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", path)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("failed to open read database: %w", err)
	}
	cfg := DefaultConfig()
	readDB.SetMaxOpenConns(cfg.MaxReadConns)
	readDB.SetMaxIdleConns(cfg.MaxIdleConns)
	readDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &StateStore{
		writeDB: writeDB,
		readDB:  readDB,
		path:    path,
	}

	if err := store.initializeDB(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := store.createTables(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

// Path returns the state-database location, used by the state watcher.
func (s *StateStore) Path() string {
	return s.path
}

func (s *StateStore) initializeDB() error {
	for _, pragma := range DefaultConfig().pragmas() {
		if _, err := s.writeDB.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *StateStore) createTables() error {
	queries := []string{
		queryCreateSessionTable,
		queryCreateKVTable,
		queryCreateCookiesTable,
		queryCreateConversationsTable,
		queryCreateMessagesTable,
		queryCreateMessagesFTS,
		queryCreateIndexMessagesConversation,
		queryCreateIndexConversationsUpdated,
		queryCreateMessagesInsertTrigger,
		queryCreateMessagesDeleteTrigger,
	}
	for _, query := range queries {
		if _, err := s.writeDB.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

func (s *StateStore) Close() error {
	var firstErr error
	if err := s.writeDB.Close(); err != nil {
		firstErr = err
	}
	if err := s.readDB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// SaveSession stores the persisted slice of the session: the (user,
// isAuthenticated) pair and nothing else.
func (s *StateStore) SaveSession(user *models.User, authenticated bool) error {
	var userJSON any
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		userJSON = string(data)
	}
	authed := 0
	if authenticated {
		authed = 1
	}
	if _, err := s.writeDB.Exec(queryUpsertSession, userJSON, authed); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession returns the persisted (user, isAuthenticated) pair. A store
// with no snapshot yields (nil, false).
func (s *StateStore) LoadSession() (*models.User, bool, error) {
	var userJSON sql.NullString
	var authed int
	err := s.readDB.QueryRow(querySelectSession).Scan(&userJSON, &authed)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	var user *models.User
	if userJSON.Valid && userJSON.String != "" {
		user = &models.User{}
		if err := json.Unmarshal([]byte(userJSON.String), user); err != nil {
			return nil, false, fmt.Errorf("failed to decode user: %w", err)
		}
	}
	return user, authed != 0, nil
}

// ClearSession drops the persisted session snapshot.
func (s *StateStore) ClearSession() error {
	return s.SaveSession(nil, false)
}

// PutKV stores a key/value entry.
func (s *StateStore) PutKV(key, value string) error {
	if _, err := s.writeDB.Exec(queryUpsertKV, key, value); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// TakeKV reads and deletes an entry: the consume-once semantics the
// auth-redirect target needs.
func (s *StateStore) TakeKV(key string) (string, bool, error) {
	var value string
	err := s.readDB.QueryRow(querySelectKV, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if _, err := s.writeDB.Exec(queryDeleteKV, key); err != nil {
		return "", false, fmt.Errorf("failed to consume %s: %w", key, err)
	}
	return value, true, nil
}

// SaveCookies replaces the persisted session cookies. Implements
// gateway.CookieStore.
func (s *StateStore) SaveCookies(cookies []*http.Cookie) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(queryDeleteCookies); err != nil {
		return err
	}
	for _, c := range cookies {
		if _, err := tx.Exec(queryInsertCookie, c.Name, c.Value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadCookies returns the persisted session cookies.
func (s *StateStore) LoadCookies() ([]*http.Cookie, error) {
	rows, err := s.readDB.Query(querySelectCookies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cookies []*http.Cookie
	for rows.Next() {
		c := &http.Cookie{}
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, err
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// ClearCookies drops all persisted cookies.
func (s *StateStore) ClearCookies() error {
	_, err := s.writeDB.Exec(queryDeleteCookies)
	return err
}

// CacheConversations replaces the cached conversation list, preserving
// server order via the position column.
func (s *StateStore) CacheConversations(convs []models.Conversation) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(queryDeleteConversations); err != nil {
		return err
	}
	for i, conv := range convs {
		if err := upsertConversation(tx, conv, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertConversation(tx *sql.Tx, conv models.Conversation, position int) error {
	active := 0
	if conv.IsActive {
		active = 1
	}
	_, err := tx.Exec(queryInsertConversation,
		conv.ID, conv.Title, active,
		conv.CreatedAt.Time, conv.UpdatedAt.Time,
		conv.MessageCount, position,
	)
	return err
}

// CachedConversations returns the cached list in server order.
func (s *StateStore) CachedConversations() ([]models.Conversation, error) {
	rows, err := s.readDB.Query(querySelectConversations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var convs []models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (models.Conversation, error) {
	var conv models.Conversation
	var active int
	var createdAt, updatedAt sql.NullTime
	err := row.Scan(&conv.ID, &conv.Title, &active, &createdAt, &updatedAt, &conv.MessageCount)
	if err != nil {
		return conv, err
	}
	conv.IsActive = active != 0
	conv.CreatedAt = models.At(createdAt.Time)
	conv.UpdatedAt = models.At(updatedAt.Time)
	return conv, nil
}

// CacheTranscript stores a server-confirmed transcript, replacing any
// cached messages for the conversation.
func (s *StateStore) CacheTranscript(conv models.Conversation, messages []models.Message) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM conversations WHERE id = ?", conv.ID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if err := upsertConversation(tx, conv, -1); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(queryDeleteMessagesForConv, conv.ID); err != nil {
		return err
	}
	for _, msg := range messages {
		var ts any
		if msg.Timestamp != nil {
			ts = msg.Timestamp.Time
		}
		var serverID any
		if msg.ID != 0 {
			serverID = msg.ID
		}
		if _, err := tx.Exec(queryInsertMessage,
			serverID, conv.ID, msg.Role, msg.Content, msg.RouteTaken, ts,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CachedTranscript returns the cached conversation and transcript, or
// (zero, nil, false) when the conversation has never been cached.
func (s *StateStore) CachedTranscript(id int64) (models.Conversation, []models.Message, bool, error) {
	conv, err := scanConversation(s.readDB.QueryRow(querySelectConversation, id))
	if err == sql.ErrNoRows {
		return models.Conversation{}, nil, false, nil
	}
	if err != nil {
		return models.Conversation{}, nil, false, err
	}

	rows, err := s.readDB.Query(querySelectMessages, id)
	if err != nil {
		return models.Conversation{}, nil, false, err
	}
	defer rows.Close()
	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var serverID sql.NullInt64
		var route sql.NullString
		var ts sql.NullTime
		if err := rows.Scan(&serverID, &msg.ConversationID, &msg.Role, &msg.Content, &route, &ts); err != nil {
			return models.Conversation{}, nil, false, err
		}
		msg.ID = serverID.Int64
		msg.RouteTaken = route.String
		if ts.Valid {
			t := models.At(ts.Time)
			msg.Timestamp = &t
		}
		messages = append(messages, msg)
	}
	return conv, messages, true, rows.Err()
}

// RemoveCachedConversation drops a conversation and its messages from the
// cache, mirroring a server-side delete.
func (s *StateStore) RemoveCachedConversation(id int64) error {
	_, err := s.writeDB.Exec(queryDeleteConversation, id)
	return err
}

// SearchCached runs a full-text search over cached message content. The
// query is matched as a literal phrase; FTS5 operators in user input
// (quotes, -, NEAR) are not interpreted.
func (s *StateStore) SearchCached(query string, limit int) ([]models.SearchResult, error) {
	match := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
	rows, err := s.readDB.Query(querySearchMessages, match, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []models.SearchResult
	for rows.Next() {
		var result models.SearchResult
		var active int
		var createdAt, updatedAt sql.NullTime
		var content string
		err := rows.Scan(
			&result.Conversation.ID, &result.Conversation.Title, &active,
			&createdAt, &updatedAt, &result.Conversation.MessageCount,
			&content, &result.Score,
		)
		if err != nil {
			return nil, err
		}
		result.Conversation.IsActive = active != 0
		result.Conversation.CreatedAt = models.At(createdAt.Time)
		result.Conversation.UpdatedAt = models.At(updatedAt.Time)
		result.Snippet = truncateContent(content, 200)
		results = append(results, result)
	}
	return results, rows.Err()
}

func truncateContent(content string, maxLen int) string {
	if len(content) <= maxLen {
		return content
	}
	return strings.TrimSpace(content[:maxLen]) + "..."
}
