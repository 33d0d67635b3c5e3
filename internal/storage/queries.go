package storage

// State-database schema and queries. The session and kv tables are the
// durable-storage analog of the web client's localStorage; the
// conversation tables are a read-through cache of the last server state.
const (
	queryCreateSessionTable = `CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		user_json TEXT,
		is_authenticated INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

	queryCreateKVTable = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`

	queryCreateCookiesTable = `CREATE TABLE IF NOT EXISTS cookies (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`

	queryCreateConversationsTable = `CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME,
		message_count INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0
	)`

	queryCreateMessagesTable = `CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server_id INTEGER,
		conversation_id INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		route_taken TEXT,
		timestamp DATETIME,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	)`

	queryCreateMessagesFTS = `CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
		content,
		content=messages,
		content_rowid=id
	)`

	queryCreateIndexMessagesConversation = `CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`
	queryCreateIndexConversationsUpdated = `CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at)`

	queryCreateMessagesInsertTrigger = `CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages
	BEGIN
		INSERT INTO messages_fts(rowid, content) VALUES (new.id, new.content);
	END`

	queryCreateMessagesDeleteTrigger = `CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages
	BEGIN
		DELETE FROM messages_fts WHERE rowid = old.id;
	END`

	queryUpsertSession = `INSERT INTO session (id, user_json, is_authenticated, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			user_json = excluded.user_json,
			is_authenticated = excluded.is_authenticated,
			updated_at = excluded.updated_at`

	querySelectSession = `SELECT user_json, is_authenticated FROM session WHERE id = 1`

	queryUpsertKV = `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	querySelectKV = `SELECT value FROM kv WHERE key = ?`
	queryDeleteKV = `DELETE FROM kv WHERE key = ?`

	queryDeleteCookies = `DELETE FROM cookies`
	queryInsertCookie  = `INSERT INTO cookies (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`
	querySelectCookies = `SELECT name, value FROM cookies`

	queryDeleteConversations = `DELETE FROM conversations`
	queryInsertConversation  = `INSERT INTO conversations (id, title, is_active, created_at, updated_at, message_count, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			is_active = excluded.is_active,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			message_count = excluded.message_count,
			position = excluded.position`
	querySelectConversations = `SELECT id, title, is_active, created_at, updated_at, message_count
		FROM conversations ORDER BY position`
	querySelectConversation = `SELECT id, title, is_active, created_at, updated_at, message_count
		FROM conversations WHERE id = ?`
	queryDeleteConversation    = `DELETE FROM conversations WHERE id = ?`
	queryDeleteMessagesForConv = `DELETE FROM messages WHERE conversation_id = ?`

	queryInsertMessage = `INSERT INTO messages (server_id, conversation_id, role, content, route_taken, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`
	querySelectMessages = `SELECT server_id, conversation_id, role, content, route_taken, timestamp
		FROM messages WHERE conversation_id = ? ORDER BY id`

	querySearchMessages = `
		SELECT DISTINCT
			c.id, c.title, c.is_active, c.created_at, c.updated_at, c.message_count,
			m.content, bm25(messages_fts) AS score
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.id
		JOIN conversations c ON m.conversation_id = c.id
		WHERE messages_fts MATCH ?
		ORDER BY score
		LIMIT ?`
)
