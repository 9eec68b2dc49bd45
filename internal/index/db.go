package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS chats (
    chat_key      TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    file_path     TEXT NOT NULL,
    first_ts      TEXT NOT NULL DEFAULT '',
    last_ts       TEXT NOT NULL DEFAULT '',
    message_count INTEGER NOT NULL DEFAULT 0,
    skipped       INTEGER NOT NULL DEFAULT 0,
    mtime         INTEGER NOT NULL DEFAULT 0,
    size          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
    chat_key    TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    ts          TEXT NOT NULL DEFAULT '',
    sender      TEXT NOT NULL,
    body        TEXT NOT NULL,
    is_media    INTEGER NOT NULL DEFAULT 0,
    date        TEXT NOT NULL DEFAULT '',
    year        INTEGER NOT NULL DEFAULT 0,
    month_num   INTEGER NOT NULL DEFAULT 0,
    month       TEXT NOT NULL DEFAULT '',
    day         INTEGER NOT NULL DEFAULT 0,
    day_name    TEXT NOT NULL DEFAULT '',
    hour        INTEGER NOT NULL DEFAULT 0,
    minute      INTEGER NOT NULL DEFAULT 0,
    line_number INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (chat_key, seq)
);

CREATE INDEX IF NOT EXISTS messages_sender ON messages (chat_key, sender);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    body,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, body) VALUES (new.rowid, new.body);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, body) VALUES('delete', old.rowid, old.body);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, body) VALUES('delete', old.rowid, old.body);
    INSERT INTO messages_fts(rowid, body) VALUES (new.rowid, new.body);
END;
`

// tsFormat is how timestamps are stored; lexicographic order matches
// chronological order, which the since filters rely on.
const tsFormat = "2006-01-02T15:04:05"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	// schema version tracking for forced re-index
	db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)")
	d := &DB{db: db}
	d.migrateSchemaVersion()

	return d, nil
}

// schemaVersion should be bumped whenever parsing logic changes
// to force a full re-index.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		// force re-index by resetting all chat mtime/size to 0
		d.db.Exec("UPDATE chats SET mtime = 0, size = 0")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type ChatInfo struct {
	Mtime int64
	Size  int64
}

func (d *DB) GetChatInfo(chatKey string) (*ChatInfo, error) {
	var info ChatInfo
	err := d.db.QueryRow(
		"SELECT mtime, size FROM chats WHERE chat_key = ?",
		chatKey,
	).Scan(&info.Mtime, &info.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllChatKeys() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT chat_key FROM chats")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteChat(chatKey string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE chat_key = ?", chatKey); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM chats WHERE chat_key = ?", chatKey); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) ChatCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM chats").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

type ChatRow struct {
	ChatKey      string
	Name         string
	FilePath     string
	FirstTs      string
	LastTs       string
	MessageCount int
	Skipped      int
}

func (d *DB) GetChatByKey(chatKey string) (*ChatRow, error) {
	var c ChatRow
	err := d.db.QueryRow(
		"SELECT chat_key, name, file_path, first_ts, last_ts, message_count, skipped FROM chats WHERE chat_key = ?",
		chatKey,
	).Scan(&c.ChatKey, &c.Name, &c.FilePath, &c.FirstTs, &c.LastTs, &c.MessageCount, &c.Skipped)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Senders returns the distinct sender names for a chat ("" = all chats),
// excluding the system sentinel, for per-user filtering downstream.
func (d *DB) Senders(chatKey string) ([]string, error) {
	query := "SELECT DISTINCT sender FROM messages WHERE sender != ?"
	args := []interface{}{systemSender}
	if chatKey != "" {
		query += " AND chat_key = ?"
		args = append(args, chatKey)
	}
	query += " ORDER BY sender"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var senders []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		senders = append(senders, s)
	}
	return senders, rows.Err()
}

type MessageRow struct {
	ChatKey    string
	Seq        int
	Ts         string
	Sender     string
	Body       string
	IsMedia    bool
	LineNumber int
}

func (d *DB) GetMessages(chatKey string) ([]MessageRow, error) {
	rows, err := d.db.Query(
		"SELECT chat_key, seq, ts, sender, body, is_media, line_number FROM messages WHERE chat_key = ? ORDER BY seq",
		chatKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []MessageRow
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.ChatKey, &m.Seq, &m.Ts, &m.Sender, &m.Body, &m.IsMedia, &m.LineNumber); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetMessagesWindow returns a window of messages around a hit message,
// loading only the necessary rows. startPos is the number of messages
// before the returned window; totalCount is the chat's message total.
func (d *DB) GetMessagesWindow(chatKey string, hitSeq, context int) (msgs []MessageRow, hitIdx int, startPos int, totalCount int, err error) {
	err = d.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE chat_key = ?", chatKey,
	).Scan(&totalCount)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	// find the row_number (0-based position) of the hit
	hitPos := -1
	if hitSeq >= 0 {
		err = d.db.QueryRow(`
			SELECT pos FROM (
				SELECT seq, ROW_NUMBER() OVER (ORDER BY seq) - 1 AS pos
				FROM messages WHERE chat_key = ?
			) WHERE seq = ?`,
			chatKey, hitSeq,
		).Scan(&hitPos)
		if err == sql.ErrNoRows {
			hitPos = -1
			err = nil
		} else if err != nil {
			return nil, -1, 0, 0, err
		}
	}

	startPos = 0
	limit := totalCount
	if hitPos >= 0 {
		startPos = hitPos - context
		if startPos < 0 {
			startPos = 0
		}
		endPos := hitPos + context + 1
		if endPos > totalCount {
			endPos = totalCount
		}
		limit = endPos - startPos
	}

	rows, err := d.db.Query(
		"SELECT chat_key, seq, ts, sender, body, is_media, line_number FROM messages WHERE chat_key = ? ORDER BY seq LIMIT ? OFFSET ?",
		chatKey, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	var result []MessageRow
	localHitIdx := -1
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.ChatKey, &m.Seq, &m.Ts, &m.Sender, &m.Body, &m.IsMedia, &m.LineNumber); err != nil {
			return nil, -1, 0, 0, err
		}
		if m.Seq == hitSeq {
			localHitIdx = len(result)
		}
		result = append(result, m)
	}
	return result, localHitIdx, startPos, totalCount, rows.Err()
}
