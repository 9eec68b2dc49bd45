package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/kavmehta/chatlens/internal/index"
)

type Result struct {
	ChatKey  string
	Seq      int
	Ts       string
	ChatName string
	Sender   string
	Snippet  string
	Rank     float64
}

type Options struct {
	Query  string
	Chat   string // "" = all chats
	Sender string // "" = all senders
	Since  string // "" = no filter, e.g. "2024-01-01"
	Limit  int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 {
		// no match, return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := len([]rune(text[:idx]))
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

// Search runs a full-text query over message bodies. FTS5 handles the
// general case; CJK queries fall back to LIKE because the unicode61
// tokenizer cannot split ideographs.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	if containsCJK(opts.Query) {
		return searchLike(db, opts)
	}
	return searchFTS(db, opts)
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"messages_fts MATCH ?"}
	args := []interface{}{opts.Query}

	conditions, args = appendFilters(conditions, args, opts)
	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf(`
		SELECT
			m.chat_key,
			m.seq,
			m.ts,
			c.name,
			m.sender,
			snippet(messages_fts, 0, '>>>', '<<<', '...', 40) as snip,
			bm25(messages_fts, 1.0) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN chats c ON m.chat_key = c.chat_key
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, where)

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"m.body LIKE ?"}
	args := []interface{}{"%" + opts.Query + "%"}

	conditions, args = appendFilters(conditions, args, opts)
	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf(`
		SELECT
			m.chat_key,
			m.seq,
			m.ts,
			c.name,
			m.sender,
			m.body
		FROM messages m
		JOIN chats c ON m.chat_key = c.chat_key
		WHERE %s
		ORDER BY m.ts DESC
		LIMIT ?
	`, where)

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(&r.ChatKey, &r.Seq, &r.Ts, &r.ChatName, &r.Sender, &fullText); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func appendFilters(conditions []string, args []interface{}, opts Options) ([]string, []interface{}) {
	if opts.Chat != "" {
		conditions = append(conditions, "m.chat_key = ?")
		args = append(args, opts.Chat)
	}
	if opts.Sender != "" {
		conditions = append(conditions, "m.sender = ?")
		args = append(args, opts.Sender)
	}
	if opts.Since != "" {
		conditions = append(conditions, "m.ts >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ChatKey, &r.Seq, &r.Ts, &r.ChatName, &r.Sender, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListChats returns all indexed chats newest-first, optionally filtered by
// a case-insensitive name substring. The returned Results carry no hit
// (Seq -1) so previews open at the top.
func ListChats(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if opts.Query != "" {
		conditions = append(conditions, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(opts.Query)+"%")
	}
	if opts.Since != "" {
		conditions = append(conditions, "last_ts >= ?")
		args = append(args, opts.Since)
	}
	where := strings.Join(conditions, " AND ")

	limit := opts.Limit
	if limit <= 0 {
		limit = 1000
	}

	query := fmt.Sprintf(`
		SELECT chat_key, name, last_ts, message_count
		FROM chats
		WHERE %s
		ORDER BY last_ts DESC
		LIMIT ?
	`, where)
	args = append(args, limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var count int
		if err := rows.Scan(&r.ChatKey, &r.ChatName, &r.Ts, &count); err != nil {
			return nil, err
		}
		r.Seq = -1
		r.Snippet = fmt.Sprintf("%d messages", count)
		results = append(results, r)
	}
	return results, rows.Err()
}
