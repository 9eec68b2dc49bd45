package index

import (
	"errors"
	"fmt"
	"os"

	"github.com/kavmehta/chatlens/internal/parse"
	"github.com/kavmehta/chatlens/internal/scan"
)

// systemSender mirrors the parser sentinel so queries can exclude notices.
const systemSender = parse.SystemSender

type Stats struct {
	Scanned    int
	Updated    int
	Skipped    int // unchanged files
	Pruned     int
	Errors     int
	Messages   int // messages indexed this run
	BadRecords int // records dropped for unparsable timestamps this run
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d messages=%d bad_records=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors, s.Messages, s.BadRecords)
}

// IndexAll scans root for exports and (re-)indexes the ones whose
// mtime/size changed. A malformed export warns and is skipped; it never
// aborts the run.
func IndexAll(db *DB, root string, opts parse.Options) (Stats, error) {
	var stats Stats

	files, err := scan.ScanRoot(root)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	// track which files we see, for pruning
	seenKeys := make(map[string]struct{})

	for _, fi := range files {
		seenKeys[fi.Key] = struct{}{}

		needs, err := needsUpdate(db, fi.Key, fi.Mtime, fi.Size)
		if err != nil {
			stats.Errors++
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}

		result, err := parseFile(fi.Path, opts)
		if err != nil {
			if errors.Is(err, parse.ErrNoMessages) {
				// keep the key so a previously indexed copy is pruned
				// rather than served stale
				delete(seenKeys, fi.Key)
			}
			stats.Errors++
			fmt.Fprintf(os.Stderr, "  WARN: parse %s: %v\n", fi.Path, err)
			continue
		}

		if err := indexChat(db, fi, result); err != nil {
			stats.Errors++
			fmt.Fprintf(os.Stderr, "  WARN: index %s: %v\n", fi.Path, err)
			continue
		}
		stats.Updated++
		stats.Messages += len(result.Messages)
		stats.BadRecords += result.Skipped
	}

	// prune chats whose files no longer exist
	pruned, err := pruneChats(db, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

func parseFile(path string, opts parse.Options) (*parse.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse.Parse(string(data), opts)
}

func needsUpdate(db *DB, chatKey string, mtime, size int64) (bool, error) {
	info, err := db.GetChatInfo(chatKey)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new chat
	}
	return info.Mtime != mtime || info.Size != size, nil
}

func indexChat(db *DB, fi scan.FileInfo, result *parse.Result) error {
	// delete old data first
	if err := db.DeleteChat(fi.Key); err != nil {
		return err
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	first := result.Messages[0].Timestamp
	last := result.Messages[len(result.Messages)-1].Timestamp

	_, err = tx.Exec(
		`INSERT INTO chats (chat_key, name, file_path, first_ts, last_ts, message_count, skipped, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fi.Key,
		fi.Name,
		fi.Path,
		first.Format(tsFormat),
		last.Format(tsFormat),
		len(result.Messages),
		result.Skipped,
		fi.Mtime,
		fi.Size,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (chat_key, seq, ts, sender, body, is_media, date, year, month_num, month, day, day_name, hour, minute, line_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for seq, m := range result.Messages {
		_, err := stmt.Exec(
			fi.Key,
			seq,
			m.Timestamp.Format(tsFormat),
			m.Sender,
			m.Body,
			m.IsMedia,
			m.Date,
			m.Year,
			m.MonthNum,
			m.Month,
			m.Day,
			m.DayName,
			m.Hour,
			m.Minute,
			m.Line,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func pruneChats(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllChatKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteChat(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
