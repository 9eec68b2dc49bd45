package parse

import (
	"bufio"
	"strings"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// Options controls locale-dependent parsing behavior.
type Options struct {
	// DayFirst selects day/month/year over month/day/year for the
	// ambiguous numeric dates. WhatsApp exports outside the US are
	// day-first, so that is the default.
	DayFirst bool

	// MediaPlaceholders are the literal bodies the platform substitutes
	// for media. A message whose whole body equals one of them gets
	// MediaSentinel instead.
	MediaPlaceholders []string
}

// DefaultOptions matches the common non-US Android export.
func DefaultOptions() Options {
	return Options{
		DayFirst: true,
		MediaPlaceholders: []string{
			"<Media omitted>",
			"Media omitted",
			"image omitted",
			"video omitted",
			"audio omitted",
			"sticker omitted",
			"GIF omitted",
			"document omitted",
		},
	}
}

// Parse turns raw export text into an ordered message table. It is a pure
// single pass: each line either starts a new message (timestamp prefix) or
// continues the previous one. Text before the first recognizable timestamp
// is discarded. A start line whose timestamp parses under no known layout
// skips that record (and its continuation lines) and bumps Skipped.
//
// Parse returns ErrNoMessages when zero records come out, so callers can
// distinguish "no valid messages found" from a small but real table.
func Parse(text string, opts Options) (*Result, error) {
	placeholders := make(map[string]struct{}, len(opts.MediaPlaceholders))
	for _, p := range opts.MediaPlaceholders {
		placeholders[strings.ToLower(p)] = struct{}{}
	}

	result := &Result{}

	var open *Message

	flush := func() {
		if open == nil {
			return
		}
		if _, ok := placeholders[strings.ToLower(strings.TrimSpace(open.Body))]; ok {
			open.Body = MediaSentinel
			open.IsMedia = true
		}
		open.deriveTimeFields()
		result.Messages = append(result.Messages, *open)
		open = nil
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := normalizeLine(sc.Text())

		f, stamp, rest, ok := matchStart(line)
		if !ok {
			// Continuation of the open record, or pre-header noise.
			if open != nil {
				open.Body += "\n" + line
			}
			continue
		}

		flush()

		ts, ok := parseStamp(f, stamp, opts.DayFirst)
		if !ok {
			// The record and its continuation lines go with it: while no
			// record is open, non-matching lines fall through above.
			result.Skipped++
			continue
		}

		sender, body := splitSender(rest)
		open = &Message{
			Timestamp: ts,
			Sender:    sender,
			Body:      body,
			Line:      lineNum,
		}
	}
	flush()

	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(result.Messages) == 0 {
		return nil, ErrNoMessages
	}
	return result, nil
}

// splitSender separates "Alice: hi" into sender and body. Entries without
// the ": " delimiter are system notices ("X added Y", encryption banners)
// and get the system sentinel.
func splitSender(rest string) (sender, body string) {
	if idx := strings.Index(rest, ": "); idx > 0 {
		return rest[:idx], rest[idx+2:]
	}
	return SystemSender, rest
}
