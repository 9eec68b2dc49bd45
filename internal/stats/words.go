package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/kavmehta/chatlens/internal/index"
	"github.com/kavmehta/chatlens/internal/parse"
	"mvdan.cc/xurls/v2"
)

const systemSender = parse.SystemSender

// urlPattern matches URLs with or without a scheme, like the link counts
// people expect from a chat ("check example.com" counts).
var urlPattern = xurls.Relaxed()

// defaultStopWords covers english filler that would otherwise dominate
// every word ranking. Config can extend but not shrink it.
var defaultStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "get": {}, "got": {},
	"had": {}, "has": {}, "have": {}, "he": {}, "her": {}, "him": {},
	"his": {}, "how": {}, "i": {}, "if": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "just": {}, "me": {}, "my": {}, "no": {}, "not": {},
	"of": {}, "ok": {}, "okay": {}, "on": {}, "or": {}, "she": {},
	"so": {}, "that": {}, "the": {}, "they": {}, "this": {}, "to": {},
	"u": {}, "up": {}, "was": {}, "we": {}, "what": {}, "when": {},
	"will": {}, "with": {}, "you": {}, "your": {},
}

type WordCount struct {
	Word  string
	Count int
}

// CommonWords ranks the n most frequent words in real text messages.
// Media rows, system notices, URLs, and stop words are excluded; tokens
// are lowercased and stripped of surrounding punctuation.
func CommonWords(db *index.DB, f Filter, n int, extraStop []string) ([]WordCount, error) {
	stop := make(map[string]struct{}, len(defaultStopWords)+len(extraStop))
	for w := range defaultStopWords {
		stop[w] = struct{}{}
	}
	for _, w := range extraStop {
		stop[strings.ToLower(w)] = struct{}{}
	}

	counts := make(map[string]int)
	err := eachTextBody(db, f, func(body string) {
		body = urlPattern.ReplaceAllString(body, " ")
		for _, tok := range strings.Fields(body) {
			word := strings.ToLower(strings.Trim(tok, ".,!?;:\"'()[]{}*~-"))
			if word == "" || gomoji.ContainsEmoji(word) {
				continue
			}
			if _, skip := stop[word]; skip {
				continue
			}
			counts[word]++
		}
	})
	if err != nil {
		return nil, err
	}

	return topN(counts, n, func(w string, c int) WordCount { return WordCount{w, c} }), nil
}

type EmojiCount struct {
	Emoji string
	Count int
}

// CommonEmoji ranks the n most used emoji characters.
func CommonEmoji(db *index.DB, f Filter, n int) ([]EmojiCount, error) {
	counts := make(map[string]int)
	err := eachTextBody(db, f, func(body string) {
		if !gomoji.ContainsEmoji(body) {
			return
		}
		for _, r := range body {
			s := string(r)
			if gomoji.ContainsEmoji(s) {
				counts[s]++
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return topN(counts, n, func(e string, c int) EmojiCount { return EmojiCount{e, c} }), nil
}

// eachTextBody streams the bodies of real text messages through fn.
func eachTextBody(db *index.DB, f Filter, fn func(body string)) error {
	where, args := f.where()
	rows, err := db.Raw().Query(
		fmt.Sprintf("SELECT body FROM messages WHERE %s AND is_media = 0 AND sender != ?", where),
		append(args, systemSender)...,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return err
		}
		fn(body)
	}
	return rows.Err()
}

func topN[T any](counts map[string]int, n int, mk func(string, int) T) []T {
	if n <= 0 {
		n = 20
	}
	type kv struct {
		k string
		v int
	}
	all := make([]kv, 0, len(counts))
	for k, v := range counts {
		all = append(all, kv{k, v})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].v != all[j].v {
			return all[i].v > all[j].v
		}
		return all[i].k < all[j].k
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]T, len(all))
	for i, e := range all {
		out[i] = mk(e.k, e.v)
	}
	return out
}
