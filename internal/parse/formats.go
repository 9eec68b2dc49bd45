package parse

import (
	"regexp"
	"strings"
	"time"
)

// lineFormat recognizes one known export line shape. The pattern captures
// the timestamp text and the rest of the line; the timestamp is then tried
// against the format's layouts in order.
type lineFormat struct {
	name    string
	pattern *regexp.Regexp
	// layouts returns the time.Parse layouts to try, in priority order.
	// Day-first is a property of the export locale, not of the line, so
	// it is passed in rather than guessed.
	layouts func(dayFirst bool) []string
}

// lineFormats is tried in order for every line until one matches. Shapes
// observed across WhatsApp export variants:
//
//	3/1/23, 9:05 am - Alice: hi        (android, 12h clock)
//	03/01/2023, 21:05 - Alice: hi      (android, 24h clock)
//	[3/1/23, 9:05:07 am] Alice: hi     (ios, 12h clock with seconds)
//	[03/01/2023, 21:05:07] Alice: hi   (ios, 24h clock with seconds)
var lineFormats = []lineFormat{
	{
		name:    "android-12h",
		pattern: regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}, \d{1,2}:\d{2} [AaPp][Mm]) - (.*)$`),
		layouts: func(dayFirst bool) []string {
			if dayFirst {
				return []string{"2/1/06, 3:04 pm", "2/1/2006, 3:04 pm"}
			}
			return []string{"1/2/06, 3:04 pm", "1/2/2006, 3:04 pm"}
		},
	},
	{
		name:    "android-24h",
		pattern: regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}, \d{1,2}:\d{2}) - (.*)$`),
		layouts: func(dayFirst bool) []string {
			if dayFirst {
				return []string{"2/1/06, 15:04", "2/1/2006, 15:04"}
			}
			return []string{"1/2/06, 15:04", "1/2/2006, 15:04"}
		},
	},
	{
		name:    "ios-12h",
		pattern: regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}, \d{1,2}:\d{2}:\d{2} [AaPp][Mm])\] (.*)$`),
		layouts: func(dayFirst bool) []string {
			if dayFirst {
				return []string{"2/1/06, 3:04:05 pm", "2/1/2006, 3:04:05 pm"}
			}
			return []string{"1/2/06, 3:04:05 pm", "1/2/2006, 3:04:05 pm"}
		},
	},
	{
		name:    "ios-24h",
		pattern: regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}, \d{1,2}:\d{2}:\d{2})\] (.*)$`),
		layouts: func(dayFirst bool) []string {
			if dayFirst {
				return []string{"2/1/06, 15:04:05", "2/1/2006, 15:04:05"}
			}
			return []string{"1/2/06, 15:04:05", "1/2/2006, 15:04:05"}
		},
	},
}

// matchStart reports whether line begins a new message. On a match it
// returns the raw timestamp text and the remainder after the delimiter.
func matchStart(line string) (f *lineFormat, stamp, rest string, ok bool) {
	for i := range lineFormats {
		if m := lineFormats[i].pattern.FindStringSubmatch(line); m != nil {
			return &lineFormats[i], m[1], m[2], true
		}
	}
	return nil, "", "", false
}

// parseStamp parses a captured timestamp against the format's layouts in
// order. The am/pm marker is lowercased first; iOS exports write "AM".
func parseStamp(f *lineFormat, stamp string, dayFirst bool) (time.Time, bool) {
	stamp = strings.ToLower(stamp)
	for _, layout := range f.layouts(dayFirst) {
		if t, err := time.Parse(layout, stamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var markReplacer = strings.NewReplacer(
	"‎", "", // left-to-right mark, injected around attachment names
	"‏", "", // right-to-left mark
	" ", " ", // narrow no-break space before am/pm in newer exports
	" ", " ", // no-break space
)

// normalizeLine strips direction marks and normalizes the exotic spaces
// WhatsApp inserts, so the patterns above can stay plain ASCII.
func normalizeLine(line string) string {
	line = strings.TrimSuffix(line, "\r")
	return markReplacer.Replace(line)
}
