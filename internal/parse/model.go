package parse

import (
	"errors"
	"sort"
	"time"
)

// SystemSender is the sender assigned to timestamped entries that carry no
// "Name: " prefix (group creation, member adds, encryption notices).
const SystemSender = "group_notification"

// MediaSentinel replaces the export's literal media placeholder so that
// downstream counting can tell media messages from text mentioning the
// placeholder phrase.
const MediaSentinel = "<media>"

// ErrNoMessages is returned when the input contains no parseable message.
var ErrNoMessages = errors.New("no messages found in export")

// Message is one parsed chat entry.
type Message struct {
	Timestamp time.Time
	Sender    string
	Body      string
	IsMedia   bool
	Line      int // 1-based line number of the start line in the export

	// Derived from Timestamp once at parse time.
	Date     string // YYYY-MM-DD
	Year     int
	MonthNum int
	Month    string // "January"
	Day      int
	DayName  string // "Monday"
	Hour     int
	Minute   int
}

// Result is the ordered message table produced by Parse. It is never
// mutated after Parse returns; consumers only filter and group it.
type Result struct {
	Messages []Message
	// Skipped counts records whose start line matched a known shape but
	// whose timestamp parsed under no known layout.
	Skipped int
}

// Senders returns the sorted unique sender names, excluding the system
// sentinel.
func (r *Result) Senders() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range r.Messages {
		if m.Sender == SystemSender {
			continue
		}
		if _, ok := seen[m.Sender]; ok {
			continue
		}
		seen[m.Sender] = struct{}{}
		out = append(out, m.Sender)
	}
	sort.Strings(out)
	return out
}

func (m *Message) deriveTimeFields() {
	t := m.Timestamp
	m.Date = t.Format("2006-01-02")
	m.Year = t.Year()
	m.MonthNum = int(t.Month())
	m.Month = t.Month().String()
	m.Day = t.Day()
	m.DayName = t.Weekday().String()
	m.Hour = t.Hour()
	m.Minute = t.Minute()
}
