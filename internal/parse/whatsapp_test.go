package parse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) *Result {
	t.Helper()
	r, err := Parse(text, DefaultOptions())
	require.NoError(t, err)
	return r
}

func TestParseBasic(t *testing.T) {
	input := "1/1/23, 10:00 am - Alice: Hi\n" +
		"1/1/23, 10:01 am - Bob: Hello\n" +
		"how are you?\n" +
		"1/1/23, 10:05 am - Alice: Good!"

	r := mustParse(t, input)
	require.Len(t, r.Messages, 3)
	assert.Equal(t, 0, r.Skipped)

	assert.Equal(t, "Alice", r.Messages[0].Sender)
	assert.Equal(t, "Hi", r.Messages[0].Body)
	assert.Equal(t, "Bob", r.Messages[1].Sender)
	assert.Equal(t, "Hello\nhow are you?", r.Messages[1].Body)
	assert.Equal(t, "Alice", r.Messages[2].Sender)
	assert.Equal(t, "Good!", r.Messages[2].Body)

	for i, wantMin := range []int{0, 1, 5} {
		assert.Equal(t, 10, r.Messages[i].Hour)
		assert.Equal(t, wantMin, r.Messages[i].Minute)
	}
}

func TestParseDerivedFields(t *testing.T) {
	r := mustParse(t, "15/8/23, 9:30 pm - Alice: hi")
	m := r.Messages[0]

	assert.Equal(t, time.Date(2023, 8, 15, 21, 30, 0, 0, time.UTC), m.Timestamp)
	assert.Equal(t, "2023-08-15", m.Date)
	assert.Equal(t, 2023, m.Year)
	assert.Equal(t, 8, m.MonthNum)
	assert.Equal(t, "August", m.Month)
	assert.Equal(t, 15, m.Day)
	assert.Equal(t, "Tuesday", m.DayName)
	assert.Equal(t, 21, m.Hour)
	assert.Equal(t, 30, m.Minute)
}

func TestParseMonthFirst(t *testing.T) {
	opts := DefaultOptions()
	opts.DayFirst = false
	r, err := Parse("8/15/23, 9:30 PM - Alice: hi", opts)
	require.NoError(t, err)
	assert.Equal(t, time.August, r.Messages[0].Timestamp.Month())
	assert.Equal(t, 15, r.Messages[0].Day)
}

func TestParseFormatVariants(t *testing.T) {
	tests := []struct {
		name string
		line string
		want time.Time
	}{
		{
			name: "android 12h",
			line: "3/1/23, 9:05 am - Alice: hi",
			want: time.Date(2023, 1, 3, 9, 5, 0, 0, time.UTC),
		},
		{
			name: "android 12h uppercase marker",
			line: "3/1/23, 9:05 PM - Alice: hi",
			want: time.Date(2023, 1, 3, 21, 5, 0, 0, time.UTC),
		},
		{
			name: "android 24h",
			line: "03/01/2023, 21:05 - Alice: hi",
			want: time.Date(2023, 1, 3, 21, 5, 0, 0, time.UTC),
		},
		{
			name: "ios 12h with seconds",
			line: "[3/1/23, 9:05:07 am] Alice: hi",
			want: time.Date(2023, 1, 3, 9, 5, 7, 0, time.UTC),
		},
		{
			name: "ios 24h with seconds",
			line: "[03/01/2023, 21:05:07] Alice: hi",
			want: time.Date(2023, 1, 3, 21, 5, 7, 0, time.UTC),
		},
		{
			name: "narrow no-break space before marker",
			line: "3/1/23, 9:05 am - Alice: hi",
			want: time.Date(2023, 1, 3, 9, 5, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustParse(t, tt.line)
			require.Len(t, r.Messages, 1)
			assert.Equal(t, tt.want, r.Messages[0].Timestamp)
			assert.Equal(t, "Alice", r.Messages[0].Sender)
			assert.Equal(t, "hi", r.Messages[0].Body)
		})
	}
}

func TestParseSystemNotice(t *testing.T) {
	input := "1/1/23, 10:00 am - Messages are end-to-end encrypted.\n" +
		"1/1/23, 10:01 am - Alice added Bob\n" +
		"1/1/23, 10:02 am - Alice: hi"

	r := mustParse(t, input)
	require.Len(t, r.Messages, 3)
	assert.Equal(t, SystemSender, r.Messages[0].Sender)
	assert.Equal(t, SystemSender, r.Messages[1].Sender)
	assert.Equal(t, "Alice added Bob", r.Messages[1].Body)

	// system sentinel never shows up in the sender list
	assert.Equal(t, []string{"Alice"}, r.Senders())
}

func TestParseMediaSentinel(t *testing.T) {
	input := "1/1/23, 10:00 am - Alice: <Media omitted>\n" +
		"1/1/23, 10:01 am - Bob: the text <Media omitted> inline stays"

	r := mustParse(t, input)
	require.Len(t, r.Messages, 2)

	assert.Equal(t, MediaSentinel, r.Messages[0].Body)
	assert.True(t, r.Messages[0].IsMedia)

	// placeholder text inside a longer body is real text
	assert.False(t, r.Messages[1].IsMedia)
	assert.Contains(t, r.Messages[1].Body, "<Media omitted>")
}

func TestParseMediaWithDirectionMark(t *testing.T) {
	// iOS wraps attachment placeholders in U+200E
	r := mustParse(t, "[3/1/23, 9:05:07 am] Alice: ‎image omitted")
	assert.True(t, r.Messages[0].IsMedia)
	assert.Equal(t, MediaSentinel, r.Messages[0].Body)
}

func TestParseNoiseBeforeFirstMessage(t *testing.T) {
	input := "Export of chat history\n" +
		"generated by the app\n" +
		"1/1/23, 10:00 am - Alice: hi"

	r := mustParse(t, input)
	require.Len(t, r.Messages, 1)
	assert.Equal(t, "hi", r.Messages[0].Body)
	assert.Equal(t, 3, r.Messages[0].Line)
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "\n\n", "just a header line\nno timestamps anywhere"} {
		_, err := Parse(input, DefaultOptions())
		assert.ErrorIs(t, err, ErrNoMessages)
	}
}

func TestParseSkipsUnparsableTimestamp(t *testing.T) {
	// structurally a start line, but no calendar accepts 31/13
	input := "31/13/23, 10:00 am - Alice: bad\n" +
		"orphaned continuation\n" +
		"1/1/23, 10:05 am - Bob: good"

	r := mustParse(t, input)
	require.Len(t, r.Messages, 1)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, "Bob", r.Messages[0].Sender)
	// the skipped record's continuation must not leak into Bob's body
	assert.Equal(t, "good", r.Messages[0].Body)
}

func TestParseAllRecordsSkipped(t *testing.T) {
	_, err := Parse("31/13/23, 10:00 am - Alice: bad", DefaultOptions())
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestParseCRLF(t *testing.T) {
	input := "1/1/23, 10:00 am - Alice: hi\r\nstill alice\r\n1/1/23, 10:01 am - Bob: yo\r\n"
	r := mustParse(t, input)
	require.Len(t, r.Messages, 2)
	assert.Equal(t, "hi\nstill alice", r.Messages[0].Body)
	assert.Equal(t, "yo", r.Messages[1].Body)
}

func TestParseChronologicalOrder(t *testing.T) {
	var b strings.Builder
	for h := 8; h < 20; h++ {
		b.WriteString("1/1/23, ")
		b.WriteString(time.Date(2023, 1, 1, h, 0, 0, 0, time.UTC).Format("3:04 pm"))
		b.WriteString(" - Alice: m\n")
	}
	r := mustParse(t, b.String())
	require.Len(t, r.Messages, 12)
	for i := 1; i < len(r.Messages); i++ {
		assert.False(t, r.Messages[i].Timestamp.Before(r.Messages[i-1].Timestamp))
	}
}

func TestParseSenderWithColonInMessage(t *testing.T) {
	r := mustParse(t, "1/1/23, 10:00 am - Alice: note: remember this")
	assert.Equal(t, "Alice", r.Messages[0].Sender)
	assert.Equal(t, "note: remember this", r.Messages[0].Body)
}

func TestSendersUniqueSorted(t *testing.T) {
	input := "1/1/23, 10:00 am - Zoe: a\n" +
		"1/1/23, 10:01 am - Alice: b\n" +
		"1/1/23, 10:02 am - Zoe: c\n" +
		"1/1/23, 10:03 am - Alice created the group\n"
	r := mustParse(t, input)
	assert.Equal(t, []string{"Alice", "Zoe"}, r.Senders())
}
