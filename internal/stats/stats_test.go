package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kavmehta/chatlens/internal/index"
	"github.com/kavmehta/chatlens/internal/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDB indexes a fixed two-person chat used across the tests:
// Alice sends 3 text messages (one with a link and emoji), Bob 2,
// plus one media message from Alice and one system notice.
func seedDB(t *testing.T) *index.DB {
	t.Helper()

	export := "1/1/23, 10:00 am - Messages are end-to-end encrypted.\n" +
		"1/1/23, 10:00 am - Alice: hey bob check https://example.com \U0001F600\n" +
		"1/1/23, 10:02 am - Bob: looking now\n" +
		"2/1/23, 9:00 am - Alice: morning \U0001F600 \U0001F600\n" +
		"2/1/23, 9:30 am - Bob: morning to you\n" +
		"5/2/23, 8:15 pm - Alice: <Media omitted>\n" +
		"5/2/23, 8:20 pm - Alice: pancakes pancakes pancakes\n"

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "chat.txt"), []byte(export), 0o644))

	db, err := index.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := index.IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, st.Updated)
	return db
}

func TestFetchOverview(t *testing.T) {
	db := seedDB(t)

	ov, err := FetchOverview(db, Filter{ChatKey: "chat"})
	require.NoError(t, err)

	// media stays in the message total but contributes no words
	assert.Equal(t, 7, ov.Messages)
	assert.Equal(t, 1, ov.Media)
	assert.Equal(t, 1, ov.Links)
	// words: 4 (system) + 5 + 2 + 3 + 3 + 3; the media row adds none
	assert.Equal(t, 20, ov.Words)
}

func TestFetchOverviewPerSender(t *testing.T) {
	db := seedDB(t)

	ov, err := FetchOverview(db, Filter{ChatKey: "chat", Sender: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, ov.Messages)
	assert.Equal(t, 0, ov.Media)
	assert.Equal(t, 5, ov.Words)
}

func TestBusyUsers(t *testing.T) {
	db := seedDB(t)

	busy, err := BusyUsers(db, "chat", 5)
	require.NoError(t, err)
	require.Len(t, busy, 2)

	// system notice excluded from both counts and the total
	assert.Equal(t, "Alice", busy[0].Sender)
	assert.Equal(t, 4, busy[0].Count)
	assert.InDelta(t, 66.67, busy[0].Percent, 0.01)
	assert.Equal(t, "Bob", busy[1].Sender)
	assert.Equal(t, 2, busy[1].Count)
}

func TestMonthlyTimeline(t *testing.T) {
	db := seedDB(t)

	points, err := MonthlyTimeline(db, Filter{ChatKey: "chat"})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "January 2023", points[0].Label)
	assert.Equal(t, 5, points[0].Count)
	assert.Equal(t, "February 2023", points[1].Label)
	assert.Equal(t, 2, points[1].Count)
}

func TestDailyTimeline(t *testing.T) {
	db := seedDB(t)

	points, err := DailyTimeline(db, Filter{ChatKey: "chat"})
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2023-01-01", points[0].Label)
	assert.Equal(t, 3, points[0].Count)
	assert.Equal(t, "2023-01-02", points[1].Label)
	assert.Equal(t, 2, points[1].Count)
	assert.Equal(t, "2023-02-05", points[2].Label)
	assert.Equal(t, 2, points[2].Count)
}

func TestWeekdayActivityZeroFilled(t *testing.T) {
	db := seedDB(t)

	points, err := WeekdayActivity(db, Filter{ChatKey: "chat"})
	require.NoError(t, err)
	require.Len(t, points, 7)
	assert.Equal(t, "Monday", points[0].Label)
	assert.Equal(t, 2, points[0].Count) // 2023-01-02
	assert.Equal(t, "Sunday", points[6].Label)
	assert.Equal(t, 5, points[6].Count) // 2023-01-01 and 2023-02-05
	assert.Equal(t, 0, points[2].Count) // no Wednesday traffic
}

func TestHourActivity(t *testing.T) {
	db := seedDB(t)

	points, err := HourActivity(db, Filter{ChatKey: "chat"})
	require.NoError(t, err)
	require.Len(t, points, 24)
	assert.Equal(t, "10:00", points[10].Label)
	assert.Equal(t, 3, points[10].Count)
	assert.Equal(t, 2, points[9].Count)
	assert.Equal(t, 2, points[20].Count)
	assert.Equal(t, 0, points[3].Count)
}

func TestResponseGaps(t *testing.T) {
	db := seedDB(t)

	gaps, err := ResponseGaps(db, "chat")
	require.NoError(t, err)

	// Alice's overnight and multi-week pauses exceed the 12h cutoff, so
	// only Bob records responses: 2m after Alice, then 30m.
	require.Len(t, gaps, 1)
	bob := gaps[0]
	assert.Equal(t, "Bob", bob.Sender)
	assert.Equal(t, 2, bob.Responses)
	assert.Equal(t, 16*time.Minute, bob.Mean)
	assert.Equal(t, 16*time.Minute, bob.Median)
}

func TestCommonWords(t *testing.T) {
	db := seedDB(t)

	words, err := CommonWords(db, Filter{ChatKey: "chat"}, 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, words)

	assert.Equal(t, "pancakes", words[0].Word)
	assert.Equal(t, 3, words[0].Count)

	for _, w := range words {
		assert.NotContains(t, w.Word, "http", "URLs must be stripped")
		assert.NotEqual(t, "to", w.Word, "stop words must be excluded")
		assert.NotEqual(t, parse.MediaSentinel, w.Word)
	}
}

func TestCommonWordsExtraStop(t *testing.T) {
	db := seedDB(t)

	words, err := CommonWords(db, Filter{ChatKey: "chat"}, 10, []string{"pancakes"})
	require.NoError(t, err)
	for _, w := range words {
		assert.NotEqual(t, "pancakes", w.Word)
	}
}

func TestCommonEmoji(t *testing.T) {
	db := seedDB(t)

	emoji, err := CommonEmoji(db, Filter{ChatKey: "chat"}, 5)
	require.NoError(t, err)
	require.Len(t, emoji, 1)
	assert.Equal(t, "\U0001F600", emoji[0].Emoji)
	assert.Equal(t, 3, emoji[0].Count)
}

func TestMedianDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), medianDuration(nil))
	assert.Equal(t, 2*time.Minute, medianDuration([]time.Duration{
		time.Minute, 2 * time.Minute, 10 * time.Minute,
	}))
	assert.Equal(t, 90*time.Second, medianDuration([]time.Duration{
		2 * time.Minute, time.Minute,
	}))
}
