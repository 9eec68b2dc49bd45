package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kavmehta/chatlens/internal/index"
	"github.com/kavmehta/chatlens/internal/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDB(t *testing.T) *index.DB {
	t.Helper()
	root := t.TempDir()

	exports := map[string]string{
		"WhatsApp Chat with Bob.txt": "1/1/23, 10:00 am - Alice: planning the camping trip\n" +
			"1/1/23, 10:02 am - Bob: bring the tent\n" +
			"2/1/23, 11:00 am - Alice: 今天天气很好\n",
		"WhatsApp Chat with Carol.txt": "5/1/23, 9:00 am - Carol: trip photos are up\n" +
			"5/1/23, 9:05 am - Alice: nice!\n",
	}
	for name, content := range exports {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}

	db, err := index.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := index.IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 2, st.Updated)
	return db
}

func TestSearchFTS(t *testing.T) {
	db := seedDB(t)

	results, err := Search(db, Options{Query: "trip"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	keys := []string{results[0].ChatKey, results[1].ChatKey}
	assert.Contains(t, keys, "WhatsApp Chat with Bob")
	assert.Contains(t, keys, "WhatsApp Chat with Carol")
	for _, r := range results {
		assert.Contains(t, r.Snippet, ">>>trip<<<")
	}
}

func TestSearchChatFilter(t *testing.T) {
	db := seedDB(t)

	results, err := Search(db, Options{Query: "trip", Chat: "WhatsApp Chat with Carol"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Carol", results[0].Sender)
}

func TestSearchSenderFilter(t *testing.T) {
	db := seedDB(t)

	results, err := Search(db, Options{Query: "trip", Sender: "Alice"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "WhatsApp Chat with Bob", results[0].ChatKey)
}

func TestSearchSinceFilter(t *testing.T) {
	db := seedDB(t)

	results, err := Search(db, Options{Query: "trip", Since: "2023-01-02"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Carol", results[0].Sender)
}

func TestSearchCJKFallback(t *testing.T) {
	db := seedDB(t)

	// unicode61 cannot tokenize ideographs; this goes through LIKE
	results, err := Search(db, Options{Query: "天气"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Alice", results[0].Sender)
	assert.Contains(t, results[0].Snippet, ">>>天气<<<")
}

func TestSearchNoResults(t *testing.T) {
	db := seedDB(t)

	results, err := Search(db, Options{Query: "zeppelin"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListChats(t *testing.T) {
	db := seedDB(t)

	results, err := ListChats(db, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// newest first: Carol's chat ends Jan 5
	assert.Equal(t, "Carol", results[0].ChatName)
	assert.Equal(t, "Bob", results[1].ChatName)
	assert.Equal(t, -1, results[0].Seq)
	assert.Equal(t, "2 messages", results[0].Snippet)
}

func TestListChatsNameFilter(t *testing.T) {
	db := seedDB(t)

	results, err := ListChats(db, Options{Query: "car"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Carol", results[0].ChatName)
}

func TestMakeSnippet(t *testing.T) {
	s := makeSnippet("the quick brown fox jumps over the lazy dog", "fox", 6)
	assert.Equal(t, "...brown >>>fox<<< jumps...", s)

	// no match returns the head
	s = makeSnippet("short text", "absent", 30)
	assert.Equal(t, "short text", s)
}
