package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kavmehta/chatlens/internal/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = "1/1/23, 10:00 am - Alice: Hi\n" +
	"1/1/23, 10:01 am - Bob: Hello\n" +
	"how are you?\n" +
	"1/1/23, 10:05 am - Alice: <Media omitted>\n" +
	"1/1/23, 10:06 am - Alice added Carol\n"

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeExport(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexAll(t *testing.T) {
	db := testDB(t)
	root := t.TempDir()
	writeExport(t, root, "WhatsApp Chat with Bob.txt", sampleExport)

	stats, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 4, stats.Messages)
	assert.Equal(t, 0, stats.Errors)

	chat, err := db.GetChatByKey("WhatsApp Chat with Bob")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, "Bob", chat.Name)
	assert.Equal(t, 4, chat.MessageCount)
	assert.Equal(t, "2023-01-01T10:00:00", chat.FirstTs)
	assert.Equal(t, "2023-01-01T10:06:00", chat.LastTs)

	msgs, err := db.GetMessages("WhatsApp Chat with Bob")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "Hello\nhow are you?", msgs[1].Body)
	assert.True(t, msgs[2].IsMedia)
	assert.Equal(t, parse.SystemSender, msgs[3].Sender)
}

func TestIndexAllSkipsUnchanged(t *testing.T) {
	db := testDB(t)
	root := t.TempDir()
	writeExport(t, root, "chat.txt", sampleExport)

	_, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)

	stats, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 1, stats.Skipped)
}

func TestIndexAllReindexesChangedFile(t *testing.T) {
	db := testDB(t)
	root := t.TempDir()
	path := writeExport(t, root, "chat.txt", sampleExport)

	_, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)

	// grow the file; size change is enough to trigger a re-index
	require.NoError(t, os.WriteFile(path, []byte(sampleExport+"1/1/23, 11:00 am - Bob: bye\n"), 0o644))

	stats, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	chat, err := db.GetChatByKey("chat")
	require.NoError(t, err)
	assert.Equal(t, 5, chat.MessageCount)
}

func TestIndexAllPrunesDeletedFiles(t *testing.T) {
	db := testDB(t)
	root := t.TempDir()
	path := writeExport(t, root, "chat.txt", sampleExport)

	_, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	stats, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pruned)

	n, err := db.ChatCount()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = db.MessageCount()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestIndexAllMalformedExportDoesNotAbort(t *testing.T) {
	db := testDB(t)
	root := t.TempDir()
	writeExport(t, root, "bad.txt", "not a chat export at all\n")
	writeExport(t, root, "good.txt", sampleExport)

	stats, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Errors)

	chat, err := db.GetChatByKey("good")
	require.NoError(t, err)
	assert.NotNil(t, chat)
}

func TestIndexAllCountsBadRecords(t *testing.T) {
	db := testDB(t)
	root := t.TempDir()
	writeExport(t, root, "chat.txt",
		"31/13/23, 10:00 am - Alice: bad stamp\n"+sampleExport)

	stats, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.BadRecords)

	chat, err := db.GetChatByKey("chat")
	require.NoError(t, err)
	assert.Equal(t, 1, chat.Skipped)
	assert.Equal(t, 4, chat.MessageCount)
}

func TestSenders(t *testing.T) {
	db := testDB(t)
	root := t.TempDir()
	writeExport(t, root, "chat.txt", sampleExport)

	_, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)

	senders, err := db.Senders("chat")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, senders)
}

func TestGetMessagesWindow(t *testing.T) {
	db := testDB(t)
	root := t.TempDir()

	var content string
	for i := 0; i < 20; i++ {
		content += "1/1/23, 10:" + twoDigits(i) + " am - Alice: m\n"
	}
	writeExport(t, root, "chat.txt", content)

	_, err := IndexAll(db, root, parse.DefaultOptions())
	require.NoError(t, err)

	msgs, hitIdx, startPos, total, err := db.GetMessagesWindow("chat", 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 20, total)
	assert.Equal(t, 8, startPos)
	require.Len(t, msgs, 5)
	assert.Equal(t, 2, hitIdx)
	assert.Equal(t, 10, msgs[hitIdx].Seq)
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
