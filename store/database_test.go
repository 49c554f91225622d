package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistantwire/assistants"
	"assistantwire/stream"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := NewDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func runEvent(t *testing.T, typ stream.EventType, id, threadID string, status openai.RunStatus) stream.Event {
	t.Helper()
	ev, err := stream.NewRunEvent(typ, assistants.Run{
		ID:       id,
		Object:   "thread.run",
		ThreadID: threadID,
		Status:   status,
	})
	require.NoError(t, err)
	return ev
}

func TestSaveAndGetEvent(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	ev := runEvent(t, stream.RunCreated, "run_1", "thread_1", openai.RunStatusQueued)
	record, err := db.SaveEvent(ev, now)
	require.NoError(t, err)
	assert.NotEmpty(t, record.EventID)
	assert.Equal(t, string(stream.RunCreated), record.Event)
	assert.Equal(t, "run_1", record.ObjectID)
	assert.Equal(t, "thread_1", record.ThreadID)

	got, err := db.GetEvent(record.EventID)
	require.NoError(t, err)
	assert.Equal(t, record.Payload, got.Payload)
	assert.WithinDuration(t, now, got.ReceivedAt, time.Second)

	decoded, err := got.Decode()
	require.NoError(t, err)
	assert.Equal(t, ev, decoded)

	_, err = db.GetEvent("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventsByObjectAndThread(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	events := []stream.Event{
		runEvent(t, stream.RunCreated, "run_1", "thread_1", openai.RunStatusQueued),
		runEvent(t, stream.RunInProgress, "run_1", "thread_1", openai.RunStatusInProgress),
		runEvent(t, stream.RunCreated, "run_2", "thread_2", openai.RunStatusQueued),
		stream.NewMessageDeltaEvent(assistants.MessageDelta{ID: "msg_1", Object: "thread.message.delta"}),
		runEvent(t, stream.RunCompleted, "run_1", "thread_1", openai.RunStatusCompleted),
		stream.NewDoneEvent(),
	}
	for _, ev := range events {
		_, err := db.SaveEvent(ev, now)
		require.NoError(t, err)
	}

	records, err := db.EventsByObject("run_1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, string(stream.RunCreated), records[0].Event)
	assert.Equal(t, string(stream.RunInProgress), records[1].Event)
	assert.Equal(t, string(stream.RunCompleted), records[2].Event)

	records, err = db.EventsByThread("thread_2")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "run_2", records[0].ObjectID)

	records, err = db.EventsByObject("msg_1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].ThreadID)

	records, err = db.EventsByObject("nothing")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPrune(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	old := runEvent(t, stream.RunCreated, "run_old", "thread_1", openai.RunStatusQueued)
	fresh := runEvent(t, stream.RunCreated, "run_new", "thread_1", openai.RunStatusQueued)
	_, err := db.SaveEvent(old, now.Add(-48*time.Hour))
	require.NoError(t, err)
	_, err = db.SaveEvent(fresh, now)
	require.NoError(t, err)

	deleted, err := db.Prune(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	records, err := db.EventsByThread("thread_1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "run_new", records[0].ObjectID)

	deleted, err = db.Prune(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
