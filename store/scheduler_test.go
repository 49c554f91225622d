package store

import (
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistantwire/stream"
)

func TestPruneJob(t *testing.T) {
	db := newTestDB(t)
	_, err := db.SaveEvent(
		runEvent(t, stream.RunCreated, "run_old", "thread_1", openai.RunStatusQueued),
		time.Now().Add(-time.Hour),
	)
	require.NoError(t, err)

	scheduler, err := NewScheduler()
	require.NoError(t, err)
	defer scheduler.Shutdown()

	var (
		mu      sync.Mutex
		deleted int64
		runs    int
	)
	err = scheduler.AddPruneJob(db, time.Minute, 50*time.Millisecond, func(n int64, err error) {
		assert.NoError(t, err)
		mu.Lock()
		defer mu.Unlock()
		deleted += n
		runs++
	})
	require.NoError(t, err)
	require.Len(t, scheduler.Jobs(), 1)
	assert.Equal(t, []string{PRUNE_TAG}, scheduler.Jobs()[0].Tags())

	scheduler.Start()
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, int64(1), deleted)
	mu.Unlock()

	records, err := db.EventsByThread("thread_1")
	require.NoError(t, err)
	assert.Empty(t, records)

	scheduler.CancelPruneJob()
	assert.Eventually(t, func() bool {
		return len(scheduler.Jobs()) == 0
	}, time.Second, 10*time.Millisecond)
}
