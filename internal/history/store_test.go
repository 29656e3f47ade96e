package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "github.com/pollwave/pollwave/pkg/http/ws"
)

func newTestStore(t *testing.T, limit int) (*Store, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, limit, zerolog.Nop()), client
}

func record(number int, prompt string) Record {
	return Record{
		QuestionNumber: number,
		Question:       prompt,
		Results: []ws.OptionResult{
			{ID: 1, Label: "yes", Percentage: 100, Count: 2, IsCorrect: true},
			{ID: 2, Label: "no", Percentage: 0, Count: 0},
		},
		TotalStudents: 2,
		TotalAnswers:  2,
		Trigger:       "all_answered",
		ClosedAt:      time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestSaveAndRecentNewestFirst(t *testing.T) {
	store, _ := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record(1, "first")))
	require.NoError(t, store.Save(ctx, record(2, "second")))

	records, err := store.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].QuestionNumber)
	assert.Equal(t, 1, records[1].QuestionNumber)
	assert.Equal(t, "yes", records[0].Results[0].Label)
}

func TestSaveTrimsToLimit(t *testing.T) {
	store, _ := newTestStore(t, 2)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Save(ctx, record(i, "q")))
	}

	records, err := store.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 5, records[0].QuestionNumber)
	assert.Equal(t, 4, records[1].QuestionNumber)
}

func TestRecentSkipsCorruptedEntries(t *testing.T) {
	store, client := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record(1, "good")))
	require.NoError(t, client.LPush(ctx, historyKey, "not json").Err())

	records, err := store.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "good", records[0].Question)
}
