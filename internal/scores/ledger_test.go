package scores

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/corner-server/internal/docstore"
)

func TestLedger_Record(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()

	require.NoError(t, l.RecordWin(ctx, "g", "ann", 12, 4))
	require.NoError(t, l.RecordWin(ctx, "g", "ann", 15, 1))
	require.NoError(t, l.RecordLoss(ctx, "g", "ann"))
	require.NoError(t, l.RecordQuit(ctx, "g", "ann"))

	got := l.Get("g", "ann")
	assert.Equal(t, "ann", got.Player)
	assert.Equal(t, 27, got.TotalPoints)
	assert.Equal(t, 2, got.GamesWon)
	assert.Equal(t, 4, got.GamesPlayed)
	assert.Equal(t, 5, got.TotalGuesses)
	assert.Equal(t, 1, got.FirstAttemptWins)
	assert.InDelta(t, 2.5, got.AverageGuesses, 1e-9)

	assert.Equal(t, Score{}, l.Get("g", "nobody").Score)
	assert.Error(t, l.RecordWin(ctx, "g", "ann", -1, 3))
}

func TestLedger_TopNOrdering(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()

	// bob and cat tie on points; cat has more wins.
	require.NoError(t, l.RecordWin(ctx, "g", "bob", 10, 6))
	require.NoError(t, l.RecordWin(ctx, "g", "cat", 5, 8))
	require.NoError(t, l.RecordWin(ctx, "g", "cat", 5, 8))
	// dan and abe tie on points and wins; name breaks the tie.
	require.NoError(t, l.RecordWin(ctx, "g", "dan", 7, 6))
	require.NoError(t, l.RecordWin(ctx, "g", "abe", 7, 6))
	require.NoError(t, l.RecordWin(ctx, "g", "eve", 20, 2))
	require.NoError(t, l.RecordLoss(ctx, "g", "zed"))
	require.NoError(t, l.RecordWin(ctx, "other", "zed", 99, 1))

	names := func(es []Entry) []string {
		out := make([]string, len(es))
		for i, e := range es {
			out[i] = e.Player
		}
		return out
	}

	assert.Equal(t, []string{"eve", "cat", "bob", "abe", "dan", "zed"}, names(l.TopN("g", 10)))
	assert.Equal(t, []string{"eve", "cat", "bob"}, names(l.TopN("g", 3)))
	assert.Empty(t, l.TopN("g", 0))
	assert.Empty(t, l.TopN("missing", 5))
}

func TestLedger_GlobalTopN(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	require.NoError(t, l.RecordWin(ctx, "g1", "ann", 10, 6))
	require.NoError(t, l.RecordWin(ctx, "g2", "ann", 12, 4))
	require.NoError(t, l.RecordWin(ctx, "g1", "bob", 20, 2))
	require.NoError(t, l.RecordLoss(ctx, "g2", "bob"))

	top := l.GlobalTopN(10)
	require.Len(t, top, 2)
	assert.Equal(t, "ann", top[0].Player)
	assert.Equal(t, 22, top[0].TotalPoints)
	assert.Equal(t, 2, top[0].GamesWon)
	assert.Equal(t, "bob", top[1].Player)
	assert.Equal(t, 2, top[1].GamesPlayed)
	assert.Len(t, l.GlobalTopN(1), 1)
}

func TestLedger_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	open := func() *Ledger {
		b, err := docstore.NewFileBackend(dir)
		require.NoError(t, err)
		l, err := Open(ctx, docstore.NewPersister(b, Record, docstore.Options{}))
		require.NoError(t, err)
		return l
	}

	l := open()
	require.NoError(t, l.RecordWin(ctx, "g", "ann", 12, 4))
	require.NoError(t, l.RecordQuit(ctx, "g", "ann"))

	got := open().Get("g", "ann")
	assert.Equal(t, 12, got.TotalPoints)
	assert.Equal(t, 2, got.GamesPlayed)
	assert.Equal(t, 4, got.TotalGuesses)
}

func TestLedger_MalformedStartsEmpty(t *testing.T) {
	ctx := context.Background()
	b, err := docstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, b.Save(ctx, Record, []byte(`{"g": [1, 2]}`)))

	l, err := Open(ctx, docstore.NewPersister(b, Record, docstore.Options{}))
	require.NoError(t, err)
	assert.Empty(t, l.TopN("g", 5))
}

func TestLedger_ConcurrentWins(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.RecordWin(ctx, "g", "ann", 1, 3)
		}()
	}
	wg.Wait()
	got := l.Get("g", "ann")
	assert.Equal(t, 100, got.TotalPoints)
	assert.Equal(t, 100, got.GamesWon)
}
