package journal_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlab/driftnode/pkg/driftnode/journal"
)

// runStoreSuite exercises the Store contract against any
// implementation.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) journal.Store) {
	t.Run("append assigns increasing sequence", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		for i := 0; i < 3; i++ {
			require.NoError(t, store.Append(journal.Record{
				NodeID:      "n1",
				Direction:   journal.DirectionRecv,
				Kind:        "input",
				ChannelID:   "sensor",
				ElementType: "float32",
				Elements:    2,
				At:          time.Now(),
			}))
		}

		recs, err := store.List("n1")
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Less(t, recs[0].Seq, recs[1].Seq)
		assert.Less(t, recs[1].Seq, recs[2].Seq)
	})

	t.Run("list unknown node is empty", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		recs, err := store.List("ghost")
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("list isolates nodes", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		require.NoError(t, store.Append(journal.Record{NodeID: "a", Kind: "input", At: time.Now()}))
		require.NoError(t, store.Append(journal.Record{NodeID: "b", Kind: "stop", At: time.Now()}))

		recs, err := store.List("a")
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "input", recs[0].Kind)
	})

	t.Run("tail returns newest in order", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		for _, ch := range []string{"one", "two", "three", "four"} {
			require.NoError(t, store.Append(journal.Record{
				NodeID: "n1", Kind: "input", ChannelID: ch, At: time.Now(),
			}))
		}

		recs, err := store.Tail("n1", 2)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "three", recs[0].ChannelID)
		assert.Equal(t, "four", recs[1].ChannelID)

		recs, err = store.Tail("n1", 0)
		require.NoError(t, err)
		assert.Empty(t, recs)

		recs, err = store.Tail("n1", 100)
		require.NoError(t, err)
		assert.Len(t, recs, 4)
	})

	t.Run("delete node", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		require.NoError(t, store.Append(journal.Record{NodeID: "n1", Kind: "input", At: time.Now()}))
		require.NoError(t, store.DeleteNode("n1"))
		require.NoError(t, store.DeleteNode("never-seen"))

		recs, err := store.List("n1")
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("closed store rejects operations", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Close())

		err := store.Append(journal.Record{NodeID: "n1", At: time.Now()})
		assert.ErrorIs(t, err, journal.ErrStoreClosed)

		_, err = store.List("n1")
		assert.ErrorIs(t, err, journal.ErrStoreClosed)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) journal.Store {
		return journal.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) journal.Store {
		store, err := journal.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
		require.NoError(t, err)
		return store
	})
}

func TestMemoryStoreLen(t *testing.T) {
	store := journal.NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Append(journal.Record{NodeID: "a", At: time.Now()}))
	require.NoError(t, store.Append(journal.Record{NodeID: "b", At: time.Now()}))
	assert.Equal(t, 2, store.Len())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := journal.NewSQLiteStore(path)
	require.NoError(t, err)

	at := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	require.NoError(t, store.Append(journal.Record{
		NodeID:      "n1",
		Direction:   journal.DirectionSend,
		Kind:        "output",
		ChannelID:   "result",
		ElementType: "float32",
		Elements:    1,
		At:          at,
	}))
	require.NoError(t, store.Close())

	// Reopen: records survive the process boundary.
	store, err = journal.NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	recs, err := store.List("n1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, journal.DirectionSend, recs[0].Direction)
	assert.Equal(t, "result", recs[0].ChannelID)
	assert.Equal(t, "float32", recs[0].ElementType)
	assert.Equal(t, 1, recs[0].Elements)
	assert.True(t, recs[0].At.Equal(at))
}

func TestSQLiteStoreCloseTwice(t *testing.T) {
	store, err := journal.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
