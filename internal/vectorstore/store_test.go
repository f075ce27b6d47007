package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureDocs() []Document {
	return []Document{
		{ID: "1", Content: "general login", Metadata: map[string]string{"domain": "general"}, Embedding: []float32{1, 0, 0}},
		{ID: "2", Content: "qa login", Metadata: map[string]string{"domain": "my.qa.charitableimpact.com"}, Embedding: []float32{0.9, 0.1, 0}},
		{ID: "3", Content: "prod give", Metadata: map[string]string{"domain": "my.charitableimpact.com"}, Embedding: []float32{0, 1, 0}},
		{ID: "4", Content: "untagged", Embedding: []float32{0, 0, 1}},
	}
}

func storeBackends(t *testing.T) map[string]Store {
	t.Helper()

	badgerStore, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = badgerStore.Close()
	})

	return map[string]Store{
		"memory": NewMemoryStore(),
		"badger": badgerStore,
	}
}

func TestStore_QueryOrdersByDistance(t *testing.T) {
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Add(ctx, fixtureDocs()...))

			matches, err := store.Query(ctx, []float32{1, 0, 0}, 2, Filter{})
			require.NoError(t, err)
			require.Len(t, matches, 2)

			assert.Equal(t, "1", matches[0].ID)
			assert.Equal(t, "2", matches[1].ID)
			assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)
			assert.Equal(t, "general", matches[0].Metadata["domain"])
		})
	}
}

func TestStore_QueryAppliesFilter(t *testing.T) {
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Add(ctx, fixtureDocs()...))

			filter := Or(Eq("domain", "my.charitableimpact.com"), Eq("domain", "general"))

			matches, err := store.Query(ctx, []float32{1, 0, 0}, 10, filter)
			require.NoError(t, err)
			require.Len(t, matches, 2)

			ids := []string{matches[0].ID, matches[1].ID}
			assert.ElementsMatch(t, []string{"1", "3"}, ids)
		})
	}
}

func TestStore_UpsertCountClear(t *testing.T) {
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Add(ctx, fixtureDocs()...))

			updated := fixtureDocs()[0]
			updated.Content = "general login v2"
			require.NoError(t, store.Add(ctx, updated))

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, count)

			matches, err := store.Query(ctx, []float32{1, 0, 0}, 1, Filter{})
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, "general login v2", matches[0].Content)

			require.NoError(t, store.Clear(ctx))

			count, err = store.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)

			matches, err = store.Query(ctx, []float32{1, 0, 0}, 3, Filter{})
			require.NoError(t, err)
			assert.Empty(t, matches)
		})
	}
}

func TestStore_RejectsInvalidDocuments(t *testing.T) {
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			assert.ErrorIs(t, store.Add(ctx, Document{Embedding: []float32{1}}), ErrMissingID)
			assert.ErrorIs(t, store.Add(ctx, Document{ID: "x"}), ErrEmptyEmbedding)
		})
	}
}

func TestStore_DimensionMismatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, fixtureDocs()...))

	_, err := store.Query(ctx, []float32{1, 0}, 3, Filter{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
