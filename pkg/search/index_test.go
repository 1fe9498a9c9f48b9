package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexSearch(t *testing.T) {
	idx, err := NewIndex()
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Put("doc-1", Entry{Name: "kubernetes-notes.pdf", Content: "Pods are the smallest deployable unit.", Topics: []string{"kubernetes"}}))
	require.NoError(t, idx.Put("doc-2", Entry{Name: "ml.txt", Content: "Gradient descent minimises loss. Kubernetes is mentioned once.", Topics: []string{"machine learning"}}))

	hits, err := idx.Search("pods", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1", hits[0].ID)

	hits, err = idx.Search("kubernetes", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc-1", hits[0].ID)

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	require.NoError(t, idx.Delete("doc-1"))
	hits, err = idx.Search("pods", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexSearchBlankQuery(t *testing.T) {
	idx, err := NewIndex()
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search("   ", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
