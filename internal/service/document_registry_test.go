package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/curriculum-api/internal/models"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
)

type stubDocumentStore struct {
	docs      []models.DocumentRecord
	createErr error
	deleted   []string
}

func (s *stubDocumentStore) Create(_ context.Context, doc *models.DocumentRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.docs = append(s.docs, *doc)
	return nil
}

func (s *stubDocumentStore) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubDocumentStore) List(context.Context) ([]models.DocumentRecord, error) {
	return s.docs, nil
}

func TestDocumentRegistryNotifiesInOrder(t *testing.T) {
	reg := NewDocumentRegistry(nil, nil)
	ctx := context.Background()

	var calls []string
	reg.Subscribe(func(e models.DocumentEvent) { calls = append(calls, "first:"+string(e.Type)) })
	reg.Subscribe(func(e models.DocumentEvent) {
		calls = append(calls, "second:"+string(e.Type))
		// reentrant reads must not deadlock
		assert.Len(t, reg.List(), len(e.Documents))
	})

	require.NoError(t, reg.Add(ctx, models.DocumentRecord{ID: "a", Name: "a.pdf"}))
	require.NoError(t, reg.Add(ctx, models.DocumentRecord{ID: "b", Name: "b.pdf"}))
	removed, err := reg.Remove(ctx, "a")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Equal(t, []string{
		"first:added", "second:added",
		"first:added", "second:added",
		"first:removed", "second:removed",
	}, calls)
	docs := reg.List()
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].ID)
}

func TestDocumentRegistryUnsubscribeIsIdempotent(t *testing.T) {
	reg := NewDocumentRegistry(nil, nil)
	count := 0
	unsubscribe := reg.Subscribe(func(models.DocumentEvent) { count++ })
	other := 0
	reg.Subscribe(func(models.DocumentEvent) { other++ })

	require.NoError(t, reg.Add(context.Background(), models.DocumentRecord{ID: "1"}))
	unsubscribe()
	unsubscribe()
	require.NoError(t, reg.Add(context.Background(), models.DocumentRecord{ID: "2"}))

	assert.Equal(t, 1, count)
	assert.Equal(t, 2, other)
}

func TestDocumentRegistryRejectsDuplicatesAndMissing(t *testing.T) {
	reg := NewDocumentRegistry(nil, nil)
	ctx := context.Background()
	require.NoError(t, reg.Add(ctx, models.DocumentRecord{ID: "x"}))
	err := reg.Add(ctx, models.DocumentRecord{ID: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Status, appErrors.FromError(err).Status)

	removed, err := reg.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)

	_, ok := reg.Get("missing")
	assert.False(t, ok)
	doc, ok := reg.Get("x")
	assert.True(t, ok)
	assert.Equal(t, "x", doc.ID)
}

func TestDocumentRegistryWritesThroughStore(t *testing.T) {
	store := &stubDocumentStore{docs: []models.DocumentRecord{{ID: "persisted"}}}
	reg := NewDocumentRegistry(store, nil)
	ctx := context.Background()

	require.NoError(t, reg.Load(ctx))
	assert.Len(t, reg.List(), 1)

	require.NoError(t, reg.Add(ctx, models.DocumentRecord{ID: "new"}))
	_, err := reg.Remove(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, []string{"persisted"}, store.deleted)

	store.createErr = errors.New("disk full")
	notified := false
	reg.Subscribe(func(models.DocumentEvent) { notified = true })
	assert.Error(t, reg.Add(ctx, models.DocumentRecord{ID: "fails"}))
	assert.False(t, notified)
	assert.Len(t, reg.List(), 1)
}
