package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/curriculum-api/internal/models"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
)

// DocumentStore persists registry entries across restarts.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.DocumentRecord) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.DocumentRecord, error)
}

// DocumentListener receives registry events.
type DocumentListener func(models.DocumentEvent)

type subscription struct {
	id       uint64
	listener DocumentListener
}

// DocumentRegistry is the ordered set of uploaded documents with change notification.
// Listeners run synchronously, in subscription order, after the lock is released.
type DocumentRegistry struct {
	mu          sync.RWMutex
	docs        []models.DocumentRecord
	subscribers []subscription
	nextSubID   uint64

	store  DocumentStore
	logger *zap.Logger
}

// NewDocumentRegistry creates a registry. store may be nil for memory-only operation.
func NewDocumentRegistry(store DocumentStore, logger *zap.Logger) *DocumentRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentRegistry{store: store, logger: logger}
}

// Load replaces the in-memory list with the store contents. Subscribers are not notified.
func (r *DocumentRegistry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	docs, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	r.mu.Lock()
	r.docs = docs
	r.mu.Unlock()
	r.logger.Info("document registry loaded", zap.Int("count", len(docs)))
	return nil
}

// List returns a copy of the registered documents in insertion order.
func (r *DocumentRegistry) List() []models.DocumentRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Get looks a document up by id.
func (r *DocumentRegistry) Get(id string) (models.DocumentRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.docs {
		if doc.ID == id {
			return doc, true
		}
	}
	return models.DocumentRecord{}, false
}

// Add registers doc and notifies subscribers. Duplicate ids are rejected.
func (r *DocumentRegistry) Add(ctx context.Context, doc models.DocumentRecord) error {
	r.mu.Lock()
	for _, existing := range r.docs {
		if existing.ID == doc.ID {
			r.mu.Unlock()
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("document %s already registered", doc.ID))
		}
	}
	if r.store != nil {
		if err := r.store.Create(ctx, &doc); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("persist document: %w", err)
		}
	}
	r.docs = append(r.docs, doc)
	event := models.DocumentEvent{Type: models.DocumentAdded, Document: doc, Documents: r.snapshotLocked()}
	listeners := r.listenersLocked()
	r.mu.Unlock()

	notify(listeners, event)
	return nil
}

// Remove unregisters id. It reports false when no such document exists.
func (r *DocumentRegistry) Remove(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	idx := -1
	for i, doc := range r.docs {
		if doc.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return false, nil
	}
	if r.store != nil {
		if err := r.store.Delete(ctx, id); err != nil {
			r.mu.Unlock()
			return false, fmt.Errorf("delete document: %w", err)
		}
	}
	removed := r.docs[idx]
	r.docs = append(r.docs[:idx:idx], r.docs[idx+1:]...)
	event := models.DocumentEvent{Type: models.DocumentRemoved, Document: removed, Documents: r.snapshotLocked()}
	listeners := r.listenersLocked()
	r.mu.Unlock()

	notify(listeners, event)
	return true, nil
}

// Subscribe registers listener and returns an idempotent unsubscribe func.
func (r *DocumentRegistry) Subscribe(listener DocumentListener) func() {
	r.mu.Lock()
	r.nextSubID++
	id := r.nextSubID
	r.subscribers = append(r.subscribers, subscription{id: id, listener: listener})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, sub := range r.subscribers {
				if sub.id == id {
					r.subscribers = append(r.subscribers[:i:i], r.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

func (r *DocumentRegistry) snapshotLocked() []models.DocumentRecord {
	out := make([]models.DocumentRecord, len(r.docs))
	copy(out, r.docs)
	return out
}

func (r *DocumentRegistry) listenersLocked() []DocumentListener {
	out := make([]DocumentListener, len(r.subscribers))
	for i, sub := range r.subscribers {
		out[i] = sub.listener
	}
	return out
}

func notify(listeners []DocumentListener, event models.DocumentEvent) {
	for _, l := range listeners {
		l(event)
	}
}
