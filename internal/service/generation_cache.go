package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
)

// generationNamespace is bumped whenever derivation output changes shape.
const generationNamespace = "curriculum:generate:v1"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// GenerationCache memoises generated curricula by request fingerprint.
// Lookups and writes fail soft: a broken cache never fails a generation.
type GenerationCache struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewGenerationCache returns nil when repo is nil, which disables caching.
func NewGenerationCache(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *GenerationCache {
	if repo == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationCache{repo: repo, metrics: metrics, ttl: ttl, logger: logger}
}

// Enabled reports whether lookups can hit.
func (c *GenerationCache) Enabled() bool {
	return c != nil && c.repo != nil
}

// Key fingerprints a request after document ids have been resolved, so the
// referenced document contents are part of the hash.
func (c *GenerationCache) Key(req dto.GenerateCurriculumRequest) (string, error) {
	fingerprint := struct {
		Subject             string               `json:"s"`
		Duration            string               `json:"d"`
		SkillLevel          models.SkillLevel    `json:"l"`
		SourceDocuments     []dto.SourceDocument `json:"docs,omitempty"`
		IncludeWebResources bool                 `json:"web"`
	}{req.Subject, req.Duration, req.SkillLevel, req.SourceDocuments, req.IncludeWebResources}

	raw, err := json.Marshal(fingerprint)
	if err != nil {
		return "", fmt.Errorf("marshal generation fingerprint: %w", err)
	}
	sum := blake2b.Sum256(raw)
	return generationNamespace + ":" + hex.EncodeToString(sum[:]), nil
}

// Lookup returns the cached curriculum for key, if any.
func (c *GenerationCache) Lookup(ctx context.Context, key string) (*models.Curriculum, bool) {
	if !c.Enabled() {
		return nil, false
	}
	start := time.Now()
	var cached models.Curriculum
	err := c.repo.Get(ctx, key, &cached)
	c.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			c.logger.Warn("generation cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if cached.TotalWeeks != len(cached.Modules) {
		c.logger.Warn("ignoring inconsistent cached curriculum", zap.String("key", key))
		return nil, false
	}
	return &cached, true
}

// Store saves curriculum under key. Errors are logged and returned.
func (c *GenerationCache) Store(ctx context.Context, key string, curriculum *models.Curriculum) error {
	if !c.Enabled() || curriculum == nil {
		return nil
	}
	start := time.Now()
	err := c.repo.Set(ctx, key, curriculum, c.ttl)
	c.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		c.logger.Warn("generation cache write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Purge drops every cached generation.
func (c *GenerationCache) Purge(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.repo.DeleteByPattern(ctx, generationNamespace+":*"); err != nil {
		c.logger.Warn("generation cache purge failed", zap.Error(err))
		return err
	}
	return nil
}

// PurgeOnDocumentRemoval returns a registry listener that drops cached
// generations once a source document disappears.
func (c *GenerationCache) PurgeOnDocumentRemoval(ctx context.Context) DocumentListener {
	return func(event models.DocumentEvent) {
		if event.Type != models.DocumentRemoved {
			return
		}
		if err := c.Purge(ctx); err == nil {
			c.logger.Debug("generation cache purged", zap.String("document_id", event.Document.ID))
		}
	}
}
