// Package search keeps an in-memory full-text index over registered documents.
package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

const nameBoost = 2.0

// Entry is the indexed view of a document.
type Entry struct {
	Name    string   `json:"name"`
	Content string   `json:"content"`
	Topics  []string `json:"topics"`
}

// Hit is a matching document id and its relevance.
type Hit struct {
	ID    string
	Score float64
}

// Index wraps a memory-only bleve index.
type Index struct {
	index bleve.Index
}

// NewIndex builds an empty index using the standard analyzer (no stemming).
func NewIndex() (*Index, error) {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("topics", text)

	mapping := bleve.NewIndexMapping()
	mapping.DefaultMapping = doc

	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	return &Index{index: idx}, nil
}

// Put indexes or replaces the entry for id.
func (i *Index) Put(id string, entry Entry) error {
	if err := i.index.Index(id, entry); err != nil {
		return fmt.Errorf("index %s: %w", id, err)
	}
	return nil
}

// Delete removes id from the index.
func (i *Index) Delete(id string) error {
	if err := i.index.Delete(id); err != nil {
		return fmt.Errorf("unindex %s: %w", id, err)
	}
	return nil
}

// Search matches the query against name (boosted), content and topics.
func (i *Index) Search(query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	name := bleve.NewMatchQuery(query)
	name.SetField("name")
	name.SetBoost(nameBoost)
	content := bleve.NewMatchQuery(query)
	content.SetField("content")
	topics := bleve.NewMatchQuery(query)
	topics.SetField("topics")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery([]blevequery.Query{name, content, topics}...))
	req.Size = limit
	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}
