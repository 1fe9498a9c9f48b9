package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/curriculum-api/internal/models"
)

// DocumentRepository persists registry entries on PostgreSQL or SQLite.
// Queries use ? placeholders and are rebound for the driver.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document row.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.DocumentRecord) error {
	query := r.db.Rebind(`INSERT INTO documents (id, name, size, type, upload_date, topics, content, locator)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.Name, doc.Size, doc.Type, doc.UploadDate.UTC(), doc.Topics, doc.Content, doc.Locator,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Delete removes a document row. Missing rows are not an error.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM documents WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// List returns all documents in upload order.
func (r *DocumentRepository) List(ctx context.Context) ([]models.DocumentRecord, error) {
	const query = `SELECT id, name, size, type, upload_date, topics, content, locator
FROM documents ORDER BY upload_date ASC, id ASC`
	docs := make([]models.DocumentRecord, 0)
	if err := r.db.SelectContext(ctx, &docs, query); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}
