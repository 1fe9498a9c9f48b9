package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/curriculum-api/internal/models"
)

// ErrCurriculumNotFound is returned when no row matches the id.
var ErrCurriculumNotFound = errors.New("curriculum not found")

var curriculumColumns = []string{"id", "title", "subject", "skill_level", "total_weeks", "status", "body", "created_at", "updated_at"}

// CurriculumRepository persists saved curricula with a JSONB body.
type CurriculumRepository struct {
	db  *sqlx.DB
	psq sq.StatementBuilderType
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db, psq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// Create inserts a saved curriculum, stamping timestamps.
func (r *CurriculumRepository) Create(ctx context.Context, c *models.SavedCurriculum) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	const query = `INSERT INTO curricula (id, title, subject, skill_level, total_weeks, status, body, created_at, updated_at)
VALUES (:id, :title, :subject, :skill_level, :total_weeks, :status, :body, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("insert curriculum: %w", err)
	}
	return nil
}

// FindByID fetches one saved curriculum.
func (r *CurriculumRepository) FindByID(ctx context.Context, id string) (*models.SavedCurriculum, error) {
	query, args, err := r.psq.Select(curriculumColumns...).From("curricula").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build curriculum query: %w", err)
	}
	var c models.SavedCurriculum
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCurriculumNotFound
		}
		return nil, fmt.Errorf("get curriculum: %w", err)
	}
	return &c, nil
}

// FindByIDs fetches several curricula, in no particular order.
func (r *CurriculumRepository) FindByIDs(ctx context.Context, ids []string) ([]models.SavedCurriculum, error) {
	if len(ids) == 0 {
		return []models.SavedCurriculum{}, nil
	}
	query, args, err := r.psq.Select(curriculumColumns...).From("curricula").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build curricula query: %w", err)
	}
	var out []models.SavedCurriculum
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list curricula by id: %w", err)
	}
	return out, nil
}

// List applies filter and returns a page of rows plus the unpaged total.
func (r *CurriculumRepository) List(ctx context.Context, filter models.CurriculumFilter) ([]models.SavedCurriculum, int, error) {
	where := sq.And{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		where = append(where, sq.Or{sq.ILike{"title": pattern}, sq.ILike{"subject": pattern}})
	}
	if filter.SkillLevel != "" {
		where = append(where, sq.Eq{"skill_level": filter.SkillLevel})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}

	countQuery, countArgs, err := r.psq.Select("COUNT(*)").From("curricula").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count curricula: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	listQuery, listArgs, err := r.psq.Select(curriculumColumns...).From("curricula").Where(where).
		OrderBy("updated_at DESC", "id ASC").
		Limit(uint64(limit)).Offset(uint64(max(filter.Offset, 0))).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	out := make([]models.SavedCurriculum, 0)
	if err := r.db.SelectContext(ctx, &out, listQuery, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list curricula: %w", err)
	}
	return out, total, nil
}

// UpdateStatus moves a curriculum to status.
func (r *CurriculumRepository) UpdateStatus(ctx context.Context, id string, status models.CurriculumStatus) error {
	query, args, err := r.psq.Update("curricula").
		Set("status", status).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update curriculum status: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a curriculum.
func (r *CurriculumRepository) Delete(ctx context.Context, id string) error {
	query, args, err := r.psq.Delete("curricula").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete curriculum: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrCurriculumNotFound
	}
	return nil
}
