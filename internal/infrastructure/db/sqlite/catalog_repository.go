package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

// CategoryRepository implements ports.CategoryRepository on SQLite.
type CategoryRepository struct {
	db *DB
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = "id, name, description, created_at, updated_at"

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	res, err := r.db.exec(ctx,
		"INSERT INTO categories (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)",
		c.Name, nullString(c.Description), toUnix(c.CreatedAt), toUnix(c.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", mapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}

	created := *c
	created.ID = id
	return &created, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := scanCategory(r.db.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	return r.query(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY id ASC")
}

func (r *CategoryRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Category, error) {
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []*domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	return out, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	res, err := r.db.exec(ctx,
		"UPDATE categories SET name = ?, description = ?, updated_at = ? WHERE id = ?",
		c.Name, nullString(c.Description), toUnix(c.UpdatedAt), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", mapConstraint(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrCategoryNotFound
	}

	updated := *c
	return &updated, nil
}

// Delete removes the category; products referencing it are detached by the
// ON DELETE SET NULL foreign key.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.exec(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		c                    domain.Category
		desc                 sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.Name, &desc, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.Description = stringPtr(desc)
	c.CreatedAt = fromUnix(createdAt)
	c.UpdatedAt = fromUnix(updatedAt)
	return &c, nil
}

// TagRepository implements ports.TagRepository on SQLite.
type TagRepository struct {
	db *DB
}

var _ ports.TagRepository = (*TagRepository)(nil)

func NewTagRepository(db *DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) Create(ctx context.Context, t *domain.Tag) (*domain.Tag, error) {
	res, err := r.db.exec(ctx, "INSERT INTO tags (name) VALUES (?)", t.Name)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", mapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return &domain.Tag{ID: id, Name: t.Name}, nil
}

func (r *TagRepository) FindByID(ctx context.Context, id int64) (*domain.Tag, error) {
	var t domain.Tag
	err := r.db.db.QueryRowContext(ctx, "SELECT id, name FROM tags WHERE id = ?", id).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTagNotFound
		}
		return nil, fmt.Errorf("query tag: %w", err)
	}
	return &t, nil
}

// FindByIDs returns the tags that exist among ids, ordered by id.
func (r *TagRepository) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Tag, error) {
	if len(ids) == 0 {
		return []*domain.Tag{}, nil
	}
	return r.query(ctx, "SELECT id, name FROM tags WHERE id IN ("+placeholders(len(ids))+") ORDER BY id ASC", int64Args(ids)...)
}

func (r *TagRepository) List(ctx context.Context) ([]*domain.Tag, error) {
	return r.query(ctx, "SELECT id, name FROM tags ORDER BY id ASC")
}

func (r *TagRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	out := []*domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	return out, nil
}

func (r *TagRepository) Update(ctx context.Context, t *domain.Tag) (*domain.Tag, error) {
	res, err := r.db.exec(ctx, "UPDATE tags SET name = ? WHERE id = ?", t.Name, t.ID)
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", mapConstraint(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrTagNotFound
	}
	return &domain.Tag{ID: t.ID, Name: t.Name}, nil
}

// Delete removes the tag and, through the cascading foreign key, its
// product associations.
func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.exec(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTagNotFound
	}
	return nil
}
