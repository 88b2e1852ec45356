package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

// ProductRepository implements ports.ProductRepository on SQLite. The
// product/tag association lives in the product_tags table.
type ProductRepository struct {
	db *DB
}

var _ ports.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = "p.id, p.name, p.description, p.price_cents, p.stock, p.brand, p.size, p.color, p.sku, p.slug, p.category_id, p.created_at, p.updated_at"

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product, tagIDs []int64) (*domain.Product, error) {
	var id int64
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO products (name, description, price_cents, stock, brand, size, color, sku, slug, category_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, nullString(p.Description), p.Price.Cents(), p.Stock,
			nullString(p.Brand), nullString(p.Size), nullString(p.Color), nullString(p.SKU),
			p.Slug, nullInt64(p.CategoryID), toUnix(p.CreatedAt), toUnix(p.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert product: %w", mapConstraint(err))
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		return insertProductTags(ctx, tx, id, tagIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product, tagIDs []int64) (*domain.Product, error) {
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = ?, description = ?, price_cents = ?, stock = ?, brand = ?, size = ?, color = ?,
			    sku = ?, slug = ?, category_id = ?, updated_at = ?
			WHERE id = ?`,
			p.Name, nullString(p.Description), p.Price.Cents(), p.Stock,
			nullString(p.Brand), nullString(p.Size), nullString(p.Color), nullString(p.SKU),
			p.Slug, nullInt64(p.CategoryID), toUnix(p.UpdatedAt), p.ID,
		)
		if err != nil {
			return fmt.Errorf("update product: %w", mapConstraint(err))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrProductNotFound
		}
		if tagIDs == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM product_tags WHERE product_id = ?", p.ID); err != nil {
			return fmt.Errorf("clear product tags: %w", err)
		}
		return insertProductTags(ctx, tx, p.ID, tagIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, p.ID)
}

func insertProductTags(ctx context.Context, tx *sql.Tx, productID int64, tagIDs []int64) error {
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO product_tags (product_id, tag_id) VALUES (?, ?)", productID, tagID,
		); err != nil {
			return fmt.Errorf("insert product tag: %w", mapConstraint(err))
		}
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(r.db.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products p WHERE p.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("query product: %w", err)
	}
	if err := r.hydrate(ctx, []*domain.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the product; its product_tags rows cascade.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.exec(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) SlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error) {
	rows, err := r.db.db.QueryContext(ctx,
		`SELECT slug FROM products WHERE (slug = ? OR slug LIKE ? ESCAPE '\') AND id != ?`,
		base, escapeLike(base)+"-%", excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		slugs = append(slugs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query slugs: %w", err)
	}
	return slugs, nil
}

// Search applies filter with every predicate AND-ed. Tag filtering uses
// EXISTS so a product matching several tags is counted once.
func (r *ProductRepository) Search(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	where, args := productWhere(filter)

	var total int64
	if err := r.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	pageArgs := append(append([]any{}, args...), limit, filter.Offset)

	rows, err := r.db.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products p"+where+" ORDER BY p.id ASC LIMIT ? OFFSET ?",
		pageArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	items := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("search products: %w", err)
	}
	// Release the connection before hydrating; in-memory databases have one.
	rows.Close()

	if err := r.hydrate(ctx, items); err != nil {
		return nil, err
	}

	return &domain.ProductPage{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func productWhere(f domain.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		conds = append(conds, `(casefold(p.name) LIKE ? ESCAPE '\' OR casefold(COALESCE(p.description, '')) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if f.PriceMin != nil {
		conds = append(conds, "p.price_cents >= ?")
		args = append(args, f.PriceMin.Cents())
	}
	if f.PriceMax != nil {
		conds = append(conds, "p.price_cents <= ?")
		args = append(args, f.PriceMax.Cents())
	}
	if f.Brand != "" {
		conds = append(conds, "p.brand = ?")
		args = append(args, f.Brand)
	}
	if f.Size != "" {
		conds = append(conds, "p.size = ?")
		args = append(args, f.Size)
	}
	if f.Color != "" {
		conds = append(conds, "p.color = ?")
		args = append(args, f.Color)
	}
	if f.CategoryID != nil {
		conds = append(conds, "p.category_id = ?")
		args = append(args, *f.CategoryID)
	} else if f.CategoryName != "" {
		conds = append(conds, "p.category_id IN (SELECT c.id FROM categories c WHERE c.name = ?)")
		args = append(args, f.CategoryName)
	}
	if len(f.TagIDs) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM product_tags pt WHERE pt.product_id = p.id AND pt.tag_id IN ("+placeholders(len(f.TagIDs))+"))")
		args = append(args, int64Args(f.TagIDs)...)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// hydrate attaches category and tags to each product.
func (r *ProductRepository) hydrate(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Product, len(products))
	productIDs := make([]int64, 0, len(products))
	categoryIDs := make([]int64, 0, len(products))
	seenCategory := make(map[int64]struct{})
	for _, p := range products {
		p.Tags = []domain.Tag{}
		byID[p.ID] = p
		productIDs = append(productIDs, p.ID)
		if p.CategoryID != nil {
			if _, ok := seenCategory[*p.CategoryID]; !ok {
				seenCategory[*p.CategoryID] = struct{}{}
				categoryIDs = append(categoryIDs, *p.CategoryID)
			}
		}
	}

	if len(categoryIDs) > 0 {
		categories, err := (&CategoryRepository{db: r.db}).query(ctx,
			"SELECT "+categoryColumns+" FROM categories WHERE id IN ("+placeholders(len(categoryIDs))+")",
			int64Args(categoryIDs)...,
		)
		if err != nil {
			return err
		}
		byCategory := make(map[int64]*domain.Category, len(categories))
		for _, c := range categories {
			byCategory[c.ID] = c
		}
		for _, p := range products {
			if p.CategoryID != nil {
				p.Category = byCategory[*p.CategoryID]
			}
		}
	}

	rows, err := r.db.db.QueryContext(ctx, `
		SELECT pt.product_id, t.id, t.name
		FROM product_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.product_id IN (`+placeholders(len(productIDs))+`)
		ORDER BY pt.product_id ASC, t.id ASC`,
		int64Args(productIDs)...,
	)
	if err != nil {
		return fmt.Errorf("query product tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			t         domain.Tag
		)
		if err := rows.Scan(&productID, &t.ID, &t.Name); err != nil {
			return fmt.Errorf("scan product tag: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Tags = append(p.Tags, t)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query product tags: %w", err)
	}
	return nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                        domain.Product
		priceCents               int64
		desc, brand, size, color sql.NullString
		sku                      sql.NullString
		categoryID               sql.NullInt64
		createdAt, updatedAt     int64
	)
	if err := row.Scan(
		&p.ID, &p.Name, &desc, &priceCents, &p.Stock, &brand, &size, &color, &sku,
		&p.Slug, &categoryID, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	p.Description = stringPtr(desc)
	p.Price = domain.Money(priceCents)
	p.Brand = stringPtr(brand)
	p.Size = stringPtr(size)
	p.Color = stringPtr(color)
	p.SKU = stringPtr(sku)
	p.CategoryID = int64Ptr(categoryID)
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
