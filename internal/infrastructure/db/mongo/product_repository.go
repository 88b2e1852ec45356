package mongo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

type mongoProduct struct {
	ID          int64   `bson:"_id"`
	Name        string  `bson:"name"`
	Description *string `bson:"description"`
	PriceCents  int64   `bson:"price_cents"`
	Stock       int     `bson:"stock"`
	Brand       *string `bson:"brand"`
	Size        *string `bson:"size"`
	Color       *string `bson:"color"`
	SKU         *string `bson:"sku"`
	Slug        string  `bson:"slug"`
	CategoryID  *int64  `bson:"category_id"`
	CreatedAt   int64   `bson:"created_at"`
	UpdatedAt   int64   `bson:"updated_at"`
}

func newMongoProduct(p *domain.Product) mongoProduct {
	return mongoProduct{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.Price.Cents(),
		Stock:       p.Stock,
		Brand:       p.Brand,
		Size:        p.Size,
		Color:       p.Color,
		SKU:         p.SKU,
		Slug:        p.Slug,
		CategoryID:  p.CategoryID,
		CreatedAt:   toUnix(p.CreatedAt),
		UpdatedAt:   toUnix(p.UpdatedAt),
	}
}

func (d mongoProduct) toDomain() *domain.Product {
	return &domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       domain.Money(d.PriceCents),
		Stock:       d.Stock,
		Brand:       d.Brand,
		Size:        d.Size,
		Color:       d.Color,
		SKU:         d.SKU,
		Slug:        d.Slug,
		CategoryID:  d.CategoryID,
		Tags:        []domain.Tag{},
		CreatedAt:   fromUnix(d.CreatedAt),
		UpdatedAt:   fromUnix(d.UpdatedAt),
	}
}

type mongoProductTag struct {
	ProductID int64 `bson:"product_id"`
	TagID     int64 `bson:"tag_id"`
}

var productDuplicates = map[string]error{
	idxProductSlug: domain.ErrSlugTaken,
	idxProductSKU:  domain.ErrSKUTaken,
}

// ProductRepository implements ports.ProductRepository on MongoDB. The
// product/tag association is kept in its own collection so tag filters and
// tag deletes touch a single place.
type ProductRepository struct {
	store      *Store
	col        *mongo.Collection
	links      *mongo.Collection
	categories *CategoryRepository
	tags       *TagRepository
}

var _ ports.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{
		store:      store,
		col:        store.coll(collProducts),
		links:      store.coll(collProductTags),
		categories: NewCategoryRepository(store),
		tags:       NewTagRepository(store),
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product, tagIDs []int64) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.store.nextID(ctx, collProducts)
	if err != nil {
		return nil, err
	}
	doc := newMongoProduct(p)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert product: %w", mapDuplicate(err, productDuplicates))
	}

	if err := r.link(ctx, id, tagIDs); err != nil {
		if _, derr := r.col.DeleteOne(ctx, bson.M{"_id": id}); derr != nil {
			r.store.log.Error().Err(derr).Int64("product_id", id).Msg("failed to roll back product insert")
		}
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product, tagIDs []int64) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := newMongoProduct(p)
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":        doc.Name,
		"description": doc.Description,
		"price_cents": doc.PriceCents,
		"stock":       doc.Stock,
		"brand":       doc.Brand,
		"size":        doc.Size,
		"color":       doc.Color,
		"sku":         doc.SKU,
		"slug":        doc.Slug,
		"category_id": doc.CategoryID,
		"updated_at":  doc.UpdatedAt,
	}})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", mapDuplicate(err, productDuplicates))
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrProductNotFound
	}

	if tagIDs != nil {
		if _, err := r.links.DeleteMany(ctx, bson.M{"product_id": p.ID}); err != nil {
			return nil, fmt.Errorf("clear product tags: %w", err)
		}
		if err := r.link(ctx, p.ID, tagIDs); err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, p.ID)
}

// link inserts the product/tag pairs, ignoring pairs that already exist.
func (r *ProductRepository) link(ctx context.Context, productID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		docs = append(docs, mongoProductTag{ProductID: productID, TagID: tagID})
	}
	_, err := r.links.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert product tags: %w", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoProduct
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	p := doc.toDomain()
	if err := r.hydrate(ctx, []*domain.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the product and its tag associations.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	if _, err := r.links.DeleteMany(ctx, bson.M{"product_id": id}); err != nil {
		return fmt.Errorf("delete associations of product %d: %w", id, err)
	}
	return nil
}

func (r *ProductRepository) SlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, slugFilter(base, excludeID),
		options.Find().SetProjection(bson.M{"slug": 1}))
	if err != nil {
		return nil, fmt.Errorf("find slugs: %w", err)
	}
	var docs []struct {
		Slug string `bson:"slug"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode slugs: %w", err)
	}

	slugs := make([]string, 0, len(docs))
	for _, d := range docs {
		slugs = append(slugs, d.Slug)
	}
	return slugs, nil
}

func slugFilter(base string, excludeID int64) bson.M {
	return bson.M{
		"slug": bson.M{"$regex": "^" + regexp.QuoteMeta(base) + "(-.+)?$"},
		"_id":  bson.M{"$ne": excludeID},
	}
}

// Search applies filter with every predicate AND-ed. Category names and tag
// ids are resolved to id sets first; an unresolvable constraint yields an
// empty page.
func (r *ProductRepository) Search(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	page := &domain.ProductPage{Items: []*domain.Product{}, Page: filter.Page, Limit: filter.Limit}

	query := productFilter(filter)
	if filter.CategoryID == nil && filter.CategoryName != "" {
		var c mongoCategory
		err := r.store.coll(collCategories).FindOne(ctx, bson.M{"name": filter.CategoryName}).Decode(&c)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return page, nil
		}
		if err != nil {
			return nil, fmt.Errorf("resolve category %q: %w", filter.CategoryName, err)
		}
		query = append(query, bson.E{Key: "category_id", Value: c.ID})
	}
	if len(filter.TagIDs) > 0 {
		ids, err := r.taggedProductIDs(ctx, filter.TagIDs)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return page, nil
		}
		query = append(query, bson.E{Key: "_id", Value: bson.M{"$in": ids}})
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	page.Total = total

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetSkip(int64(filter.Offset))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	var docs []mongoProduct
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for _, d := range docs {
		page.Items = append(page.Items, d.toDomain())
	}

	if err := r.hydrate(ctx, page.Items); err != nil {
		return nil, err
	}
	return page, nil
}

// productFilter translates the scalar predicates of f into a query document.
func productFilter(f domain.ProductFilter) bson.D {
	query := bson.D{}

	if f.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		query = append(query, bson.E{Key: "$or", Value: bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}})
	}
	if f.PriceMin != nil || f.PriceMax != nil {
		price := bson.M{}
		if f.PriceMin != nil {
			price["$gte"] = f.PriceMin.Cents()
		}
		if f.PriceMax != nil {
			price["$lte"] = f.PriceMax.Cents()
		}
		query = append(query, bson.E{Key: "price_cents", Value: price})
	}
	if f.Brand != "" {
		query = append(query, bson.E{Key: "brand", Value: f.Brand})
	}
	if f.Size != "" {
		query = append(query, bson.E{Key: "size", Value: f.Size})
	}
	if f.Color != "" {
		query = append(query, bson.E{Key: "color", Value: f.Color})
	}
	if f.CategoryID != nil {
		query = append(query, bson.E{Key: "category_id", Value: *f.CategoryID})
	}
	return query
}

// taggedProductIDs returns the distinct ids of products carrying any of tagIDs.
func (r *ProductRepository) taggedProductIDs(ctx context.Context, tagIDs []int64) ([]int64, error) {
	values, err := r.links.Distinct(ctx, "product_id", bson.M{"tag_id": bson.M{"$in": tagIDs}})
	if err != nil {
		return nil, fmt.Errorf("find tagged products: %w", err)
	}
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		switch id := v.(type) {
		case int64:
			ids = append(ids, id)
		case int32:
			ids = append(ids, int64(id))
		}
	}
	return ids, nil
}

// hydrate attaches category and tags to each product.
func (r *ProductRepository) hydrate(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	productIDs := make([]int64, 0, len(products))
	var categoryIDs []int64
	for _, p := range products {
		p.Tags = []domain.Tag{}
		productIDs = append(productIDs, p.ID)
		if p.CategoryID != nil && !slices.Contains(categoryIDs, *p.CategoryID) {
			categoryIDs = append(categoryIDs, *p.CategoryID)
		}
	}

	if len(categoryIDs) > 0 {
		categories, err := r.categories.find(ctx, bson.M{"_id": bson.M{"$in": categoryIDs}})
		if err != nil {
			return err
		}
		byID := make(map[int64]*domain.Category, len(categories))
		for _, c := range categories {
			byID[c.ID] = c
		}
		for _, p := range products {
			if p.CategoryID != nil {
				p.Category = byID[*p.CategoryID]
			}
		}
	}

	cur, err := r.links.Find(ctx, bson.M{"product_id": bson.M{"$in": productIDs}})
	if err != nil {
		return fmt.Errorf("find product tags: %w", err)
	}
	var links []mongoProductTag
	if err := cur.All(ctx, &links); err != nil {
		return fmt.Errorf("decode product tags: %w", err)
	}
	if len(links) == 0 {
		return nil
	}

	tagIDs := make([]int64, 0, len(links))
	for _, l := range links {
		if !slices.Contains(tagIDs, l.TagID) {
			tagIDs = append(tagIDs, l.TagID)
		}
	}
	tags, err := r.tags.find(ctx, bson.M{"_id": bson.M{"$in": tagIDs}})
	if err != nil {
		return err
	}
	tagsByID := make(map[int64]domain.Tag, len(tags))
	for _, t := range tags {
		tagsByID[t.ID] = *t
	}

	byProduct := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byProduct[p.ID] = p
	}
	for _, l := range links {
		p, ok := byProduct[l.ProductID]
		t, found := tagsByID[l.TagID]
		if ok && found {
			p.Tags = append(p.Tags, t)
		}
	}
	for _, p := range products {
		slices.SortFunc(p.Tags, func(a, b domain.Tag) int {
			return cmp.Compare(a.ID, b.ID)
		})
	}
	return nil
}
