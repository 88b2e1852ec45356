package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

var sortByID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

type mongoCategory struct {
	ID          int64   `bson:"_id"`
	Name        string  `bson:"name"`
	Description *string `bson:"description"`
	CreatedAt   int64   `bson:"created_at"`
	UpdatedAt   int64   `bson:"updated_at"`
}

func (d mongoCategory) toDomain() *domain.Category {
	return &domain.Category{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   fromUnix(d.CreatedAt),
		UpdatedAt:   fromUnix(d.UpdatedAt),
	}
}

var categoryDuplicates = map[string]error{idxCategoryName: domain.ErrCategoryExists}

// CategoryRepository implements ports.CategoryRepository on MongoDB.
type CategoryRepository struct {
	store *Store
	col   *mongo.Collection
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store, col: store.coll(collCategories)}
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.store.nextID(ctx, collCategories)
	if err != nil {
		return nil, err
	}
	doc := mongoCategory{
		ID:          id,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   toUnix(c.CreatedAt),
		UpdatedAt:   toUnix(c.UpdatedAt),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert category: %w", mapDuplicate(err, categoryDuplicates))
	}
	return doc.toDomain(), nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoCategory
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	return r.find(ctx, bson.M{})
}

func (r *CategoryRepository) find(ctx context.Context, filter any) ([]*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, sortByID)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	var docs []mongoCategory
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	out := make([]*domain.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"name":        c.Name,
		"description": c.Description,
		"updated_at":  toUnix(c.UpdatedAt),
	}})
	if err != nil {
		return nil, fmt.Errorf("update category: %w", mapDuplicate(err, categoryDuplicates))
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrCategoryNotFound
	}
	updated := *c
	return &updated, nil
}

// Delete removes the category and detaches the products that referenced it.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCategoryNotFound
	}

	if _, err := r.store.coll(collProducts).UpdateMany(ctx,
		bson.M{"category_id": id},
		bson.M{"$set": bson.M{"category_id": nil}},
	); err != nil {
		return fmt.Errorf("detach products from category %d: %w", id, err)
	}
	return nil
}

type mongoTag struct {
	ID   int64  `bson:"_id"`
	Name string `bson:"name"`
}

var tagDuplicates = map[string]error{idxTagName: domain.ErrTagExists}

// TagRepository implements ports.TagRepository on MongoDB.
type TagRepository struct {
	store *Store
	col   *mongo.Collection
}

var _ ports.TagRepository = (*TagRepository)(nil)

func NewTagRepository(store *Store) *TagRepository {
	return &TagRepository{store: store, col: store.coll(collTags)}
}

func (r *TagRepository) Create(ctx context.Context, t *domain.Tag) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.store.nextID(ctx, collTags)
	if err != nil {
		return nil, err
	}
	if _, err := r.col.InsertOne(ctx, mongoTag{ID: id, Name: t.Name}); err != nil {
		return nil, fmt.Errorf("insert tag: %w", mapDuplicate(err, tagDuplicates))
	}
	return &domain.Tag{ID: id, Name: t.Name}, nil
}

func (r *TagRepository) FindByID(ctx context.Context, id int64) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoTag
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTagNotFound
		}
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return &domain.Tag{ID: doc.ID, Name: doc.Name}, nil
}

// FindByIDs returns the tags that exist among ids, ordered by id.
func (r *TagRepository) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Tag, error) {
	if len(ids) == 0 {
		return []*domain.Tag{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *TagRepository) List(ctx context.Context) ([]*domain.Tag, error) {
	return r.find(ctx, bson.M{})
}

func (r *TagRepository) find(ctx context.Context, filter any) ([]*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, sortByID)
	if err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	var docs []mongoTag
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}

	out := make([]*domain.Tag, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Tag{ID: d.ID, Name: d.Name})
	}
	return out, nil
}

func (r *TagRepository) Update(ctx context.Context, t *domain.Tag) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": bson.M{"name": t.Name}})
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", mapDuplicate(err, tagDuplicates))
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrTagNotFound
	}
	return &domain.Tag{ID: t.ID, Name: t.Name}, nil
}

// Delete removes the tag and its product associations.
func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTagNotFound
	}
	if _, err := r.store.coll(collProductTags).DeleteMany(ctx, bson.M{"tag_id": id}); err != nil {
		return fmt.Errorf("delete associations of tag %d: %w", id, err)
	}
	return nil
}
