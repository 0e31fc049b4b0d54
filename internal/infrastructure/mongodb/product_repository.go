package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/simplespend/backend/internal/domain"
	"github.com/simplespend/backend/internal/infrastructure/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	componentMongo = "storage.mongodb"

	// ProductsCollection holds the canonical products
	ProductsCollection = "products"

	// insertBatchSize bounds one InsertMany while rebuilding
	insertBatchSize = 500
)

// ProductRepository stores canonical products, one document per product
type ProductRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
	timeout    time.Duration
}

// NewProductRepository creates a repository over db's products collection
func NewProductRepository(db *mongo.Database, timeout time.Duration) *ProductRepository {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProductRepository{
		db:         db,
		collection: db.Collection(ProductsCollection),
		timeout:    timeout,
	}
}

// productIndexes backs the merge key lookup, the query filters and the price sort
func productIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "nameKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "bestPrice.storeName", Value: 1}}},
		{Keys: bson.D{{Key: "stores.brand", Value: 1}}},
		{Keys: priceSort()},
	}
}

// EnsureIndexes creates the collection indexes
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.collection.Indexes().CreateMany(ctx, productIndexes()); err != nil {
		return fmt.Errorf("%w: creating indexes: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

// FindByID obtains a product by id. Ids that are not ObjectIDs never resolve.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrProductNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

// FindByName obtains a product by merge key
func (r *ProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	return r.findOne(ctx, bson.M{"nameKey": domain.NameKey(name)})
}

func (r *ProductRepository) findOne(ctx context.Context, filter bson.M) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc productDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return toDomainProduct(&doc), nil
}

// Find lists products matching filter
func (r *ProductRepository) Find(ctx context.Context, filter domain.ProductFilter, opts domain.FindOptions) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	findOptions := options.Find()
	if opts.Skip > 0 {
		findOptions.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOptions.SetLimit(opts.Limit)
	}
	if opts.SortByPrice {
		findOptions.SetSort(priceSort())
	} else {
		findOptions.SetSort(bson.D{{Key: "_id", Value: 1}})
	}

	cursor, err := r.collection.Find(ctx, buildFilter(filter), findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, toDomainProduct(&docs[i]))
	}
	return products, nil
}

// Count returns the number of products matching filter
func (r *ProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	total, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return total, nil
}

// Sample returns up to n random products
func (r *ProductRepository) Sample(ctx context.Context, n int) ([]*domain.Product, error) {
	if n <= 0 {
		return []*domain.Product{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{{{Key: "$sample", Value: bson.M{"size": n}}}}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, toDomainProduct(&docs[i]))
	}
	return products, nil
}

// Categories groups products by category, ordered by name
func (r *ProductRepository) Categories(ctx context.Context) ([]domain.CategoryInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Name  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	categories := make([]domain.CategoryInfo, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, domain.CategoryInfo{Name: row.Name, ProductCount: row.Count})
	}
	return categories, nil
}

// ReplaceAll writes the products into a staging collection and renames it over
// the live one, so readers never see a partial catalog. A failed or cancelled
// call drops the staging collection and leaves the live catalog untouched.
func (r *ProductRepository) ReplaceAll(ctx context.Context, products []*domain.Product) (err error) {
	staging := r.db.Collection(fmt.Sprintf("%s_staging_%s", ProductsCollection, primitive.NewObjectID().Hex()))

	defer func() {
		if err == nil {
			return
		}
		cleanupCtx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if dropErr := staging.Drop(cleanupCtx); dropErr != nil {
			logging.WithComponentAndFields(componentMongo, logging.Fields{"collection": staging.Name()}).
				WithError(dropErr).Warn("failed to drop staging collection")
		}
	}()

	now := time.Now().UTC()
	seen := make(map[string]bool, len(products))
	batch := make([]interface{}, 0, insertBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		opCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		if _, err := staging.InsertMany(opCtx, batch); err != nil {
			return fmt.Errorf("%w: staging insert: %v", domain.ErrUpstreamUnavailable, err)
		}
		batch = batch[:0]
		return nil
	}

	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc := toProductDocument(p)
		if seen[doc.NameKey] {
			continue
		}
		seen[doc.NameKey] = true

		doc.ID = primitive.NewObjectID()
		doc.Version = 1
		doc.CreatedAt = now
		doc.UpdatedAt = now
		batch = append(batch, doc)

		if len(batch) == insertBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// createIndexes also creates the collection, so an empty export still swaps
	if _, err := staging.Indexes().CreateMany(opCtx, productIndexes()); err != nil {
		return fmt.Errorf("%w: staging indexes: %v", domain.ErrUpstreamUnavailable, err)
	}

	rename := bson.D{
		{Key: "renameCollection", Value: r.db.Name() + "." + staging.Name()},
		{Key: "to", Value: r.db.Name() + "." + ProductsCollection},
		{Key: "dropTarget", Value: true},
	}
	if err := r.db.Client().Database("admin").RunCommand(opCtx, rename).Err(); err != nil {
		return fmt.Errorf("%w: swapping catalog: %v", domain.ErrUpstreamUnavailable, err)
	}

	logging.WithComponentAndFields(componentMongo, logging.Fields{"products": len(seen)}).Info("catalog replaced")
	return nil
}

// Save inserts a product without id or replaces the stored one when its version
// still matches. A concurrent insert of the same name surfaces as a version
// conflict through the unique nameKey index.
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	doc := toProductDocument(product)

	if product.ID == "" {
		doc.ID = primitive.NewObjectID()
		doc.Version = 1
		doc.CreatedAt = now
		doc.UpdatedAt = now

		if _, err := r.collection.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrVersionConflict
			}
			return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}

		product.ID = doc.ID.Hex()
		product.Version = doc.Version
		product.CreatedAt = now
		product.UpdatedAt = now
		return nil
	}

	if doc.ID.IsZero() {
		return domain.ErrProductNotFound
	}

	doc.Version = product.Version + 1
	doc.UpdatedAt = now

	filter := bson.M{"_id": doc.ID, "version": product.Version}
	update := bson.M{"$set": bson.M{
		"name":        doc.Name,
		"nameKey":     doc.NameKey,
		"category":    doc.Category,
		"description": doc.Description,
		"stores":      doc.Stores,
		"bestPrice":   doc.BestPrice,
		"priced":      doc.Priced,
		"version":     doc.Version,
		"updatedAt":   doc.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	if result.MatchedCount == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		if n == 0 {
			return domain.ErrProductNotFound
		}
		return domain.ErrVersionConflict
	}

	product.Version = doc.Version
	product.UpdatedAt = now
	return nil
}

// Delete removes a product by id
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrProductNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// buildFilter translates a domain filter into a query document
func buildFilter(f domain.ProductFilter) bson.M {
	filter := bson.M{}

	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.BestStore != "" {
		filter["bestPrice.storeName"] = f.BestStore
	}
	if f.Brand != "" {
		filter["stores.brand"] = f.Brand
	}
	if f.Text != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Text), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"category": pattern},
			bson.M{"description": pattern},
			bson.M{"stores.brand": pattern},
		}
	}

	return filter
}

// priceSort orders priced products by ascending cost, then unpriced ones, with
// persisted order breaking ties
func priceSort() bson.D {
	return bson.D{
		{Key: "priced", Value: -1},
		{Key: "bestPrice.cost", Value: 1},
		{Key: "_id", Value: 1},
	}
}
