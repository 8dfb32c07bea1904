// Package mongo implements the durable primary catalog tier.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kailas-cloud/tiergate/internal/db"
	"github.com/kailas-cloud/tiergate/internal/domain/product"
)

// Config holds connection parameters for the primary store.
type Config struct {
	URI        string
	Database   string
	Collection string
	OpTimeout  time.Duration
}

// Store is the primary-tier client over a MongoDB collection.
type Store struct {
	client    *mongo.Client
	coll      *mongo.Collection
	opTimeout time.Duration
}

// NewStore connects to the primary store. Server selection is capped at
// two seconds so a down backend fails fast into the fallback path.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 3 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(2 * time.Second).
		SetConnectTimeout(2 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect primary store: %w", err)
	}

	return &Store{
		client:    client,
		coll:      client.Database(cfg.Database).Collection(cfg.Collection),
		opTimeout: cfg.OpTimeout,
	}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect primary store: %w", err)
	}
	return nil
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// productDoc is the stored document shape.
type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Price       float64            `bson:"price"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Brand       string             `bson:"brand"`
	InStock     bool               `bson:"inStock"`
	Rating      float64            `bson:"rating"`
	ImageURL    string             `bson:"imageUrl"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d productDoc) toDomain() product.Product {
	return product.Normalize(product.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Category:    d.Category,
		Brand:       d.Brand,
		InStock:     d.InStock,
		Rating:      d.Rating,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func docFromDomain(p product.Product) productDoc {
	created, err := time.Parse(time.RFC3339, p.CreatedAt)
	if err != nil {
		created = time.Now().UTC()
	}
	return productDoc{
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		InStock:     p.InStock,
		Rating:      p.Rating,
		ImageURL:    p.ImageURL,
		CreatedAt:   created,
	}
}

// Search matches text case-insensitively against name, category, and
// brand, combined with OR, capped at limit. Order is backend-native.
func (s *Store) Search(ctx context.Context, text string, limit int64) ([]product.Product, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"category": pattern},
		bson.M{"brand": pattern},
	}}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	return s.drain(ctx, cursor)
}

// GetByID performs a point lookup. An identifier that does not parse as
// an ObjectID returns db.ErrInvalidKey without touching the backend.
func (s *Store) GetByID(ctx context.Context, id string) (product.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return product.Product{}, db.ErrInvalidKey
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var doc productDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return product.Product{}, db.ErrKeyNotFound
		}
		return product.Product{}, &db.Error{Op: db.OpFindOne, Err: err}
	}
	return doc.toDomain(), nil
}

// GetByIDs fetches the records for the given identifiers, silently
// skipping ones that do not parse. Order is backend-native.
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []product.Product{}, nil
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	return s.drain(ctx, cursor)
}

// FindByCategory returns up to limit records in the category, excluding
// excludeID when it parses.
func (s *Store) FindByCategory(ctx context.Context, category, excludeID string, limit int64) ([]product.Product, error) {
	filter := bson.M{"category": category}
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	return s.drain(ctx, cursor)
}

// CountApprox returns the estimated collection size. The estimate may
// be stale; it is only used to decide whether seeding is needed.
func (s *Store) CountApprox(ctx context.Context) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	n, err := s.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return n, nil
}

// InsertMany bulk-inserts unordered: a partial batch failure keeps the
// records that made it in. Returns the number actually inserted.
func (s *Store) InsertMany(ctx context.Context, items []product.Product) (int, error) {
	docs := make([]any, len(items))
	for i, p := range items {
		docs[i] = docFromDomain(p)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout*4)
	defer cancel()

	res, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	inserted := 0
	if res != nil {
		inserted = len(res.InsertedIDs)
	}
	if err != nil {
		return inserted, &db.Error{Op: db.OpInsertMany, Err: err}
	}
	return inserted, nil
}

// EnsureIndexes creates the lookup indexes. Idempotent; failures are
// reported but callers treat them as non-fatal.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "brand", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return &db.Error{Op: db.OpIndexes, Err: err}
	}
	return nil
}

func (s *Store) drain(ctx context.Context, cursor *mongo.Cursor) ([]product.Product, error) {
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	items := make([]product.Product, len(docs))
	for i, d := range docs {
		items[i] = d.toDomain()
	}
	return items, nil
}
