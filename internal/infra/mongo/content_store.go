package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cdr-tool/internal/content"
	"cdr-tool/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection holds one document per published edition.
const DefaultCollection = "contents"

// contentDocument keeps the source document verbatim.
type contentDocument struct {
	Edition     string    `bson:"_id"`
	Source      string    `bson:"source"`
	PublishedAt time.Time `bson:"publishedAt"`
}

// ContentStore loads and publishes content documents in a MongoDB collection.
type ContentStore struct {
	collection *mongo.Collection
}

func NewContentStore(db *mongo.Database, collection string) *ContentStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &ContentStore{collection: db.Collection(collection)}
}

// Connect opens a client for uri and checks it is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// LoadContent implements content.Loader.
func (s *ContentStore) LoadContent(ctx context.Context, edition string) (*domain.Content, error) {
	data, err := s.Source(ctx, edition)
	if err != nil {
		return nil, err
	}
	return content.Parse(edition, data)
}

// Source returns the published document of an edition.
func (s *ContentStore) Source(ctx context.Context, edition string) ([]byte, error) {
	var doc contentDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": edition}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %q", domain.ErrContentNotFound, edition)
	}
	if err != nil {
		return nil, fmt.Errorf("load content %s: %w", edition, err)
	}
	return []byte(doc.Source), nil
}

// Publish stores a document under an edition, replacing any earlier version.
func (s *ContentStore) Publish(ctx context.Context, edition string, data []byte) error {
	doc := contentDocument{
		Edition:     edition,
		Source:      string(data),
		PublishedAt: time.Now().UTC(),
	}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": edition}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("publish content %s: %w", edition, err)
	}
	return nil
}

// Editions lists published edition keys.
func (s *ContentStore) Editions(ctx context.Context) ([]string, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []contentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Edition)
	}
	return out, nil
}
