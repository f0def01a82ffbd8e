package vectorindex

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSearchIndexes adapts a MongoDB Atlas collection's search-index view to
// the SearchIndexes interface.
type MongoSearchIndexes struct {
	coll *mongo.Collection
}

// NewMongoSearchIndexes wraps the given collection, normally the catalog's
// resources collection.
func NewMongoSearchIndexes(coll *mongo.Collection) *MongoSearchIndexes {
	return &MongoSearchIndexes{coll: coll}
}

// List returns the name and queryable state of every search index on the
// collection.
func (m *MongoSearchIndexes) List(ctx context.Context) ([]IndexStatus, error) {
	cur, err := m.coll.SearchIndexes().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing search indexes: %w", err)
	}

	var docs []struct {
		Name      string `bson:"name"`
		Queryable bool   `bson:"queryable"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding search index list: %w", err)
	}

	statuses := make([]IndexStatus, 0, len(docs))
	for _, d := range docs {
		statuses = append(statuses, IndexStatus{Name: d.Name, Queryable: d.Queryable})
	}
	return statuses, nil
}

// DropOne deletes the named search index.
func (m *MongoSearchIndexes) DropOne(ctx context.Context, name string) error {
	if err := m.coll.SearchIndexes().DropOne(ctx, name); err != nil {
		return fmt.Errorf("dropping search index %q: %w", name, err)
	}
	return nil
}

// CreateOne creates a knnVector search index over the embedding field with
// the given dimension and cosine similarity, returning the backend's name
// for the new index.
func (m *MongoSearchIndexes) CreateOne(ctx context.Context, name string, dimensions int) (string, error) {
	model := mongo.SearchIndexModel{
		Definition: bson.D{
			{Key: "mappings", Value: bson.D{
				{Key: "dynamic", Value: true},
				{Key: "fields", Value: bson.D{
					{Key: "embedding", Value: bson.D{
						{Key: "type", Value: "knnVector"},
						{Key: "dimensions", Value: dimensions},
						{Key: "similarity", Value: "cosine"},
					}},
				}},
			}},
		},
		Options: options.SearchIndexes().SetName(name),
	}

	created, err := m.coll.SearchIndexes().CreateOne(ctx, model)
	if err != nil {
		return "", fmt.Errorf("creating search index %q: %w", name, err)
	}
	return created, nil
}
