// Package catalog is the authoritative store for roadmaps, quizzes, and
// resources, backed by a MongoDB database with an Atlas vector search index
// over the resources collection.
//
// The store owns all entity state: the tool bridge and any UI read through
// it, mutate through explicit calls, and hold no authoritative copies.
// Operations are independent, single-shot calls with no client-side locking;
// concurrent updates to the same entity are last-write-wins.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tutorstack/tutorstack/internal/models"
)

// Collection names within the catalog database.
const (
	RoadmapsCollection  = "roadmaps"
	QuizzesCollection   = "quizzes"
	ResourcesCollection = "resources"
)

// DefaultSearchLimit is applied when a caller requests a non-positive limit.
const DefaultSearchLimit = 2

// candidateMultiplier sizes the approximate-nearest-neighbor candidate pool
// relative to the requested limit. Over-fetching improves ranking quality
// before truncation; it is an ANN parameter, not an exact filter.
const candidateMultiplier = 10

// Embedder generates the dense vectors stored alongside resources.
// Interfaces are defined by the consumer; embedding.Generator satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IndexReadiness reports whether the resources vector index is queryable.
// vectorindex.Manager satisfies it.
type IndexReadiness interface {
	Ready(ctx context.Context) (bool, error)
}

// Store provides CRUD and similarity search over the three catalog
// collections. Construct one Store per process and inject it; module-level
// singletons re-initialize per caller and race.
type Store struct {
	db        *mongo.Database
	embedder  Embedder
	readiness IndexReadiness
	indexName string
	logger    *slog.Logger
}

// New creates a Store. indexName is the Atlas search index bound to the
// resources collection's embedding field; pass "" for the default
// "vector_index".
func New(db *mongo.Database, embedder Embedder, readiness IndexReadiness, indexName string, logger *slog.Logger) *Store {
	if indexName == "" {
		indexName = "vector_index"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:        db,
		embedder:  embedder,
		readiness: readiness,
		indexName: indexName,
		logger:    logger,
	}
}

// ---------------------------------------------------------------------------
// Roadmaps
// ---------------------------------------------------------------------------

// CreateRoadmap persists a roadmap and returns its new identifier.
// Topic completion flags are recomputed from leaf state before the write;
// client-claimed aggregates are never trusted.
func (s *Store) CreateRoadmap(ctx context.Context, r *models.Roadmap) (string, error) {
	models.RecomputeCompletion(r)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	res, err := s.db.Collection(RoadmapsCollection).InsertOne(ctx, r)
	if err != nil {
		return "", fmt.Errorf("inserting roadmap: %w", err)
	}

	id := res.InsertedID.(primitive.ObjectID)
	s.logger.Debug("created roadmap", "id", id.Hex(), "title", r.Title)
	return id.Hex(), nil
}

// GetRoadmap looks up a roadmap by its identifier.
func (s *Store) GetRoadmap(ctx context.Context, id string) (*models.Roadmap, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid roadmap id %q", ErrNotFound, id)
	}

	var r models.Roadmap
	err = s.db.Collection(RoadmapsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: roadmap %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("finding roadmap %q: %w", id, err)
	}
	return &r, nil
}

// GetRoadmapByTitle looks up a roadmap by its human-readable title. Titles
// are not unique at the store layer; under duplicates the returned document
// is unspecified.
func (s *Store) GetRoadmapByTitle(ctx context.Context, title string) (*models.Roadmap, error) {
	var r models.Roadmap
	err := s.db.Collection(RoadmapsCollection).FindOne(ctx, bson.M{"title": title}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: roadmap titled %q", ErrNotFound, title)
	}
	if err != nil {
		return nil, fmt.Errorf("finding roadmap titled %q: %w", title, err)
	}
	return &r, nil
}

// ListRoadmaps returns all roadmaps in unspecified order.
func (s *Store) ListRoadmaps(ctx context.Context) ([]models.Roadmap, error) {
	cur, err := s.db.Collection(RoadmapsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("listing roadmaps: %w", err)
	}

	var roadmaps []models.Roadmap
	if err := cur.All(ctx, &roadmaps); err != nil {
		return nil, fmt.Errorf("decoding roadmaps: %w", err)
	}
	return roadmaps, nil
}

// UpdateRoadmap replaces the mutable fields of an existing roadmap.
// It returns false (not an error) when no document matched the identifier.
// Topic completion is recomputed from subtopic state before the write.
func (s *Store) UpdateRoadmap(ctx context.Context, id string, r *models.Roadmap) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	models.RecomputeCompletion(r)

	res, err := s.db.Collection(RoadmapsCollection).UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"title":       r.Title,
			"description": r.Description,
			"topics":      r.Topics,
		},
	})
	if err != nil {
		return false, fmt.Errorf("updating roadmap %q: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

// ---------------------------------------------------------------------------
// Quizzes
// ---------------------------------------------------------------------------

// CreateQuiz persists a quiz and returns its new identifier.
// The store does not verify that each question has exactly one correct
// choice; the tool bridge validates that at creation time.
func (s *Store) CreateQuiz(ctx context.Context, q *models.Quiz) (string, error) {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}

	res, err := s.db.Collection(QuizzesCollection).InsertOne(ctx, q)
	if err != nil {
		return "", fmt.Errorf("inserting quiz: %w", err)
	}

	id := res.InsertedID.(primitive.ObjectID)
	s.logger.Debug("created quiz", "id", id.Hex(), "title", q.Title)
	return id.Hex(), nil
}

// GetQuiz looks up a quiz by its identifier.
func (s *Store) GetQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid quiz id %q", ErrNotFound, id)
	}

	var q models.Quiz
	err = s.db.Collection(QuizzesCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: quiz %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("finding quiz %q: %w", id, err)
	}
	return &q, nil
}

// GetQuizByTitle looks up a quiz by title. Not unique; see GetRoadmapByTitle.
func (s *Store) GetQuizByTitle(ctx context.Context, title string) (*models.Quiz, error) {
	var q models.Quiz
	err := s.db.Collection(QuizzesCollection).FindOne(ctx, bson.M{"title": title}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: quiz titled %q", ErrNotFound, title)
	}
	if err != nil {
		return nil, fmt.Errorf("finding quiz titled %q: %w", title, err)
	}
	return &q, nil
}

// ListQuizzes returns all quizzes ordered by creation date, newest first.
func (s *Store) ListQuizzes(ctx context.Context) ([]models.Quiz, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(QuizzesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing quizzes: %w", err)
	}

	var quizzes []models.Quiz
	if err := cur.All(ctx, &quizzes); err != nil {
		return nil, fmt.Errorf("decoding quizzes: %w", err)
	}
	return quizzes, nil
}

// UpdateQuiz replaces the mutable fields of an existing quiz. It returns
// false when no document matched the identifier.
func (s *Store) UpdateQuiz(ctx context.Context, id string, q *models.Quiz) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	res, err := s.db.Collection(QuizzesCollection).UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"title":       q.Title,
			"description": q.Description,
			"questions":   q.Questions,
		},
	})
	if err != nil {
		return false, fmt.Errorf("updating quiz %q: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

// CreateResource computes the resource's embedding and persists it, returning
// the new identifier. The write is aborted if embedding fails: a resource is
// never stored with a missing or partial vector.
func (s *Store) CreateResource(ctx context.Context, r *models.Resource) (string, error) {
	vec, err := s.embedder.Embed(ctx, r.EmbeddingText())
	if err != nil {
		return "", fmt.Errorf("embedding resource %q: %w", r.Name, err)
	}
	r.Embedding = vec

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	res, err := s.db.Collection(ResourcesCollection).InsertOne(ctx, r)
	if err != nil {
		return "", fmt.Errorf("inserting resource: %w", err)
	}

	id := res.InsertedID.(primitive.ObjectID)
	s.logger.Debug("created resource", "id", id.Hex(), "name", r.Name, "type", r.ResourceType)
	return id.Hex(), nil
}

// GetResource looks up a resource by its identifier.
func (s *Store) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resource id %q", ErrNotFound, id)
	}

	var r models.Resource
	err = s.db.Collection(ResourcesCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: resource %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("finding resource %q: %w", id, err)
	}
	return &r, nil
}

// GetResourceByName looks up a resource by its human-readable name. Names
// are not unique at the store layer; under duplicates the returned document
// is unspecified.
func (s *Store) GetResourceByName(ctx context.Context, name string) (*models.Resource, error) {
	var r models.Resource
	err := s.db.Collection(ResourcesCollection).FindOne(ctx, bson.M{"name": name}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: resource named %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("finding resource named %q: %w", name, err)
	}
	return &r, nil
}

// ListResources returns all resources in unspecified order.
func (s *Store) ListResources(ctx context.Context) ([]models.Resource, error) {
	cur, err := s.db.Collection(ResourcesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}

	var resources []models.Resource
	if err := cur.All(ctx, &resources); err != nil {
		return nil, fmt.Errorf("decoding resources: %w", err)
	}
	return resources, nil
}

// UpdateResource replaces the mutable fields of an existing resource and
// recomputes its embedding from the new description and name, keeping the
// stored vector derived from the latest write. It returns false when no
// document matched the identifier.
func (s *Store) UpdateResource(ctx context.Context, id string, r *models.Resource) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	vec, err := s.embedder.Embed(ctx, r.EmbeddingText())
	if err != nil {
		return false, fmt.Errorf("embedding resource %q: %w", r.Name, err)
	}

	res, err := s.db.Collection(ResourcesCollection).UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"name":          r.Name,
			"description":   r.Description,
			"asset":         r.Asset,
			"resource_type": r.ResourceType,
			"embedding":     vec,
		},
	})
	if err != nil {
		return false, fmt.Errorf("updating resource %q: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

// UpdateResourceEmbedding writes a recomputed embedding in place, leaving all
// other fields untouched. Used by the index manager's backfill.
func (s *Store) UpdateResourceEmbedding(ctx context.Context, id primitive.ObjectID, vec []float32) error {
	_, err := s.db.Collection(ResourcesCollection).UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"embedding": vec},
	})
	if err != nil {
		return fmt.Errorf("updating embedding for resource %q: %w", id.Hex(), err)
	}
	return nil
}

// SearchResources returns up to limit resources ranked by cosine similarity
// to the query, most similar first. A non-positive limit falls back to
// DefaultSearchLimit.
//
// The similarity score is used only for ordering and is never persisted or
// returned. If the vector index is absent or still building the search fails
// with ErrIndexUnready.
func (s *Store) SearchResources(ctx context.Context, query string, limit int) ([]models.Resource, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	// An Atlas $vectorSearch against a missing index yields an empty result
	// set rather than an error, so readiness is checked up front.
	ready, err := s.readiness.Ready(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking index readiness: %w", err)
	}
	if !ready {
		return nil, fmt.Errorf("%w: %q on %s.embedding", ErrIndexUnready, s.indexName, ResourcesCollection)
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.indexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: queryVec},
			{Key: "numCandidates", Value: limit * candidateMultiplier},
			{Key: "limit", Value: limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "name", Value: 1},
			{Key: "description", Value: 1},
			{Key: "asset", Value: 1},
			{Key: "resource_type", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cur, err := s.db.Collection(ResourcesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	var rows []scoredResource
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding search results: %w", err)
	}

	// Atlas returns rows in score-descending order; the score is dropped here
	// and only the plain records surface.
	resources := make([]models.Resource, 0, len(rows))
	for _, row := range rows {
		resources = append(resources, row.Resource)
	}

	s.logger.Debug("vector search completed", "query_length", len(query), "results", len(resources))
	return resources, nil
}

// scoredResource carries the projected similarity score alongside the entity
// during decoding. The score never leaves this package.
type scoredResource struct {
	models.Resource `bson:",inline"`
	Score           float64 `bson:"score"`
}
