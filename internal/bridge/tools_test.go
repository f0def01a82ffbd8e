package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorstack/tutorstack/internal/catalog"
	"github.com/tutorstack/tutorstack/internal/log"
	"github.com/tutorstack/tutorstack/internal/models"
)

// fakeCatalog implements Catalog in memory.
type fakeCatalog struct {
	roadmaps  []*models.Roadmap
	quizzes   []*models.Quiz
	resources []*models.Resource

	searchResults []models.Resource
	searchErr     error
	createErr     error
}

func (f *fakeCatalog) CreateRoadmap(_ context.Context, r *models.Roadmap) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.roadmaps = append(f.roadmaps, r)
	return fmt.Sprintf("roadmap-%d", len(f.roadmaps)), nil
}

func (f *fakeCatalog) CreateQuiz(_ context.Context, q *models.Quiz) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.quizzes = append(f.quizzes, q)
	return fmt.Sprintf("quiz-%d", len(f.quizzes)), nil
}

func (f *fakeCatalog) CreateResource(_ context.Context, r *models.Resource) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.resources = append(f.resources, r)
	return fmt.Sprintf("resource-%d", len(f.resources)), nil
}

func (f *fakeCatalog) SearchResources(_ context.Context, _ string, _ int) ([]models.Resource, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func newTestServer(t *testing.T, cat Catalog) *Server {
	t.Helper()
	s, err := NewServer(Config{
		Name:    "catalog",
		Version: "test",
		Catalog: cat,
		Logger:  log.NewNop(),
	})
	require.NoError(t, err)
	return s
}

// decodeResult unpacks the JSON text payload of a tool result.
func decodeResult(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "tool result content must be text")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(Config{Version: "test", Catalog: &fakeCatalog{}})
	assert.Error(t, err, "name is required")

	_, err = NewServer(Config{Name: "catalog", Catalog: &fakeCatalog{}})
	assert.Error(t, err, "version is required")

	_, err = NewServer(Config{Name: "catalog", Version: "test"})
	assert.Error(t, err, "catalog is required")
}

func TestCreateRoadmap(t *testing.T) {
	cat := &fakeCatalog{}
	s := newTestServer(t, cat)

	res, _, err := s.CreateRoadmap(context.Background(), nil, CreateRoadmapInput{
		Title:      "Intro",
		TopicsJSON: `[{"name":"T1","subtopics":[{"name":"S1"}]}]`,
	})
	require.NoError(t, err, "tool handlers never raise transport errors")

	payload := decodeResult(t, res)
	assert.NotEmpty(t, payload["roadmap_id"])

	require.Len(t, cat.roadmaps, 1)
	saved := cat.roadmaps[0]
	require.Len(t, saved.Topics, 1)
	assert.Equal(t, "T1", saved.Topics[0].Name)
	assert.False(t, saved.Topics[0].Completed)
	require.Len(t, saved.Topics[0].Subtopics, 1)
	assert.Equal(t, "S1", saved.Topics[0].Subtopics[0].Name)
	assert.False(t, saved.Topics[0].Subtopics[0].Completed)
}

func TestCreateRoadmap_MalformedJSON(t *testing.T) {
	cat := &fakeCatalog{}
	s := newTestServer(t, cat)

	res, _, err := s.CreateRoadmap(context.Background(), nil, CreateRoadmapInput{
		Title:      "Intro",
		TopicsJSON: `not json at all`,
	})
	require.NoError(t, err)

	payload := decodeResult(t, res)
	assert.Contains(t, payload["message"], "Failed to create roadmap")
	assert.Empty(t, cat.roadmaps, "validation failure must not mutate the store")
}

func TestCreateRoadmap_MissingTopicName(t *testing.T) {
	cat := &fakeCatalog{}
	s := newTestServer(t, cat)

	res, _, err := s.CreateRoadmap(context.Background(), nil, CreateRoadmapInput{
		Title:      "Intro",
		TopicsJSON: `[{"subtopics":[{"name":"S1"}]}]`,
	})
	require.NoError(t, err)

	payload := decodeResult(t, res)
	assert.Contains(t, payload["message"], "missing a name")
	assert.Empty(t, cat.roadmaps)
}

func TestCreateQuiz(t *testing.T) {
	cat := &fakeCatalog{}
	s := newTestServer(t, cat)

	res, _, err := s.CreateQuiz(context.Background(), nil, CreateQuizInput{
		Title: "Basics",
		QuestionsJSON: `[{
			"question": "What is a variable?",
			"choices": [
				{"text": "A container for values", "is_correct": true},
				{"text": "A loop", "is_correct": false}
			],
			"explanation": "Variables hold values."
		}]`,
	})
	require.NoError(t, err)

	payload := decodeResult(t, res)
	assert.NotEmpty(t, payload["quiz_id"])
	require.Len(t, cat.quizzes, 1)
	assert.Equal(t, "What is a variable?", cat.quizzes[0].Questions[0].Text)
}

func TestCreateQuiz_RejectsMultipleCorrectChoices(t *testing.T) {
	cat := &fakeCatalog{}
	s := newTestServer(t, cat)

	res, _, err := s.CreateQuiz(context.Background(), nil, CreateQuizInput{
		Title: "Basics",
		QuestionsJSON: `[{
			"question": "Pick one",
			"choices": [
				{"text": "A", "is_correct": true},
				{"text": "B", "is_correct": true}
			],
			"explanation": ""
		}]`,
	})
	require.NoError(t, err)

	payload := decodeResult(t, res)
	assert.Contains(t, payload["message"], "correct choices")
	assert.Empty(t, cat.quizzes)
}

func TestCreateResource(t *testing.T) {
	cat := &fakeCatalog{}
	s := newTestServer(t, cat)

	res, _, err := s.CreateResource(context.Background(), nil, CreateResourceInput{
		Name:         "Loops Tutorial",
		Description:  "Learn loops",
		Asset:        "https://example.com/loops",
		ResourceType: "video",
	})
	require.NoError(t, err)

	payload := decodeResult(t, res)
	assert.NotEmpty(t, payload["resource_id"])
	require.Len(t, cat.resources, 1)
}

func TestCreateResource_StoreFailureSoftFails(t *testing.T) {
	cat := &fakeCatalog{createErr: errors.New("store unavailable")}
	s := newTestServer(t, cat)

	res, _, err := s.CreateResource(context.Background(), nil, CreateResourceInput{
		Name:        "Loops Tutorial",
		Description: "Learn loops",
	})
	require.NoError(t, err, "store failures surface in the payload, not the transport")

	payload := decodeResult(t, res)
	assert.Contains(t, payload["message"], "Failed to create resource")
}

func TestSearchResources(t *testing.T) {
	cat := &fakeCatalog{
		searchResults: []models.Resource{
			{Name: "Loops", Description: "About loops", ResourceType: "video"},
			{Name: "Types", Description: "About types", ResourceType: "article"},
		},
	}
	s := newTestServer(t, cat)

	res, _, err := s.SearchResources(context.Background(), nil, SearchResourcesInput{
		Query: "python loops",
		Limit: 2,
	})
	require.NoError(t, err)

	payload := decodeResult(t, res)
	assert.Equal(t, "Found 2 relevant resources", payload["message"])

	data, ok := payload["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 2)

	first, ok := data[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Loops", first["name"])
	assert.NotContains(t, first, "created_at", "timestamps stay internal")
	assert.NotContains(t, first, "embedding")
}

func TestSearchResources_IndexUnreadySoftFails(t *testing.T) {
	// An unready index must produce a failure message, never an empty
	// success list.
	cat := &fakeCatalog{searchErr: fmt.Errorf("search: %w", catalog.ErrIndexUnready)}
	s := newTestServer(t, cat)

	res, _, err := s.SearchResources(context.Background(), nil, SearchResourcesInput{
		Query: "python loops",
		Limit: 2,
	})
	require.NoError(t, err)

	payload := decodeResult(t, res)
	assert.Contains(t, payload["message"], "Failed to search resources")
	assert.NotContains(t, payload, "data")
}
