package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tutorstack/tutorstack/internal/models"
)

// Tool names advertised to the agent runtime.
const (
	ToolCreateRoadmap   = "create_roadmap"
	ToolCreateQuiz      = "create_quiz"
	ToolCreateResource  = "create_resource"
	ToolSearchResources = "search_resources"
)

// CreateRoadmapInput defines the create_roadmap parameters.
type CreateRoadmapInput struct {
	Title       string `json:"title" jsonschema:"Roadmap title"`
	Description string `json:"description" jsonschema:"Roadmap description"`
	TopicsJSON  string `json:"topics_json" jsonschema:"JSON array of topics: [{\"name\": string, \"subtopics\": [{\"name\": string}]}]"`
}

// CreateQuizInput defines the create_quiz parameters.
type CreateQuizInput struct {
	Title         string `json:"title" jsonschema:"Quiz title"`
	Description   string `json:"description" jsonschema:"Quiz description"`
	QuestionsJSON string `json:"questions_json" jsonschema:"JSON array of questions: [{\"question\": string, \"choices\": [{\"text\": string, \"is_correct\": bool}], \"explanation\": string}]"`
}

// CreateResourceInput defines the create_resource parameters.
type CreateResourceInput struct {
	Name         string `json:"name" jsonschema:"Resource name"`
	Description  string `json:"description" jsonschema:"Resource description, embedded for similarity search"`
	Asset        string `json:"asset" jsonschema:"URL or file path of the resource"`
	ResourceType string `json:"resource_type" jsonschema:"Free-form tag such as video, article, code_example"`
}

// SearchResourcesInput defines the search_resources parameters.
type SearchResourcesInput struct {
	Query string `json:"query" jsonschema:"Search query text"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 2)"`
}

// registerTools registers the four catalog tools on the MCP server.
func (s *Server) registerTools() error {
	roadmapSchema, err := jsonschema.For[CreateRoadmapInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolCreateRoadmap, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolCreateRoadmap,
		Description: "Create a new learning roadmap with nested topics and subtopics. " +
			"All completion flags start false.",
		InputSchema: roadmapSchema,
	}, s.CreateRoadmap)

	quizSchema, err := jsonschema.For[CreateQuizInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolCreateQuiz, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolCreateQuiz,
		Description: "Create a new multiple-choice quiz. Each question needs exactly one " +
			"correct choice and an explanation.",
		InputSchema: quizSchema,
	}, s.CreateQuiz)

	resourceSchema, err := jsonschema.For[CreateResourceInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolCreateResource, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolCreateResource,
		Description: "Create a new learning resource (video, article, code example). " +
			"Its embedding is computed automatically for similarity search.",
		InputSchema: resourceSchema,
	}, s.CreateResource)

	searchSchema, err := jsonschema.For[SearchResourcesInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolSearchResources, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolSearchResources,
		Description: "Search learning resources by semantic similarity to a query. " +
			"Returns the closest matches in relevance order.",
		InputSchema: searchSchema,
	}, s.SearchResources)

	return nil
}

// CreateRoadmap handles the create_roadmap tool call.
func (s *Server) CreateRoadmap(ctx context.Context, _ *mcp.CallToolRequest, in CreateRoadmapInput) (*mcp.CallToolResult, any, error) {
	logger := s.logger.With("tool", ToolCreateRoadmap, "request_id", uuid.NewString())

	topics, err := parseTopics(in.TopicsJSON)
	if err != nil {
		logger.Warn("rejected roadmap payload", "error", err)
		return softFail("Failed to create roadmap: %v", err), nil, nil
	}

	id, err := s.catalog.CreateRoadmap(ctx, &models.Roadmap{
		Title:       in.Title,
		Description: in.Description,
		Topics:      topics,
	})
	if err != nil {
		logger.Error("creating roadmap", "error", err)
		return softFail("Failed to create roadmap: %v", err), nil, nil
	}

	logger.Info("created roadmap", "roadmap_id", id, "topics", len(topics))
	return jsonResult(map[string]string{"roadmap_id": id}), nil, nil
}

// CreateQuiz handles the create_quiz tool call.
func (s *Server) CreateQuiz(ctx context.Context, _ *mcp.CallToolRequest, in CreateQuizInput) (*mcp.CallToolResult, any, error) {
	logger := s.logger.With("tool", ToolCreateQuiz, "request_id", uuid.NewString())

	questions, err := parseQuestions(in.QuestionsJSON)
	if err != nil {
		logger.Warn("rejected quiz payload", "error", err)
		return softFail("Failed to create quiz: %v", err), nil, nil
	}

	id, err := s.catalog.CreateQuiz(ctx, &models.Quiz{
		Title:       in.Title,
		Description: in.Description,
		Questions:   questions,
	})
	if err != nil {
		logger.Error("creating quiz", "error", err)
		return softFail("Failed to create quiz: %v", err), nil, nil
	}

	logger.Info("created quiz", "quiz_id", id, "questions", len(questions))
	return jsonResult(map[string]string{"quiz_id": id}), nil, nil
}

// CreateResource handles the create_resource tool call.
func (s *Server) CreateResource(ctx context.Context, _ *mcp.CallToolRequest, in CreateResourceInput) (*mcp.CallToolResult, any, error) {
	logger := s.logger.With("tool", ToolCreateResource, "request_id", uuid.NewString())

	if in.Name == "" {
		return softFail("Failed to create resource: name is required"), nil, nil
	}
	if in.Description == "" {
		return softFail("Failed to create resource: description is required"), nil, nil
	}

	id, err := s.catalog.CreateResource(ctx, &models.Resource{
		Name:         in.Name,
		Description:  in.Description,
		Asset:        in.Asset,
		ResourceType: in.ResourceType,
	})
	if err != nil {
		logger.Error("creating resource", "error", err)
		return softFail("Failed to create resource: %v", err), nil, nil
	}

	logger.Info("created resource", "resource_id", id)
	return jsonResult(map[string]string{"resource_id": id}), nil, nil
}

// SearchResources handles the search_resources tool call.
func (s *Server) SearchResources(ctx context.Context, _ *mcp.CallToolRequest, in SearchResourcesInput) (*mcp.CallToolResult, any, error) {
	logger := s.logger.With("tool", ToolSearchResources, "request_id", uuid.NewString())

	resources, err := s.catalog.SearchResources(ctx, in.Query, in.Limit)
	if err != nil {
		logger.Warn("search failed", "error", err)
		return softFail("Failed to search resources: %v", err), nil, nil
	}

	payload := make([]resourcePayload, 0, len(resources))
	for _, r := range resources {
		payload = append(payload, resourcePayload{
			ID:           r.ID.Hex(),
			Name:         r.Name,
			Description:  r.Description,
			Asset:        r.Asset,
			ResourceType: r.ResourceType,
		})
	}

	logger.Info("search completed", "results", len(payload))
	return jsonResult(map[string]any{
		"message": fmt.Sprintf("Found %d relevant resources", len(payload)),
		"data":    payload,
	}), nil, nil
}

// resourcePayload is the agent-facing projection of a resource. Timestamps
// and embeddings stay internal.
type resourcePayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Asset        string `json:"asset"`
	ResourceType string `json:"resource_type"`
}

// parseTopics validates and converts the topics_json payload. All completion
// flags are initialized false regardless of the payload.
func parseTopics(topicsJSON string) ([]models.Topic, error) {
	var payload []struct {
		Name      string `json:"name"`
		Subtopics []struct {
			Name string `json:"name"`
		} `json:"subtopics"`
	}
	if err := json.Unmarshal([]byte(topicsJSON), &payload); err != nil {
		return nil, fmt.Errorf("topics_json is not a valid JSON array: %w", err)
	}

	topics := make([]models.Topic, 0, len(payload))
	for i, t := range payload {
		if t.Name == "" {
			return nil, fmt.Errorf("topic %d is missing a name", i)
		}
		subtopics := make([]models.SubTopic, 0, len(t.Subtopics))
		for j, st := range t.Subtopics {
			if st.Name == "" {
				return nil, fmt.Errorf("topic %d subtopic %d is missing a name", i, j)
			}
			subtopics = append(subtopics, models.SubTopic{Name: st.Name, Completed: false})
		}
		topics = append(topics, models.Topic{Name: t.Name, Subtopics: subtopics, Completed: false})
	}
	return topics, nil
}

// parseQuestions validates and converts the questions_json payload. Each
// question must have exactly one correct choice; the store itself does not
// enforce that invariant, so it is checked here before any mutation.
func parseQuestions(questionsJSON string) ([]models.Question, error) {
	var payload []struct {
		Question string `json:"question"`
		Choices  []struct {
			Text      string `json:"text"`
			IsCorrect bool   `json:"is_correct"`
		} `json:"choices"`
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(questionsJSON), &payload); err != nil {
		return nil, fmt.Errorf("questions_json is not a valid JSON array: %w", err)
	}

	questions := make([]models.Question, 0, len(payload))
	for i, q := range payload {
		if q.Question == "" {
			return nil, fmt.Errorf("question %d is missing its text", i)
		}
		if len(q.Choices) == 0 {
			return nil, fmt.Errorf("question %d has no choices", i)
		}

		correct := 0
		choices := make([]models.Choice, 0, len(q.Choices))
		for _, c := range q.Choices {
			if c.IsCorrect {
				correct++
			}
			choices = append(choices, models.Choice{Text: c.Text, IsCorrect: c.IsCorrect})
		}
		if correct != 1 {
			return nil, fmt.Errorf("question %d has %d correct choices, want exactly 1", i, correct)
		}

		questions = append(questions, models.Question{
			Text:        q.Question,
			Choices:     choices,
			Explanation: q.Explanation,
		})
	}
	return questions, nil
}

// softFail builds the uniform failure reply: a well-formed result whose
// payload carries a failure-describing message. IsError stays false so the
// transport reports success; the agent reads the message.
func softFail(format string, args ...any) *mcp.CallToolResult {
	b, err := json.Marshal(map[string]string{
		"message": fmt.Sprintf(format, args...),
	})
	if err != nil {
		// Marshaling a map[string]string cannot realistically fail; keep the
		// contract anyway.
		b = []byte(`{"message": "internal error"}`)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

// jsonResult marshals data into a successful text result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.Marshal(data)
	if err != nil {
		return softFail("Failed to encode result: %v", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}
