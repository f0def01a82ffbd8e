package models

import (
	"encoding/json"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecomputeCompletion_MixedSubtopics(t *testing.T) {
	// The submitted document claims the topic is completed. One subtopic is
	// not, so the save must recompute it to false.
	r := &Roadmap{
		Title: "Python Basics",
		Topics: []Topic{
			{
				Name:      "Fundamentals",
				Completed: true,
				Subtopics: []SubTopic{
					{Name: "Variables", Completed: true},
					{Name: "Control Flow", Completed: false},
				},
			},
		},
	}

	RecomputeCompletion(r)

	if r.Topics[0].Completed {
		t.Error("topic with an incomplete subtopic must not be completed")
	}
}

func TestRecomputeCompletion_AllComplete(t *testing.T) {
	r := &Roadmap{
		Topics: []Topic{
			{
				Name:      "Fundamentals",
				Completed: false,
				Subtopics: []SubTopic{
					{Name: "Variables", Completed: true},
					{Name: "Control Flow", Completed: true},
				},
			},
		},
	}

	RecomputeCompletion(r)

	if !r.Topics[0].Completed {
		t.Error("topic with all subtopics completed must be completed")
	}
}

func TestRecomputeCompletion_EmptySubtopics(t *testing.T) {
	r := &Roadmap{Topics: []Topic{{Name: "Empty"}}}

	RecomputeCompletion(r)

	if !r.Topics[0].Completed {
		t.Error("topic without subtopics counts as completed")
	}
}

func TestRecomputeCompletion_IndependentTopics(t *testing.T) {
	r := &Roadmap{
		Topics: []Topic{
			{Name: "Done", Subtopics: []SubTopic{{Name: "A", Completed: true}}},
			{Name: "Open", Subtopics: []SubTopic{{Name: "B", Completed: false}}},
		},
	}

	RecomputeCompletion(r)

	if !r.Topics[0].Completed {
		t.Error("first topic should be completed")
	}
	if r.Topics[1].Completed {
		t.Error("second topic should not be completed")
	}
}

func TestResource_EmbeddingText(t *testing.T) {
	r := &Resource{Name: "Loops Tutorial", Description: "Learn about loops. "}

	got := r.EmbeddingText()
	want := "Learn about loops. Loops Tutorial"
	if got != want {
		t.Errorf("EmbeddingText() = %q, want %q", got, want)
	}
}

func TestResource_JSONHidesEmbedding(t *testing.T) {
	r := Resource{
		ID:        primitive.NewObjectID(),
		Name:      "Loops",
		Embedding: []float32{0.1, 0.2},
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	s := string(b)
	if strings.Contains(s, "embedding") {
		t.Errorf("embedding must not appear in JSON output: %s", s)
	}
	// ObjectID serializes as a plain hex string under the public id key.
	if !strings.Contains(s, `"id":"`+r.ID.Hex()+`"`) {
		t.Errorf("expected public hex id in JSON output: %s", s)
	}
}
