// Package models defines the catalog entities persisted in the document
// store: learning roadmaps, quizzes, and resources.
//
// Documents carry the store's native ObjectID in _id; it marshals to a plain
// hex string in JSON, so callers outside the store only ever see a public id.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubTopic is a leaf item of a roadmap topic. Completed is toggled directly
// by the consumer.
type SubTopic struct {
	Name      string `bson:"name" json:"name"`
	Completed bool   `bson:"completed" json:"completed"`
}

// Topic groups subtopics under a roadmap. Completed is derived state: it is
// recomputed from the subtopics on every save and never trusted from a
// submitted document. See RecomputeCompletion.
type Topic struct {
	Name      string     `bson:"name" json:"name"`
	Subtopics []SubTopic `bson:"subtopics" json:"subtopics"`
	Completed bool       `bson:"completed" json:"completed"`
}

// Roadmap is a structured learning path.
type Roadmap struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Topics      []Topic            `bson:"topics" json:"topics"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Choice is one answer option of a quiz question.
type Choice struct {
	Text      string `bson:"text" json:"text"`
	IsCorrect bool   `bson:"is_correct" json:"is_correct"`
}

// Question is a single multiple-choice quiz question.
type Question struct {
	Text        string   `bson:"question" json:"question"`
	Choices     []Choice `bson:"choices" json:"choices"`
	Explanation string   `bson:"explanation" json:"explanation"`
}

// Quiz is a set of multiple-choice questions.
type Quiz struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Questions   []Question         `bson:"questions" json:"questions"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Resource is a learning material (video, article, code example, ...) with a
// dense embedding derived from Description + Name at the time of last write.
// A resource is never persisted without its embedding.
type Resource struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	Asset        string             `bson:"asset" json:"asset"` // URL or file path
	ResourceType string             `bson:"resource_type" json:"resource_type"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	Embedding    []float32          `bson:"embedding,omitempty" json:"-"`
}

// EmbeddingText returns the text a resource's embedding is derived from.
// The concatenation order (description first, then name) is part of the
// stored-vector contract: backfills must reproduce it exactly.
func (r *Resource) EmbeddingText() string {
	return r.Description + r.Name
}

// RecomputeCompletion derives every topic's Completed flag from its subtopics
// and returns the same roadmap. A topic is completed iff all of its subtopics
// are; a topic with no subtopics counts as completed. Whatever the submitted
// document claimed for Completed is discarded.
func RecomputeCompletion(r *Roadmap) *Roadmap {
	for i := range r.Topics {
		completed := true
		for _, st := range r.Topics[i].Subtopics {
			if !st.Completed {
				completed = false
				break
			}
		}
		r.Topics[i].Completed = completed
	}
	return r
}
