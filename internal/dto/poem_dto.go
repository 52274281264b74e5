package dto

import (
	"time"

	"github.com/noah-isme/gema-poem-api/internal/models"
	"github.com/noah-isme/gema-poem-api/pkg/ai"
)

// PoemRequest is the payload for evaluating, creating or updating a poem.
type PoemRequest struct {
	Title   string   `json:"title" validate:"max=200"`
	Poem    string   `json:"poem" validate:"required"`
	Emotion string   `json:"emotion" validate:"omitempty,oneof=auto warm cool dark light love sorrow growth"`
	Tags    []string `json:"tags" validate:"max=20,dive,max=64"`
}

// Draft converts the request into the gateway's draft.
func (r PoemRequest) Draft() ai.Draft {
	return ai.Draft{
		Title:       r.Title,
		Body:        r.Poem,
		EmotionHint: ai.Emotion(r.Emotion),
		PriorTags:   append([]string(nil), r.Tags...),
	}
}

// EvaluationResponse is the wire shape of an evaluation.
type EvaluationResponse struct {
	Score   *int     `json:"score"`
	Emotion string   `json:"emotion"`
	Comment string   `json:"comment"`
	Titles  []string `json:"titles"`
	Tags    []string `json:"tags"`
}

// NewEvaluationResponse converts a gateway evaluation into its wire shape.
func NewEvaluationResponse(evaluation ai.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		Score:   evaluation.Score,
		Emotion: string(evaluation.Emotion),
		Comment: evaluation.Comment,
		Titles:  nonNil(evaluation.Titles),
		Tags:    nonNil(evaluation.Tags),
	}
}

// TitlesResponse is the wire shape of title suggestions.
type TitlesResponse struct {
	Titles []string `json:"titles"`
}

// PoemResponse represents a saved poem to API consumers.
type PoemResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Poem      string    `json:"poem"`
	Score     *int      `json:"score"`
	Emotion   string    `json:"emotion"`
	Comment   string    `json:"comment"`
	Tags      []string  `json:"tags"`
	Status    string    `json:"status"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PoemSaveResponse is returned after a create or update.
type PoemSaveResponse struct {
	Poem            PoemResponse `json:"poem"`
	Evaluated       bool         `json:"evaluated"`
	DistanceRatio   float64      `json:"distance_ratio"`
	TitleCandidates []string     `json:"title_candidates"`
	Degraded        bool         `json:"-"`
}

// PoemListQuery captures list filters from the query string.
type PoemListQuery struct {
	Order string `query:"order" validate:"omitempty,oneof=asc desc"`
	Query string `query:"q" validate:"max=200"`
	Tag   string `query:"tag" validate:"max=64"`
}

// PoemListResponse wraps the poem list.
type PoemListResponse struct {
	Items    []PoemResponse `json:"items"`
	CacheHit bool           `json:"cache_hit"`
}

// NewPoemResponse builds a response DTO from a model.
func NewPoemResponse(poem models.Poem) PoemResponse {
	return PoemResponse{
		ID:        poem.ID,
		Title:     poem.Title,
		Poem:      poem.Body,
		Score:     poem.Score,
		Emotion:   poem.Emotion,
		Comment:   poem.Comment,
		Tags:      nonNil([]string(poem.Tags)),
		Status:    poem.Status,
		Provider:  poem.Provider,
		CreatedAt: poem.CreatedAt,
		UpdatedAt: poem.UpdatedAt,
	}
}

// NewPoemResponseSlice converts a list of models.
func NewPoemResponseSlice(poems []models.Poem) []PoemResponse {
	result := make([]PoemResponse, 0, len(poems))
	for _, poem := range poems {
		result = append(result, NewPoemResponse(poem))
	}
	return result
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
