package models

import (
	"time"

	"gorm.io/datatypes"
)

// Poem evaluation status values shown next to a saved poem.
const (
	PoemStatusEvaluated   = "evaluated"
	PoemStatusReEvaluated = "re-evaluated"
	PoemStatusKept        = "kept previous evaluation"
	PoemStatusUnavailable = "evaluation unavailable"
)

// Poem is a saved draft together with its latest evaluation.
type Poem struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	Title     string                      `gorm:"size:200" json:"title"`
	Body      string                      `gorm:"type:text;not null" json:"body"`
	Score     *int                        `json:"score"`
	Emotion   string                      `gorm:"size:16;not null;default:light" json:"emotion"`
	Comment   string                      `gorm:"type:text" json:"comment"`
	Tags      datatypes.JSONSlice[string] `json:"tags"`
	Titles    datatypes.JSONSlice[string] `json:"titles"`
	Provider  string                      `gorm:"size:32" json:"provider"`
	Status    string                      `gorm:"size:32;not null" json:"status"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}
