package ai

import (
	"context"
	"time"
)

// Emotion is the mood label attached to an evaluated poem.
type Emotion string

// Supported emotions. Anything else normalises to EmotionLight.
const (
	EmotionWarm   Emotion = "warm"
	EmotionCool   Emotion = "cool"
	EmotionDark   Emotion = "dark"
	EmotionLight  Emotion = "light"
	EmotionLove   Emotion = "love"
	EmotionSorrow Emotion = "sorrow"
	EmotionGrowth Emotion = "growth"
)

var emotions = map[Emotion]struct{}{
	EmotionWarm:   {},
	EmotionCool:   {},
	EmotionDark:   {},
	EmotionLight:  {},
	EmotionLove:   {},
	EmotionSorrow: {},
	EmotionGrowth: {},
}

// Valid reports whether e is one of the supported emotions.
func (e Emotion) Valid() bool {
	_, ok := emotions[e]
	return ok
}

// Field limits for a normalised evaluation.
const (
	MaxTitles      = 4
	MaxTitleLength = 20
	MaxTags        = 5
	ScoreMin       = 0
	ScoreMax       = 100
)

// Evaluation is the canonical critique record. It is always fully populated.
type Evaluation struct {
	Score   *int     `json:"score"`
	Emotion Emotion  `json:"emotion"`
	Comment string   `json:"comment"`
	Titles  []string `json:"titles"`
	Tags    []string `json:"tags"`
}

// DegradedEvaluation returns the all-defaults record used whenever the
// pipeline cannot produce a real result.
func DegradedEvaluation() Evaluation {
	return Evaluation{
		Score:   nil,
		Emotion: EmotionLight,
		Comment: "",
		Titles:  []string{},
		Tags:    []string{},
	}
}

// Draft is the caller-owned text submitted for critique.
type Draft struct {
	Title       string
	Body        string
	EmotionHint Emotion
	PriorTags   []string
}

// GenerationParams carries the sampling and safety knobs for one provider.
type GenerationParams struct {
	Temperature     float32
	MaxOutputTokens int
	JSONOutput      bool
	// SafetyThreshold is applied to every harm category the backend supports.
	// Empty means the backend default.
	SafetyThreshold string
}

// EndpointConfig identifies the backend a provider talks to.
type EndpointConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// ProviderDescriptor is the static configuration of one backend.
type ProviderDescriptor struct {
	ID         string
	Endpoint   EndpointConfig
	Generation GenerationParams
}

// Task selects which template the prompt builder renders.
type Task string

const (
	TaskEvaluate Task = "evaluate"
	TaskTitles   Task = "titles"
)

// Request is the provider-agnostic payload handed to a ProviderClient.
type Request struct {
	Task       Task
	System     string
	Prompt     string
	Generation GenerationParams
}

// ReEvaluationDecision is the result of comparing two snapshots of a poem body.
type ReEvaluationDecision struct {
	Needed        bool    `json:"needed"`
	DistanceRatio float64 `json:"distance_ratio"`
}

// Evaluator is the surface the hosting service depends on.
type Evaluator interface {
	Evaluate(ctx context.Context, draft Draft, preference string) (Evaluation, error)
	SuggestTitles(ctx context.Context, draft Draft, preference string) ([]string, error)
}

// GatewayConfig configures the gateway facade.
type GatewayConfig struct {
	DefaultProvider string
	Timeout         time.Duration
}
