package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-poem-api/internal/dto"
	"github.com/noah-isme/gema-poem-api/pkg/ai"
)

func TestEvaluationServiceEvaluate(t *testing.T) {
	evaluator := &evaluatorStub{evaluation: scoredEvaluation(90)}
	svc := NewEvaluationService(evaluator, resolverStub(ai.ProviderGemini), validator.New(), testLogger())

	result, err := svc.Evaluate(context.Background(), dto.PoemRequest{Poem: "frost on the window", Emotion: "auto"}, "")
	require.NoError(t, err)
	require.False(t, result.Degraded)
	require.Empty(t, result.Warning)
	require.Equal(t, ai.ProviderGemini, result.Provider)
	require.Equal(t, 90, *result.Evaluation.Score)
	require.Equal(t, "cool", result.Evaluation.Emotion)
	require.Equal(t, []string{"Frost", "Window"}, result.Evaluation.Titles)
}

func TestEvaluationServiceDegraded(t *testing.T) {
	evaluator := &evaluatorStub{err: &ai.ProviderCallError{Provider: ai.ProviderGPT, Err: errors.New("timeout")}}
	svc := NewEvaluationService(evaluator, resolverStub(ai.ProviderGemini), validator.New(), testLogger())

	result, err := svc.Evaluate(context.Background(), dto.PoemRequest{Poem: "frost"}, "gpt")
	require.NoError(t, err)
	require.True(t, result.Degraded)
	require.Equal(t, "gpt", result.Provider)
	require.Contains(t, result.Warning, "gpt")
	require.Nil(t, result.Evaluation.Score)
	require.Equal(t, "light", result.Evaluation.Emotion)
	require.Equal(t, []string{}, result.Evaluation.Titles)
	require.Equal(t, []string{}, result.Evaluation.Tags)
}

func TestEvaluationServicePreconditionAndValidation(t *testing.T) {
	evaluator := &evaluatorStub{}
	svc := NewEvaluationService(evaluator, nil, validator.New(), testLogger())

	_, err := svc.Evaluate(context.Background(), dto.PoemRequest{Poem: "\n\t"}, "")
	require.ErrorIs(t, err, ai.ErrPrecondition)

	_, err = svc.Evaluate(context.Background(), dto.PoemRequest{Poem: "frost", Emotion: "furious"}, "")
	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))

	_, err = svc.SuggestTitles(context.Background(), dto.PoemRequest{Poem: " "}, "")
	require.ErrorIs(t, err, ai.ErrPrecondition)
}

func TestEvaluationServiceSuggestTitles(t *testing.T) {
	evaluator := &evaluatorStub{titles: []string{"Frost"}}
	svc := NewEvaluationService(evaluator, nil, validator.New(), testLogger())

	result, err := svc.SuggestTitles(context.Background(), dto.PoemRequest{Poem: "frost"}, "gemini")
	require.NoError(t, err)
	require.Equal(t, []string{"Frost"}, result.Titles.Titles)
	require.Equal(t, "gemini", result.Provider)

	evaluator.err = ai.ErrProviderCallFailed
	result, err = svc.SuggestTitles(context.Background(), dto.PoemRequest{Poem: "frost"}, "")
	require.NoError(t, err)
	require.True(t, result.Degraded)
	require.Equal(t, []string{}, result.Titles.Titles)
	require.Equal(t, "no evaluation provider is configured", result.Warning)
}
