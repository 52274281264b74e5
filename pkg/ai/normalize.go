package ai

import (
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"
)

// titlePunctuation lists the characters a title may not contain.
const titlePunctuation = "。．、,.!！?？"

// Normalize coerces an extracted object into a fully-populated Evaluation.
// Every field is validated on its own; a bad field falls back to its default
// without affecting the others. A missing object yields DegradedEvaluation.
func Normalize(object map[string]any, found bool) Evaluation {
	if !found || object == nil {
		return DegradedEvaluation()
	}

	return Evaluation{
		Score:   normalizeScore(object["score"]),
		Emotion: normalizeEmotion(object["emotion"]),
		Comment: normalizeComment(object["comment"]),
		Titles:  normalizeTitles(object["titles"]),
		Tags:    normalizeTags(object["tags"]),
	}
}

// NormalizeTitles projects only the titles field of an extracted object.
func NormalizeTitles(object map[string]any, found bool) []string {
	if !found || object == nil {
		return []string{}
	}
	return normalizeTitles(object["titles"])
}

func normalizeScore(value any) *int {
	var number float64
	switch v := value.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		number = parsed
	case float64:
		number = v
	default:
		return nil
	}
	if math.IsNaN(number) || math.IsInf(number, 0) || number != math.Trunc(number) {
		return nil
	}
	if number < ScoreMin || number > ScoreMax {
		return nil
	}
	score := int(number)
	return &score
}

func normalizeEmotion(value any) Emotion {
	text, ok := value.(string)
	if !ok {
		return EmotionLight
	}
	emotion := Emotion(text)
	if !emotion.Valid() {
		return EmotionLight
	}
	return emotion
}

func normalizeComment(value any) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func normalizeTitles(value any) []string {
	return filterStrings(value, MaxTitles, validTitle)
}

func normalizeTags(value any) []string {
	return filterStrings(value, MaxTags, func(string) bool { return true })
}

func validTitle(title string) bool {
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return false
	}
	return !strings.ContainsAny(title, titlePunctuation)
}

func filterStrings(value any, limit int, keep func(string) bool) []string {
	result := []string{}
	items, ok := value.([]any)
	if !ok {
		return result
	}

	for _, item := range items {
		if len(result) == limit {
			break
		}
		text, ok := item.(string)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" || !keep(text) {
			continue
		}
		result = append(result, text)
	}
	return result
}
