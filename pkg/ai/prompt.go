package ai

import (
	"strings"
)

const systemInstruction = "You are an editor of contemporary Japanese poetry. Do not explain the poem; leave only its afterglow in words."

// BuildRequest renders the provider-agnostic request for a draft. The body must
// be non-empty; everything else is optional context.
func BuildRequest(task Task, draft Draft, descriptor ProviderDescriptor) (Request, error) {
	if strings.TrimSpace(draft.Body) == "" {
		return Request{}, ErrPrecondition
	}

	var prompt string
	switch task {
	case TaskTitles:
		prompt = buildTitlePrompt(draft)
	default:
		task = TaskEvaluate
		prompt = buildEvaluationPrompt(draft)
	}

	return Request{
		Task:       task,
		System:     systemInstruction,
		Prompt:     prompt,
		Generation: descriptor.Generation,
	}, nil
}

func buildEvaluationPrompt(draft Draft) string {
	builder := strings.Builder{}
	builder.WriteString("Read the poem and return the lingering impression it leaves, not an analysis.\n\n")
	builder.WriteString("## Output\n")
	builder.WriteString("Return only a JSON object:\n")
	builder.WriteString(`{"score": integer 0-100, "emotion": "warm | cool | dark | light | love | sorrow | growth", `)
	builder.WriteString(`"comment": "2-4 short sentences", "titles": ["up to 4 titles, 20 characters max, no punctuation"], `)
	builder.WriteString(`"tags": ["3-5 sensory nouns"]}`)
	builder.WriteString("\n")
	writeContext(&builder, draft)
	builder.WriteString("\n## Poem\n")
	builder.WriteString(draft.Body)
	return builder.String()
}

func buildTitlePrompt(draft Draft) string {
	builder := strings.Builder{}
	builder.WriteString("Give the poem a title. Do not explain it, do not name emotions directly, ")
	builder.WriteString("20 characters max, no symbols or full stops, prefer nouns.\n\n")
	builder.WriteString("## Output\n")
	builder.WriteString(`Return only a JSON object: {"titles": ["quietest", "most rhythmic", "most visual"]}`)
	builder.WriteString("\n")
	writeContext(&builder, draft)
	builder.WriteString("\n## Poem\n")
	builder.WriteString(draft.Body)
	return builder.String()
}

func writeContext(builder *strings.Builder, draft Draft) {
	title := strings.TrimSpace(draft.Title)
	hint := draft.EmotionHint.Valid()
	tags := nonEmpty(draft.PriorTags)
	if title == "" && !hint && len(tags) == 0 {
		return
	}

	builder.WriteString("\n## Context\n")
	if title != "" {
		builder.WriteString("Current title: ")
		builder.WriteString(title)
		builder.WriteString("\n")
	}
	if hint {
		builder.WriteString("Author's emotion hint: ")
		builder.WriteString(string(draft.EmotionHint))
		builder.WriteString("\n")
	}
	if len(tags) > 0 {
		builder.WriteString("Existing tags: ")
		builder.WriteString(strings.Join(tags, ", "))
		builder.WriteString("\n")
	}
}

func nonEmpty(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
