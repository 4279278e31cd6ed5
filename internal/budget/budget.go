// Package budget provides token budget estimation and context trimming for
// the answer pipeline. Because docfold supports multiple LLM backends with
// different tokenizers, this package uses a conservative character-based
// heuristic: 1 token ≈ 4 characters (English prose). This deliberately
// under-estimates token counts to leave headroom for model-specific overhead.
package budget

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English text; using 3 would
	// be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models while leaving room
	// for the answer.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateTexts returns the estimated total token count for a slice of texts.
func EstimateTexts(texts []string) int {
	total := 0
	for _, t := range texts {
		total += Estimate(t)
	}
	return total
}

// TrimTexts drops trailing texts until the total estimated token count of
// reserved + texts fits within maxTokens. reserved is the token cost of the
// parts of the prompt that must not be trimmed (template, question).
//
// Earlier texts are kept because callers pass them in priority order. If even
// a single text exceeds the budget it is kept — the caller asked for at least
// that document, and the transport will reject it with a clearer error than a
// silently empty context would produce.
func TrimTexts(texts []string, reserved, maxTokens int) []string {
	if len(texts) <= 1 {
		return texts
	}

	for len(texts) > 1 {
		if reserved+EstimateTexts(texts) <= maxTokens {
			break
		}
		texts = texts[:len(texts)-1]
	}
	return texts
}
