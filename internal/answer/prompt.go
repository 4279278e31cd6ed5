package answer

import (
	"fmt"
	"strings"
)

// NoContextAnswer is returned verbatim when retrieval finds no chunks for the
// owner. The generation model is never called in that case — an empty-context
// prompt would only invite hallucination.
const NoContextAnswer = "I couldn't find any relevant information in your documents to answer that question. Please try uploading more documents or rephrasing your question."

// RefusalPhrase is the fixed sentence the model is instructed to emit when
// the supplied context does not contain the answer. Whether the model honors
// it is a model-behavior contract — the pipeline returns the output verbatim
// either way.
const RefusalPhrase = "The provided documents do not contain enough information to answer this question."

// contextDelimiter separates chunk texts inside the prompt's context block:
// a horizontal rule of three dashes surrounded by blank lines.
const contextDelimiter = "\n\n---\n\n"

// systemPrompt establishes the grounding contract for every generation call.
const systemPrompt = `You are a document assistant. You answer questions strictly from the context excerpts the user provides.

Rules:
- Use ONLY the information in the context. Do not draw on outside knowledge.
- If the context does not contain the answer, reply with exactly: "` + RefusalPhrase + `"
- Be concise and quote figures and names exactly as they appear in the context.`

// userPromptTemplate carries the assembled context block and the question.
const userPromptTemplate = `Context from the user's documents:

%s

Question: %s`

// buildPrompt renders the user prompt from the context texts (in retrieval
// order) and the question. The texts are joined with contextDelimiter.
func buildPrompt(contexts []string, question string) string {
	return fmt.Sprintf(userPromptTemplate, strings.Join(contexts, contextDelimiter), question)
}
