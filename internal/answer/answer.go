// Package answer implements the query half of the docfold pipeline: assemble
// a context block for an owner's question and forward a composed prompt to
// the generation model. Context assembly has two strategies behind the
// ContextProvider interface — retrieval-backed (default) and direct
// caller-supplied texts (opt-in) — which differ only in how the context is
// produced; both end in the same generation call.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/docfold/docfold/internal/budget"
	"github.com/docfold/docfold/internal/logging"
	"github.com/docfold/docfold/internal/rag"
)

// DefaultTopK is the number of chunks retrieved per question when the
// Answerer is constructed without an explicit value.
const DefaultTopK = 5

// chatModel is the slice of the eino model interface the Answerer needs.
// Production code passes the provider-constructed chat model; tests inject
// a fake.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ContextProvider assembles the context texts for one question. The returned
// slice is in priority order: most relevant (or first-supplied) text first.
type ContextProvider interface {
	// Assemble returns the context texts for the owner's question.
	// An empty slice means no relevant context exists.
	Assemble(ctx context.Context, ownerID, question string) ([]string, error)
}

// RetrievalContext is the default, authoritative ContextProvider: an
// owner-filtered similarity search capped at topK chunks.
type RetrievalContext struct {
	// retriever performs the owner-scoped vector search.
	retriever rag.Retriever

	// topK caps the number of retrieved chunks.
	topK int
}

// NewRetrievalContext constructs a RetrievalContext. topK defaults to
// DefaultTopK if zero.
func NewRetrievalContext(retriever rag.Retriever, topK int) (*RetrievalContext, error) {
	if retriever == nil {
		return nil, fmt.Errorf("answer: retriever must not be nil")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RetrievalContext{retriever: retriever, topK: topK}, nil
}

// Assemble retrieves the owner's topK most relevant chunks and returns their
// texts in retrieval order. No re-ranking is applied.
func (r *RetrievalContext) Assemble(ctx context.Context, ownerID, question string) ([]string, error) {
	chunks, err := r.retriever.Retrieve(ctx, ownerID, question, r.topK)
	if err != nil {
		return nil, fmt.Errorf("answer: retrieval failed: %w", err)
	}

	texts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		if strings.TrimSpace(ch.Text) == "" {
			continue
		}
		texts = append(texts, ch.Text)
	}
	return texts, nil
}

// DirectContext is the opt-in ContextProvider for caller-supplied document
// texts: no retrieval is performed. Unlike the retrieval strategy it has no
// natural size cap, so the texts are trimmed to a token budget before use.
type DirectContext struct {
	// texts are the caller-supplied document texts, in priority order.
	texts []string

	// maxTokens is the context token budget applied by Assemble.
	maxTokens int
}

// NewDirectContext constructs a DirectContext over the given texts.
// maxTokens defaults to budget.DefaultMaxContextTokens if zero.
func NewDirectContext(texts []string, maxTokens int) *DirectContext {
	if maxTokens <= 0 {
		maxTokens = budget.DefaultMaxContextTokens
	}
	return &DirectContext{texts: texts, maxTokens: maxTokens}
}

// Assemble returns the supplied texts trimmed to the token budget. Blank
// texts are dropped; the owner and question are not consulted.
func (d *DirectContext) Assemble(ctx context.Context, _, question string) ([]string, error) {
	texts := make([]string, 0, len(d.texts))
	for _, t := range d.texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		texts = append(texts, t)
	}

	reserved := budget.Estimate(systemPrompt) + budget.Estimate(question)
	trimmed := budget.TrimTexts(texts, reserved, d.maxTokens)
	if dropped := len(texts) - len(trimmed); dropped > 0 {
		logging.FromContext(ctx).Warn("answer: dropped direct context texts to fit token budget",
			slog.Int("dropped", dropped),
			slog.Int("retained", len(trimmed)),
			slog.Int("max_tokens", d.maxTokens),
		)
	}
	return trimmed, nil
}

// Config holds the dependencies required to construct an Answerer.
type Config struct {
	// ChatModel is the generation model constructed by the provider factory.
	ChatModel model.ToolCallingChatModel

	// Retriever is the owner-scoped chunk retriever backing the default
	// context strategy.
	Retriever rag.Retriever

	// TopK caps retrieval per question. Defaults to DefaultTopK if zero.
	TopK int
}

// Answerer composes prompts from assembled context and forwards them to the
// generation model. The model's raw text output is returned verbatim.
type Answerer struct {
	// model is the generation backend.
	model chatModel

	// retrieval is the default context strategy.
	retrieval *RetrievalContext
}

// New constructs an Answerer from the provided Config.
func New(cfg *Config) (*Answerer, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("answer: ChatModel must not be nil")
	}
	retrieval, err := NewRetrievalContext(cfg.Retriever, cfg.TopK)
	if err != nil {
		return nil, err
	}
	return &Answerer{model: cfg.ChatModel, retrieval: retrieval}, nil
}

// Answer resolves the owner's question using the default retrieval-backed
// context strategy. When retrieval yields no chunks the fixed NoContextAnswer
// is returned and the generation model is not called.
func (a *Answerer) Answer(ctx context.Context, ownerID, question string) (string, error) {
	return a.answerWith(ctx, a.retrieval, ownerID, question)
}

// AnswerWithDocuments resolves the question against caller-supplied document
// texts, bypassing retrieval entirely. This is the explicit opt-in strategy;
// its cost profile differs sharply from Answer when documents are large.
func (a *Answerer) AnswerWithDocuments(ctx context.Context, ownerID, question string, docs []string) (string, error) {
	return a.answerWith(ctx, NewDirectContext(docs, 0), ownerID, question)
}

// answerWith runs the shared assemble → short-circuit → generate flow.
func (a *Answerer) answerWith(ctx context.Context, provider ContextProvider, ownerID, question string) (string, error) {
	if question == "" {
		return "", fmt.Errorf("answer: question must not be empty")
	}

	contexts, err := provider.Assemble(ctx, ownerID, question)
	if err != nil {
		return "", err
	}

	if len(contexts) == 0 {
		logging.FromContext(ctx).Info("answer: no context found, returning fallback",
			slog.String("owner_id", ownerID),
		)
		return NoContextAnswer, nil
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(buildPrompt(contexts, question)),
	}

	resp, err := a.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("answer: generation failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("answer: generation returned nil response")
	}

	return resp.Content, nil
}
