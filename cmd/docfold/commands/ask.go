package commands

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/answer"
	"github.com/docfold/docfold/internal/logging"
	"github.com/docfold/docfold/internal/provider"
	"github.com/docfold/docfold/internal/rag"
	"github.com/docfold/docfold/internal/tracing"
)

// NewAskCmd creates the ask command for one-shot questions from the terminal.
func NewAskCmd() *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question against an owner's ingested documents",
		Long: `Ask a single question and print the answer.

Retrieves the owner's most relevant chunks from Qdrant and forwards them
with the question to the configured model provider. Prints the fixed
fallback answer when no relevant context exists.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if handler, flush, ok := tracing.Setup(); ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
			}

			question := strings.Join(args, " ")

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return err
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return err
			}

			vectorStore, err := buildVectorStore(ctx)
			if err != nil {
				return err
			}
			defer vectorStore.Close()

			retriever, err := rag.NewRetriever(emb, vectorStore, answer.DefaultTopK)
			if err != nil {
				return err
			}

			answerer, err := answer.New(&answer.Config{
				ChatModel: chatModel,
				Retriever: retriever,
			})
			if err != nil {
				return err
			}

			result, err := answerer.Answer(ctx, ownerID, question)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner ID whose documents to search (required)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}
