package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/answer"
	"github.com/docfold/docfold/internal/extract"
	"github.com/docfold/docfold/internal/ingestion"
	"github.com/docfold/docfold/internal/logging"
	"github.com/docfold/docfold/internal/provider"
	"github.com/docfold/docfold/internal/rag"
	"github.com/docfold/docfold/internal/server"
	"github.com/docfold/docfold/internal/tracing"
)

// NewServeCmd creates the serve command that runs the docfold HTTP server.
func NewServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the docfold HTTP server",
		Long: `Start the HTTP server exposing the document and chat API.

Endpoints:
  POST   /api/documents        upload and ingest a document
  GET    /api/documents        list an owner's documents
  DELETE /api/documents/{id}   delete a document and its chunks
  POST   /api/chat             ask a question against an owner's documents
  GET    /api/health           liveness probe
  GET    /api/ready            readiness probe (checks Qdrant and the registry)
  GET    /metrics              Prometheus metrics

Set DOCFOLD_API_KEY to require Bearer authentication on the /api routes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Optional Langfuse tracing on the generation path.
			if handler, flush, ok := tracing.Setup(); ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			}

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

			registry, err := buildRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			pipeline, err := ingestion.NewPipeline(emb, vectorStore, nil)
			if err != nil {
				return err
			}

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

			deps := &server.Dependencies{
				Ingestor: pipeline,
				Answerer: answerer,
				Purger:   vectorStore,
				Registry: registry,
			}

			// Extraction is optional: without a Gemini key the server still
			// runs, restricted to plain-text uploads.
			if os.Getenv("GOOGLE_API_KEY") != "" {
				extractor, err := extract.NewFromEnv(ctx)
				if err != nil {
					return err
				}
				deps.Extractor = extractor
			} else {
				log.Warn("GOOGLE_API_KEY not set, binary document extraction disabled")
			}

			srv, err := server.New(deps, &server.Config{
				Host:   host,
				Port:   port,
				Logger: log,
				APIKey: os.Getenv("DOCFOLD_API_KEY"),
				Pingers: []server.Pinger{
					server.NewVectorStorePinger(vectorStore),
					server.NewRegistryPinger(registry),
				},
			})
			if err != nil {
				return err
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", getEnvOrDefault("SERVER_HOST", "127.0.0.1"), "Address to bind the server to")
	cmd.Flags().IntVar(&port, "port", getEnvInt("SERVER_PORT", 8085), "Port to listen on")

	return cmd
}
