package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/extract"
	"github.com/docfold/docfold/internal/ingestion"
	"github.com/docfold/docfold/internal/logging"
	"github.com/docfold/docfold/internal/store"
)

// NewIngestCmd creates the ingest command that indexes local files for an owner.
func NewIngestCmd() *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Chunk, embed, and index local documents for an owner",
		Long: `Ingest one or more local files into the vector store.

Each file is registered in the document catalog, split into fixed-size
chunks, embedded, and upserted into Qdrant under the given owner. Binary
formats (PDF, DOCX, images) are converted to text via Gemini first and
require GOOGLE_API_KEY; plain-text formats are ingested directly.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

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

			// Lazily constructed on the first binary file.
			var extractor *extract.Extractor

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}

				name := filepath.Base(path)
				mediaType := extract.InferMediaType(name)

				text := string(data)
				if !isTextMedia(mediaType) {
					if extractor == nil {
						extractor, err = extract.NewFromEnv(ctx)
						if err != nil {
							return fmt.Errorf("%s is %s and needs extraction: %w", name, mediaType, err)
						}
					}
					text, err = extractor.Extract(ctx, data, mediaType)
					if err != nil {
						return fmt.Errorf("extract %s: %w", name, err)
					}
				}

				doc := &store.Document{
					ID:        uuid.NewString(),
					OwnerID:   ownerID,
					Name:      name,
					MediaType: mediaType,
					Status:    store.StatusPending,
				}
				if err := registry.Create(ctx, doc); err != nil {
					return fmt.Errorf("register %s: %w", name, err)
				}

				count, err := pipeline.Ingest(ctx, ownerID, doc.ID, text)
				if err != nil {
					if serr := registry.SetStatus(ctx, ownerID, doc.ID, store.StatusFailed, 0); serr != nil {
						log.Warn("could not mark document failed", slog.String("document_id", doc.ID), slog.Any("error", serr))
					}
					return fmt.Errorf("ingest %s: %w", name, err)
				}
				if err := registry.SetStatus(ctx, ownerID, doc.ID, store.StatusIngested, count); err != nil {
					return fmt.Errorf("record ingestion of %s: %w", name, err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "ingested %s: %d chunks (document %s)\n", name, count, doc.ID)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner ID the documents belong to (required)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

// isTextMedia reports whether the media type can be ingested without
// extraction. Mirrors the server's upload handling.
func isTextMedia(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/") ||
		mediaType == "application/json" ||
		mediaType == "application/xml"
}
