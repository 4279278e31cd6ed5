package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/extract"
	"github.com/docfold/docfold/internal/logging"
)

// NewExtractCmd creates the extract command that converts a document to text.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract plain text from a document and print it",
		Long: `Extract a document's text content without ingesting it.

Binary formats (PDF, DOCX, images) are converted via Gemini and require
GOOGLE_API_KEY. Useful for checking what ingestion would index.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			mediaType := extract.InferMediaType(filepath.Base(path))
			if isTextMedia(mediaType) {
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}

			extractor, err := extract.NewFromEnv(ctx)
			if err != nil {
				return err
			}

			text, err := extractor.Extract(ctx, data, mediaType)
			if err != nil {
				return fmt.Errorf("extract %s: %w", path, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	return cmd
}
