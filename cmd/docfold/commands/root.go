// Package commands defines all Cobra CLI commands for the docfold binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/audit"
	"github.com/docfold/docfold/internal/config"
	"github.com/docfold/docfold/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docfold",
		Short: "docfold — chat with your documents",
		Long: `docfold is a retrieval-augmented document chat backend.

Upload documents per owner, and docfold chunks, embeds, and indexes them in
Qdrant. Questions are answered by an LLM grounded strictly in the owner's own
documents.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.docfold/config.yaml).
See 'docfold --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load .env from the working directory if present. Real env vars
			// still win over both .env and YAML values.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.docfold/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewExtractCmd(),
		NewVersionCmd(),
	)

	return root
}
