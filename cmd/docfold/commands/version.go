package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/version"
)

// NewVersionCmd creates the version command that prints build information.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "docfold %s\n", version.Version)
			fmt.Fprintf(out, "  commit:     %s\n", version.Commit)
			fmt.Fprintf(out, "  built:      %s\n", version.BuildDate)
			fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
