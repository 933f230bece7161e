// Package cli implements the openpalace command-line entry points: serve
// for the MCP stdio server, plus a handful of operator commands (health,
// decay, version) that exercise the engine without going through MCP.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "openpalace",
	Short: "A local, version-controlled memory store for autonomous agents",
	Long: `openpalace is a local, single-process memory store for autonomous
agents, exposed to AI coding tools over MCP. It persists entities,
components, changelog history, scratch notes, a working-state snapshot,
and relationships as plain files under a version-controlled workspace.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".openpalace", "workspace directory")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(versionCmd)
}
