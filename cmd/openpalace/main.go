// openpalace: a local, version-controlled memory store for autonomous
// agents, exposed over MCP.
//
// Usage:
//
//	openpalace serve            # Start the MCP server (stdio transport)
//	openpalace health           # Run consistency checks
//	openpalace decay preview    # List archival candidates
//	openpalace decay run        # Archive them
//	openpalace version          # Print version information
package main

import (
	"fmt"
	"os"

	"github.com/open-palace/openpalace/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
