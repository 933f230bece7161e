package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	opserver "github.com/open-palace/openpalace/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long:  "Start the MCP server, exposing every protocol operation as a tool over stdio.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	s, cleanup, err := opserver.New(rootDir)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	_ = ctx // stdio transport manages its own read loop lifecycle

	return server.ServeStdio(s)
}
