package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	opserver "github.com/open-palace/openpalace/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("openpalace %s\n", opserver.Version)
		fmt.Printf("  Go version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
