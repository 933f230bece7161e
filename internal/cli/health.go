package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-palace/openpalace/internal/engine"
	"github.com/open-palace/openpalace/internal/health"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run the store's consistency checks",
	Long:  "Run the same five consistency checks system_status('health') reports, printed for a human.",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	e, err := engine.New(rootDir, time.Now)
	if err != nil {
		return fmt.Errorf("opening store at %s: %w", rootDir, err)
	}

	result, err := e.SystemExecute(context.Background(), "health", nil)
	if err != nil {
		return fmt.Errorf("running health check: %w", err)
	}

	report, _ := result.Data.(health.Report)

	if report.Success {
		fmt.Println("openpalace health: OK")
		return nil
	}

	fmt.Println("openpalace health: issues found")
	for _, issue := range report.Issues {
		fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.Category, issue.Description)
	}
	return nil
}
