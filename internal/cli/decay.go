package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-palace/openpalace/internal/engine"
)

var decayThreshold float64

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Preview or run changelog archival",
}

var decayPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "List entries eligible for archival without archiving them",
	RunE:  runDecayPreview,
}

var decayRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Archive entries past max_age_days and below the temperature threshold",
	RunE:  runDecayRun,
}

func init() {
	for _, c := range []*cobra.Command{decayPreviewCmd, decayRunCmd} {
		c.Flags().Float64Var(&decayThreshold, "threshold", 0, "temperature threshold override (0 uses config default)")
	}
	decayCmd.AddCommand(decayPreviewCmd)
	decayCmd.AddCommand(decayRunCmd)
}

func thresholdPtr() *float64 {
	if decayThreshold == 0 {
		return nil
	}
	return &decayThreshold
}

func runDecayPreview(cmd *cobra.Command, args []string) error {
	e, err := engine.New(rootDir, time.Now)
	if err != nil {
		return fmt.Errorf("opening store at %s: %w", rootDir, err)
	}

	candidates, err := e.DecayPreview(thresholdPtr())
	if err != nil {
		return fmt.Errorf("previewing decay: %w", err)
	}
	if len(candidates) == 0 {
		fmt.Println("No entries currently eligible for archival.")
		return nil
	}
	for _, c := range candidates {
		fmt.Printf("%s  temp=%.3f  %s\n", c.Entry.ID, c.Breakdown.Temperature, c.Scope)
	}
	return nil
}

func runDecayRun(cmd *cobra.Command, args []string) error {
	e, err := engine.New(rootDir, time.Now)
	if err != nil {
		return fmt.Errorf("opening store at %s: %w", rootDir, err)
	}

	result, err := e.DecayRun(thresholdPtr())
	if err != nil {
		return fmt.Errorf("running decay: %w", err)
	}
	fmt.Printf("Archived %d entries.\n", result.ArchivedCount)
	return nil
}
