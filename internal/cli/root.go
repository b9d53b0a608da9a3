package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "voxgate",
	Short: "Deterministic decision gate for voice and multimodal front-ends",
	Long: "Turns transcribed input into exactly one auditable decision per event:\n" +
		"intent extraction, mode tracking, risk-tiered safety policy, reference\n" +
		"memory, and confirmation handling. Execution stays with the host.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
