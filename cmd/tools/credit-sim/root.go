// cmd/tools/credit-sim/root.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/credit"
)

var (
	log      logger.Logger
	profiles credit.Profiles
)

var rootCmd = &cobra.Command{
	Use:   "credit-sim",
	Short: "Run the credit engine against JSON fixtures",
	Long: `Scores applicant fixtures offline with the same engine the workers use.

A fixture is a JSON object (or an array of objects) with the raw applicant
attributes accepted by check-eligibility, optionally extended with
creditScore, verificationStatus and payments for underwriting.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		zl, err := logger.New(level, "console")
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.ReplaceGlobals(zl)
		log = logger.NewZapAdapter(zl)

		ceiling, _ := cmd.Flags().GetFloat64("ceiling")
		profiles = credit.DefaultProfiles().WithCeiling(ceiling)
		if err := profiles.Validate(); err != nil {
			return fmt.Errorf("invalid profiles: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("log-level", "warn", "log level (debug, info, warn, error)")
	f.Float64("ceiling", 0, "platform loan ceiling in ETB (0 keeps the default)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
