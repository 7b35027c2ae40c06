// Package cli wires the eleven pipeline stages (schema bootstrap, the ten
// engines, the ML forecast among them) into a cobra command tree, matching this codebase's convention of a thin
// cmd/<binary>/main.go delegating into an internal/cli package.
package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/unmolkumar/school-ai-bav/internal/config"
	"github.com/unmolkumar/school-ai-bav/internal/engines/budget"
	"github.com/unmolkumar/school-ai-bav/internal/engines/compliancerisk"
	"github.com/unmolkumar/school-ai-bav/internal/engines/districtcompliance"
	"github.com/unmolkumar/school-ai-bav/internal/engines/forecastml"
	"github.com/unmolkumar/school-ai-bav/internal/engines/forecastwma"
	"github.com/unmolkumar/school-ai-bav/internal/engines/infragap"
	"github.com/unmolkumar/school-ai-bav/internal/engines/prioritisation"
	"github.com/unmolkumar/school-ai-bav/internal/engines/proposal"
	"github.com/unmolkumar/school-ai-bav/internal/engines/risktrend"
	"github.com/unmolkumar/school-ai-bav/internal/engines/teacheradequacy"
	"github.com/unmolkumar/school-ai-bav/internal/logging"
	"github.com/unmolkumar/school-ai-bav/internal/pipeline"
	"github.com/unmolkumar/school-ai-bav/internal/schema"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

// Run builds and executes the root command, returning the process exit code.
func Run() ExitCode {
	rootCmd := &cobra.Command{
		Use:   "school-ai-bav",
		Short: "Batch analytical pipeline over school infrastructure/staffing risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "set debug logging level")
	rootCmd.PersistentFlags().String("config", "", "path to a YAML configuration overlay")

	rootCmd.AddCommand(
		newRunCmd(),
		newStagesCmd(),
		newStatusCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func newLogger(verbose bool) *slog.Logger {
	if verbose {
		return logging.New("debug")
	}
	return logging.New("info")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	return config.Load(path)
}

// buildRegistry registers every engine in the DAG (§2's dependency order,
// enforced by pipeline.Registry.TopoSort rather than registration order).
// modelVersion stamps the ML forecast's run artefact.
func buildRegistry(log *slog.Logger, cfg config.Config, modelVersion string) *pipeline.Registry {
	r := pipeline.NewRegistry()

	r.Register(schema.New())
	r.Register(infragap.New(log))
	r.Register(teacheradequacy.New(log))
	r.Register(compliancerisk.New(log, cfg))
	r.Register(prioritisation.New(log, cfg))
	r.Register(risktrend.New(log, cfg))
	r.Register(districtcompliance.New(log, cfg))
	r.Register(proposal.New(log, cfg))
	r.Register(forecastwma.New(log, cfg))
	r.Register(forecastml.New(log, cfg, modelVersion, cfg.MLSeed))
	r.Register(budget.New(log, cfg))

	return r
}

// runTimestampModelVersion mints the Unix-epoch-style model_version stamped
// on every ml_enrolment_forecast row this run writes (§4.10: "passed in by
// the caller").
func runTimestampModelVersion() string {
	return fmt.Sprintf("%d", time.Now().Unix())
}
