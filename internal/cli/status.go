package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

// statusTables is the set of pipeline-owned tables reported on, in roughly
// the order the DAG populates them.
var statusTables = []string{
	"schools",
	"yearly_metrics",
	"infrastructure_details",
	"teacher_metrics",
	"school_priority_index",
	"risk_trend",
	"district_compliance_index",
	"school_demand_proposals",
	"proposal_validations",
	"school_enrolment_forecast",
	"ml_enrolment_forecast",
	"budget_simulation",
	"quarantined_tables",
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report row counts for each pipeline-owned table",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
			if err != nil {
				return fmt.Errorf("failed to get verbose flag: %w", err)
			}
			log := newLogger(verbose)

			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx := context.Background()
			pool, err := store.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Table", "Rows"})

			for _, name := range statusTables {
				var count int64
				err := pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", name)).Scan(&count)
				if err != nil {
					log.Warn("failed to count table", "table", name, "error", err)
					table.Append([]string{name, "?"})
					continue
				}
				table.Append([]string{name, fmt.Sprintf("%d", count)})
			}
			table.Render()

			return nil
		},
	}
}
