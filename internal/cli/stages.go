package cli

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newStagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the pipeline's stages in dependency order",
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

			registry := buildRegistry(log, cfg, runTimestampModelVersion())
			sorted, err := registry.TopoSort()
			if err != nil {
				return fmt.Errorf("failed to resolve stage order: %w", err)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"#", "Stage", "Depends On"})
			for i, s := range sorted {
				deps := "-"
				if len(s.DependsOn()) > 0 {
					deps = fmt.Sprintf("%v", s.DependsOn())
				}
				table.Append([]string{fmt.Sprintf("%d", i+1), s.Name(), deps})
			}
			table.Render()

			return nil
		},
	}
}
