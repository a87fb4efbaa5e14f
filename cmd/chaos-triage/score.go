package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jihwankim/chaos-triage/pkg/config"
	"github.com/jihwankim/chaos-triage/pkg/result"
	"github.com/jihwankim/chaos-triage/pkg/score"
)

var scoreOutputPath string

var scoreCmd = &cobra.Command{
	Use:   "score <group_path>",
	Short: "Compare emitted groups against ground-truth bug labels",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreOutputPath, "output_path", "o", "", "path to the summary file (default: <group_path>/summary)")
}

func runScore(cmd *cobra.Command, args []string) error {
	groupPath := args[0]

	outputPath := scoreOutputPath
	if outputPath == "" {
		outputPath = groupPath + "/summary"
	}

	groups, err := result.ReadGroups(groupPath)
	if err != nil {
		return fmt.Errorf("failed to read groups: %w", err)
	}

	cfg := config.DefaultConfig()
	r := score.Analyze(groups, cfg.Score.Percentage)

	if err := result.WriteSummary(outputPath, r); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	fmt.Printf("ground truth analysis written to %s\n", outputPath)
	return nil
}
