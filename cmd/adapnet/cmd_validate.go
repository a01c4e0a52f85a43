package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration without running it",
		Long: `Check a configuration without running it.

This command checks:
  - Ranges of every model parameter (probabilities in [0, 1], counts >= 1)
  - Elite count at most half the node count
  - Generation length at most the step count
  - Seed count at most the node count
  - Output format and log settings

Examples:
  adapnet validate --config sim.yaml
  adapnet validate --nodes 10 --elite-count 50   # fails: elite too large`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			cfg, err := loadConfig(cmd)
			if err == nil {
				err = cfg.Validate()
			}

			if jsonOut {
				result := map[string]any{"valid": err == nil}
				if err != nil {
					result["error"] = err.Error()
				}
				if encErr := json.NewEncoder(out).Encode(result); encErr != nil {
					return encErr
				}
				return err
			}

			if err != nil {
				return err
			}
			fmt.Fprintln(out, "configuration is valid")
			return nil
		},
	}

	addOverrideFlags(cmd.Flags())

	return cmd
}
