package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/adapnet/pkg/results"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [result.json]",
		Short: "Summarize a stored run",
		Long: `Summarize a stored run from a JSON result file or a SQLite store.

Examples:
  adapnet summary run.json
  adapnet summary run.json.snappy
  adapnet summary --sqlite runs.db             # List stored runs
  adapnet summary --sqlite runs.db --run <id>`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dbPath, _ := cmd.Flags().GetString("sqlite")
			runID, _ := cmd.Flags().GetString("run")
			out := cmd.OutOrStdout()

			var series *results.Series
			switch {
			case len(args) == 1:
				s, err := results.ReadJSONFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", args[0], err)
				}
				series = s

			case dbPath != "":
				store, err := results.OpenSQLite(cmd.Context(), dbPath)
				if err != nil {
					return err
				}
				defer store.Close()

				if runID == "" {
					ids, err := store.RunIDs(cmd.Context())
					if err != nil {
						return err
					}
					if jsonOut {
						return json.NewEncoder(out).Encode(map[string]any{"runs": ids})
					}
					for _, id := range ids {
						fmt.Fprintln(out, id)
					}
					return nil
				}

				s, err := store.Load(cmd.Context(), runID)
				if err != nil {
					return err
				}
				series = s

			default:
				return errors.New("give a JSON result file or --sqlite")
			}

			sum := results.Summarize(series)
			if jsonOut {
				return json.NewEncoder(out).Encode(sum)
			}
			fmt.Fprintln(out, renderSummary(series, sum, nil))
			return nil
		},
	}

	cmd.Flags().String("sqlite", "", "SQLite result store")
	cmd.Flags().String("run", "", "Run ID to load from the store")

	return cmd
}
