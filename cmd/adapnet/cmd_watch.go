package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.nanomsg.org/mangos/v3"

	"github.com/dd0wney/adapnet/pkg/logging"
	"github.com/dd0wney/adapnet/pkg/pubsub"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow progress events published by a running simulation",
		Long: `Follow progress events published by "adapnet run --nng-addr".

Examples:
  adapnet watch --nng-addr tcp://127.0.0.1:40899
  adapnet watch --nng-addr tcp://127.0.0.1:40899 --kind generation --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("nng-addr")
			kinds, _ := cmd.Flags().GetStringSlice("kind")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if addr == "" {
				return errors.New("--nng-addr is required")
			}

			filter := make([]pubsub.Kind, len(kinds))
			for i, k := range kinds {
				filter[i] = pubsub.Kind(k)
			}
			watcher, err := pubsub.DialNNGWatcher(addr, filter...)
			if err != nil {
				return err
			}
			defer watcher.Close()
			logging.DefaultLogger().Info("watching progress events",
				logging.String("addr", addr), logging.Any("kinds", kinds))

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			for ctx.Err() == nil {
				ev, err := watcher.Recv(500 * time.Millisecond)
				if errors.Is(err, mangos.ErrRecvTimeout) {
					continue
				}
				if err != nil {
					return err
				}
				if err := printEvent(out, ev, jsonOut); err != nil {
					return err
				}
				if ev.Kind == pubsub.KindRunFinished {
					return nil
				}
			}
			return nil
		},
	}

	cmd.Flags().String("nng-addr", "", "NNG address the run publishes on")
	cmd.Flags().StringSlice("kind", nil, "Event kinds to follow: run_started, step, generation, run_finished")

	return cmd
}

func printEvent(w io.Writer, ev pubsub.Event, jsonOut bool) error {
	if jsonOut {
		return json.NewEncoder(w).Encode(ev)
	}
	var err error
	switch ev.Kind {
	case pubsub.KindGeneration:
		_, err = fmt.Fprintf(w, "%s generation %d step %d best %.2f shares %v\n",
			ev.RunID, ev.Generation, ev.Step, ev.BestFitness, ev.Shares)
	case pubsub.KindRunFinished:
		status := "completed"
		if ev.Error != "" {
			status = ev.Error
		}
		_, err = fmt.Fprintf(w, "%s finished at step %d: %s\n", ev.RunID, ev.Step, status)
	default:
		_, err = fmt.Fprintf(w, "%s %s step %d/%d prevalence %.4f infectious %d edges %d\n",
			ev.RunID, ev.Kind, ev.Step, ev.TotalSteps, ev.Prevalence, ev.Infectious, ev.Edges)
	}
	return err
}
