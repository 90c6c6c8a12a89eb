package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drydocklab/drydock/scheduler/domain"
	"github.com/drydocklab/drydock/scheduler/server"
)

type statusCmd struct {
	submissionID string
}

func (c *statusCmd) registerFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "status",
		Short: "show scheduler state",
	}
	r.Flags().StringVar(&c.submissionID, "id", "", "only show the driver with this submission id")
	return r
}

func (c *statusCmd) run(cl *simpleCLIClient, cmd *cobra.Command, args []string) error {
	var state server.SchedulerState
	if err := cl.get("/api/v1/status", &state); err != nil {
		return err
	}

	if c.submissionID != "" {
		for _, group := range [][]domain.DriverState{
			state.Queued, state.Launched, state.Retrying, state.Retained,
		} {
			for _, d := range group {
				if d.ID == c.submissionID {
					return printJSON(d)
				}
			}
		}
		return fmt.Errorf("no driver with submission id %s", c.submissionID)
	}

	return printJSON(state)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
