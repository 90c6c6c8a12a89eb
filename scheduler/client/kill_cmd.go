package client

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/drydocklab/drydock/scheduler/domain"
)

type killCmd struct{}

func (c *killCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <submission_id>",
		Short: "kill a driver",
	}
}

func (c *killCmd) run(cl *simpleCLIClient, cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("a submission id must be provided")
	}

	var result domain.KillResult
	err := cl.post(fmt.Sprintf("/api/v1/submissions/%s/kill", args[0]), nil, &result)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("kill failed: %v", result.Message)
	}
	fmt.Println(result.Message)
	return nil
}
