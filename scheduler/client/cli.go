// Package client is a command-line client to the driver scheduler's http api.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
	"github.com/spf13/cobra"
)

const defaultSchedulerAddr = "localhost:9090"

// Scheduler client interface that includes CLI handling
type CLIClient interface {
	Exec() error
}

// Implements CLIClient - basic
type simpleCLIClient struct {
	rootCmd *cobra.Command

	addr       string
	httpClient *pester.Client
}

func (c *simpleCLIClient) Exec() error {
	return c.rootCmd.Execute()
}

func NewSimpleCLIClient() (CLIClient, error) {
	c := &simpleCLIClient{}
	c.httpClient = pester.New()
	c.httpClient.MaxRetries = 3
	c.httpClient.Backoff = pester.ExponentialBackoff
	// c.addr is populated by flag

	c.rootCmd = &cobra.Command{
		Use:   "schedcl",
		Short: "schedcl is a command-line client to the driver scheduler",
		Run:   func(*cobra.Command, []string) {},
	}

	c.addCmd(&submitCmd{})
	c.addCmd(&killCmd{})
	c.addCmd(&statusCmd{})

	return c, nil
}

func (c *simpleCLIClient) url(path string) string {
	addr := c.addr
	if addr == "" {
		addr = defaultSchedulerAddr
	}
	return fmt.Sprintf("http://%s%s", addr, path)
}

// post sends body as JSON and decodes the JSON response into result.
func (c *simpleCLIClient) post(path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Post(c.url(path), "application/json", bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "error connecting to scheduler")
	}
	return decodeResponse(resp, result)
}

func (c *simpleCLIClient) get(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.url(path))
	if err != nil {
		return errors.Wrap(err, "error connecting to scheduler")
	}
	return decodeResponse(resp, result)
}

func decodeResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()
	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, result); err != nil {
		return errors.Wrapf(err, "non-json response (status %s): %s", resp.Status, data)
	}
	return nil
}

func (c *simpleCLIClient) addCmd(cmd command) {
	cobraCmd := cmd.registerFlags()
	cobraCmd.Flags().StringVar(&c.addr, "addr", "", "scheduler http address")
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.run(c, innerCmd, args)
	}
	c.rootCmd.AddCommand(cobraCmd)
}

type command interface {
	registerFlags() *cobra.Command
	run(cl *simpleCLIClient, cmd *cobra.Command, args []string) error
}
