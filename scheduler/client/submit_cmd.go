package client

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/drydocklab/drydock/scheduler/domain"
)

type submitCmd struct {
	appName     string
	memoryMB    int
	cores       int
	supervise   bool
	env         []string
	classpath   []string
	libraryPath []string
	properties  []string
}

func (c *submitCmd) registerFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "submit <main> [args...]",
		Short: "submit a driver",
	}
	r.Flags().StringVar(&c.appName, "app", "", "application name")
	r.Flags().IntVar(&c.memoryMB, "memory_mb", 512, "driver memory in MB")
	r.Flags().IntVar(&c.cores, "cores", 1, "driver cpu cores")
	r.Flags().BoolVar(&c.supervise, "supervise", false, "relaunch the driver if it fails")
	r.Flags().StringSliceVar(&c.env, "env", nil, "environment variable as KEY=VALUE (repeatable)")
	r.Flags().StringSliceVar(&c.classpath, "class_path", nil, "classpath entry (repeatable)")
	r.Flags().StringSliceVar(&c.libraryPath, "library_path", nil, "library path entry (repeatable)")
	r.Flags().StringSliceVar(&c.properties, "property", nil, "driver property as key=value (repeatable)")
	return r
}

func (c *submitCmd) run(cl *simpleCLIClient, cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("a driver main command must be provided")
	}

	env, err := parsePairs(c.env)
	if err != nil {
		return errors.Wrap(err, "bad --env")
	}
	props, err := parsePairs(c.properties)
	if err != nil {
		return errors.Wrap(err, "bad --property")
	}

	desc := domain.DriverDescription{
		AppName: c.appName,
		Command: domain.Command{
			Main:        args[0],
			Arguments:   args[1:],
			Environment: env,
			Classpath:   c.classpath,
			LibraryPath: c.libraryPath,
		},
		MemoryMB:   c.memoryMB,
		Cores:      c.cores,
		Supervise:  c.supervise,
		Properties: props,
	}

	var result domain.SubmissionResult
	if err := cl.post("/api/v1/submissions", desc, &result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("submission rejected: %v", result.Message)
	}
	log.Info("Submitted driver ", result.SubmissionID)
	fmt.Println(result.SubmissionID)
	return nil
}

func parsePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", p)
		}
		m[kv[0]] = kv[1]
	}
	return m, nil
}
