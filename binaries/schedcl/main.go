package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/drydocklab/drydock/common/log/hooks"
	"github.com/drydocklab/drydock/scheduler/client"
)

// Binary to talk to the driver scheduler's http api.
func main() {
	log.AddHook(hooks.NewContextHook())

	cl, err := client.NewSimpleCLIClient()
	if err != nil {
		log.Fatal("Failed to initialize client: ", err)
	}
	if err := cl.Exec(); err != nil {
		log.Fatal(err)
	}
}
