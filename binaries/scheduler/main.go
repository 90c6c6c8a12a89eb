package main

import (
	"flag"
	"io/ioutil"

	log "github.com/sirupsen/logrus"

	"github.com/drydocklab/drydock/common/log/hooks"
	"github.com/drydocklab/drydock/common/stats"
	"github.com/drydocklab/drydock/scheduler/api"
	"github.com/drydocklab/drydock/scheduler/config"
)

var addr = flag.String("addr", "localhost:9090", "Bind address for the http api server.")
var cfgText = flag.String("config", "", "Scheduler configuration text.")
var cfgFile = flag.String("config_file", "", "Path to scheduler configuration file (overrides -config).")
var logLevelFlag = flag.String("log_level", "info", "Log everything at this level and above (error|info|debug)")

// logTerminator stands in for the offer-matching/execution layer, which runs
// out of process and confirms kills through OnTerminated.
type logTerminator struct{}

func (t logTerminator) Terminate(submissionID string, handles map[string]string) {
	log.WithFields(log.Fields{
		"submissionID": submissionID,
		"handles":      handles,
	}).Info("Termination requested, awaiting confirmation from the execution layer")
}

func main() {
	log.AddHook(hooks.NewContextHook())
	flag.Parse()

	level, err := log.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Error(err)
		return
	}
	log.SetLevel(level)

	log.Info("Starting driver scheduler")
	stat := stats.DefaultStatsReceiver()

	configText := []byte(*cfgText)
	if *cfgFile != "" {
		configText, err = ioutil.ReadFile(*cfgFile)
		if err != nil {
			log.Fatal("Error reading config file: ", err)
		}
	}

	scheduler, err := config.DefaultParser().Create(configText, logTerminator{}, stat.Scope("scheduler"))
	if err != nil {
		log.Fatal("Error configuring scheduler: ", err)
	}

	err = api.NewServer(*addr, scheduler, stat).Serve()
	if err != nil {
		log.Fatal("Error serving scheduler api: ", err)
	}
}
