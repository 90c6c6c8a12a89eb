// Package config parses the scheduler's JSON configuration and constructs a
// running server.Scheduler from it. Each configurable dependency is a JSON
// object with a "type" field selecting which concrete config to parse it as.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/drydocklab/drydock/common/stats"
	"github.com/drydocklab/drydock/persist"
	"github.com/drydocklab/drydock/persist/engines"
	"github.com/drydocklab/drydock/scheduler/server"
)

// Config is the top-level configuration for the scheduler. It defines how to
// create the persistence engine and the lifecycle settings.
type Config struct {
	Persistence PersistenceConfig
	Scheduler   SchedulerConfig
}

// Create builds and starts a scheduler from the parsed config.
func (c *Config) Create(terminator server.Terminator, stat stats.StatsReceiver) (server.Scheduler, error) {
	engine, err := c.Persistence.Create()
	if err != nil {
		return nil, err
	}
	return server.NewDriverScheduler(engine, terminator, c.Scheduler.toServerConfig(), stat)
}

type PersistenceConfig interface {
	Create() (persist.Engine, error)
}

// BlackholePersistenceConfig discards all writes; drivers do not survive a
// restart. Useful for tests and throwaway clusters.
type BlackholePersistenceConfig struct {
	Type string
}

func (c *BlackholePersistenceConfig) Create() (persist.Engine, error) {
	return persist.MakeBlackhole(), nil
}

// MemoryPersistenceConfig keeps state in process memory only.
type MemoryPersistenceConfig struct {
	Type string
}

func (c *MemoryPersistenceConfig) Create() (persist.Engine, error) {
	return persist.MakeInMemory(), nil
}

// BoltPersistenceConfig stores driver state in a local bbolt file.
type BoltPersistenceConfig struct {
	Type string
	Path string
}

func (c *BoltPersistenceConfig) Create() (persist.Engine, error) {
	if c.Path == "" {
		return nil, fmt.Errorf("bolt persistence requires a Path")
	}
	return engines.MakeBoltEngine(c.Path)
}

// EtcdPersistenceConfig stores driver state in an etcd cluster, shared by
// scheduler instances that fail over between hosts.
type EtcdPersistenceConfig struct {
	Type      string
	Endpoints []string
	Prefix    string
	TimeoutMs int
}

func (c *EtcdPersistenceConfig) Create() (persist.Engine, error) {
	if len(c.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd persistence requires Endpoints")
	}
	return engines.MakeEtcdEngine(c.Endpoints, c.Prefix, time.Duration(c.TimeoutMs)*time.Millisecond)
}

// SchedulerConfig is the JSON shape of the lifecycle settings. Durations are
// milliseconds; zero fields fall back to the server defaults.
type SchedulerConfig struct {
	MaxRetries        int
	InitialIntervalMs int
	MaxIntervalMs     int
	Multiplier        float64
	RetainedDrivers   int
	TickRateMs        int
}

func (c SchedulerConfig) toServerConfig() server.SchedulerConfig {
	return server.SchedulerConfig{
		MaxRetries:      c.MaxRetries,
		InitialInterval: time.Duration(c.InitialIntervalMs) * time.Millisecond,
		MaxInterval:     time.Duration(c.MaxIntervalMs) * time.Millisecond,
		Multiplier:      c.Multiplier,
		RetainedDrivers: c.RetainedDrivers,
		TickRate:        time.Duration(c.TickRateMs) * time.Millisecond,
	}
}

// Scheduler config parsed from JSON. Persistence should parse into an empty
// string or a JSON object with a "type" field which picks the config to
// parse it as.
type topLevelConfig struct {
	Persistence json.RawMessage
	Scheduler   SchedulerConfig
}

type typeConfig struct {
	Type string
}

var emptyJson = []byte("{}")

func parseType(data json.RawMessage) (string, []byte) {
	if len(data) == 0 {
		return "", emptyJson
	}

	var t typeConfig
	err := json.Unmarshal(data, &t)
	if err != nil {
		return "", emptyJson
	}
	return t.Type, data
}

// Parser holds how to parse the configurable dependencies. It looks at the
// "type" field in the config and looks that up in the map. (If the object is
// not present in the JSON, it looks up the empty string; set
// Parser.Persistence[""] to choose the default.)
type Parser struct {
	Persistence map[string]PersistenceConfig
}

// DefaultParser returns a parser that knows every built-in persistence
// engine and defaults to blackhole.
func DefaultParser() *Parser {
	return &Parser{
		Persistence: map[string]PersistenceConfig{
			"":          &BlackholePersistenceConfig{Type: "blackhole"},
			"blackhole": &BlackholePersistenceConfig{},
			"memory":    &MemoryPersistenceConfig{},
			"bolt":      &BoltPersistenceConfig{},
			"etcd":      &EtcdPersistenceConfig{},
		},
	}
}

// Create parses and creates in one step.
func (p *Parser) Create(configText []byte, terminator server.Terminator, stat stats.StatsReceiver) (server.Scheduler, error) {
	c, err := p.Parse(configText)
	if err != nil {
		return nil, err
	}
	return c.Create(terminator, stat)
}

func (p *Parser) Parse(configText []byte) (*Config, error) {
	if len(configText) == 0 {
		configText = emptyJson
	}
	var cfg topLevelConfig
	err := json.Unmarshal(configText, &cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse top-level config: %v", err)
	}

	r := &Config{Scheduler: cfg.Scheduler}

	persistenceType, persistenceData := parseType(cfg.Persistence)
	persistenceConfig, ok := p.Persistence[persistenceType]
	if !ok {
		return nil, fmt.Errorf("no parser for persistence type %s", persistenceType)
	}
	err = json.Unmarshal(persistenceData, &persistenceConfig)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse Persistence: %v (config: %s; type: %s)",
			err, persistenceData, persistenceType)
	}
	r.Persistence = persistenceConfig

	return r, nil
}
