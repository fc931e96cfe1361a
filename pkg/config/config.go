package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/dispatcher/pkg/graph"
)

// Corridor is one weighted edge in the hospital graph.
type Corridor struct {
	From   string  `yaml:"from"`
	To     string  `yaml:"to"`
	Weight float64 `yaml:"weight"`
}

// InitialTransporter seeds the fleet at startup.
type InitialTransporter struct {
	Name string `yaml:"name"`
}

// InitialRequest seeds the pending-request set at startup.
type InitialRequest struct {
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`
	Type        string `yaml:"type"`
	Urgent      bool   `yaml:"urgent"`
}

// Config is the startup configuration contract: speed factor, re-plan
// coalescing interval, ILP solver timeout, per-worker rest parameters,
// the hospital's department and corridor lists, and an optional initial
// fleet and request set.
type Config struct {
	SpeedFactor          float64              `yaml:"speed_factor"`
	ReplanCoalesceWindow time.Duration        `yaml:"replan_coalesce_window"`
	ILPTimeout           time.Duration        `yaml:"ilp_timeout"`
	RestThreshold        float64              `yaml:"rest_threshold"`
	RestDuration         float64              `yaml:"rest_duration"`
	Strategy             string               `yaml:"strategy"`
	Departments          []string             `yaml:"departments"`
	Corridors            []Corridor           `yaml:"corridors"`
	InitialFleet         []InitialTransporter `yaml:"initial_fleet"`
	InitialRequests      []InitialRequest     `yaml:"initial_requests"`
}

// Default returns the configuration contract's documented defaults:
// speed factor 10x, a zero coalescing window (re-plans solve
// immediately), unbounded ILP timeout, rest disabled (threshold 0),
// makespan strategy, and an empty graph.
func Default() Config {
	return Config{
		SpeedFactor: 10,
		Strategy:    "ilp:makespan",
	}
}

// Load reads and parses a YAML configuration file, starting from
// Default() so unset fields keep their documented defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// BuildGraph constructs the hospital graph from the department and
// corridor lists. A department referenced by no corridor is still added
// as an isolated node.
func (c Config) BuildGraph() (*graph.Graph, error) {
	g := graph.New()
	for _, d := range c.Departments {
		g.AddNode(d)
	}
	for _, corridor := range c.Corridors {
		if err := g.AddEdge(corridor.From, corridor.To, corridor.Weight); err != nil {
			return nil, fmt.Errorf("config: corridor %s-%s: %w", corridor.From, corridor.To, err)
		}
	}
	return g, nil
}
