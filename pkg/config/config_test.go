package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesConfigurationContract(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10.0, cfg.SpeedFactor)
	assert.Equal(t, time.Duration(0), cfg.ReplanCoalesceWindow)
	assert.Equal(t, time.Duration(0), cfg.ILPTimeout)
	assert.Equal(t, 0.0, cfg.RestThreshold)
}

func TestLoadParsesFullFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dispatch.yaml")
	body := `
speed_factor: 50
rest_threshold: 20
rest_duration: 30
strategy: "ilp:urgency_first"
departments:
  - A
  - B
  - C
corridors:
  - from: A
    to: B
    weight: 5
  - from: B
    to: C
    weight: 10
initial_fleet:
  - name: W1
initial_requests:
  - origin: A
    destination: C
    type: stretcher
    urgent: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.SpeedFactor)
	assert.Equal(t, 20.0, cfg.RestThreshold)
	assert.Equal(t, "ilp:urgency_first", cfg.Strategy)
	assert.Len(t, cfg.Departments, 3)
	assert.Len(t, cfg.Corridors, 2)
	require.Len(t, cfg.InitialFleet, 1)
	assert.Equal(t, "W1", cfg.InitialFleet[0].Name)
	require.Len(t, cfg.InitialRequests, 1)
	assert.True(t, cfg.InitialRequests[0].Urgent)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/dispatch.yaml")
	assert.Error(t, err)
}

func TestBuildGraphWiresCorridorsAndIsolatedDepartments(t *testing.T) {
	cfg := Config{
		Departments: []string{"A", "B", "Isolated"},
		Corridors: []Corridor{
			{From: "A", To: "B", Weight: 5},
		},
	}
	g, err := cfg.BuildGraph()
	require.NoError(t, err)
	assert.True(t, g.HasNode("Isolated"))
	w, ok := g.EdgeWeight("A", "B")
	require.True(t, ok)
	assert.Equal(t, 5.0, w)
}

func TestBuildGraphRejectsBadCorridorWeight(t *testing.T) {
	cfg := Config{
		Departments: []string{"A", "B"},
		Corridors:   []Corridor{{From: "A", To: "B", Weight: 0}},
	}
	_, err := cfg.BuildGraph()
	assert.Error(t, err)
}
