package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/aime/pkg/adapters/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

const sceneYAML = `
sample:
  ego_speed: 8.5
  lanes:
    - id: l1
      points: [{x: 0, y: 0}, {x: 10, y: 0}]
observation:
  agents:
    - track_id: ego
      type: vehicle
      positions: [{x: -1, y: 0}, {x: 0, y: 0}]
      headings: [0, 0]
      velocities: [{x: 10, y: 0}, {x: 10, y: 0}]
    - track_id: ped
      type: pedestrian
      category: vru
      positions: [{x: 5, y: 3}, {x: 5, y: 2.5}]
      headings: [-1.57, -1.57]
      velocities: [{x: 0, y: -1}, {x: 0, y: -1}]
      valid: [false, true]
target_lane:
  points: [{x: 0, y: 0}, {x: 1, y: 0}]
  attributes: [[1, 0], [1, 0]]
`

func TestLoadScene_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sceneYAML), 0o644))

	sc, err := file.LoadScene(path)
	require.NoError(t, err)

	assert.Equal(t, 8.5, sc.Sample.EgoSpeed)
	require.Len(t, sc.Sample.Lanes, 1)
	assert.Equal(t, r2.Vec{X: 10}, sc.Sample.Lanes[0].Points[1])

	require.Len(t, sc.Observation.Agents, 2)
	ped := sc.Observation.Agents[1]
	assert.Equal(t, "ped", ped.TrackID)
	assert.Equal(t, "vru", ped.Category)
	assert.False(t, ped.IsValid(0))
	assert.True(t, ped.IsValid(1))
	assert.Equal(t, r2.Vec{X: 5, Y: 2.5}, ped.Positions[1])

	assert.Len(t, sc.TargetLane.Points, 2)
	assert.Equal(t, []float64{1, 0}, sc.TargetLane.Attributes[0])
}

func TestParseScene_JSON(t *testing.T) {
	data := []byte(`{"sample":{"ego_speed":3},"observation":{"agents":[{"track_id":"ego","type":"vehicle","positions":[{"X":1,"Y":2}],"headings":[0.5],"velocities":[{"X":0,"Y":0}]}]},"target_lane":{"points":[]}}`)

	sc, err := file.ParseScene(data, ".json")
	require.NoError(t, err)
	assert.Equal(t, 3.0, sc.Sample.EgoSpeed)
	assert.Equal(t, "ego", sc.Observation.Agents[0].TrackID)
	assert.Equal(t, r2.Vec{X: 1, Y: 2}, sc.Observation.Agents[0].Positions[0])
}

func TestParseScene_Invalid(t *testing.T) {
	_, err := file.ParseScene([]byte("observation: [unterminated"), ".yaml")
	assert.Error(t, err)

	_, err = file.LoadScene(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
