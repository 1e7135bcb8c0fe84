// Package testutils builds planning-cycle fixtures shared by adapter and CLI tests.
package testutils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/aime/pkg/adapters/file"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// HighwayScene returns a two-lane highway with the ego on y=0 and a second
// car on y=5, both driving along +X at speed (m/s) for obsLen steps of 0.1s.
// The last observed ego position is the origin. The target lane runs along
// the ego lane from x=-20 to x=200.
func HighwayScene(obsLen int, speed float64) *file.Scene {
	track := func(id string, y float64) domain.AgentTrack {
		tr := domain.AgentTrack{AgentMeta: domain.AgentMeta{TrackID: id, Type: "vehicle"}}
		for k := range obsLen {
			x := float64(k-obsLen+1) * speed * 0.1
			tr.Positions = append(tr.Positions, r2.Vec{X: x, Y: y})
			tr.Headings = append(tr.Headings, 0)
			tr.Velocities = append(tr.Velocities, r2.Vec{X: speed})
		}
		return tr
	}
	line := func(y float64) []r2.Vec {
		var pts []r2.Vec
		for x := -20.0; x <= 200; x += 2 {
			pts = append(pts, r2.Vec{X: x, Y: y})
		}
		return pts
	}

	return &file.Scene{
		Sample: domain.LocalSample{
			EgoSpeed: speed,
			Lanes: []domain.Lane{
				{ID: "ego_lane", Points: line(0)},
				{ID: "left_lane", Points: line(5)},
			},
		},
		Observation: domain.AgentObservation{Agents: []domain.AgentTrack{
			track("ego", 0),
			track("car", 5),
		}},
		TargetLane: domain.TargetLane{Points: line(0)},
	}
}

// WriteScene stores sc as JSON in a temp dir and returns the file path.
func WriteScene(t *testing.T, sc *file.Scene) string {
	t.Helper()
	data, err := json.Marshal(sc)
	require.NoError(t, err, "Failed to encode scene")

	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, os.WriteFile(path, data, 0o644), "Failed to write scene")
	return path
}
