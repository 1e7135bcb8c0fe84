package tui_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/aretw0/aime/internal/presentation/tui"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	tr := tree.New[domain.TrajectoryNode]()
	_, err := tr.Add("1_0_0", "", domain.TrajectoryNode{ScenarioID: "1_0_0", Prob: 1, EndT: 20, TrackIDs: []string{"ego", "car"}})
	require.NoError(t, err)
	_, err = tr.Add("2_0_0", "1_0_0", domain.TrajectoryNode{ScenarioID: "2_0_0", Prob: 1, CurT: 20, EndT: 60, TrackIDs: []string{"ego", "car"}})
	require.NoError(t, err)

	got := tui.Report("run-1", []*domain.ScenarioTree{tr}, domain.Stats{Rounds: 2, OracleCalls: 2, Kept: 2, Duration: time.Second})

	assert.Contains(t, got, "# Run `run-1`")
	assert.Contains(t, got, "## Tree 1: `1_0_0` (p=1.000)")
	assert.Contains(t, got, "- `1_0_0` p=1.000 steps 0..20, 2 agents")
	assert.Contains(t, got, "  - `2_0_0` p=1.000 steps 20..60, 2 agents")
	assert.Contains(t, got, "| 2 | 2 | 0 | 2 | 0 | 0 | 0 | 0 | 0 | 1s |")

	empty := tui.Report("", nil, domain.Stats{})
	assert.Contains(t, empty, "# Scenario trees")
	assert.Contains(t, empty, "_No scenario trees._")
}

func TestPrint_NotTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tui.Print(&buf, "# title\n"))
	assert.Equal(t, "# title\n", buf.String())
	assert.False(t, tui.IsTerminal(&buf))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_ _|")
}
