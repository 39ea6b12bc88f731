package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/napolitain/blueprint-solver/internal/models"
	"github.com/napolitain/blueprint-solver/internal/scenario"
	"github.com/napolitain/blueprint-solver/internal/solver/frontier"
	"github.com/napolitain/blueprint-solver/internal/store"
)

func sampleOutcome() scenario.Outcome {
	return scenario.Outcome{
		Blueprint: models.NewBlueprint(1, 4, 2, 3, 14, 2, 7),
		ID:        1,
		Horizon:   24,
		Yield:     9,
		Plan: []frontier.Build{
			{Minute: 3, Producer: models.ClayRobot, Name: "clay robot"},
			{Minute: 18, Producer: models.GeodeRobot, Name: "geode robot"},
		},
		Stats: frontier.Stats{Steps: 24, Expanded: 1200, Pruned: 900, PeakFrontier: 80, Duration: time.Millisecond},
	}
}

func sampleSummary() Summary {
	second := sampleOutcome()
	second.ID, second.Yield = 2, 12
	return Summary{
		Title:    "Quality levels",
		Horizon:  24,
		Outcomes: []scenario.Outcome{sampleOutcome(), second},
		Label:    "quality level sum",
		Total:    33,
	}
}

func TestWriteSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).WriteSummary(sampleSummary()))

	out := buf.String()
	assert.Contains(t, out, "Quality levels (horizon 24)")
	assert.Contains(t, out, "quality level sum: 33")
	assert.Contains(t, out, "24") // quality of blueprint 2
}

func TestWriteSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatJSON, &buf).WriteSummary(sampleSummary()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(33), decoded["total"])
	outcomes, ok := decoded["outcomes"].([]any)
	require.True(t, ok)
	assert.Len(t, outcomes, 2)
}

func TestWriteSummaryYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatYAML, &buf).WriteSummary(sampleSummary()))

	var decoded struct {
		Total    int `yaml:"total"`
		Outcomes []struct {
			ID    int `yaml:"id"`
			Yield int `yaml:"yield"`
		} `yaml:"outcomes"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 33, decoded.Total)
	require.Len(t, decoded.Outcomes, 2)
	assert.Equal(t, 12, decoded.Outcomes[1].Yield)
}

func TestWritePlanTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).WritePlan(sampleOutcome()))

	out := buf.String()
	assert.Contains(t, out, "Blueprint 1: 9 geodes in 24 minutes")
	assert.Contains(t, out, "geode robot")
	assert.Contains(t, out, "2 ore and 7 obsidian")
	assert.Contains(t, out, "peak frontier 80")
}

func TestWritePlanJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatJSON, &buf).WritePlan(sampleOutcome()))

	var decoded struct {
		Yield int `json:"yield"`
		Plan  []struct {
			Minute   int    `json:"minute"`
			Producer string `json:"producer"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 9, decoded.Yield)
	require.Len(t, decoded.Plan, 2)
	assert.Equal(t, "geode robot", decoded.Plan[1].Producer)
}

func TestWriteRuns(t *testing.T) {
	runs := []store.Run{{
		ID:          "4a1c0e0e-7d3c-4b7e-9a55-0d2f0b5f8e11",
		Fingerprint: "4/0/0/0,2/0/0/0,3/14/0/0,2/0/7/0",
		Horizon:     24,
		Settings:    "d1-b1-c1-r1",
		Yield:       9,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).WriteRuns(runs))
	assert.Contains(t, buf.String(), "4a1c0e0e")

	buf.Reset()
	require.NoError(t, NewWriter(FormatJSON, &buf).WriteRuns(runs))
	assert.Contains(t, buf.String(), `"fingerprint": "4/0/0/0,2/0/0/0,3/14/0/0,2/0/7/0"`)
}

func TestUnknownFormatFallsBackToTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)
	require.NoError(t, w.WriteSummary(sampleSummary()))
	assert.Contains(t, buf.String(), "quality level sum: 33")
	assert.True(t, Format("xml").IsUnknown())
	assert.False(t, FormatYAML.IsUnknown())
}

type failingTable struct {
	appendErr error
	renderErr error
	appended  int
	rendered  bool
}

func (f *failingTable) Append(...interface{}) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended++
	return nil
}

func (f *failingTable) Render() error {
	f.rendered = true
	return f.renderErr
}

func TestRenderRowsPropagatesErrors(t *testing.T) {
	rows := [][]string{{"1", "9"}, {"2", "12"}}

	appendErr := errors.New("bad row")
	table := &failingTable{appendErr: appendErr}
	err := renderRows(table, rows)
	require.ErrorIs(t, err, appendErr)
	assert.Contains(t, err.Error(), "row 1")
	assert.False(t, table.rendered)

	renderErr := errors.New("closed")
	table = &failingTable{renderErr: renderErr}
	require.ErrorIs(t, renderRows(table, rows), renderErr)
	assert.Equal(t, 2, table.appended)

	table = &failingTable{}
	require.NoError(t, renderRows(table, rows))
	assert.True(t, table.rendered)
}
