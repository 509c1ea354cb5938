package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthplane/internal/engine"
	"github.com/roach88/synthplane/internal/store"
)

func TestRunMissingScenarioArg(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestRunNonExistentScenario(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenario.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}

func TestRunPassingScenarioText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{scenarioPath("route_fade_events")})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "route src -> verb gain=1.0000 fade=0.5000")
	assert.Contains(t, output, "src -> verb gain=0.5000 target=0.0000 removing")
	assert.Contains(t, output, "✓ route_fade_events")
	assert.NotContains(t, output, "Run:")
}

func TestRunFailingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong_gain.yaml", failingScenario)

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ wrong_gain")
	assert.Contains(t, buf.String(), "Assertion failed: route_gain after block 0")
}

func TestRunFailingScenarioJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong_gain.yaml", failingScenario)

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenarioFailed, resp.Error.Code)
}

func TestRunWritesTraceDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	buf := &bytes.Buffer{}
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "json"},
		Database:    dbPath,
		RunIDs:      engine.NewFixedGenerator("cli-run-1"),
	}
	cmd := NewRunCommand(opts.RootOptions)
	cmd.SetOut(buf)
	require.NoError(t, runScenarioFile(opts, scenarioPath("route_fade_events"), cmd))

	var resp struct {
		Status string    `json:"status"`
		RunID  string    `json:"run_id"`
		Data   RunOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cli-run-1", resp.RunID)
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, "route_fade_events", resp.Data.Scenario)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.GetRun(context.Background(), "cli-run-1")
	require.NoError(t, err)
	assert.Equal(t, "route_fade_events", run.Scenario)

	events, err := st.ReadEvents(context.Background(), "cli-run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "finished", events[0].Type)
}

func TestRunDefaultRunIDIsUUID(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, scenarioPath("automation_gain_ramp")})
	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Len(t, resp.RunID, 36)
	assert.Equal(t, byte('7'), resp.RunID[14], "expected a version 7 UUID, got %s", resp.RunID)
}

func TestRunInvalidConfig(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "library.yaml", "block_size: 3\n")

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text", Config: cfgPath})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{scenarioPath("route_fade_events")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
