package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// copyScenarios copies the scenario fixtures into a temp dir so --update
// and mismatch tests never touch testdata.
func copyScenarios(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	for _, name := range []string{"restaurant_happy_path", "restaurant_rejection"} {
		data, err := os.ReadFile(filepath.Join("testdata/scenarios", name+".yaml"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0o644))

		golden, err := os.ReadFile(filepath.Join("testdata/scenarios/golden", name+".golden"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", name+".golden"), golden, 0o644))
	}
	return dir
}

func TestTestCommand_AllPass(t *testing.T) {
	out, err := executeTest(t, "text", "testdata/forms", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "restaurant_happy_path")
	assert.Contains(t, out, "restaurant_rejection")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTestCommand_JSON(t *testing.T) {
	out, err := executeTest(t, "json", "testdata/forms", "testdata/scenarios")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	assert.Equal(t, 0, resp.Data.Failed)
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := executeTest(t, "text", "testdata/forms", "testdata/scenarios", "--filter", "*happy*")
	require.NoError(t, err)
	assert.Contains(t, out, "restaurant_happy_path")
	assert.NotContains(t, out, "restaurant_rejection")
	assert.Contains(t, out, "1 total")
}

func TestTestCommand_FilterMatchesNothing(t *testing.T) {
	out, err := executeTest(t, "text", "testdata/forms", "testdata/scenarios", "--filter", "checkout_*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := copyScenarios(t)
	golden := filepath.Join(dir, "golden", "restaurant_happy_path.golden")
	require.NoError(t, os.WriteFile(golden, []byte(`{"stale":true}`), 0o644))

	out, err := executeTest(t, "text", "testdata/forms", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommand_UpdateRewritesGolden(t *testing.T) {
	dir := copyScenarios(t)
	golden := filepath.Join(dir, "golden", "restaurant_happy_path.golden")
	want, err := os.ReadFile(golden)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(golden, []byte(`{"stale":true}`), 0o644))

	out, err := executeTest(t, "text", "testdata/forms", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	_, err = executeTest(t, "text", "testdata/forms", dir)
	require.NoError(t, err)
}

func TestTestCommand_FailingExpectation(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: wrong_prompt
description: "Expects the wrong first prompt"
forms:
  - restaurant.cue
turns:
  - action: restaurant_form
    intent: request_restaurant
    expect:
      outcome: events
      templates: [utter_ask_num_people]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_prompt.yaml"), []byte(scenario), 0o644))

	out, err := executeTest(t, "text", "testdata/forms", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "wrong_prompt")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTestCommand_UnloadableScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "typo.yaml"), []byte("name: typo\nasertions: []\n"), 0o644))

	out, err := executeTest(t, "text", "testdata/forms", dir)
	require.Error(t, err)
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_MissingDirectories(t *testing.T) {
	_, err := executeTest(t, "text", filepath.Join(t.TempDir(), "nope"), "testdata/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = executeTest(t, "text", "testdata/forms", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "restaurant_happy_path.golden"),
		goldenFilePath(filepath.Join("scenarios", "restaurant_happy_path.yaml")))
}
