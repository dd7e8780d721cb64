package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slotform/internal/ir"
)

func executeTrace(t *testing.T, format string, verbose bool, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: format, Verbose: verbose})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTraceRequiredFlags(t *testing.T) {
	_, err := executeTrace(t, "text", false, "--db", "x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversation")
}

func TestTraceJSONTimeline(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeTrace(t, "json", false, "--db", dbPath, "--conversation", "user-1")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "user-1", resp.Data.ConversationID)
	require.Len(t, resp.Data.Timeline, 2)

	activation := resp.Data.Timeline[0]
	assert.Equal(t, int64(1), activation.Seq)
	assert.Equal(t, "restaurant_form", activation.Action)
	assert.Equal(t, "events", activation.Outcome)
	assert.Equal(t, []string{"utter_ask_cuisine"}, activation.Templates)
	require.Len(t, activation.Events, 2)
	assert.Equal(t, ir.String("form"), activation.Events[0]["event"])

	rejected := resp.Data.Timeline[1]
	assert.Equal(t, "rejected", rejected.Outcome)
	assert.Empty(t, rejected.Events)
	assert.Contains(t, rejected.Error, "cuisine")

	assert.Equal(t, TraceStats{Turns: 2, Rejected: 1, SlotSets: 1, Prompts: 1}, resp.Data.Stats)
}

func TestTraceText(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeTrace(t, "text", true, "--db", dbPath, "-c", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation: user-1")
	assert.Contains(t, out, "[1]")
	assert.Contains(t, out, `form name="restaurant_form"`)
	assert.Contains(t, out, `slot name="requested_slot" value="cuisine"`)
	assert.Contains(t, out, "utter: utter_ask_cuisine")
	assert.Contains(t, out, "error: ")
	assert.Contains(t, out, "id: ")
	assert.Contains(t, out, "2 turn(s), 1 rejected")
}

func TestTraceActionFilter(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeTrace(t, "json", false, "--db", dbPath, "-c", "user-1", "--action", "other_form")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Empty(t, resp.Data.Timeline)
	assert.Equal(t, 0, resp.Data.Stats.Turns)
}

func TestTraceUnknownConversation(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeTrace(t, "text", false, "--db", dbPath, "-c", "nobody")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "conversation not found")
}

func TestTraceDatabaseNotFound(t *testing.T) {
	_, err := executeTrace(t, "text", false, "--db", filepath.Join(t.TempDir(), "none.db"), "-c", "user-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDescribeEvent(t *testing.T) {
	got := describeEvent(ir.Object{"event": ir.String("slot"), "name": ir.String("num_people"), "value": ir.Int(4)})
	assert.Equal(t, `slot name="num_people" value=4`, got)
}
