package engine

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/slotform/internal/form"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/mapping"
	"github.com/roach88/slotform/internal/store"
	"github.com/roach88/slotform/internal/tracker"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openJournal(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// weatherForm asks for a city from the "city" entity.
func weatherForm() form.Definition {
	return form.FromSpec(form.Spec{
		Name:          "weather_form",
		RequiredSlots: []string{"city"},
		Mappings: mapping.Table{
			"city": {mapping.MustFromEntity("city")},
		},
		SubmitTemplate: "utter_weather",
	})
}

func listening(sender string) *tracker.Tracker {
	return &tracker.Tracker{
		SenderID:         sender,
		Slots:            ir.Object{},
		LatestActionName: tracker.ActionListen,
	}
}
