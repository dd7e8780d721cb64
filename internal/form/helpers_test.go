package form

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/slotform/internal/dispatch"
	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/mapping"
	"github.com/roach88/slotform/internal/tracker"
)

// testForm is a configurable Definition for controller tests.
type testForm struct {
	name         string
	required     []string
	mappings     mapping.Table
	validators   map[string]ValidateFunc
	submitEvents []event.Event
	submitErr    error
	submitted    int
}

func (f *testForm) Name() string                            { return f.name }
func (f *testForm) RequiredSlots(*tracker.Tracker) []string { return f.required }
func (f *testForm) SlotMappings() mapping.Table             { return f.mappings }

func (f *testForm) RegisterValidators(v Validators) {
	for slot, fn := range f.validators {
		v.Register(slot, fn)
	}
}

func (f *testForm) Submit(context.Context, *dispatch.Dispatcher, *tracker.Tracker, *tracker.Domain) ([]event.Event, error) {
	f.submitted++
	return f.submitEvents, f.submitErr
}

// cancellingForm deactivates itself whenever input validation runs.
type cancellingForm struct {
	testForm
}

func (f *cancellingForm) ValidateInput(ctx context.Context, c *Controller, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error) {
	events, err := c.Validate(ctx, d, t, dom)
	if err != nil {
		return nil, err
	}
	return append(events, c.Deactivate()...), nil
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func strPtr(s string) *string { return &s }

type trackerOpt func(*tracker.Tracker)

func newTracker(opts ...trackerOpt) *tracker.Tracker {
	t := &tracker.Tracker{
		SenderID:         "test-user",
		Slots:            ir.Object{},
		LatestActionName: tracker.ActionListen,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func activeForm(name string) trackerOpt {
	return func(t *tracker.Tracker) { t.ActiveForm = &tracker.ActiveForm{Name: name} }
}

func requested(slot string) trackerOpt {
	return func(t *tracker.Tracker) { t.SetSlot(tracker.RequestedSlot, ir.String(slot)) }
}

func slot(name string, v ir.Value) trackerOpt {
	return func(t *tracker.Tracker) { t.SetSlot(name, v) }
}

func intent(name string) trackerOpt {
	return func(t *tracker.Tracker) { t.LatestMessage.Intent = &tracker.Intent{Name: name} }
}

func entity(name, value string) trackerOpt {
	return func(t *tracker.Tracker) {
		t.LatestMessage.Entities = append(t.LatestMessage.Entities,
			tracker.Entity{Entity: name, Value: ir.String(value)})
	}
}

func text(s string) trackerOpt {
	return func(t *tracker.Tracker) { t.LatestMessage.Text = strPtr(s) }
}

func lastAction(name string) trackerOpt {
	return func(t *tracker.Tracker) { t.LatestActionName = name }
}
