package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/slotform/internal/dispatch"
	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/mapping"
	"github.com/roach88/slotform/internal/tracker"
)

// DefaultPromptPrefix prefixes the response template uttered when a slot
// is requested: "utter_ask_<slot>".
const DefaultPromptPrefix = "utter_ask_"

// Definition is implemented by each concrete form.
type Definition interface {
	// Name is the form (and action) name.
	Name() string

	// RequiredSlots lists the slots to fill, in request order. It may
	// depend on the tracker.
	RequiredSlots(t *tracker.Tracker) []string

	// RegisterValidators is called once by New.
	RegisterValidators(v Validators)

	// Submit runs once every required slot is filled and returns any
	// extra events.
	Submit(ctx context.Context, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error)
}

// MappingProvider is implemented by definitions with custom slot mappings.
// Without it every slot maps from the entity of the same name.
type MappingProvider interface {
	SlotMappings() mapping.Table
}

// InputValidator replaces the default input validation step. It is only
// called when validation is required; implementations can still call
// c.Validate and post-process the result, or return a deactivation to
// cancel the form.
type InputValidator interface {
	ValidateInput(ctx context.Context, c *Controller, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithPromptPrefix overrides DefaultPromptPrefix.
func WithPromptPrefix(prefix string) Option {
	return func(c *Controller) {
		c.promptPrefix = prefix
	}
}

// Controller drives one form definition through its lifecycle.
// It holds no per-conversation state and is safe for concurrent use as
// long as the definition's hooks are.
type Controller struct {
	def          Definition
	resolver     *mapping.Resolver
	validators   Validators
	logger       *slog.Logger
	promptPrefix string
}

// New builds a controller. The mapping table is validated up front so a
// misconfigured form fails here rather than mid-conversation.
func New(def Definition, opts ...Option) (*Controller, error) {
	if def == nil {
		return nil, errors.New("form definition is nil")
	}
	if def.Name() == "" {
		return nil, errors.New("form name is required")
	}

	c := &Controller{
		def:          def,
		validators:   Validators{},
		logger:       slog.Default(),
		promptPrefix: DefaultPromptPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}

	var table mapping.Table
	if mp, ok := def.(MappingProvider); ok {
		table = mp.SlotMappings()
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("form %q: %w", def.Name(), err)
	}

	c.resolver = mapping.NewResolver(table, c.logger)
	def.RegisterValidators(c.validators)
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(def Definition, opts ...Option) *Controller {
	c, err := New(def, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the form name.
func (c *Controller) Name() string {
	return c.def.Name()
}

// Definition returns the wrapped definition.
func (c *Controller) Definition() Definition {
	return c.def
}

// Run executes one turn and returns the ordered events. A
// *RejectionError means the requested slot could not be filled; no
// events are returned with it.
func (c *Controller) Run(ctx context.Context, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error) {
	events, err := c.ActivateIfRequired(ctx, d, t, dom)
	if err != nil {
		return nil, err
	}

	validated, err := c.ValidateIfRequired(ctx, d, t, dom)
	if err != nil {
		return nil, err
	}
	events = append(events, validated...)

	if deactivated(events) {
		c.logger.Debug("form deactivated during validation", "form", c.Name())
		return events, nil
	}

	next := t.Clone()
	for _, e := range events {
		if s, ok := e.(event.SlotSet); ok {
			next.SetSlot(s.Name, s.Value)
		}
	}

	if req, ok := c.RequestNextSlot(d, next); ok {
		return append(events, req), nil
	}

	c.logFilledSlots(ctx, next)
	c.logger.Debug("submitting form", "form", c.Name())
	submitted, err := c.def.Submit(ctx, d, next, dom)
	if err != nil {
		return nil, fmt.Errorf("submit form %q: %w", c.Name(), err)
	}
	events = append(events, submitted...)
	return append(events, c.Deactivate()...), nil
}

// ActivateIfRequired returns no events when this form is already active.
// Otherwise it returns the activation event followed by validated events
// for required slots that were filled before activation.
func (c *Controller) ActivateIfRequired(ctx context.Context, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error) {
	if t.ActiveFormName() == c.Name() {
		return nil, nil
	}
	c.logger.Debug("activating form", "form", c.Name(), "previous", t.ActiveFormName())

	events := []event.Event{event.Activate(c.Name())}

	prefilled := ir.Object{}
	for _, slot := range c.def.RequiredSlots(t) {
		if t.HasSlotValue(slot) {
			v, _ := t.Slot(slot)
			prefilled[slot] = v
		}
	}
	if len(prefilled) == 0 {
		c.logger.Debug("no pre-filled required slots to validate", "form", c.Name())
		return events, nil
	}

	c.logger.Debug("validating pre-filled required slots", "form", c.Name(), "slots", prefilled.SortedKeys())
	validated, err := c.validators.Validate(ctx, prefilled, d, t, dom)
	if err != nil {
		return nil, err
	}
	return append(events, validated...), nil
}

// ValidateIfRequired validates user input only right after action_listen
// and only when no form is active or the active form's validate flag is
// set (default true).
func (c *Controller) ValidateIfRequired(ctx context.Context, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error) {
	if t.LastExecutedAction() != tracker.ActionListen {
		c.logger.Debug("skipping validation", "form", c.Name(), "latest_action", t.LastExecutedAction())
		return nil, nil
	}
	if t.ActiveForm != nil && !t.ActiveForm.ShouldValidate() {
		c.logger.Debug("skipping validation", "form", c.Name(), "reason", "validate flag off")
		return nil, nil
	}

	if iv, ok := c.def.(InputValidator); ok {
		return iv.ValidateInput(ctx, c, d, t, dom)
	}
	return c.Validate(ctx, d, t, dom)
}

// Validate extracts other slots and the requested slot, rejects the turn
// if a slot was requested and nothing was extracted, and runs the
// validators over what was.
func (c *Controller) Validate(ctx context.Context, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error) {
	values, err := c.resolver.ExtractOther(t, c.Name(), c.def.RequiredSlots(t))
	if err != nil {
		return nil, err
	}

	if requested := t.RequestedSlotName(); requested != "" {
		fromRequested, err := c.resolver.ExtractRequested(t)
		if err != nil {
			return nil, err
		}
		for k, v := range fromRequested {
			values[k] = v
		}
		if len(values) == 0 {
			return nil, &RejectionError{Slot: requested, Form: c.Name()}
		}
	}

	c.logger.Debug("validating extracted slots", "form", c.Name(), "slots", values.SortedKeys())
	return c.validators.Validate(ctx, values, d, t, dom)
}

// RequestNextSlot finds the first required slot without a value, utters
// its prompt template with the current slots, and returns the event that
// sets the requested-slot sentinel. ok is false when every slot is filled.
func (c *Controller) RequestNextSlot(d *dispatch.Dispatcher, t *tracker.Tracker) (event.SlotSet, bool) {
	for _, slot := range c.def.RequiredSlots(t) {
		if t.HasSlotValue(slot) {
			continue
		}
		c.logger.Debug("requesting next slot", "form", c.Name(), "slot", slot)
		d.UtterTemplate(c.promptPrefix+slot, t.Slots.Clone())
		return event.Set(tracker.RequestedSlot, ir.String(slot)), true
	}
	return event.SlotSet{}, false
}

// Deactivate returns the events that close the form and clear the
// requested-slot sentinel.
func (c *Controller) Deactivate() []event.Event {
	c.logger.Debug("deactivating form", "form", c.Name())
	return []event.Event{event.Deactivate(), event.Clear(tracker.RequestedSlot)}
}

func (c *Controller) logFilledSlots(ctx context.Context, t *tracker.Tracker) {
	if !c.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	var b strings.Builder
	for _, slot := range c.def.RequiredSlots(t) {
		v, _ := t.Slot(slot)
		fmt.Fprintf(&b, "\n\t%s: %v", slot, ir.ToAny(v))
	}
	c.logger.Debug("all required slots are filled", "form", c.Name(), "slots", b.String())
}

func deactivated(events []event.Event) bool {
	for _, e := range events {
		if f, ok := e.(event.Form); ok && f.IsDeactivation() {
			return true
		}
	}
	return false
}
