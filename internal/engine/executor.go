package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/slotform/internal/dispatch"
	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/form"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/store"
	"github.com/roach88/slotform/internal/tracker"
)

// Action is a named handler the executor can run. *form.Controller is
// the main implementation.
type Action interface {
	Name() string
	Run(ctx context.Context, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error)
}

// ActionFunc adapts a function to an Action.
type ActionFunc struct {
	ActionName string
	Fn         func(ctx context.Context, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error)
}

// Name implements Action.
func (a ActionFunc) Name() string { return a.ActionName }

// Run implements Action.
func (a ActionFunc) Run(ctx context.Context, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error) {
	return a.Fn(ctx, d, t, dom)
}

// Journal persists executed turns. Implemented by *store.Store.
type Journal interface {
	WriteTurn(ctx context.Context, turn store.Turn) (bool, error)
}

// Option configures an Executor.
type Option func(*Executor)

// WithJournal records every turn, including rejected ones.
func WithJournal(j Journal) Option {
	return func(e *Executor) {
		e.journal = j
	}
}

// Sequencer issues journal sequence numbers. Implemented by *Clock and
// testutil.DeterministicClock.
type Sequencer interface {
	Next() int64
}

// WithClock sets the logical clock used to stamp journaled turns.
// Use ResumeClock to continue an existing journal.
func WithClock(c Sequencer) Option {
	return func(e *Executor) {
		e.clock = c
	}
}

// WithTokenGenerator sets the generator for anonymous conversation IDs.
// Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Executor) {
		e.tokens = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// Executor dispatches requests to registered actions.
type Executor struct {
	mu      sync.RWMutex
	actions map[string]Action

	journal Journal
	clock   Sequencer
	tokens  TokenGenerator
	logger  *slog.Logger
}

// NewExecutor creates an executor with no registered actions.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		actions: make(map[string]Action),
		clock:   NewClock(),
		tokens:  UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds an action. Names must be non-empty and unique.
func (e *Executor) Register(a Action) error {
	if a == nil || a.Name() == "" {
		return &RuntimeError{Code: ErrCodeInvalidAction, Message: "an action must have a name"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.actions[a.Name()]; exists {
		return &RuntimeError{Code: ErrCodeDuplicateAction, Message: "action already registered", Action: a.Name()}
	}
	e.actions[a.Name()] = a
	e.logger.Info("registered action", "action", a.Name())
	return nil
}

// RegisterForm builds a controller for def and registers it.
func (e *Executor) RegisterForm(def form.Definition, opts ...form.Option) (*form.Controller, error) {
	opts = append([]form.Option{form.WithLogger(e.logger)}, opts...)
	c, err := form.New(def, opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// RegisteredActionNames returns registered names in sorted order.
func (e *Executor) RegisteredActionNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.actions))
	for name := range e.actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run executes the action named by req.NextAction.
//
// A form rejection is returned unchanged as a *form.RejectionError (use
// form.IsRejection) and is journaled with outcome "rejected". Events
// without a discriminator are dropped before the response is built.
func (e *Executor) Run(ctx context.Context, req Request) (*Response, error) {
	CheckVersion(e.logger, req.Version)

	if req.NextAction == "" {
		e.logger.Warn("received an action call without an action")
		return nil, &RuntimeError{Code: ErrCodeInvalidAction, Message: "request has no next_action"}
	}

	e.mu.RLock()
	action, ok := e.actions[req.NextAction]
	e.mu.RUnlock()
	if !ok {
		return nil, NewMissingActionError(req.NextAction)
	}

	t := e.trackerFor(req)
	dom := req.Domain
	if dom == nil {
		dom = &tracker.Domain{}
	}

	e.logger.Debug("running action", "action", req.NextAction, "conversation", t.SenderID)
	d := dispatch.New()
	events, err := action.Run(ctx, d, t, dom)
	if err != nil {
		var rejection *form.RejectionError
		if errors.As(err, &rejection) {
			e.logger.Debug("action rejected", "action", req.NextAction, "slot", rejection.Slot)
			if jerr := e.record(ctx, t.SenderID, req.NextAction, store.OutcomeRejected, nil, nil, rejection.Error()); jerr != nil {
				return nil, jerr
			}
		}
		return nil, err
	}

	events = event.Sanitize(events, e.logger.With("action", req.NextAction))
	responses := d.Messages()

	if err := e.record(ctx, t.SenderID, req.NextAction, store.OutcomeEvents, events, responses, ""); err != nil {
		return nil, err
	}

	e.logger.Debug("finished action", "action", req.NextAction, "events", len(events))
	return &Response{Events: events, Responses: responses}, nil
}

// trackerFor returns the request tracker, filling a missing sender from
// the request or, failing that, from the token generator. The caller's
// tracker is copied, never modified.
func (e *Executor) trackerFor(req Request) *tracker.Tracker {
	var t *tracker.Tracker
	if req.Tracker != nil {
		t = req.Tracker.Clone()
	} else {
		t = &tracker.Tracker{Slots: ir.Object{}}
	}
	if t.SenderID == "" {
		t.SenderID = req.SenderID
	}
	if t.SenderID == "" {
		t.SenderID = e.tokens.Generate()
	}
	return t
}

func (e *Executor) record(ctx context.Context, conversationID, action string, outcome store.Outcome, events []event.Event, responses []ir.Object, errMsg string) error {
	if e.journal == nil {
		return nil
	}

	seq := e.clock.Next()
	id, err := ir.TurnID(conversationID, action, seq)
	if err != nil {
		return fmt.Errorf("journal turn: %w", err)
	}

	_, err = e.journal.WriteTurn(ctx, store.Turn{
		ID:             id,
		Seq:            seq,
		ConversationID: conversationID,
		ActionName:     action,
		Outcome:        outcome,
		Events:         events,
		Responses:      responses,
		Error:          errMsg,
		EngineVersion:  ir.EngineVersion,
		IRVersion:      ir.IRVersion,
	})
	if err != nil {
		return fmt.Errorf("journal turn: %w", err)
	}
	return nil
}
