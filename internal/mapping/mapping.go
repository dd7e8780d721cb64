package mapping

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/slotform/internal/ir"
)

// Kind identifies the extraction source of a mapping. The zero Kind is
// invalid.
type Kind int

const (
	kindInvalid Kind = iota

	// KindEntity takes the first value of a named entity.
	KindEntity

	// KindIntent takes a literal value when the intent filter matches.
	KindIntent

	// KindText takes the raw text of the latest message.
	KindText

	// KindTriggerIntent is like KindIntent but only applies before the
	// form is active, or while another form is active.
	KindTriggerIntent
)

var kindNames = map[Kind]string{
	KindEntity:        "from_entity",
	KindIntent:        "from_intent",
	KindText:          "from_text",
	KindTriggerIntent: "from_trigger_intent",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind converts a wire name ("from_entity", or the short form
// "entity") to a Kind.
func ParseKind(s string) (Kind, error) {
	name := s
	if !strings.HasPrefix(name, "from_") {
		name = "from_" + name
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return kindInvalid, fmt.Errorf("unknown slot mapping type %q", s)
}

// SlotMapping is one immutable rule for obtaining a slot value.
// Build it with FromEntity, FromIntent, FromText or FromTriggerIntent.
type SlotMapping struct {
	kind       Kind
	entity     string
	value      ir.Value
	intents    []string
	notIntents []string
}

// Option configures the intent filter of a mapping.
type Option func(*SlotMapping)

// WithIntents restricts the mapping to the listed intents.
func WithIntents(names ...string) Option {
	return func(m *SlotMapping) {
		m.intents = append(m.intents, names...)
	}
}

// WithNotIntents excludes the listed intents.
func WithNotIntents(names ...string) Option {
	return func(m *SlotMapping) {
		m.notIntents = append(m.notIntents, names...)
	}
}

func build(m SlotMapping, opts []Option) (SlotMapping, error) {
	for _, opt := range opts {
		opt(&m)
	}
	if len(m.intents) > 0 && len(m.notIntents) > 0 {
		return SlotMapping{}, &ConfigError{
			Kind: m.kind,
			Message: fmt.Sprintf("providing both intent %v and not_intent %v is not supported",
				m.intents, m.notIntents),
		}
	}
	return m, nil
}

// FromEntity maps a slot to the first value of entity.
func FromEntity(entity string, opts ...Option) (SlotMapping, error) {
	if entity == "" {
		return SlotMapping{}, &ConfigError{Kind: KindEntity, Message: "entity name is required"}
	}
	return build(SlotMapping{kind: KindEntity, entity: entity}, opts)
}

// FromIntent maps a slot to a literal value.
func FromIntent(value ir.Value, opts ...Option) (SlotMapping, error) {
	if ir.IsNull(value) {
		return SlotMapping{}, &ConfigError{Kind: KindIntent, Message: "value is required"}
	}
	return build(SlotMapping{kind: KindIntent, value: value}, opts)
}

// FromText maps a slot to the raw text of the latest message.
func FromText(opts ...Option) (SlotMapping, error) {
	return build(SlotMapping{kind: KindText}, opts)
}

// FromTriggerIntent maps a slot to a literal value set when the form is
// triggered.
func FromTriggerIntent(value ir.Value, opts ...Option) (SlotMapping, error) {
	if ir.IsNull(value) {
		return SlotMapping{}, &ConfigError{Kind: KindTriggerIntent, Message: "value is required"}
	}
	return build(SlotMapping{kind: KindTriggerIntent, value: value}, opts)
}

// MustFromEntity is like FromEntity but panics on error.
func MustFromEntity(entity string, opts ...Option) SlotMapping {
	return must(FromEntity(entity, opts...))
}

// MustFromIntent is like FromIntent but panics on error.
func MustFromIntent(value ir.Value, opts ...Option) SlotMapping {
	return must(FromIntent(value, opts...))
}

// MustFromText is like FromText but panics on error.
func MustFromText(opts ...Option) SlotMapping {
	return must(FromText(opts...))
}

// MustFromTriggerIntent is like FromTriggerIntent but panics on error.
func MustFromTriggerIntent(value ir.Value, opts ...Option) SlotMapping {
	return must(FromTriggerIntent(value, opts...))
}

func must(m SlotMapping, err error) SlotMapping {
	if err != nil {
		panic(err)
	}
	return m
}

// Kind returns the mapping kind.
func (m SlotMapping) Kind() Kind { return m.kind }

// Entity returns the entity name of an entity mapping.
func (m SlotMapping) Entity() string { return m.entity }

// Value returns the literal of an intent or trigger-intent mapping.
func (m SlotMapping) Value() ir.Value { return m.value }

// Intents returns a copy of the allow-list.
func (m SlotMapping) Intents() []string { return slices.Clone(m.intents) }

// NotIntents returns a copy of the deny-list.
func (m SlotMapping) NotIntents() []string { return slices.Clone(m.notIntents) }

// Eligible reports whether the mapping applies to the given intent:
// (allow-list empty and intent not denied) or intent allowed.
func (m SlotMapping) Eligible(intent string) bool {
	notDenied := len(m.intents) == 0 && !slices.Contains(m.notIntents, intent)
	return notDenied || slices.Contains(m.intents, intent)
}

// String renders the mapping for logs.
func (m SlotMapping) String() string {
	var b strings.Builder
	b.WriteString(m.kind.String())
	switch m.kind {
	case KindEntity:
		fmt.Fprintf(&b, "(%s)", m.entity)
	case KindIntent, KindTriggerIntent:
		fmt.Fprintf(&b, "(%v)", ir.ToAny(m.value))
	}
	if len(m.intents) > 0 {
		fmt.Fprintf(&b, " intent=%v", m.intents)
	}
	if len(m.notIntents) > 0 {
		fmt.Fprintf(&b, " not_intent=%v", m.notIntents)
	}
	return b.String()
}
