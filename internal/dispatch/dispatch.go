// Package dispatch collects reply payloads produced while an action runs.
package dispatch

import (
	"github.com/roach88/slotform/internal/ir"
)

// Payload keys.
const (
	KeyText       = "text"
	KeyElements   = "elements"
	KeyButtons    = "buttons"
	KeyAttachment = "attachment"
	KeyTemplate   = "template"
	KeyCustom     = "custom"
	KeyImage      = "image"
)

// Dispatcher accumulates reply payloads in call order. Each Utter call
// appends exactly one payload. kwargs are merged into the payload after
// the kind-specific keys, so they can override them.
//
// A Dispatcher belongs to one action run and is not safe for concurrent use.
type Dispatcher struct {
	messages []ir.Object
}

// New returns an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// Messages returns the collected payloads in call order.
func (d *Dispatcher) Messages() []ir.Object {
	out := make([]ir.Object, len(d.messages))
	copy(out, d.messages)
	return out
}

// Len returns the number of collected payloads.
func (d *Dispatcher) Len() int {
	return len(d.messages)
}

func (d *Dispatcher) emit(msg ir.Object, kwargs ir.Object) {
	for k, v := range kwargs {
		msg[k] = v
	}
	d.messages = append(d.messages, msg)
}

// UtterMessage sends a plain text message.
func (d *Dispatcher) UtterMessage(text string, kwargs ir.Object) {
	d.emit(ir.Object{KeyText: ir.String(text)}, kwargs)
}

// UtterButtonMessage sends text with buttons.
func (d *Dispatcher) UtterButtonMessage(text string, buttons ir.List, kwargs ir.Object) {
	d.emit(ir.Object{KeyText: ir.String(text), KeyButtons: buttons}, kwargs)
}

// UtterElements sends rich elements with no text.
func (d *Dispatcher) UtterElements(elements ir.List, kwargs ir.Object) {
	d.emit(ir.Object{KeyText: ir.Null{}, KeyElements: elements}, kwargs)
}

// UtterAttachment sends an attachment with no text.
func (d *Dispatcher) UtterAttachment(attachment string, kwargs ir.Object) {
	d.emit(ir.Object{KeyText: ir.Null{}, KeyAttachment: ir.String(attachment)}, kwargs)
}

// UtterTemplate asks the dialogue manager to render a named response
// template. kwargs are the template variables.
func (d *Dispatcher) UtterTemplate(template string, kwargs ir.Object) {
	d.emit(ir.Object{KeyTemplate: ir.String(template)}, kwargs)
}

// UtterButtonTemplate renders a named template with buttons.
func (d *Dispatcher) UtterButtonTemplate(template string, buttons ir.List, kwargs ir.Object) {
	d.emit(ir.Object{KeyTemplate: ir.String(template), KeyButtons: buttons}, kwargs)
}

// UtterCustomJSON sends a channel-specific payload.
func (d *Dispatcher) UtterCustomJSON(custom ir.Value, kwargs ir.Object) {
	d.emit(ir.Object{KeyCustom: custom}, kwargs)
}

// UtterImageURL sends an image by URL.
func (d *Dispatcher) UtterImageURL(image string, kwargs ir.Object) {
	d.emit(ir.Object{KeyImage: ir.String(image)}, kwargs)
}
