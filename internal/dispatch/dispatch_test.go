package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/slotform/internal/ir"
)

func TestUtterKinds(t *testing.T) {
	buttons := ir.List{ir.Object{"title": ir.String("Yes"), "payload": ir.String("/affirm")}}

	tests := []struct {
		name string
		call func(d *Dispatcher)
		want ir.Object
	}{
		{
			"message",
			func(d *Dispatcher) { d.UtterMessage("hello", nil) },
			ir.Object{"text": ir.String("hello")},
		},
		{
			"button message",
			func(d *Dispatcher) { d.UtterButtonMessage("ok?", buttons, nil) },
			ir.Object{"text": ir.String("ok?"), "buttons": buttons},
		},
		{
			"elements",
			func(d *Dispatcher) { d.UtterElements(ir.List{ir.String("card")}, nil) },
			ir.Object{"text": ir.Null{}, "elements": ir.List{ir.String("card")}},
		},
		{
			"attachment",
			func(d *Dispatcher) { d.UtterAttachment("menu.pdf", nil) },
			ir.Object{"text": ir.Null{}, "attachment": ir.String("menu.pdf")},
		},
		{
			"template with kwargs",
			func(d *Dispatcher) { d.UtterTemplate("utter_ask_size", ir.Object{"crust": ir.String("thin")}) },
			ir.Object{"template": ir.String("utter_ask_size"), "crust": ir.String("thin")},
		},
		{
			"button template",
			func(d *Dispatcher) { d.UtterButtonTemplate("utter_confirm", buttons, nil) },
			ir.Object{"template": ir.String("utter_confirm"), "buttons": buttons},
		},
		{
			"custom",
			func(d *Dispatcher) { d.UtterCustomJSON(ir.Object{"blocks": ir.List{}}, nil) },
			ir.Object{"custom": ir.Object{"blocks": ir.List{}}},
		},
		{
			"image",
			func(d *Dispatcher) { d.UtterImageURL("https://example.com/p.png", nil) },
			ir.Object{"image": ir.String("https://example.com/p.png")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			tt.call(d)
			assert.Equal(t, []ir.Object{tt.want}, d.Messages())
		})
	}
}

func TestKwargsOverrideKindKeys(t *testing.T) {
	d := New()
	d.UtterMessage("original", ir.Object{"text": ir.String("override")})
	assert.Equal(t, ir.String("override"), d.Messages()[0]["text"])
}

func TestMessagesKeepCallOrder(t *testing.T) {
	d := New()
	d.UtterMessage("one", nil)
	d.UtterTemplate("two", nil)

	msgs := d.Messages()
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, ir.String("one"), msgs[0]["text"])
	assert.Equal(t, ir.String("two"), msgs[1]["template"])

	msgs[0] = nil
	assert.NotNil(t, d.Messages()[0], "Messages returns a copy")
}
