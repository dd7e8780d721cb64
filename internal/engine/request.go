package engine

import (
	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/form"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/tracker"
)

// Request asks the executor to run one action.
type Request struct {
	NextAction string           `json:"next_action"`
	SenderID   string           `json:"sender_id,omitempty"`
	Tracker    *tracker.Tracker `json:"tracker,omitempty"`
	Domain     *tracker.Domain  `json:"domain,omitempty"`
	Version    string           `json:"version,omitempty"`
}

// Response is the envelope returned for a successful run.
type Response struct {
	Events    event.List  `json:"events"`
	Responses []ir.Object `json:"responses"`
}

// RejectionResponse is returned instead of Response when a form rejects
// the turn, so the dialogue manager can choose another action.
type RejectionResponse struct {
	Error      string `json:"error"`
	ActionName string `json:"action_name"`
}

// NewRejectionResponse builds the envelope for a rejected turn.
func NewRejectionResponse(err *form.RejectionError) RejectionResponse {
	return RejectionResponse{Error: err.Error(), ActionName: err.Form}
}
