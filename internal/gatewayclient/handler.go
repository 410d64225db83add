package gatewayclient

import "github.com/nextlevelbuilder/clawface/internal/normalize"

// Handler receives client lifecycle and event callbacks. Callbacks run on the
// connection's read goroutine (or the goroutine that dialed), one at a time
// per connection, in arrival order, and never with the client lock held.
type Handler interface {
	OnConnect()
	// OnDisconnect reports a lost or failed connection. err is nil after an
	// explicit Disconnect.
	OnDisconnect(err error)
	OnChat(ev normalize.ChatEvent)
	OnAgent(ev normalize.AgentEvent)
}

// HandlerFuncs adapts optional functions to Handler.
type HandlerFuncs struct {
	Connect    func()
	Disconnect func(error)
	Chat       func(normalize.ChatEvent)
	Agent      func(normalize.AgentEvent)
}

func (h HandlerFuncs) OnConnect() {
	if h.Connect != nil {
		h.Connect()
	}
}

func (h HandlerFuncs) OnDisconnect(err error) {
	if h.Disconnect != nil {
		h.Disconnect(err)
	}
}

func (h HandlerFuncs) OnChat(ev normalize.ChatEvent) {
	if h.Chat != nil {
		h.Chat(ev)
	}
}

func (h HandlerFuncs) OnAgent(ev normalize.AgentEvent) {
	if h.Agent != nil {
		h.Agent(ev)
	}
}
