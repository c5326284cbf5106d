// Package bus carries chat messages from the Lightning core to whatever
// renders them (terminal, HTTP poller). The core never calls into rendering
// code directly; it posts here and subscribers consume at their own pace.
package bus

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// MessageType tags a chat message for rendering.
type MessageType string

const (
	TypeBot      MessageType = "bot"
	TypeSystem   MessageType = "system"
	TypeSummary  MessageType = "summary"
	TypeLeads    MessageType = "leads"
	TypeError    MessageType = "error"
	TypeQuestion MessageType = "question"
)

// ChatMessage is the sole payload exchanged between the core and the UI.
type ChatMessage struct {
	Scope            string      `json:"scope,omitempty"`
	Content          string      `json:"content"`
	Type             MessageType `json:"type"`
	Timestamp        time.Time   `json:"timestamp"`
	IsHTML           bool        `json:"is_html,omitempty"`
	IsStructuredData bool        `json:"is_structured_data,omitempty"`
	Data             any         `json:"data,omitempty"`
}

// subscriberBuffer bounds each subscriber's queue; a stalled subscriber
// loses its oldest messages rather than blocking the core.
const subscriberBuffer = 64

// Emitter fans chat messages out to subscribers.
type Emitter struct {
	mu     sync.Mutex
	subs   map[int]chan ChatMessage
	nextID int
	closed bool
}

// New creates an Emitter with no subscribers.
func New() *Emitter {
	return &Emitter{subs: make(map[int]chan ChatMessage)}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the subscriber is done; it closes the channel.
func (e *Emitter) Subscribe() (<-chan ChatMessage, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	ch := make(chan ChatMessage, subscriberBuffer)
	if e.closed {
		close(ch)
		return ch, func() {}
	}
	e.subs[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if sub, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Post delivers msg to all current subscribers without blocking. If a
// subscriber's buffer is full its oldest message is dropped to make room.
func (e *Emitter) Post(msg ChatMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	for _, ch := range e.subs {
		select {
		case ch <- msg:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
				zap.L().Warn("bus: dropped message for stalled subscriber",
					zap.String("type", string(msg.Type)))
			}
		}
	}
}

// Close shuts down the emitter and closes all subscriber channels.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}
