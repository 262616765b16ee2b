package errors

import (
	"sync"
	"time"
)

// MessageType classifies a TUI message.
type MessageType int

const (
	MessageTypeError MessageType = iota
	MessageTypeWarning
	MessageTypeInfo
	MessageTypeSuccess
)

// Message is one entry in the TUI message log.
type Message struct {
	Text      string
	Type      MessageType
	Timestamp time.Time
}

// DefaultTUICapacity bounds the TUI message log.
const DefaultTUICapacity = 50

// TUIHandler keeps the most recent messages for the dashboard status line.
type TUIHandler struct {
	mu       sync.RWMutex
	messages []Message
	capacity int
	now      func() time.Time
	onMsg    func(Message)
}

var _ ErrorHandler = (*TUIHandler)(nil)

// NewTUIHandler returns a handler that calls onMsg for every new message.
// now may be nil to use time.Now.
func NewTUIHandler(now func() time.Time, onMsg func(Message)) *TUIHandler {
	if now == nil {
		now = time.Now
	}
	return &TUIHandler{capacity: DefaultTUICapacity, now: now, onMsg: onMsg}
}

func (h *TUIHandler) Error(msg string)   { h.add(msg, MessageTypeError) }
func (h *TUIHandler) Warning(msg string) { h.add(msg, MessageTypeWarning) }
func (h *TUIHandler) Info(msg string)    { h.add(msg, MessageTypeInfo) }
func (h *TUIHandler) Success(msg string) { h.add(msg, MessageTypeSuccess) }

func (h *TUIHandler) add(text string, typ MessageType) {
	h.mu.Lock()
	m := Message{Text: text, Type: typ, Timestamp: h.now()}
	h.messages = append(h.messages, m)
	if over := len(h.messages) - h.capacity; over > 0 {
		h.messages = append(h.messages[:0:0], h.messages[over:]...)
	}
	cb := h.onMsg
	h.mu.Unlock()

	if cb != nil {
		cb(m)
	}
}

// Latest returns the newest message.
func (h *TUIHandler) Latest() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// All returns a copy of the retained messages, oldest first.
func (h *TUIHandler) All() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Clear drops every retained message.
func (h *TUIHandler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
