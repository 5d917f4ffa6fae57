package store

import (
	"iter"
	"slices"
	"sync"

	"cinestream.app/cinebot/internal/locale"
)

// subscriberBuffer bounds how far a slow reader may lag before appends are
// dropped for it. The log itself is never affected.
const subscriberBuffer = 32

// Conversation is the append-only message log of one assistant session.
// It lives in memory only and is discarded with its session.
type Conversation struct {
	mu          sync.RWMutex
	messages    []Message
	subscribers map[int]chan Message
	nextSubID   int
}

func NewConversation() *Conversation {
	return &Conversation{subscribers: make(map[int]chan Message)}
}

// Append adds msg at the end of the log and signals every subscriber.
func (c *Conversation) Append(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLocked(msg)
}

func (c *Conversation) appendLocked(msg Message) {
	c.messages = append(c.messages, msg)
	for _, ch := range c.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// EnsureSeeded appends the locale greeting if the log is empty. It reports
// whether a seed message was added.
func (c *Conversation) EnsureSeeded(l locale.Locale) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) > 0 {
		return false
	}
	c.appendLocked(NewMessage(RoleModel, locale.For(l).Greeting))
	return true
}

// All yields the messages in insertion order as of the call.
func (c *Conversation) All() iter.Seq[Message] {
	snapshot := c.Messages()
	return slices.Values(snapshot)
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.messages)
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Subscribe returns a channel receiving every message appended after the
// call, and a function that detaches it.
func (c *Conversation) Subscribe() (<-chan Message, func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	ch := make(chan Message, subscriberBuffer)
	c.subscribers[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}
