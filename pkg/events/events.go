package events

import "sync"

// Type defines the type of event being broadcast.
type Type string

const (
	SessionConnected    Type = "session_connected"
	AccountChanged      Type = "account_changed"
	SessionDisconnected Type = "session_disconnected"
	NetworkChanged      Type = "network_changed"
	BalanceUpdated      Type = "balance_updated"
	HistoryUpdated      Type = "history_updated"
	TransferSubmitted   Type = "transfer_submitted"
	Notification        Type = "notification"
)

// Event represents a dashboard event.
type Event struct {
	Type Type        `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event

const subscriberBuffer = 100

// Bus fans events out to every subscriber.
type Bus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (b *Bus) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(Subscriber, subscriberBuffer)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Publish delivers event to every subscriber without blocking. A subscriber
// whose buffer is full misses the event.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
