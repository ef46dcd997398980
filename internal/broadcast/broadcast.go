// Package broadcast is a non-blocking publish-subscribe plane for push
// events delivered to WebSocket clients. It is adapted from the bounded
// per-subscriber channel idiom used for SSE delivery, generalised to carry
// discriminated event envelopes instead of full state snapshots, and to
// drop the oldest queued event rather than the newest when a subscriber
// falls behind: clients care about the current state, not every step that
// led to it.
package broadcast

import "sync"

const subBufferSize = 32

// EventType discriminates the push event envelopes the miniserver and the
// admin UI accept on the WebSocket surface.
type EventType string

const (
	EventAudio         EventType = "audio_event"
	EventRoomFavChange EventType = "roomfavchanged_event"
	EventGroupChanged  EventType = "audio_group_changed_event"
	EventQueueChanged  EventType = "audio_queue_event"
	EventGlobalSearch  EventType = "globalsearch_result"
	EventLog           EventType = "log"
)

// Event is one push frame. Payload carries whatever the Type implies —
// PlayerStatus, a favorite list, a group record and so on — as a Go value;
// it is JSON-encoded only when the frame is written to a subscriber.
type Event struct {
	Type    EventType
	ZoneID  int
	Payload interface{}
}

// Bus is a bounded, non-blocking publish-subscribe event bus.
type Bus struct {
	mu   sync.Mutex
	subs map[string]chan Event
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber under id and returns its channel.
// Call Unsubscribe when the caller is done to release it.
func (b *Bus) Subscribe(id string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subBufferSize)
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes and closes a subscriber's channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers ev to every subscriber. A subscriber whose queue is full
// has its oldest pending event dropped to make room, rather than dropping
// ev itself — a connected client should always converge on current state.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		for {
			select {
			case ch <- ev:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
