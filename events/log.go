package events

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Log is a concurrency-safe, append-only event log with fan-out
// subscriptions. Reads return deep copies; subscription delivery is
// best-effort and drops events for consumers that fall behind rather than
// blocking the appender.
type Log struct {
	mu      sync.RWMutex
	entries []*Event
	subs    map[uint64]chan *Event
	nextSub uint64
}

// NewLog creates an empty event log.
func NewLog() *Log {
	return &Log{
		subs: make(map[uint64]chan *Event),
	}
}

// Append stamps e with the next sequence number and stores it. The stored
// entry is a copy; the caller keeps ownership of e.
func (l *Log) Append(e *Event) *Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := copyEvent(e)
	entry.Sequence = uint64(len(l.entries)) + 1
	l.entries = append(l.entries, entry)

	for _, ch := range l.subs {
		select {
		case ch <- copyEvent(entry):
		default:
			// slow consumer; drop
		}
	}
	return copyEvent(entry)
}

// Len returns the number of logged events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// All returns a deep copy of every logged event in append order.
func (l *Log) All() []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Event, len(l.entries))
	for i, e := range l.entries {
		out[i] = copyEvent(e)
	}
	return out
}

// ByType returns all events of the given type, in append order.
func (l *Log) ByType(t Type) []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Event
	for _, e := range l.entries {
		if e.Type == t {
			out = append(out, copyEvent(e))
		}
	}
	return out
}

// ByAsset returns all events touching the given asset, in append order.
func (l *Log) ByAsset(asset common.Address) []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Event
	for _, e := range l.entries {
		if e.Asset == asset {
			out = append(out, copyEvent(e))
		}
	}
	return out
}

// Since returns all events with Sequence > seq, in append order.
func (l *Log) Since(seq uint64) []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq >= uint64(len(l.entries)) {
		return nil
	}
	tail := l.entries[seq:]
	out := make([]*Event, len(tail))
	for i, e := range tail {
		out[i] = copyEvent(e)
	}
	return out
}

// Subscribe registers a buffered live feed of future events. The returned
// cancel func releases the subscription and closes the channel.
func (l *Log) Subscribe(buffer uint) (<-chan *Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan *Event, buffer)

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if sub, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
