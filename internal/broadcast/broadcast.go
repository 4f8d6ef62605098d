package broadcast

import (
	"encoding/json"
	"sync"

	"reactionrace/internal/events"
	"reactionrace/internal/wshub"

	"github.com/rs/zerolog/log"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan Message]bool
	done    chan struct{}
}

// NewBroadcaster drains bus until it is closed, fanning every event out to
// SSE subscribers and, when hub is non-nil, to the room's WebSocket clients.
func NewBroadcaster(bus *events.Bus, hub *wshub.Hub) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan Message]bool),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(b.done)
		for ev := range bus.Events {
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				log.Error().Str("component", "broadcast").Str("room", ev.RoomID).Err(err).Msg("marshal event payload")
				continue
			}
			b.Broadcast(string(ev.Kind), string(data))
			if hub != nil {
				hub.Broadcast(wshub.ServerMessage{Type: string(ev.Kind), RoomID: ev.RoomID, Data: data})
			}
		}
	}()
	return b
}

// Done is closed once the bus has been drained and closed.
func (b *Broadcaster) Done() <-chan struct{} {
	return b.done
}

func (b *Broadcaster) Subscribe() chan Message {
	ch := make(chan Message, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan Message) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

func (b *Broadcaster) Broadcast(event string, data string) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- Message{Event: event, Data: data}:
		default:
			// skip clients with full data channels
		}
	}
}
