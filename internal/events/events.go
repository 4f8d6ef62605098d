package events

type Kind string

const (
	KindRoomCreated   = Kind("room_created")
	KindRoundStarted  = Kind("round_started")
	KindSignal        = Kind("signal")
	KindReaction      = Kind("reaction")
	KindRoundFinished = Kind("round_finished")
	KindGameOver      = Kind("game_over")
)

// RoomEvent carries an immutable payload (a snapshot or a result) describing
// one change to a room.
type RoomEvent struct {
	RoomID  string
	Kind    Kind
	Payload any
}

type Bus struct {
	Events chan RoomEvent
}

func NewBus(size int) *Bus {
	if size <= 0 {
		size = 10
	}
	return &Bus{
		Events: make(chan RoomEvent, size),
	}
}

// Publish never blocks. It reports false when the buffer is full and the
// event was dropped.
func (b *Bus) Publish(ev RoomEvent) bool {
	select {
	case b.Events <- ev:
		return true
	default:
		return false
	}
}

// Close ends the stream for consumers. Publish must not be called afterwards.
func (b *Bus) Close() {
	close(b.Events)
}
