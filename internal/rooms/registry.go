package rooms

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"reactionrace/internal/broadcast"
	"reactionrace/internal/events"
	"reactionrace/internal/metrics"
	"reactionrace/internal/race"
	"reactionrace/internal/wshub"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrClosed       = errors.New("registry closed")
)

type Config struct {
	// EventBuffer is the per-room bus capacity; events beyond it are dropped.
	EventBuffer int
	// Clock stamps signal times. Defaults to time.Now.
	Clock func() time.Time
	// OnGameOver receives the final snapshot of a room that just reached
	// GameOver. It runs with the registry lock held and must not block.
	OnGameOver func(race.Snapshot)
}

// Room is a registry entry: the race state machine plus the fan-out plumbing
// for its live event stream.
type Room struct {
	race        *race.Room
	bus         *events.Bus
	Broadcaster *broadcast.Broadcaster
	Hub         *wshub.Hub
	CreatedAt   time.Time
}

// Registry owns every race room. One mutex guards the whole map and is held
// for the full duration of each operation, reads included, so all rooms are
// serialized behind a single critical section.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	closed  bool
	cfg     Config
	metrics *metrics.Recorder
}

func NewRegistry(cfg Config, rec *metrics.Recorder) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Registry{
		rooms:   make(map[string]*Room),
		cfg:     cfg,
		metrics: rec,
	}
}

func (s *Registry) CreateRoom(playerCount, roundCount int, names []string) (race.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return race.Snapshot{}, ErrClosed
	}

	// Try up to 10 times to generate a unique id
	for i := 0; i < 10; i++ {
		id, err := NewRoomID()
		if err != nil {
			return race.Snapshot{}, fmt.Errorf("generating room id: %w", err)
		}
		if _, exists := s.rooms[id]; exists {
			continue
		}

		bus := events.NewBus(s.cfg.EventBuffer)
		hub := wshub.NewHub()
		room := &Room{
			race:        race.NewRoom(id, playerCount, roundCount, names, race.WithClock(s.cfg.Clock)),
			bus:         bus,
			Broadcaster: broadcast.NewBroadcaster(bus, hub),
			Hub:         hub,
			CreatedAt:   time.Now(),
		}
		s.rooms[id] = room
		s.metrics.RoomCreated()

		snap := room.race.Snapshot()
		s.publish(room, events.KindRoomCreated, snap)
		return snap, nil
	}
	return race.Snapshot{}, fmt.Errorf("failed to generate unique room id after 10 attempts")
}

func (s *Registry) GetRoom(id string) (race.Snapshot, error) {
	var snap race.Snapshot
	err := s.withRoom(id, func(room *Room) error {
		snap = room.race.Snapshot()
		return nil
	})
	return snap, err
}

func (s *Registry) StartRound(id string) (race.Snapshot, error) {
	var snap race.Snapshot
	err := s.withRoom(id, func(room *Room) error {
		room.race.StartRound()
		snap = room.race.Snapshot()
		s.publish(room, events.KindRoundStarted, snap)
		return nil
	})
	return snap, err
}

func (s *Registry) TriggerSignal(id string) (race.Snapshot, error) {
	var snap race.Snapshot
	err := s.withRoom(id, func(room *Room) error {
		room.race.TriggerSignal()
		snap = room.race.Snapshot()
		s.publish(room, events.KindSignal, snap)
		return nil
	})
	return snap, err
}

func (s *Registry) RecordReaction(id string, playerID int, ms float64) (race.PlayerRoundResult, error) {
	var res race.PlayerRoundResult
	err := s.withRoom(id, func(room *Room) error {
		var err error
		res, err = room.race.RecordReaction(playerID, ms)
		if err != nil {
			s.metrics.Reaction(metrics.OutcomeRejected, ms)
			return err
		}
		outcome := metrics.OutcomeValid
		if res.FalseStart {
			outcome = metrics.OutcomeFalseStart
		}
		s.metrics.Reaction(outcome, ms)
		s.publish(room, events.KindReaction, res)
		return nil
	})
	return res, err
}

func (s *Registry) FinishRound(id string) (race.RoundResult, error) {
	var res race.RoundResult
	err := s.withRoom(id, func(room *Room) error {
		wasOver := room.race.State() == race.StateGameOver
		res = room.race.FinishRound()
		// Only the transition into GameOver ends the game; later finishes
		// keep scoring but are not archived again.
		over := !wasOver && room.race.State() == race.StateGameOver
		s.metrics.RoundFinished(over)
		s.publish(room, events.KindRoundFinished, res)
		if over {
			snap := room.race.Snapshot()
			s.publish(room, events.KindGameOver, snap)
			if s.cfg.OnGameOver != nil {
				s.cfg.OnGameOver(snap)
			}
		}
		return nil
	})
	return res, err
}

// Subscribe hands out the live event endpoints of a room.
func (s *Registry) Subscribe(id string) (*broadcast.Broadcaster, *wshub.Hub, error) {
	var (
		b   *broadcast.Broadcaster
		hub *wshub.Hub
	)
	err := s.withRoom(id, func(room *Room) error {
		b, hub = room.Broadcaster, room.Hub
		return nil
	})
	return b, hub, err
}

// List returns a snapshot of every room, ordered by id.
func (s *Registry) List() []race.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]race.Snapshot, 0, len(s.rooms))
	for _, room := range s.rooms {
		list = append(list, room.race.Snapshot())
	}
	slices.SortFunc(list, func(a, b race.Snapshot) int {
		return strings.Compare(a.ID, b.ID)
	})
	return list
}

// Close tears the registry down: every room's event stream ends and its
// WebSocket clients are disconnected. Later calls fail with ErrClosed.
func (s *Registry) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, room := range s.rooms {
		room.bus.Close()
		room.Hub.Close()
	}
}

func (s *Registry) withRoom(id string, fn func(*Room) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	room, ok := s.rooms[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return fn(room)
}

// publish must be called with s.mu held. It never blocks.
func (s *Registry) publish(room *Room, kind events.Kind, payload any) {
	ev := events.RoomEvent{RoomID: room.race.ID(), Kind: kind, Payload: payload}
	if !room.bus.Publish(ev) {
		s.metrics.EventDropped()
	}
}
