package race

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Room is the round lifecycle of a single race. It is not safe for concurrent
// use; rooms.Registry serializes every call.
type Room struct {
	id           string
	state        State
	players      []Player
	currentRound int
	maxRounds    int
	history      []RoundResult
	signalTime   *time.Time
	reacted      []int
	reactions    map[int]float64
	now          func() time.Time
}

type Option func(*Room)

// WithClock replaces time.Now as the source of the signal timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Room) {
		r.now = now
	}
}

// NewRoom seats playerCount players with ids 1..playerCount. Seats beyond
// the supplied names get a "Player N" placeholder.
func NewRoom(id string, playerCount, maxRounds int, names []string, opts ...Option) *Room {
	if playerCount < 0 {
		playerCount = 0
	}
	players := make([]Player, playerCount)
	for i := range players {
		seat := i + 1
		name := fmt.Sprintf("Player %d", seat)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		players[i] = Player{ID: seat, Name: name, Key: inputBinding(seat)}
	}

	r := &Room{
		id:        id,
		state:     StateWaiting,
		players:   players,
		maxRounds: maxRounds,
		reactions: make(map[int]float64),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Room) ID() string { return r.id }

func (r *Room) State() State { return r.state }

func (r *Room) CurrentRound() int { return r.currentRound }

func (r *Room) MaxRounds() int { return r.maxRounds }

func (r *Room) SignalTime() *time.Time {
	if r.signalTime == nil {
		return nil
	}
	t := *r.signalTime
	return &t
}

// Reaction returns the raw time reported by a player this round, including
// false starts.
func (r *Room) Reaction(playerID int) (float64, bool) {
	ms, ok := r.reactions[playerID]
	return ms, ok
}

// StartRound moves the room into Countdown from any state and forgets the
// previous round's signal and reactions.
func (r *Room) StartRound() {
	r.state = StateCountdown
	r.signalTime = nil
	r.reacted = r.reacted[:0]
	clear(r.reactions)
}

// TriggerSignal fires the green light. No state is required beforehand.
func (r *Room) TriggerSignal() {
	r.state = StateRacing
	t := r.now()
	r.signalTime = &t
}

// RecordReaction accepts one reaction per player while Racing. The reported
// time is trusted as-is. Scoring happens in FinishRound, so the returned
// result carries no rank and zero points.
func (r *Room) RecordReaction(playerID int, ms float64) (PlayerRoundResult, error) {
	if r.state != StateRacing {
		return PlayerRoundResult{}, fmt.Errorf("%w: room %s is %s", ErrInvalidState, r.id, r.state)
	}
	if !r.hasPlayer(playerID) {
		return PlayerRoundResult{}, fmt.Errorf("%w: %d is not seated in room %s", ErrUnknownPlayer, playerID, r.id)
	}
	if _, ok := r.reactions[playerID]; ok {
		return PlayerRoundResult{}, fmt.Errorf("%w: player %d", ErrDuplicateReaction, playerID)
	}

	r.reacted = append(r.reacted, playerID)
	r.reactions[playerID] = ms

	res := PlayerRoundResult{PlayerID: playerID, FalseStart: isFalseStart(ms)}
	if !res.FalseStart {
		t := ms
		res.ReactionTime = &t
	}
	return res, nil
}

// FinishRound scores the current round for every seated player, applies the
// points to cumulative scores and records the result in the history.
func (r *Room) FinishRound() RoundResult {
	r.state = StateFinished
	r.currentRound++

	results := make([]PlayerRoundResult, len(r.players))
	valid := make([]int, 0, len(r.players))
	for i, p := range r.players {
		res := PlayerRoundResult{PlayerID: p.ID}
		ms, reacted := r.reactions[p.ID]
		switch {
		case !reacted:
		case isFalseStart(ms):
			res.FalseStart = true
			res.Points = FalseStartPenalty
		default:
			t := ms
			res.ReactionTime = &t
			res.Points = BandPoints(ms)
			valid = append(valid, i)
		}
		results[i] = res
	}

	// Stable, so equal times keep seat order.
	slices.SortStableFunc(valid, func(a, b int) int {
		return cmp.Compare(*results[a].ReactionTime, *results[b].ReactionTime)
	})
	for pos, idx := range valid {
		rank := pos + 1
		results[idx].Rank = &rank
		results[idx].Points += RankBonus(rank)
	}

	for i := range r.players {
		r.players[i].Score += results[i].Points
	}

	round := RoundResult{Round: r.currentRound, PlayerResults: results}
	r.history = append(r.history, round.clone())

	if r.currentRound >= r.maxRounds {
		r.state = StateGameOver
	} else {
		r.state = StateWaiting
	}
	return round
}

// BestReaction is the fastest valid reaction a player has posted across all
// finished rounds.
func (r *Room) BestReaction(playerID int) *float64 {
	return bestReaction(r.history, playerID)
}

func (r *Room) Snapshot() Snapshot {
	s := Snapshot{
		ID:             r.id,
		State:          r.state,
		Players:        slices.Clone(r.players),
		CurrentRound:   r.currentRound,
		MaxRounds:      r.maxRounds,
		RoundResults:   make([]RoundResult, len(r.history)),
		SignalAt:       r.SignalTime(),
		ReactedPlayers: append([]int{}, r.reacted...),
	}
	if s.Players == nil {
		s.Players = []Player{}
	}
	for i, round := range r.history {
		s.RoundResults[i] = round.clone()
	}
	return s
}

func (r *Room) hasPlayer(id int) bool {
	return id >= 1 && id <= len(r.players)
}
