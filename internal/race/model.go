package race

import "time"

type State string

const (
	StateWaiting   = State("waiting")
	StateCountdown = State("countdown")
	// StateReady is reserved. No operation enters it.
	StateReady    = State("ready")
	StateRacing   = State("racing")
	StateFinished = State("finished")
	StateGameOver = State("gameover")
)

type Player struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Key   string `json:"key"`
	// Ready is carried on the wire but never consulted by the round lifecycle.
	Ready bool `json:"is_ready"`
}

type PlayerRoundResult struct {
	PlayerID     int      `json:"player_id"`
	ReactionTime *float64 `json:"reaction_time"`
	FalseStart   bool     `json:"is_false_start"`
	Rank         *int     `json:"rank"`
	Points       int      `json:"points"`
}

type RoundResult struct {
	Round         int                 `json:"round"`
	PlayerResults []PlayerRoundResult `json:"player_results"`
}

// Snapshot is a deep copy of a room, safe to hand to other goroutines.
type Snapshot struct {
	ID             string        `json:"game_id"`
	State          State         `json:"game_state"`
	Players        []Player      `json:"players"`
	CurrentRound   int           `json:"current_round"`
	MaxRounds      int           `json:"max_rounds"`
	RoundResults   []RoundResult `json:"round_results"`
	SignalAt       *time.Time    `json:"signal_at,omitempty"`
	ReactedPlayers []int         `json:"reacted_players"`
}

// BestReaction is the fastest valid reaction a player posted in the
// snapshot's round history.
func (s Snapshot) BestReaction(playerID int) *float64 {
	return bestReaction(s.RoundResults, playerID)
}

func bestReaction(history []RoundResult, playerID int) *float64 {
	var best *float64
	for _, round := range history {
		for _, pr := range round.PlayerResults {
			if pr.PlayerID != playerID || pr.ReactionTime == nil {
				continue
			}
			if best == nil || *pr.ReactionTime < *best {
				t := *pr.ReactionTime
				best = &t
			}
		}
	}
	return best
}

func (r PlayerRoundResult) clone() PlayerRoundResult {
	out := r
	if r.ReactionTime != nil {
		t := *r.ReactionTime
		out.ReactionTime = &t
	}
	if r.Rank != nil {
		rank := *r.Rank
		out.Rank = &rank
	}
	return out
}

func (r RoundResult) clone() RoundResult {
	out := RoundResult{
		Round:         r.Round,
		PlayerResults: make([]PlayerRoundResult, len(r.PlayerResults)),
	}
	for i, pr := range r.PlayerResults {
		out.PlayerResults[i] = pr.clone()
	}
	return out
}

// inputBinding is the display-only key assigned to each seat.
func inputBinding(id int) string {
	switch id {
	case 2:
		return "Enter"
	case 3:
		return "a"
	case 4:
		return "l"
	default:
		return " "
	}
}
