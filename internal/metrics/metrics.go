package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for reactions.
const (
	OutcomeValid      = "valid"
	OutcomeFalseStart = "false_start"
	OutcomeRejected   = "rejected"
)

// Recorder holds the game collectors. A nil *Recorder records nothing.
type Recorder struct {
	RoomsCreated   prometheus.Counter
	RoundsFinished prometheus.Counter
	GamesOver      prometheus.Counter
	Reactions      *prometheus.CounterVec
	ReactionTimes  prometheus.Histogram
	DroppedEvents  prometheus.Counter
}

func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		RoomsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "reactionrace_rooms_created_total",
			Help: "Race rooms created.",
		}),
		RoundsFinished: f.NewCounter(prometheus.CounterOpts{
			Name: "reactionrace_rounds_finished_total",
			Help: "Rounds scored across all rooms.",
		}),
		GamesOver: f.NewCounter(prometheus.CounterOpts{
			Name: "reactionrace_games_over_total",
			Help: "Rooms that reached their final round.",
		}),
		Reactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reactionrace_reactions_total",
			Help: "Reactions submitted, by outcome.",
		}, []string{"outcome"}),
		ReactionTimes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reactionrace_reaction_ms",
			Help:    "Reported reaction times of accepted, non false-start reactions.",
			Buckets: []float64{100, 150, 200, 250, 300, 400, 500, 750, 1000},
		}),
		DroppedEvents: f.NewCounter(prometheus.CounterOpts{
			Name: "reactionrace_dropped_events_total",
			Help: "Room events dropped because a bus buffer was full.",
		}),
	}
}

func (r *Recorder) RoomCreated() {
	if r == nil {
		return
	}
	r.RoomsCreated.Inc()
}

func (r *Recorder) RoundFinished(gameOver bool) {
	if r == nil {
		return
	}
	r.RoundsFinished.Inc()
	if gameOver {
		r.GamesOver.Inc()
	}
}

func (r *Recorder) Reaction(outcome string, ms float64) {
	if r == nil {
		return
	}
	r.Reactions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeValid {
		r.ReactionTimes.Observe(ms)
	}
}

func (r *Recorder) EventDropped() {
	if r == nil {
		return
	}
	r.DroppedEvents.Inc()
}
