package server

import (
	"net/http"
	"strconv"
	"strings"

	"reactionrace/internal/analytics"
	"reactionrace/internal/race"
	"reactionrace/internal/records"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type saveRequest struct {
	GameID       string   `json:"game_id"`
	PlayerName   string   `json:"player_name"`
	Score        int      `json:"score"`
	ReactionTime *float64 `json:"reaction_time"`
}

type statsResponse struct {
	records.Stats
	Status string `json:"status"`
}

// archiveGame queues one record per seat with the final score and the
// player's fastest valid reaction of the game.
func archiveGame(w *records.Writer, snap race.Snapshot) {
	for _, p := range snap.Players {
		w.Enqueue(records.Record{
			GameID:       snap.ID,
			PlayerName:   p.Name,
			Score:        p.Score,
			ReactionTime: snap.BestReaction(p.ID),
		})
	}
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	top, err := s.Store.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.PlayerName = strings.TrimSpace(req.PlayerName)
	if req.PlayerName == "" {
		writeError(w, http.StatusBadRequest, "player_name is required")
		return
	}

	rec := records.Stamp(records.Record{
		GameID:       req.GameID,
		PlayerName:   req.PlayerName,
		Score:        req.Score,
		ReactionTime: req.ReactionTime,
	})
	if err := s.Store.Save(r.Context(), rec); err != nil {
		log.Error().Str("component", "server").Err(err).Msg("save record")
		writeError(w, http.StatusInternalServerError, "failed to save record")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handlePlayerHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	history, err := s.Store.PlayerHistory(r.Context(), chi.URLParam(r, "name"), limit)
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("player history")
		writeError(w, http.StatusInternalServerError, "failed to load player history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handlePlayerSummary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	history, err := s.Store.PlayerHistory(r.Context(), name, 0)
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("player summary")
		writeError(w, http.StatusInternalServerError, "failed to load player history")
		return
	}
	writeJSON(w, http.StatusOK, analytics.Summarize(name, history))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.Stats(r.Context())
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("stats")
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats, Status: "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseLimit reads ?limit=, defaulting to 10 and capping at 100. It writes
// the 400 itself when the value is not a positive integer.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return min(limit, maxLimit), true
}
