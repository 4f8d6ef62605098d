package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"reactionrace/internal/race"
	"reactionrace/internal/records"
	"reactionrace/internal/rooms"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const (
	defaultPlayerCount = 2
	defaultRoundCount  = 3
	maxPlayerCount     = 8
	maxRoundCount      = 20
)

type Server struct {
	Rooms    *rooms.Registry
	Store    records.Store
	Gatherer prometheus.Gatherer
	// Limiter throttles reactions per client IP. nil disables it.
	Limiter   *ipLimiter
	StaticDir string
}

type createRequest struct {
	PlayerCount *int     `json:"player_count"`
	RoundCount  *int     `json:"round_count"`
	PlayerNames []string `json:"player_names"`
}

type reactRequest struct {
	GameID       string  `json:"game_id"`
	PlayerID     int     `json:"player_id"`
	ReactionTime float64 `json:"reaction_time"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	players, rounds := defaultPlayerCount, defaultRoundCount
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		// An unreadable body still creates a room with the defaults.
		log.Debug().Str("component", "server").Err(err).Msg("create body not decodable, using defaults")
		req = createRequest{}
	}
	if req.PlayerCount != nil {
		players = *req.PlayerCount
	}
	if req.RoundCount != nil {
		rounds = *req.RoundCount
	}
	if players < 1 || players > maxPlayerCount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("player_count must be between 1 and %d", maxPlayerCount))
		return
	}
	if rounds < 1 || rounds > maxRoundCount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("round_count must be between 1 and %d", maxRoundCount))
		return
	}

	snap, err := s.Rooms.CreateRoom(players, rounds, req.PlayerNames)
	if err != nil {
		writeRoomError(w, err)
		return
	}
	log.Info().Str("component", "server").Str("room", snap.ID).Int("players", players).Int("rounds", rounds).Msg("room created")
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Rooms.StartRound(chi.URLParam(r, "id"))
	if err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Rooms.TriggerSignal(chi.URLParam(r, "id"))
	if err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	var req reactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GameID == "" {
		writeError(w, http.StatusBadRequest, "game_id is required")
		return
	}
	if !s.Limiter.Allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many reactions")
		return
	}

	res, err := s.Rooms.RecordReaction(req.GameID, req.PlayerID, req.ReactionTime)
	if err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	res, err := s.Rooms.FinishRound(chi.URLParam(r, "id"))
	if err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Rooms.GetRoom(chi.URLParam(r, "id"))
	if err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Rooms.List())
}

// decodeJSON reads a request body of at most 64 KiB.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Str("component", "server").Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, rooms.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, race.ErrInvalidState),
		errors.Is(err, race.ErrUnknownPlayer),
		errors.Is(err, race.ErrDuplicateReaction):
		return http.StatusBadRequest
	case errors.Is(err, rooms.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeRoomError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Str("component", "server").Err(err).Msg("room operation failed")
	}
	writeError(w, status, err.Error())
}
