package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"reactionrace/internal/wshub"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// handleEvents streams a room's events as server-sent events. The first
// event is a snapshot of the room at subscription time.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, _, err := s.Rooms.Subscribe(id)
	if err != nil {
		writeRoomError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	msgChan := b.Subscribe()
	defer b.Unsubscribe(msgChan)

	snap, err := s.Rooms.GetRoom(id)
	if err != nil {
		writeRoomError(w, err)
		return
	}
	initial, err := json.Marshal(snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encoding snapshot")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent(w, "snapshot", string(initial))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-b.Done():
			return
		case msg := <-msgChan:
			writeEvent(w, msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

// handleWebSocket joins a connection to the room's hub. Room events are
// pushed to it; the client may submit reactions with {"t":"react"}.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, hub, err := s.Rooms.Subscribe(id)
	if err != nil {
		writeRoomError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn().Str("component", "server").Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	client := &wshub.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 32),
	}
	if !hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "room closed")
		return
	}
	defer hub.Unregister(client.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		// Send is closed when the client leaves or the hub shuts down.
		client.WritePump(ctx)
		cancel()
	}()

	ip := clientIP(r)
	if snap, err := s.Rooms.GetRoom(id); err == nil {
		data, _ := json.Marshal(snap)
		hub.SendTo(client.ID, wshub.ServerMessage{Type: "welcome", RoomID: id, ClientID: client.ID, Data: data})
	}

	err = client.ReadPump(ctx, func(msg wshub.ClientMessage) {
		switch msg.Type {
		case "react":
			s.reactOverSocket(hub, client.ID, id, ip, msg)
		case "ping":
			hub.SendTo(client.ID, wshub.ServerMessage{Type: "pong"})
		default:
			hub.SendTo(client.ID, wshub.ServerMessage{Type: "error", Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) && websocket.CloseStatus(err) == -1 {
		log.Debug().Str("component", "server").Str("room", id).Str("client", client.ID).Err(err).Msg("websocket closed")
	}
}

func (s *Server) reactOverSocket(hub *wshub.Hub, clientID, roomID, ip string, msg wshub.ClientMessage) {
	if !s.Limiter.Allow(ip) {
		hub.SendTo(clientID, wshub.ServerMessage{Type: "error", Error: "too many reactions"})
		return
	}
	res, err := s.Rooms.RecordReaction(roomID, msg.PlayerID, msg.ReactionTime)
	if err != nil {
		hub.SendTo(clientID, wshub.ServerMessage{Type: "error", Error: err.Error()})
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("marshal reaction")
		return
	}
	hub.SendTo(clientID, wshub.ServerMessage{Type: "reacted", RoomID: roomID, Data: data})
}
