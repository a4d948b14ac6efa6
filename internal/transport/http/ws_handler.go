package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"quiz-room-service/internal/app"
)

// leaveTimeout bounds the persistence work done while detaching a connection.
const leaveTimeout = 5 * time.Second

type WSHandler struct {
	service  *app.RoomService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.RoomService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type      string   `json:"type"`
	AnswerIDs []string `json:"answer_ids,omitempty"`
}

type questionPayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type resultEntry struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
}

type outboundMessage struct {
	Type     string           `json:"type"`
	RoomCode string           `json:"room_code,omitempty"`
	Question *questionPayload `json:"question,omitempty"`
	Results  []resultEntry    `json:"results,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// ServeWS upgrades the request and binds the connection to its room: join on
// open, leave on any close. Leave always runs, so a dropped connection cannot
// stall the answered barrier for the rest of the room.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomCode := r.URL.Query().Get("room")
	player := r.URL.Query().Get("player")
	if roomCode == "" || player == "" {
		http.Error(w, "missing room or player", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "transport.ws").Msg("upgrade failed")
		return
	}
	defer conn.Close()

	joined, err := h.service.Join(r.Context(), roomCode, player)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Message: err.Error()})
		return
	}

	sub, cancel, err := h.service.Subscribe(roomCode)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Message: err.Error()})
		return
	}
	defer cancel()
	defer func() {
		// The request context is gone once the socket drops; leave gets its
		// own deadline so score persistence still completes.
		ctx, done := context.WithTimeout(context.Background(), leaveTimeout)
		defer done()
		h.service.Leave(ctx, roomCode, player)
	}()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("module", "transport.ws").Msg("write failed")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				select {
				case send <- toWire(event):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Lobby confirmation, or the current question when joining a running game.
	if joined.Catchup != nil {
		h.service.Unicast(roomCode, sub, app.Event{
			Type:     app.EventShowQuestion,
			RoomCode: roomCode,
			Question: joined.Catchup,
		})
	} else {
		h.service.Unicast(roomCode, sub, app.Event{
			Type:     app.EventStartGame,
			RoomCode: roomCode,
		})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var inbound inboundMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			log.Warn().Err(err).Str("module", "transport.ws").Str("room", roomCode).Msg("dropping undecodable message")
			continue
		}

		switch inbound.Type {
		case "start_game":
			if err := h.service.Start(r.Context(), roomCode, player); err != nil {
				send <- outboundMessage{Type: "error", Message: err.Error()}
			}
		case "submit_answer":
			if _, err := h.service.SubmitAnswer(r.Context(), roomCode, player, inbound.AnswerIDs); err != nil {
				send <- outboundMessage{Type: "error", Message: err.Error()}
			}
		default:
			send <- outboundMessage{Type: "error", Message: "unsupported message type"}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func toWire(event app.Event) outboundMessage {
	msg := outboundMessage{Type: string(event.Type), RoomCode: event.RoomCode}
	if event.Question != nil {
		msg.Question = &questionPayload{
			ID:   event.Question.ID,
			Text: event.Question.Text,
			Type: string(event.Question.Type),
		}
	}
	if event.Type == app.EventShowResults {
		msg.Results = make([]resultEntry, 0, len(event.Results))
		for _, entry := range event.Results {
			msg.Results = append(msg.Results, resultEntry{Player: entry.Player, Score: entry.Score})
		}
		msg.RoomCode = ""
	}
	return msg
}
