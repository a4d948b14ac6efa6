package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

// RoomHandler exposes room creation. The room code is caller-supplied and only
// has to be unique among active rooms.
type RoomHandler struct {
	service *app.RoomService
}

func NewRoomHandler(service *app.RoomService) *RoomHandler {
	return &RoomHandler{service: service}
}

type createRoomRequest struct {
	RoomCode string `json:"room_code"`
	QuizID   string `json:"quiz_id"`
	Player   string `json:"player"`
}

type createRoomResponse struct {
	RoomCode string `json:"room_code"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if req.RoomCode == "" || req.QuizID == "" || req.Player == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "room_code, quiz_id and player are required"})
		return
	}

	if err := h.service.CreateRoom(r.Context(), req.RoomCode, req.QuizID, req.Player); err != nil {
		writeJSON(w, statusFor(err), errorResponse{Message: err.Error()})
		return
	}

	log.Info().Str("module", "transport.http").Str("room", req.RoomCode).
		Str("quiz", req.QuizID).Str("creator", req.Player).Msg("room created")
	writeJSON(w, http.StatusCreated, createRoomResponse{RoomCode: req.RoomCode})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoomExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotCreator):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
