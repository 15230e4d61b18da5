package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

func (api *API) handleListRooms(w http.ResponseWriter, r *http.Request) {
	filter := app.RoomFilter{
		Status: r.URL.Query().Get("status"),
		Code:   r.URL.Query().Get("code"),
	}
	rooms, err := api.rooms.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", rooms)
}

func (api *API) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	room, err := api.rooms.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", room)
}

func (api *API) handleGetRoomByCode(w http.ResponseWriter, r *http.Request) {
	room, err := api.rooms.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", room)
}

func (api *API) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var in struct {
		QuizID     *int64 `json:"quizId"`
		MaxPlayers int    `json:"maxPlayers"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	room, err := api.rooms.Create(r.Context(), requestUserID(r), in.QuizID, in.MaxPlayers)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "room created", room)
}

func (api *API) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	if in.Code == "" {
		respondError(w, domain.ErrValidation)
		return
	}
	room, err := api.rooms.Join(r.Context(), in.Code, requestUserID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "joined room", room)
}

func (api *API) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	room, deleted, err := api.rooms.Leave(r.Context(), id, requestUserID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if deleted {
		respond(w, http.StatusOK, "left room, room closed", nil)
		return
	}
	respond(w, http.StatusOK, "left room", room)
}

func (api *API) handleAssignQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var in struct {
		QuizID int64 `json:"quizId"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	room, err := api.rooms.AssignQuiz(r.Context(), id, requestUserID(r), in.QuizID)
	if err != nil {
		respondError(w, err)
		return
	}

	// Lobby members see the assignment without polling.
	api.hub.Broadcast(room.Code, Message{Type: "quiz-assigned", Payload: room})

	respond(w, http.StatusOK, "quiz assigned", room)
}

func (api *API) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := api.rooms.Delete(r.Context(), id, requestUserID(r)); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "room deleted", nil)
}

func (api *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	board, err := api.rooms.Leaderboard(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", board)
}
