package http

import (
	"net/http"

	"quizroom/internal/app"
)

type authResponse struct {
	User  any    `json:"user"`
	Token string `json:"token"`
}

func (api *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in app.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	user, token, err := api.auth.Register(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "user registered", authResponse{User: user, Token: token})
}

func (api *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	user, token, err := api.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "login successful", authResponse{User: user, Token: token})
}

func (api *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := api.auth.Profile(r.Context(), requestUserID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", user)
}

// handleGetUser exposes the public view of another player, used by lobby UIs.
func (api *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	user, err := api.auth.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", user.Public())
}

func (api *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in app.UpdateProfileInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	user, err := api.auth.UpdateProfile(r.Context(), requestUserID(r), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "profile updated", user)
}
