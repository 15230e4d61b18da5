package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

func (api *API) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	filter := app.QuizFilter{
		Category:   r.URL.Query().Get("category"),
		Difficulty: r.URL.Query().Get("difficulty"),
	}
	if raw := r.URL.Query().Get("isAIGenerated"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, domain.ErrValidation)
			return
		}
		filter.IsAIGenerated = &v
	}

	quizzes, err := api.quizzes.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", quizzes)
}

func (api *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "", api.quizzes.Categories())
}

func (api *API) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	quiz, err := api.quizzes.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", quiz)
}

func (api *API) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var in app.CreateQuizInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	quiz, err := api.quizzes.Create(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "quiz created", quiz)
}

func (api *API) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var in app.AIQuizInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	quiz, err := api.quizzes.CreateWithAI(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "quiz generated", quiz)
}

func (api *API) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := api.quizzes.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "quiz deleted", nil)
}

func (api *API) handleDeleteAllQuizzes(w http.ResponseWriter, r *http.Request) {
	if err := api.quizzes.DeleteAll(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "all quizzes deleted", nil)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation
	}
	return id, nil
}
