package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quizroom/internal/app"
	"quizroom/internal/auth"
)

// API bundles the REST surface and its dependencies.
type API struct {
	auth    *app.AuthService
	quizzes *app.QuizService
	rooms   *app.RoomService
	tokens  *auth.TokenManager
	hub     *Hub
	ws      *WSHandler
	logger  *slog.Logger
	origin  string
}

func NewAPI(authSvc *app.AuthService, quizzes *app.QuizService, rooms *app.RoomService, tokens *auth.TokenManager, hub *Hub, ws *WSHandler, origin string, logger *slog.Logger) *API {
	return &API{
		auth:    authSvc,
		quizzes: quizzes,
		rooms:   rooms,
		tokens:  tokens,
		hub:     hub,
		ws:      ws,
		logger:  logger,
		origin:  origin,
	}
}

// Router mounts the full HTTP surface: REST under /api, the websocket
// endpoint at /ws, and a health probe.
func (api *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	origins := []string{"*"}
	if api.origin != "" {
		origins = []string{api.origin}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: api.origin != "",
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, "ok", nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", api.handleRegister)
			r.Post("/login", api.handleLogin)
			r.Group(func(r chi.Router) {
				r.Use(api.authenticate)
				r.Get("/profile", api.handleProfile)
				r.Put("/profile", api.handleUpdateProfile)
				r.Get("/users/{id}", api.handleGetUser)
			})
		})

		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/", api.handleListQuizzes)
			r.Get("/categories", api.handleCategories)
			r.Get("/{id}", api.handleGetQuiz)
			r.Group(func(r chi.Router) {
				r.Use(api.authenticate)
				r.Post("/", api.handleCreateQuiz)
				r.Post("/ai-generate", api.handleGenerateQuiz)
				r.Delete("/{id}", api.handleDeleteQuiz)
				r.Delete("/", api.handleDeleteAllQuizzes)
			})
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", api.handleListRooms)
			r.Get("/{id}", api.handleGetRoom)
			r.Get("/{id}/leaderboard", api.handleLeaderboard)
			r.Get("/code/{code}", api.handleGetRoomByCode)
			r.Group(func(r chi.Router) {
				r.Use(api.authenticate)
				r.Post("/", api.handleCreateRoom)
				r.Post("/join", api.handleJoinRoom)
				r.Delete("/{id}/leave", api.handleLeaveRoom)
				r.Put("/{id}/assign-quiz", api.handleAssignQuiz)
				r.Delete("/{id}", api.handleDeleteRoom)
			})
		})
	})

	r.Get("/ws", api.ws.ServeWS)

	return r
}
