package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkarlin/mafiagame-go/internal/api/handler"
	"github.com/mkarlin/mafiagame-go/internal/api/middleware"
	"github.com/mkarlin/mafiagame-go/internal/services/matchmaking"
	"github.com/mkarlin/mafiagame-go/internal/services/session"
	"github.com/mkarlin/mafiagame-go/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	SessionController  *session.Controller
	MatchmakingService *matchmaking.Service
	HubManager         *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.SessionController, cfg.HubManager)
	gameHandler := handler.NewGameHandler(cfg.SessionController)
	matchmakingHandler := handler.NewMatchmakingHandler(cfg.MatchmakingService, cfg.HubManager)

	identityMiddleware := middleware.Identity()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no identity required)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Room routes
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(identityMiddleware)
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("", roomHandler.List).Methods(http.MethodGet)
	rooms.HandleFunc("/code/{code}", roomHandler.GetByCode).Methods(http.MethodGet)
	rooms.HandleFunc("/code/{code}/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{id}/leave", roomHandler.Leave).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/ready", roomHandler.Ready).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/kick", roomHandler.Kick).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/settings", roomHandler.UpdateSettings).Methods(http.MethodPatch)
	rooms.HandleFunc("/{id}/reset", roomHandler.Reset).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/events", roomHandler.Events).Methods(http.MethodGet)

	// In-game action routes
	rooms.HandleFunc("/{id}/start", gameHandler.Start).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/actions", gameHandler.NightAction).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/vote", gameHandler.Vote).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/chat", gameHandler.Chat).Methods(http.MethodPost)

	// Matchmaking routes
	queue := api.PathPrefix("/matchmaking").Subrouter()
	queue.Use(identityMiddleware)
	queue.HandleFunc("/queue", matchmakingHandler.Join).Methods(http.MethodPost)
	queue.HandleFunc("/queue", matchmakingHandler.Status).Methods(http.MethodGet)
	queue.HandleFunc("/queue", matchmakingHandler.Leave).Methods(http.MethodDelete)
	queue.HandleFunc("/events", matchmakingHandler.Events).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
