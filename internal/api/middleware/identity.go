package middleware

import (
	"context"
	"net/http"

	"github.com/mkarlin/mafiagame-go/internal/api/apierr"
	"github.com/mkarlin/mafiagame-go/internal/model"
)

type contextKey string

const playerIDContextKey contextKey = "player_id"

// PlayerIDHeader carries the caller's player identity. There are no
// accounts; clients mint an id once and present it on every request.
const PlayerIDHeader = "X-Player-ID"

// Identity creates middleware requiring a player id on the request, via
// the X-Player-ID header or, for EventSource connections that cannot set
// headers, the player_id query parameter.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			playerID := extractPlayerID(r)
			if playerID == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), playerIDContextKey, playerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractPlayerID(r *http.Request) model.PlayerID {
	if id := r.Header.Get(PlayerIDHeader); id != "" {
		return model.PlayerID(id)
	}
	return model.PlayerID(r.URL.Query().Get("player_id"))
}

// GetPlayerID retrieves the caller's player id from the context
func GetPlayerID(ctx context.Context) (model.PlayerID, bool) {
	id, ok := ctx.Value(playerIDContextKey).(model.PlayerID)
	return id, ok
}

// MustGetPlayerID retrieves the player id, panicking if absent. Only for
// handlers behind the Identity middleware.
func MustGetPlayerID(ctx context.Context) model.PlayerID {
	id, ok := GetPlayerID(ctx)
	if !ok {
		panic("player id not in context - Identity middleware missing")
	}
	return id
}
