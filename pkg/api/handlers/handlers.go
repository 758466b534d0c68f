package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mathsprint/mathsprint/pkg/game/types"
	"github.com/mathsprint/mathsprint/pkg/log"
	"github.com/mathsprint/mathsprint/pkg/version"
)

// StatusProvider hands out consistent copies of the current game state.
type StatusProvider interface {
	Snapshot() types.Snapshot
}

// StatusResponse is the JSON body served by /status.
type StatusResponse struct {
	Phase       string            `json:"phase"`
	PlayerCount int               `json:"playerCount"`
	Positions   map[uint32]int    `json:"positionsById"`
	Names       map[uint32]string `json:"namesById"`
}

func HandleStatus(game StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := game.Snapshot()
		response := StatusResponse{
			Phase:       snapshot.Phase.String(),
			PlayerCount: snapshot.PlayerCount(),
			Positions:   snapshot.Positions,
			Names:       snapshot.Names,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Error("failed to encode status: %v", err)
			http.Error(w, "Failed to encode status", http.StatusInternalServerError)
			return
		}
	}
}

func HandleVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(version.Get() + "\n"))
	}
}
