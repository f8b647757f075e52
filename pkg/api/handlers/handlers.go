package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cbodonnell/panchali/pkg/board"
	"github.com/cbodonnell/panchali/pkg/game"
	"github.com/cbodonnell/panchali/pkg/locale"
	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/messages"
	"github.com/cbodonnell/panchali/pkg/repositories"
	"github.com/cbodonnell/panchali/pkg/repositories/models"
	"github.com/cbodonnell/panchali/pkg/state"
	"github.com/cbodonnell/panchali/pkg/stories"
	"github.com/gorilla/mux"
)

// RoomView is the public view of a room. It never carries auth tokens.
type RoomView struct {
	Code        string                 `json:"code"`
	Status      models.RoomStatus      `json:"status"`
	HostName    string                 `json:"hostName"`
	CreatedAt   time.Time              `json:"createdAt"`
	Players     []messages.LobbyPlayer `json:"players"`
	CurrentTurn string                 `json:"currentTurn,omitempty"`
	IsGameOver  bool                   `json:"isGameOver"`
}

type StoryView struct {
	Type    stories.StoryType `json:"type"`
	TitleBn string            `json:"titleBn"`
	TitleEn string            `json:"titleEn"`
	Images  []string          `json:"images"`
}

func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

func HandleGetBoard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, board.Tiles())
	}
}

func HandleListStories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := stories.All()
		views := make([]StoryView, 0, len(all))
		for _, s := range all {
			views = append(views, StoryView{
				Type:    s.Type,
				TitleBn: s.TitleBn,
				TitleEn: s.TitleEn,
				Images:  s.ImagePaths(),
			})
		}
		writeJSON(w, views)
	}
}

func HandleGetRoom(repository repositories.Repository, states state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := locale.NormalizeRoomCode(mux.Vars(r)["code"])
		room, err := repository.GetRoomByCode(r.Context(), code)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Room not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get room %s: %v", code, err)
			http.Error(w, "Failed to get room", http.StatusInternalServerError)
			return
		}

		players, err := repository.ListPlayers(r.Context(), room.ID)
		if err != nil {
			log.Error("failed to list players of room %s: %v", code, err)
			http.Error(w, "Failed to list players", http.StatusInternalServerError)
			return
		}

		view := RoomView{
			Code:      room.Code,
			Status:    room.Status,
			HostName:  room.HostName,
			CreatedAt: room.CreatedAt,
			Players:   make([]messages.LobbyPlayer, 0, len(players)),
		}
		for _, p := range players {
			view.Players = append(view.Players, messages.LobbyPlayer{
				ID:          p.ID,
				Name:        p.Name,
				IsHost:      p.IsHost,
				IsConnected: p.ConnectionID != "",
				Position:    p.Position,
				Ballots:     p.Ballots,
			})
		}

		unlock := states.Lock(room.ID)
		if gs, ok := states.Get(r.Context(), room.ID); ok {
			view.CurrentTurn = game.CurrentPlayerID(gs)
			view.IsGameOver = gs.IsGameOver
			for i, lp := range view.Players {
				if ps, ok := gs.Player(lp.ID); ok {
					view.Players[i].Position = ps.Position
					view.Players[i].Ballots = ps.Ballots
					view.Players[i].IsConnected = ps.IsConnected
				}
			}
		}
		unlock()

		writeJSON(w, view)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
