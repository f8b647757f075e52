package state

import (
	"context"
	"fmt"
	"sort"
	"sync"

	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
)

type InMemoryStateManager struct {
	lock  sync.RWMutex
	games map[string]*gametypes.GameState
	rooms map[string]*sync.Mutex
}

func NewInMemoryStateManager() *InMemoryStateManager {
	return &InMemoryStateManager{
		games: make(map[string]*gametypes.GameState),
		rooms: make(map[string]*sync.Mutex),
	}
}

func (m *InMemoryStateManager) Get(ctx context.Context, roomID string) (*gametypes.GameState, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	gs, ok := m.games[roomID]
	return gs, ok
}

func (m *InMemoryStateManager) Set(ctx context.Context, gameState *gametypes.GameState) error {
	if gameState == nil {
		return fmt.Errorf("game state is nil")
	}
	if gameState.RoomID == "" {
		return fmt.Errorf("game state has no room id")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.games[gameState.RoomID] = gameState
	return nil
}

// Lock blocks until the room is free. Every room locked gets a mutex that
// is never removed, so callers only lock rooms that exist.
func (m *InMemoryStateManager) Lock(roomID string) func() {
	m.lock.Lock()
	mu, ok := m.rooms[roomID]
	if !ok {
		mu = &sync.Mutex{}
		m.rooms[roomID] = mu
	}
	m.lock.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (m *InMemoryStateManager) RoomIDs() []string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
