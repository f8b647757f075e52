package state

import (
	"context"
	"sync"
	"testing"

	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStateManager(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryStateManager()

	_, ok := m.Get(ctx, "room-1")
	assert.False(t, ok)

	assert.Error(t, m.Set(ctx, nil))
	assert.Error(t, m.Set(ctx, gametypes.NewGameState("", "ABC234")))

	gs := gametypes.NewGameState("room-1", "ABC234")
	require.NoError(t, m.Set(ctx, gs))
	require.NoError(t, m.Set(ctx, gametypes.NewGameState("room-0", "XYZ789")))

	got, ok := m.Get(ctx, "room-1")
	require.True(t, ok)
	assert.Same(t, gs, got)
	assert.Equal(t, []string{"room-0", "room-1"}, m.RoomIDs())
}

func TestInMemoryStateManager_LockSerializesRoom(t *testing.T) {
	m := NewInMemoryStateManager()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("room-1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestInMemoryStateManager_LockIsPerRoom(t *testing.T) {
	m := NewInMemoryStateManager()

	unlockA := m.Lock("room-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := m.Lock("room-b")
		unlockB()
		close(done)
	}()
	<-done
}
