package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTilesAreIndexedInOrder(t *testing.T) {
	all := Tiles()
	require.Len(t, all, TotalTiles)
	for i, tile := range all {
		assert.Equal(t, i, tile.Index)
	}
}

func TestTilesReturnsCopy(t *testing.T) {
	all := Tiles()
	all[0].NameEn = "changed"
	assert.Equal(t, "Journey Start", GetTile(0).NameEn)
}

func TestGetTile(t *testing.T) {
	testCases := []struct {
		name     string
		index    int
		expected int
	}{
		{"start", 0, 0},
		{"last", 27, 27},
		{"wraps once", 28, 0},
		{"wraps further", 30, 2},
		{"negative", -1, 27},
		{"large negative", -57, 27},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GetTile(tc.index).Index)
		})
	}
}

func TestTileEffects(t *testing.T) {
	testCases := []struct {
		index  int
		effect TileEffect
		value  int
	}{
		{1, EffectLose, 3},
		{4, EffectGain, 4},
		{8, EffectMoveBack, 2},
		{16, EffectGoToJail, 0},
		{22, EffectSurprise, 0},
		{23, EffectMoveBack, 2},
		{27, EffectGain, 7},
	}

	for _, tc := range testCases {
		tile := GetTile(tc.index)
		assert.Equal(t, tc.effect, tile.Effect, "tile %d", tc.index)
		assert.Equal(t, tc.value, tile.Value, "tile %d", tc.index)
	}
}

func TestCornerTiles(t *testing.T) {
	corners := CornerTiles()
	require.Len(t, corners, 4)

	indices := []int{}
	for _, c := range corners {
		assert.Equal(t, SideCorner, c.Side)
		assert.Equal(t, EffectNone, c.Effect)
		indices = append(indices, c.Index)
	}
	assert.Equal(t, []int{0, 7, 14, 21}, indices)
}

func TestTilesBySide(t *testing.T) {
	total := len(CornerTiles())
	for _, side := range []Side{SideTop, SideRight, SideBottom, SideLeft} {
		tiles := TilesBySide(side)
		assert.Len(t, tiles, 6, "side %s", side)
		total += len(tiles)
	}
	assert.Equal(t, TotalTiles, total)
}

func TestDisplayNameBn(t *testing.T) {
	assert.Equal(t, "চোখ থাকতে অন্ধ", GetTile(3).DisplayNameBn())
	assert.Equal(t, "জেল", GetTile(14).DisplayNameBn())
}
