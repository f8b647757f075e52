package stories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForTile(t *testing.T) {
	testCases := []struct {
		tile     int
		expected StoryType
		found    bool
	}{
		{8, StoryElectionBoycott, true},
		{14, StoryJail, true},
		{16, StoryJail, true},
		{22, StorySurprise, true},
		{23, StoryRumor, true},
		{0, "", false},
		{5, "", false},
		{36, "", false},
		{-6, "", false},
	}

	for _, tc := range testCases {
		story, ok := ForTile(tc.tile)
		assert.Equal(t, tc.found, ok, "tile %d", tc.tile)
		assert.Equal(t, tc.expected, story.Type, "tile %d", tc.tile)
	}
}

func TestStoryImages(t *testing.T) {
	rumor, ok := Get(StoryRumor)
	require.True(t, ok)
	assert.Len(t, rumor.Images, 8)
	assert.Equal(t, "2.png", rumor.Images[0])

	boycott, ok := Get(StoryElectionBoycott)
	require.True(t, ok)
	assert.Len(t, boycott.Images, 10)

	jail, ok := Get(StoryJail)
	require.True(t, ok)
	assert.Len(t, jail.Images, 7)
}

func TestGetReturnsCopy(t *testing.T) {
	s, _ := Get(StorySurprise)
	s.Images[0] = "changed.png"

	again, _ := Get(StorySurprise)
	assert.Equal(t, "12.png", again.Images[0])
}

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, 4)
	assert.Equal(t, StoryElectionBoycott, all[0].Type)
}

func TestImagePath(t *testing.T) {
	assert.Equal(t, "/stories/Jail/16.png", ImagePath(StoryJail, "16.png"))

	s, _ := Get(StorySurprise)
	assert.Equal(t, []string{"/stories/Surprise/12.png", "/stories/Surprise/13.png"}, s.ImagePaths())
}

func TestTileMapReturnsCopy(t *testing.T) {
	m := TileMap()
	delete(m, 8)

	_, ok := ForTile(8)
	assert.True(t, ok)
}
