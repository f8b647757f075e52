package stories

import (
	"fmt"
	"sort"
)

type StoryType string

const (
	StoryRumor           StoryType = "Rumor"
	StorySurprise        StoryType = "Surprise"
	StoryElectionBoycott StoryType = "Election_Boycott"
	StoryJail            StoryType = "Jail"
)

// ImageBasePath is the URL prefix the client serves story slides from.
const ImageBasePath = "/stories"

type Story struct {
	Type    StoryType `json:"type"`
	TitleBn string    `json:"titleBn"`
	TitleEn string    `json:"titleEn"`
	Images  []string  `json:"images"`
}

var stories = map[StoryType]Story{
	StoryRumor: {
		Type:    StoryRumor,
		TitleBn: "গুজব",
		TitleEn: "Rumor",
		Images:  []string{"2.png", "3.png", "4.png", "5.png", "6.png", "7.png", "8.png", "9.png"},
	},
	StorySurprise: {
		Type:    StorySurprise,
		TitleBn: "???",
		TitleEn: "Surprise",
		Images:  []string{"12.png", "13.png"},
	},
	StoryElectionBoycott: {
		Type:    StoryElectionBoycott,
		TitleBn: "ইলেকশন বয়কট",
		TitleEn: "Election Boycott",
		Images:  []string{"25.png", "26.png", "27.png", "28.png", "29.png", "30.png", "31.png", "32.png", "33.png", "34.png"},
	},
	StoryJail: {
		Type:    StoryJail,
		TitleBn: "জেল",
		TitleEn: "Jail",
		Images:  []string{"16.png", "17.png", "18.png", "19.png", "20.png", "21.png", "22.png"},
	},
}

// tileStories maps landed tile indices to the story they trigger.
// 16 sends the player to jail, so it shares the jail slides with 14.
var tileStories = map[int]StoryType{
	8:  StoryElectionBoycott,
	14: StoryJail,
	16: StoryJail,
	22: StorySurprise,
	23: StoryRumor,
}

// ForTile returns the story triggered by landing on tileIndex, if any.
// Only exact indices in [0, 28) are looked up; there is no wrapping.
func ForTile(tileIndex int) (Story, bool) {
	storyType, ok := tileStories[tileIndex]
	if !ok {
		return Story{}, false
	}
	return Get(storyType)
}

func Get(storyType StoryType) (Story, bool) {
	s, ok := stories[storyType]
	if !ok {
		return Story{}, false
	}
	s.Images = append([]string(nil), s.Images...)
	return s, true
}

// All returns every story ordered by type name.
func All() []Story {
	out := make([]Story, 0, len(stories))
	for t := range stories {
		s, _ := Get(t)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// TileMap returns a copy of the tile index to story type mapping.
func TileMap() map[int]StoryType {
	out := make(map[int]StoryType, len(tileStories))
	for k, v := range tileStories {
		out[k] = v
	}
	return out
}

func ImagePath(storyType StoryType, imageName string) string {
	return fmt.Sprintf("%s/%s/%s", ImageBasePath, storyType, imageName)
}

// ImagePaths returns the full path of every slide in the story.
func (s Story) ImagePaths() []string {
	out := make([]string, len(s.Images))
	for i, img := range s.Images {
		out[i] = ImagePath(s.Type, img)
	}
	return out
}
