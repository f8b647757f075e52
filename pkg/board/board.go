package board

import "strings"

// TotalTiles is the number of tiles on the loop.
const TotalTiles = 28

type TileEffect string

const (
	EffectNone     TileEffect = "none"
	EffectGain     TileEffect = "gain"
	EffectLose     TileEffect = "lose"
	EffectMoveBack TileEffect = "move_back"
	EffectSurprise TileEffect = "surprise"
	EffectGoToJail TileEffect = "go_to_jail"
)

type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideCorner Side = "corner"
)

// Tile is one square of the board. NameBn may contain line breaks used
// by the board layout; use DisplayNameBn in prose.
type Tile struct {
	Index    int        `json:"index"`
	NameBn   string     `json:"nameBn"`
	NameEn   string     `json:"nameEn"`
	Effect   TileEffect `json:"effect"`
	Value    int        `json:"value"`
	IsCorner bool       `json:"isCorner"`
	Side     Side       `json:"side"`
}

// DisplayNameBn returns the Bengali name on a single line.
func (t Tile) DisplayNameBn() string {
	return strings.Join(strings.Fields(t.NameBn), " ")
}

var tiles = [TotalTiles]Tile{
	{Index: 0, NameBn: "যাত্রা শুরু", NameEn: "Journey Start", Effect: EffectNone, IsCorner: true, Side: SideCorner},

	{Index: 1, NameBn: "ধর পাকড়", NameEn: "Home Found", Effect: EffectLose, Value: 3, Side: SideTop},
	{Index: 2, NameBn: "স্বচ্ছতা", NameEn: "Transparency", Effect: EffectGain, Value: 3, Side: SideTop},
	{Index: 3, NameBn: "চোখ থাকতে \n অন্ধ", NameEn: "Eyes Open", Effect: EffectLose, Value: 2, Side: SideTop},
	{Index: 4, NameBn: "নাগরিকত্ববাদ", NameEn: "Citizenship", Effect: EffectGain, Value: 4, Side: SideTop},
	{Index: 5, NameBn: "দলকানা", NameEn: "Party Boss", Effect: EffectLose, Value: 4, Side: SideTop},
	{Index: 6, NameBn: "নিরাপত্তা", NameEn: "Security", Effect: EffectGain, Value: 3, Side: SideTop},

	{Index: 7, NameBn: "নির্বাচন কমিশন", NameEn: "Election Commission", Effect: EffectNone, IsCorner: true, Side: SideCorner},

	{Index: 8, NameBn: "ইলেকশন \n বয়কট", NameEn: "Election Boycott", Effect: EffectMoveBack, Value: 2, Side: SideRight},
	{Index: 9, NameBn: "ক্যাম্পেইন", NameEn: "Campaign", Effect: EffectGain, Value: 3, Side: SideRight},
	{Index: 10, NameBn: "উশকানি", NameEn: "Provocation", Effect: EffectLose, Value: 2, Side: SideRight},
	{Index: 11, NameBn: "মধ্যস্থতা", NameEn: "Mediation", Effect: EffectGain, Value: 2, Side: SideRight},
	{Index: 12, NameBn: "সমালোচনা", NameEn: "Criticism", Effect: EffectLose, Value: 2, Side: SideRight},
	{Index: 13, NameBn: "পর্যবেক্ষণ ও \n মতামত প্রদান", NameEn: "Observation & Opinion", Effect: EffectGain, Value: 2, Side: SideRight},

	{Index: 14, NameBn: "জেল", NameEn: "Jail", Effect: EffectNone, IsCorner: true, Side: SideCorner},

	{Index: 15, NameBn: "পক্ষপাতিত্ব", NameEn: "Resistance", Effect: EffectLose, Value: 3, Side: SideBottom},
	{Index: 16, NameBn: "হলুদ \n সাংবাদিকতা", NameEn: "Go to Jail", Effect: EffectGoToJail, Side: SideBottom},
	{Index: 17, NameBn: "ফ্যাক্ট চেকিং", NameEn: "Fact Checking", Effect: EffectGain, Value: 2, Side: SideBottom},
	{Index: 18, NameBn: "ভুয়া তথ্য", NameEn: "Fake Information", Effect: EffectLose, Value: 3, Side: SideBottom},
	{Index: 19, NameBn: "নেপথ্যের \n নায়ক", NameEn: "Real Hero", Effect: EffectGain, Value: 2, Side: SideBottom},
	{Index: 20, NameBn: "সঠিক তথ্য \n প্রচার", NameEn: "Correct Info Spread", Effect: EffectGain, Value: 2, Side: SideBottom},

	{Index: 21, NameBn: "সংসদ", NameEn: "Parliament", Effect: EffectNone, IsCorner: true, Side: SideCorner},

	{Index: 22, NameBn: "???", NameEn: "Surprise", Effect: EffectSurprise, Side: SideLeft},
	{Index: 23, NameBn: "গুজব", NameEn: "Rumor", Effect: EffectMoveBack, Value: 2, Side: SideLeft},
	{Index: 24, NameBn: "নতুন মুখ", NameEn: "New Face", Effect: EffectGain, Value: 3, Side: SideLeft},
	{Index: 25, NameBn: "দুর্নীতি", NameEn: "Corruption", Effect: EffectLose, Value: 3, Side: SideLeft},
	{Index: 26, NameBn: "জনসভা", NameEn: "Public Meeting", Effect: EffectGain, Value: 2, Side: SideLeft},
	{Index: 27, NameBn: "ইশতাহার", NameEn: "Manifesto", Effect: EffectGain, Value: 7, Side: SideLeft},
}

// Tiles returns a copy of the board in index order.
func Tiles() []Tile {
	out := make([]Tile, TotalTiles)
	copy(out, tiles[:])
	return out
}

// GetTile returns the tile at index modulo TotalTiles. Negative indices wrap.
func GetTile(index int) Tile {
	return tiles[Normalize(index)]
}

// Normalize maps any integer onto [0, TotalTiles).
func Normalize(index int) int {
	return ((index % TotalTiles) + TotalTiles) % TotalTiles
}

// TilesBySide returns the tiles on side in index order.
func TilesBySide(side Side) []Tile {
	var out []Tile
	for _, t := range tiles {
		if t.Side == side {
			out = append(out, t)
		}
	}
	return out
}

func CornerTiles() []Tile {
	var out []Tile
	for _, t := range tiles {
		if t.IsCorner {
			out = append(out, t)
		}
	}
	return out
}
