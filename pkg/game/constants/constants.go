package constants

const (
	// MinPlayers is the smallest roster that can start a game
	MinPlayers int = 2
	// MaxPlayers is the largest roster a room accepts
	MaxPlayers int = 4
	// StartingBallots is every player's ballot count when a game starts
	StartingBallots int = 0
	// StartingPosition is the tile every player starts on
	StartingPosition int = 0

	// DiceMin is the lowest face of the die
	DiceMin int = 1
	// DiceMax is the highest face of the die
	DiceMax int = 6

	// JailTileIndex is where go_to_jail sends a player
	JailTileIndex int = 14
	// JailTurns is how many of a player's turns are skipped after go_to_jail
	JailTurns int = 1
)

const (
	// RoomCodeLength is the number of characters in a room code
	RoomCodeLength = 6
	// RoomCodeChars excludes characters that are easy to misread
	RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)
