// Package locale holds the bilingual (English and Bengali) text shown to
// players, plus the normalisation applied to player supplied names.
package locale

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the longest display name accepted, in runes.
const MaxNameLength = 32

var bn = message.NewPrinter(language.Bengali)

// Text is a message in both supported languages.
type Text struct {
	En string
	Bn string
}

func Gain(nameEn, nameBn string, value int) Text {
	return Text{
		En: fmt.Sprintf("Gained %d ballots from %s", value, nameEn),
		Bn: fmt.Sprintf("%s থেকে +%d টা ব্যালট পেলেন", nameBn, value),
	}
}

func Lose(nameEn, nameBn string, value int) Text {
	return Text{
		En: fmt.Sprintf("Lost %d ballots from %s", value, nameEn),
		Bn: fmt.Sprintf("%s থেকে -%d টা ব্যালট হারালেন", nameBn, value),
	}
}

func MoveBack(nameEn, nameBn string, value int) Text {
	return Text{
		En: fmt.Sprintf("Moved back %d spaces due to %s", value, nameEn),
		Bn: fmt.Sprintf("%s - %d ঘর পিছিয়ে গেলেন", nameBn, value),
	}
}

func Surprise(diceValue int) Text {
	return Text{
		En: fmt.Sprintf("Surprise! Gained %d ballots (dice value)", diceValue),
		Bn: fmt.Sprintf("বিস্ময়! ডাইস মান অনুযায়ী +%d টা ব্যালট পেলেন", diceValue),
	}
}

func GoToJail() Text {
	return Text{
		En: "Go to Jail! Skip next turn.",
		Bn: "জেলে যান! পরবর্তী পালা বাদ।",
	}
}

func Landed(nameEn, nameBn string) Text {
	return Text{
		En: fmt.Sprintf("Landed on %s", nameEn),
		Bn: fmt.Sprintf("%s তে অবতরণ করলেন", nameBn),
	}
}

// JailSkip describes a turn lost to jail; remaining is the count left after this one.
func JailSkip(remaining int) Text {
	t := Text{
		En: fmt.Sprintf("Skipping turn due to jail. %d turns remaining.", remaining),
		Bn: "জেলে থাকায় পালা বাদ। ",
	}
	if remaining > 0 {
		t.Bn += fmt.Sprintf("আরো %d পালা বাকি।", remaining)
	} else {
		t.Bn += "পরের পালায় খেলতে পারবেন।"
	}
	return t
}

func GameStarted() Text {
	return Text{En: "Game started", Bn: "খেলা শুরু হয়েছে!"}
}

func StateRestored() Text {
	return Text{En: "Game state restored", Bn: "গেম পুনরুদ্ধার করা হয়েছে"}
}

func Winner(name string) Text {
	return Text{
		En: fmt.Sprintf("%s wins! 🎉", name),
		Bn: fmt.Sprintf("%s বিজয়ী! 🎉", name),
	}
}

// BallotChange renders a signed ballot delta for display. Zero renders empty.
func BallotChange(change int) string {
	switch {
	case change > 0:
		return fmt.Sprintf("+%d টা ব্যালট", change)
	case change < 0:
		return fmt.Sprintf("%d টা ব্যালট", change)
	default:
		return ""
	}
}

// Error messages shown to players.
const (
	ErrRoomNotFound       = "কক্ষ খুঁজে পাওয়া যায়নি"
	ErrNameTaken          = "এই নাম ইতিমধ্যে ব্যবহৃত হয়েছে"
	ErrNameEmpty          = "নাম দিতে হবে"
	ErrNameTooLong        = "নাম অনেক বড়"
	ErrGameAlreadyStarted = "খেলা ইতিমধ্যে শুরু হয়ে গেছে"
	ErrNotHost            = "শুধুমাত্র হোস্ট খেলা শুরু করতে পারেন"
	ErrGameNotFound       = "খেলা খুঁজে পাওয়া যায়নি"
	ErrGameOver           = "খেলা শেষ হয়ে গেছে"
	ErrNotYourTurn        = "এখন আপনার পালা নয়"
	ErrRollFailed         = "ডাইস রোল করতে সমস্যা হয়েছে"
	ErrInvalidRequest     = "অনুরোধটি সঠিক নয়"
	ErrInternal           = "সার্ভারে সমস্যা হয়েছে"
)

// RoomFull renders the room full error with the limit in Bengali digits.
func RoomFull(maxPlayers int) string {
	return bn.Sprintf("কক্ষ পূর্ণ (সর্বোচ্চ %d জন)", maxPlayers)
}

// MinPlayers renders the minimum player error with the limit in Bengali digits.
func MinPlayers(minPlayers int) string {
	return bn.Sprintf("সর্বনিম্ন %d জন খেলোয়াড় প্রয়োজন", minPlayers)
}

// NormalizeName trims a display name, collapses inner whitespace and
// composes it to NFC so visually identical Bengali names compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}

// ValidateName returns the Bengali error for an unusable normalized name, or "".
func ValidateName(name string) string {
	switch {
	case name == "":
		return ErrNameEmpty
	case utf8.RuneCountInString(name) > MaxNameLength:
		return ErrNameTooLong
	default:
		return ""
	}
}

// NormalizeRoomCode uppercases and trims a room code typed by a player.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
